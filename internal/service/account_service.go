package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vaultline/account-service/internal/domain"
	"github.com/vaultline/account-service/internal/events"
	"github.com/vaultline/account-service/internal/repository"
)

const (
	maxAccountsPerUser = 10
	firstAccountNumber = "1000000000"
)

// AccountService handles account lifecycle: open, close, list. Accounts are
// never deleted; closing sets the CLOSED status and requires a zero balance.
type AccountService struct {
	users     UserStore
	accounts  AccountStore
	publisher EventPublisher
	logger    *zap.Logger

	now func() time.Time
}

func NewAccountService(users UserStore, accounts AccountStore, publisher EventPublisher, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:     users,
		accounts:  accounts,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateAccount opens a new account for the user with the given initial
// balance. Account numbers are 10-digit and sequential.
func (s *AccountService) CreateAccount(ctx context.Context, userID, initialBalance int64) (*domain.Account, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.translate("create account", err, domain.CodeUserNotFound)
	}

	count, err := s.accounts.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.internal("create account", err)
	}
	if count >= maxAccountsPerUser {
		return nil, domain.NewError(domain.CodeMaxAccountsPerUser)
	}

	number, err := s.nextAccountNumber(ctx)
	if err != nil {
		return nil, s.internal("create account", err)
	}

	account := &domain.Account{
		UserID:        user.ID,
		AccountNumber: number,
		Status:        domain.AccountStatusActive,
		Balance:       initialBalance,
		RegisteredAt:  s.now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, s.internal("create account", err)
	}

	s.publishAccountEvent(ctx, events.AccountCreated, account)
	return account, nil
}

// CloseAccount marks the account CLOSED. Only the owner may close it, it must
// still be open, and the balance must be zero.
func (s *AccountService) CloseAccount(ctx context.Context, userID int64, accountNumber string) (*domain.Account, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.translate("close account", err, domain.CodeUserNotFound)
	}

	account, err := s.accounts.FindByNumber(ctx, accountNumber)
	if err != nil {
		return nil, s.translate("close account", err, domain.CodeAccountNotFound)
	}

	if account.UserID != user.ID {
		return nil, domain.NewError(domain.CodeOwnerAccountMismatch)
	}
	if account.Status == domain.AccountStatusClosed {
		return nil, domain.NewError(domain.CodeAccountAlreadyClosed)
	}
	if account.Balance > 0 {
		return nil, domain.NewError(domain.CodeBalanceNotEmpty)
	}

	closedAt := s.now()
	account.Status = domain.AccountStatusClosed
	account.UnregisteredAt = &closedAt
	if err := s.accounts.UpdateStatus(ctx, account); err != nil {
		return nil, s.internal("close account", err)
	}

	s.publishAccountEvent(ctx, events.AccountClosed, account)
	return account, nil
}

// GetAccountsByUserID lists all of a user's accounts.
func (s *AccountService) GetAccountsByUserID(ctx context.Context, userID int64) ([]domain.Account, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.translate("list accounts", err, domain.CodeUserNotFound)
	}

	accounts, err := s.accounts.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.internal("list accounts", err)
	}
	return accounts, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	latest, err := s.accounts.LatestAccountNumber(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return firstAccountNumber, nil
	}
	if err != nil {
		return "", err
	}
	n, err := strconv.ParseInt(latest, 10, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n+1, 10), nil
}

func (s *AccountService) publishAccountEvent(ctx context.Context, eventType string, account *domain.Account) {
	event := events.AccountEvent{AccountNumber: account.AccountNumber, UserID: account.UserID}
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// translate maps a repository not-found onto notFoundCode, masks other
// non-domain errors, and passes domain errors through.
func (s *AccountService) translate(op string, err error, notFoundCode domain.ErrorCode) error {
	var aerr *domain.AccountError
	switch {
	case errors.As(err, &aerr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return domain.NewError(notFoundCode)
	default:
		return s.internal(op, err)
	}
}

func (s *AccountService) internal(op string, err error) error {
	s.logger.Error(op+" failed", zap.Error(err))
	return domain.NewError(domain.CodeInternalError)
}
