package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vaultline/account-service/internal/domain"
	"github.com/vaultline/account-service/internal/events"
	"github.com/vaultline/account-service/internal/lock"
	"github.com/vaultline/account-service/internal/repository"
)

// cancelWindow is how far back a successful use can still be reversed.
const cancelWindow = time.Hour * 24 * 365

// UserStore looks up account owners.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.AccountUser, error)
}

// AccountStore is the account persistence the services depend on.
type AccountStore interface {
	FindByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	FindByUserID(ctx context.Context, userID int64) ([]domain.Account, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	LatestAccountNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdateStatus(ctx context.Context, account *domain.Account) error
}

// TransactionStore is the append-only transaction log.
type TransactionStore interface {
	Append(ctx context.Context, record *domain.Transaction) error
	SaveWithBalance(ctx context.Context, account *domain.Account, record *domain.Transaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ExistsCancelFor(ctx context.Context, transactionID string) (bool, error)
}

// EventPublisher emits domain events after successful operations.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// TransactionService coordinates every balance mutation. Each use/cancel runs
// its whole validate-mutate-log sequence while holding the distributed lock
// for the target account number; QueryTransaction reads without the lock.
type TransactionService struct {
	users        UserStore
	accounts     AccountStore
	transactions TransactionStore
	locker       lock.Locker
	publisher    EventPublisher
	logger       *zap.Logger

	// now is swappable for the cancellation-window tests.
	now func() time.Time
}

func NewTransactionService(
	users UserStore,
	accounts AccountStore,
	transactions TransactionStore,
	locker lock.Locker,
	publisher EventPublisher,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// UseBalance debits amount from the user's account and appends a SUCCESS
// record. When the amount exceeds the balance, a FAILURE record is appended
// before the error surfaces; all other validation failures leave no trace.
func (s *TransactionService) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
	var record *domain.Transaction
	err := s.locker.WithLock(ctx, accountNumber, func(ctx context.Context) error {
		var err error
		record, err = s.useBalance(ctx, userID, accountNumber, amount)
		return err
	})
	if err != nil {
		return nil, s.mapError("use balance", err)
	}
	return record, nil
}

func (s *TransactionService) useBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.CodeUserNotFound)
		}
		return nil, err
	}

	account, err := s.accounts.FindByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.CodeAccountNotFound)
		}
		return nil, err
	}

	if account.UserID != user.ID {
		return nil, domain.NewError(domain.CodeOwnerAccountMismatch)
	}
	if account.Status != domain.AccountStatusActive {
		return nil, domain.NewError(domain.CodeAccountAlreadyClosed)
	}

	if amount > account.Balance {
		s.saveFailedUse(ctx, account, amount)
		return nil, domain.NewError(domain.CodeAmountExceedsBalance)
	}

	if err := account.UseBalance(amount); err != nil {
		return nil, err
	}

	record := s.newRecord(domain.TransactionTypeUse, domain.TransactionResultSuccess, account, amount)
	if err := s.transactions.SaveWithBalance(ctx, account, record); err != nil {
		return nil, err
	}

	s.publish(ctx, events.BalanceUsed, record)
	return record, nil
}

// CancelBalance reverses a prior successful use in full, crediting the exact
// original amount back and appending a SUCCESS CANCEL record that references
// the original business transaction id.
func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
	var record *domain.Transaction
	err := s.locker.WithLock(ctx, accountNumber, func(ctx context.Context) error {
		var err error
		record, err = s.cancelBalance(ctx, transactionID, accountNumber, amount)
		return err
	})
	if err != nil {
		return nil, s.mapError("cancel balance", err)
	}
	return record, nil
}

func (s *TransactionService) cancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
	original, err := s.transactions.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.CodeTransactionNotFound)
		}
		return nil, err
	}

	account, err := s.accounts.FindByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.CodeAccountNotFound)
		}
		return nil, err
	}

	if original.AccountID != account.ID {
		return nil, domain.NewError(domain.CodeTransactionAccountMismatch)
	}
	if original.Type != domain.TransactionTypeUse || original.Result != domain.TransactionResultSuccess {
		return nil, domain.NewErrorf(domain.CodeInvalidRequest, "only a successful use transaction can be canceled")
	}

	canceled, err := s.transactions.ExistsCancelFor(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if canceled {
		return nil, domain.NewError(domain.CodeTransactionAlreadyCanceled)
	}

	if original.Amount != amount {
		return nil, domain.NewError(domain.CodeCancelMustBeFull)
	}
	if original.TransactedAt.Before(s.now().Add(-cancelWindow)) {
		return nil, domain.NewError(domain.CodeCancellationWindowExpired)
	}

	if err := account.CancelBalance(amount); err != nil {
		return nil, err
	}

	record := s.newRecord(domain.TransactionTypeCancel, domain.TransactionResultSuccess, account, amount)
	record.OriginalTransactionID = original.TransactionID
	if err := s.transactions.SaveWithBalance(ctx, account, record); err != nil {
		return nil, err
	}

	s.publish(ctx, events.BalanceCanceled, record)
	return record, nil
}

// QueryTransaction returns a record by its business transaction id. Reads do
// not take the account lock.
func (s *TransactionService) QueryTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	record, err := s.transactions.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.CodeTransactionNotFound)
		}
		return nil, s.mapError("query transaction", err)
	}
	return record, nil
}

// saveFailedUse appends the FAILURE audit record for an over-balance use
// attempt. The snapshot is the unchanged balance. A failed append is logged
// only; the caller still gets the balance error.
func (s *TransactionService) saveFailedUse(ctx context.Context, account *domain.Account, amount int64) {
	record := s.newRecord(domain.TransactionTypeUse, domain.TransactionResultFailure, account, amount)
	if err := s.transactions.Append(ctx, record); err != nil {
		s.logger.Error("failed to record use failure",
			zap.String("accountNumber", account.AccountNumber), zap.Error(err))
	}
}

func (s *TransactionService) newRecord(txType domain.TransactionType, result domain.TransactionResult, account *domain.Account, amount int64) *domain.Transaction {
	return &domain.Transaction{
		Type:            txType,
		Result:          result,
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactionID:   domain.NewTransactionID(),
		TransactedAt:    s.now(),
	}
}

func (s *TransactionService) publish(ctx context.Context, eventType string, record *domain.Transaction) {
	event := events.BalanceEvent{
		TransactionID:   record.TransactionID,
		AccountNumber:   record.AccountNumber,
		Amount:          record.Amount,
		BalanceSnapshot: record.BalanceSnapshot,
	}
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, eventType, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// mapError passes domain errors through untouched, turns a lock timeout into
// its domain code, and masks everything else as an internal error.
func (s *TransactionService) mapError(op string, err error) error {
	var aerr *domain.AccountError
	switch {
	case errors.As(err, &aerr):
		return err
	case errors.Is(err, lock.ErrLockTimeout):
		return domain.NewError(domain.CodeLockTimeout)
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		return domain.NewError(domain.CodeInternalError)
	}
}
