package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vaultline/account-service/internal/domain"
)

// AccountRepository handles account rows in the PostgreSQL write store.
// Balance updates that accompany a transaction record go through
// TransactionRepository.SaveWithBalance so both writes share one DB
// transaction.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, account_number, status, balance, registered_at, unregistered_at, created_at, updated_at`

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var account domain.Account
	var unregisteredAt sql.NullTime
	err := row.Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Status,
		&account.Balance, &account.RegisteredAt, &unregisteredAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	if unregisteredAt.Valid {
		account.UnregisteredAt = &unregisteredAt.Time
	}
	return &account, nil
}

func (r *AccountRepository) FindByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
}

func (r *AccountRepository) FindByUserID(ctx context.Context, userID int64) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		var unregisteredAt sql.NullTime
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.AccountNumber, &account.Status,
			&account.Balance, &account.RegisteredAt, &unregisteredAt,
			&account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if unregisteredAt.Valid {
			account.UnregisteredAt = &unregisteredAt.Time
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// LatestAccountNumber returns the most recently issued account number, or
// ErrNotFound when no account exists yet.
func (r *AccountRepository) LatestAccountNumber(ctx context.Context) (string, error) {
	var number string
	err := r.db.QueryRowContext(ctx, `SELECT account_number FROM accounts ORDER BY id DESC LIMIT 1`).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find latest account number: %w", err)
	}
	return number, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (user_id, account_number, status, balance, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.AccountNumber, account.Status,
		account.Balance, account.RegisteredAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// UpdateStatus persists a status change, e.g. closing an account.
func (r *AccountRepository) UpdateStatus(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET status = $1, unregistered_at = $2, updated_at = now()
		WHERE id = $3
	`
	var unregisteredAt sql.NullTime
	if account.UnregisteredAt != nil {
		unregisteredAt = sql.NullTime{Time: *account.UnregisteredAt, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, account.Status, unregisteredAt, account.ID); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}
