package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vaultline/account-service/internal/domain"
)

const transactionViewKeyPrefix = "transaction:view:"

// transactionView is the cached projection of a transaction record. Records
// are immutable once written, so a cached view never goes stale; the cache
// only exists to keep QueryTransaction off the write store.
type transactionView struct {
	ID                    int64     `json:"id"`
	Type                  string    `json:"type"`
	Result                string    `json:"result"`
	AccountID             int64     `json:"accountId"`
	AccountNumber         string    `json:"accountNumber"`
	Amount                int64     `json:"amount"`
	BalanceSnapshot       int64     `json:"balanceSnapshot"`
	TransactionID         string    `json:"transactionId"`
	OriginalTransactionID string    `json:"originalTransactionId,omitempty"`
	TransactedAt          time.Time `json:"transactedAt"`
}

// TransactionRepository is the append-only transaction log. Rows are inserted
// once and never updated or deleted.
type TransactionRepository struct {
	db    *sql.DB
	cache *viewCache[transactionView]
}

func NewTransactionRepository(db *sql.DB, redisClient goredis.UniversalClient, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:    db,
		cache: newViewCache[transactionView](redisClient, 0, logger),
	}
}

const insertTransaction = `
	INSERT INTO transactions
		(transaction_type, transaction_result, account_id, amount, balance_snapshot,
		 transaction_id, original_transaction_id, transacted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at
`

// Append writes a single record without touching any account row. Used for
// FAILURE records, which leave the balance unchanged.
func (r *TransactionRepository) Append(ctx context.Context, record *domain.Transaction) error {
	err := r.db.QueryRowContext(ctx, insertTransaction,
		record.Type, record.Result, record.AccountID, record.Amount,
		record.BalanceSnapshot, record.TransactionID,
		nullString(record.OriginalTransactionID), record.TransactedAt,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	r.warmCache(ctx, record)
	return nil
}

// SaveWithBalance appends a record and persists the account's new balance in
// one database transaction. The per-account lock serializes callers; this
// keeps the two writes atomic with respect to each other.
func (r *TransactionRepository) SaveWithBalance(ctx context.Context, account *domain.Account, record *domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`,
		account.Balance, account.ID,
	); err != nil {
		return fmt.Errorf("failed to persist balance: %w", err)
	}

	if err := tx.QueryRowContext(ctx, insertTransaction,
		record.Type, record.Result, record.AccountID, record.Amount,
		record.BalanceSnapshot, record.TransactionID,
		nullString(record.OriginalTransactionID), record.TransactedAt,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.warmCache(ctx, record)
	return nil
}

// FindByTransactionID looks a record up by its business transaction id,
// Redis first, PostgreSQL on a miss.
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if view, ok := r.cache.Get(ctx, transactionViewKeyPrefix+transactionID); ok {
		return viewToRecord(view), nil
	}

	query := `
		SELECT t.id, t.transaction_type, t.transaction_result, t.account_id,
		       a.account_number, t.amount, t.balance_snapshot, t.transaction_id,
		       t.original_transaction_id, t.transacted_at, t.created_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.transaction_id = $1
	`
	var record domain.Transaction
	var originalID sql.NullString
	err := r.db.QueryRowContext(ctx, query, transactionID).Scan(
		&record.ID, &record.Type, &record.Result, &record.AccountID,
		&record.AccountNumber, &record.Amount, &record.BalanceSnapshot,
		&record.TransactionID, &originalID, &record.TransactedAt, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	if originalID.Valid {
		record.OriginalTransactionID = originalID.String
	}
	r.warmCache(ctx, &record)
	return &record, nil
}

// ExistsCancelFor reports whether a CANCEL record already references the
// given business transaction id.
func (r *TransactionRepository) ExistsCancelFor(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE original_transaction_id = $1)`,
		transactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cancel record: %w", err)
	}
	return exists, nil
}

func (r *TransactionRepository) warmCache(ctx context.Context, record *domain.Transaction) {
	r.cache.Set(ctx, transactionViewKeyPrefix+record.TransactionID, recordToView(record))
}

func recordToView(record *domain.Transaction) *transactionView {
	return &transactionView{
		ID:                    record.ID,
		Type:                  string(record.Type),
		Result:                string(record.Result),
		AccountID:             record.AccountID,
		AccountNumber:         record.AccountNumber,
		Amount:                record.Amount,
		BalanceSnapshot:       record.BalanceSnapshot,
		TransactionID:         record.TransactionID,
		OriginalTransactionID: record.OriginalTransactionID,
		TransactedAt:          record.TransactedAt,
	}
}

func viewToRecord(view *transactionView) *domain.Transaction {
	return &domain.Transaction{
		ID:                    view.ID,
		Type:                  domain.TransactionType(view.Type),
		Result:                domain.TransactionResult(view.Result),
		AccountID:             view.AccountID,
		AccountNumber:         view.AccountNumber,
		Amount:                view.Amount,
		BalanceSnapshot:       view.BalanceSnapshot,
		TransactionID:         view.TransactionID,
		OriginalTransactionID: view.OriginalTransactionID,
		TransactedAt:          view.TransactedAt,
	}
}
