package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "USE"
	TransactionTypeCancel TransactionType = "CANCEL"
)

type TransactionResult string

const (
	TransactionResultSuccess TransactionResult = "SUCCESS"
	TransactionResultFailure TransactionResult = "FAILURE"
)

// Transaction is one row of the append-only audit log. A record is written
// once per attempt, including failed use attempts, and never updated.
//
// TransactionID is the caller-facing business id; ID is the internal row key.
// OriginalTransactionID links a CANCEL record to the USE record it reverses.
type Transaction struct {
	ID                    int64             `json:"-"`
	Type                  TransactionType   `json:"transactionType"`
	Result                TransactionResult `json:"transactionResult"`
	AccountID             int64             `json:"-"`
	AccountNumber         string            `json:"accountNumber"`
	Amount                int64             `json:"amount"`
	BalanceSnapshot       int64             `json:"balanceSnapshot"`
	TransactionID         string            `json:"transactionId"`
	OriginalTransactionID string            `json:"-"`
	TransactedAt          time.Time         `json:"transactedAt"`
	CreatedAt             time.Time         `json:"-"`
}

// NewTransactionID returns a fresh 32-character business transaction id.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
