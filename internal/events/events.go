package events

import "time"

// Event types
const (
	AccountCreated = "account.created"
	AccountClosed  = "account.closed"

	BalanceUsed     = "balance.used"
	BalanceCanceled = "balance.canceled"
)

// Stream names
const (
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        int64  `json:"userId"`
}

type BalanceEvent struct {
	TransactionID   string `json:"transactionId"`
	AccountNumber   string `json:"accountNumber"`
	Amount          int64  `json:"amount"`
	BalanceSnapshot int64  `json:"balanceSnapshot"`
}
