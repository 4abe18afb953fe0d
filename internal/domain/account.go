package domain

import "time"

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account is the balance-holding aggregate. Balance is kept in the smallest
// currency unit and is only ever mutated through UseBalance and CancelBalance,
// which enforce the non-negative invariant.
type Account struct {
	ID             int64         `json:"-"`
	UserID         int64         `json:"userId"`
	AccountNumber  string        `json:"accountNumber"`
	Status         AccountStatus `json:"-"`
	Balance        int64         `json:"balance"`
	RegisteredAt   time.Time     `json:"registeredAt"`
	UnregisteredAt *time.Time    `json:"unregisteredAt,omitempty"`
	CreatedAt      time.Time     `json:"-"`
	UpdatedAt      time.Time     `json:"-"`
}

// UseBalance debits amount from the account. The debit is rejected when it
// would take the balance below zero.
func (a *Account) UseBalance(amount int64) error {
	if amount > a.Balance {
		return NewError(CodeAmountExceedsBalance)
	}
	a.Balance -= amount
	return nil
}

// CancelBalance credits amount back to the account.
func (a *Account) CancelBalance(amount int64) error {
	if amount < 0 {
		return NewErrorf(CodeInvalidRequest, "cancel amount must not be negative")
	}
	a.Balance += amount
	return nil
}
