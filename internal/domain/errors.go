package domain

import "errors"

// ErrorCode is the stable, caller-facing code attached to every domain error.
type ErrorCode string

const (
	CodeUserNotFound               ErrorCode = "USER_NOT_FOUND"
	CodeAccountNotFound            ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeOwnerAccountMismatch       ErrorCode = "USER_ACCOUNT_MISMATCH"
	CodeAccountAlreadyClosed       ErrorCode = "ACCOUNT_ALREADY_CLOSED"
	CodeAmountExceedsBalance       ErrorCode = "AMOUNT_EXCEEDS_BALANCE"
	CodeMaxAccountsPerUser         ErrorCode = "MAX_ACCOUNTS_PER_USER"
	CodeBalanceNotEmpty            ErrorCode = "BALANCE_NOT_EMPTY"
	CodeLockTimeout                ErrorCode = "ACCOUNT_TRANSACTION_LOCK"
	CodeTransactionNotFound        ErrorCode = "TRANSACTION_NOT_FOUND"
	CodeTransactionAccountMismatch ErrorCode = "TRANSACTION_ACCOUNT_MISMATCH"
	CodeTransactionAlreadyCanceled ErrorCode = "TRANSACTION_ALREADY_CANCELED"
	CodeCancelMustBeFull           ErrorCode = "CANCEL_MUST_BE_FULL"
	CodeCancellationWindowExpired  ErrorCode = "CANCELLATION_WINDOW_EXPIRED"
	CodeInvalidRequest             ErrorCode = "INVALID_REQUEST"
	CodeInternalError              ErrorCode = "INTERNAL_SERVER_ERROR"
)

var messages = map[ErrorCode]string{
	CodeUserNotFound:               "user not found",
	CodeAccountNotFound:            "account not found",
	CodeOwnerAccountMismatch:       "account does not belong to the user",
	CodeAccountAlreadyClosed:       "account is already closed",
	CodeAmountExceedsBalance:       "amount exceeds account balance",
	CodeMaxAccountsPerUser:         "user already holds the maximum number of accounts",
	CodeBalanceNotEmpty:            "account balance must be zero",
	CodeLockTimeout:                "account is locked by another transaction",
	CodeTransactionNotFound:        "transaction not found",
	CodeTransactionAccountMismatch: "transaction does not belong to the account",
	CodeTransactionAlreadyCanceled: "transaction has already been canceled",
	CodeCancelMustBeFull:           "partial cancellation is not allowed",
	CodeCancellationWindowExpired:  "transaction is too old to cancel",
	CodeInvalidRequest:             "invalid request",
	CodeInternalError:              "internal server error",
}

// AccountError is the error type returned by every service operation.
// Callers branch on Code; Message is safe to surface to API clients.
type AccountError struct {
	Code    ErrorCode
	Message string
}

func (e *AccountError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError builds an AccountError with the default message for code.
func NewError(code ErrorCode) *AccountError {
	return &AccountError{Code: code, Message: messages[code]}
}

// NewErrorf builds an AccountError with a custom message.
func NewErrorf(code ErrorCode, message string) *AccountError {
	return &AccountError{Code: code, Message: message}
}

// CodeOf extracts the ErrorCode from err, or CodeInternalError for
// anything that is not an AccountError.
func CodeOf(err error) ErrorCode {
	var aerr *AccountError
	if errors.As(err, &aerr) {
		return aerr.Code
	}
	return CodeInternalError
}
