package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaultline/account-service/internal/domain"
)

// ErrorResponse is the body returned for every failed operation.
type ErrorResponse struct {
	ErrorCode    domain.ErrorCode `json:"errorCode"`
	ErrorMessage string           `json:"errorMessage"`
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeUserNotFound:               http.StatusNotFound,
	domain.CodeAccountNotFound:            http.StatusNotFound,
	domain.CodeTransactionNotFound:        http.StatusNotFound,
	domain.CodeOwnerAccountMismatch:       http.StatusForbidden,
	domain.CodeTransactionAccountMismatch: http.StatusForbidden,
	domain.CodeAccountAlreadyClosed:       http.StatusConflict,
	domain.CodeTransactionAlreadyCanceled: http.StatusConflict,
	domain.CodeLockTimeout:                http.StatusConflict,
	domain.CodeAmountExceedsBalance:       http.StatusUnprocessableEntity,
	domain.CodeCancelMustBeFull:           http.StatusUnprocessableEntity,
	domain.CodeCancellationWindowExpired:  http.StatusUnprocessableEntity,
	domain.CodeMaxAccountsPerUser:         http.StatusUnprocessableEntity,
	domain.CodeBalanceNotEmpty:            http.StatusUnprocessableEntity,
	domain.CodeInvalidRequest:             http.StatusBadRequest,
}

// respondError maps a domain error code to an HTTP status. Anything that is
// not an AccountError reads as an internal error.
func respondError(c *gin.Context, err error) {
	var aerr *domain.AccountError
	if !errors.As(err, &aerr) {
		aerr = domain.NewError(domain.CodeInternalError)
	}

	status, ok := statusByCode[aerr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorResponse{ErrorCode: aerr.Code, ErrorMessage: aerr.Message})
}
