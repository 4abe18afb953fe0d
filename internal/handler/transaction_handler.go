package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultline/account-service/internal/domain"
	"github.com/vaultline/account-service/internal/middleware"
)

// BalanceTransactor defines the coordinator operations used by TransactionHandler.
type BalanceTransactor interface {
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error)
	QueryTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

type TransactionHandler struct {
	transactions BalanceTransactor
}

func NewTransactionHandler(transactions BalanceTransactor) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type UseBalanceRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10"`
	Amount        int64  `json:"amount" validate:"required,gte=10,lte=1000000000"`
}

type CancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10"`
	Amount        int64  `json:"amount" validate:"required,min=1"`
}

type TransactionResponse struct {
	AccountNumber     string                   `json:"accountNumber"`
	TransactionResult domain.TransactionResult `json:"transactionResult"`
	TransactionID     string                   `json:"transactionId"`
	Amount            int64                    `json:"amount"`
	TransactedAt      time.Time                `json:"transactedAt"`
}

type QueryTransactionResponse struct {
	AccountNumber     string                   `json:"accountNumber"`
	TransactionType   domain.TransactionType   `json:"transactionType"`
	TransactionResult domain.TransactionResult `json:"transactionResult"`
	TransactionID     string                   `json:"transactionId"`
	Amount            int64                    `json:"amount"`
	TransactedAt      time.Time                `json:"transactedAt"`
}

func (h *TransactionHandler) UseBalance(c *gin.Context) {
	var req UseBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.CodeInvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	record, err := h.transactions.UseBalance(c.Request.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(record))
}

func (h *TransactionHandler) CancelBalance(c *gin.Context) {
	var req CancelBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.CodeInvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	record, err := h.transactions.CancelBalance(c.Request.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(record))
}

func (h *TransactionHandler) QueryTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")

	record, err := h.transactions.QueryTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, QueryTransactionResponse{
		AccountNumber:     record.AccountNumber,
		TransactionType:   record.Type,
		TransactionResult: record.Result,
		TransactionID:     record.TransactionID,
		Amount:            record.Amount,
		TransactedAt:      record.TransactedAt,
	})
}

func toTransactionResponse(record *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		AccountNumber:     record.AccountNumber,
		TransactionResult: record.Result,
		TransactionID:     record.TransactionID,
		Amount:            record.Amount,
		TransactedAt:      record.TransactedAt,
	}
}
