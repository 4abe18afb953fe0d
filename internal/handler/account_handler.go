package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultline/account-service/internal/domain"
	"github.com/vaultline/account-service/internal/middleware"
)

// AccountManager defines the account lifecycle operations used by AccountHandler.
type AccountManager interface {
	CreateAccount(ctx context.Context, userID, initialBalance int64) (*domain.Account, error)
	CloseAccount(ctx context.Context, userID int64, accountNumber string) (*domain.Account, error)
	GetAccountsByUserID(ctx context.Context, userID int64) ([]domain.Account, error)
}

type AccountHandler struct {
	accounts AccountManager
}

func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type CreateAccountRequest struct {
	UserID         int64 `json:"userId" validate:"required,min=1"`
	InitialBalance int64 `json:"initialBalance" validate:"required,min=100"`
}

type CreateAccountResponse struct {
	UserID        int64     `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

type CloseAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10"`
}

type CloseAccountResponse struct {
	UserID         int64      `json:"userId"`
	AccountNumber  string     `json:"accountNumber"`
	UnregisteredAt *time.Time `json:"unregisteredAt"`
}

type AccountSummary struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.CodeInvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateAccountResponse{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		RegisteredAt:  account.RegisteredAt,
	})
}

func (h *AccountHandler) CloseAccount(c *gin.Context) {
	var req CloseAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.CodeInvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.accounts.CloseAccount(c.Request.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CloseAccountResponse{
		UserID:         account.UserID,
		AccountNumber:  account.AccountNumber,
		UnregisteredAt: account.UnregisteredAt,
	})
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID < 1 {
		respondError(c, domain.NewErrorf(domain.CodeInvalidRequest, "user_id must be a positive integer"))
		return
	}

	accounts, err := h.accounts.GetAccountsByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, AccountSummary{
			AccountNumber: account.AccountNumber,
			Balance:       account.Balance,
		})
	}
	c.JSON(http.StatusOK, summaries)
}
