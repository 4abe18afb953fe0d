package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultline/account-service/internal/domain"
)

// ---- mock implementation ----

type mockTransactor struct {
	useFn    func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error)
	cancelFn func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error)
	queryFn  func(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

func (m *mockTransactor) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
	if m.useFn != nil {
		return m.useFn(ctx, userID, accountNumber, amount)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactor) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, transactionID, accountNumber, amount)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactor) QueryTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, transactionID)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newTxTestRouter(transactor BalanceTransactor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTransactionHandler(transactor)
	r.POST("/transaction/use", h.UseBalance)
	r.POST("/transaction/cancel", h.CancelBalance)
	r.GET("/transaction/:transactionId", h.QueryTransaction)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var testRecord = &domain.Transaction{
	Type:            domain.TransactionTypeUse,
	Result:          domain.TransactionResultSuccess,
	AccountNumber:   "1000000001",
	Amount:          200,
	BalanceSnapshot: 9800,
	TransactionID:   "5d1b4a9e2f8c4b6a9d3e7f1a2b3c4d5e",
	TransactedAt:    time.Now(),
}

func useBody() map[string]interface{} {
	return map[string]interface{}{"userId": 1, "accountNumber": "1000000001", "amount": 200}
}

func cancelBody() map[string]interface{} {
	return map[string]interface{}{"transactionId": testRecord.TransactionID, "accountNumber": "1000000001", "amount": 200}
}

// ---- tests ----

func TestUseBalanceEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		useFn          func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: useBody(),
			useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
				return testRecord, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - unknown user",
			body: useBody(),
			useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "forbidden - account owned by someone else",
			body: useBody(),
			useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeOwnerAccountMismatch)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "unprocessable - amount exceeds balance",
			body: useBody(),
			useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeAmountExceedsBalance)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "conflict - account lock held elsewhere",
			body: useBody(),
			useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeLockTimeout)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - amount below minimum",
			body:           map[string]interface{}{"userId": 1, "accountNumber": "1000000001", "amount": 5},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - account number wrong length",
			body:           map[string]interface{}{"userId": 1, "accountNumber": "123", "amount": 200},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing fields",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "internal error",
			body: useBody(),
			useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeInternalError)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactor{useFn: tt.useFn})

			w := doRequest(router, http.MethodPost, "/transaction/use", tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUseBalanceEndpointResponseBody(t *testing.T) {
	router := newTxTestRouter(&mockTransactor{
		useFn: func(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error) {
			return testRecord, nil
		},
	})

	w := doRequest(router, http.MethodPost, "/transaction/use", useBody())

	var resp TransactionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccountNumber != testRecord.AccountNumber {
		t.Errorf("expected account number %q, got %q", testRecord.AccountNumber, resp.AccountNumber)
	}
	if resp.TransactionID != testRecord.TransactionID {
		t.Errorf("expected transaction id %q, got %q", testRecord.TransactionID, resp.TransactionID)
	}
	if resp.Amount != testRecord.Amount {
		t.Errorf("expected amount %d, got %d", testRecord.Amount, resp.Amount)
	}
}

func TestCancelBalanceEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		cancelFn       func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: cancelBody(),
			cancelFn: func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
				return testRecord, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - unknown transaction",
			body: cancelBody(),
			cancelFn: func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeTransactionNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "forbidden - transaction belongs to another account",
			body: cancelBody(),
			cancelFn: func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeTransactionAccountMismatch)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "unprocessable - partial cancel",
			body: cancelBody(),
			cancelFn: func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeCancelMustBeFull)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "unprocessable - cancellation window expired",
			body: cancelBody(),
			cancelFn: func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeCancellationWindowExpired)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "conflict - already canceled",
			body: cancelBody(),
			cancelFn: func(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeTransactionAlreadyCanceled)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - missing transaction id",
			body:           map[string]interface{}{"accountNumber": "1000000001", "amount": 200},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactor{cancelFn: tt.cancelFn})

			w := doRequest(router, http.MethodPost, "/transaction/cancel", tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestQueryTransactionEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router := newTxTestRouter(&mockTransactor{
			queryFn: func(ctx context.Context, transactionID string) (*domain.Transaction, error) {
				return testRecord, nil
			},
		})

		w := doRequest(router, http.MethodGet, "/transaction/"+testRecord.TransactionID, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		var resp QueryTransactionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.TransactionType != domain.TransactionTypeUse {
			t.Errorf("expected transaction type USE, got %s", resp.TransactionType)
		}
	})

	t.Run("not found", func(t *testing.T) {
		router := newTxTestRouter(&mockTransactor{
			queryFn: func(ctx context.Context, transactionID string) (*domain.Transaction, error) {
				return nil, domain.NewError(domain.CodeTransactionNotFound)
			},
		})

		w := doRequest(router, http.MethodGet, "/transaction/unknown", nil)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})
}
