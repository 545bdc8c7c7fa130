package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental/internal/middleware"
	"rental/internal/service"
)

// WalletHandler handles HTTP requests for custody balances.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// WalletMovementRequest is the HTTP request for deposits and withdrawals.
type WalletMovementRequest struct {
	Currency string `json:"currency" binding:"required"`
	Amount   int64  `json:"amount" binding:"required"`
}

// WalletResponse is the HTTP response for wallet operations.
type WalletResponse struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Balance   int64  `json:"balance"`
}

// Deposit handles POST /v1/wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req WalletMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	account := middleware.AccountID(c)
	balance, err := h.walletService.Deposit(c.Request.Context(), account, req.Currency, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WalletResponse{AccountID: account, Currency: req.Currency, Balance: balance})
}

// Withdraw handles POST /v1/wallet/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req WalletMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	account := middleware.AccountID(c)
	balance, err := h.walletService.Withdraw(c.Request.Context(), account, req.Currency, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WalletResponse{AccountID: account, Currency: req.Currency, Balance: balance})
}

// Balance handles GET /v1/wallet/:currency
func (h *WalletHandler) Balance(c *gin.Context) {
	account := middleware.AccountID(c)
	currency := c.Param("currency")

	balance, err := h.walletService.Balance(c.Request.Context(), account, currency)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WalletResponse{AccountID: account, Currency: currency, Balance: balance})
}
