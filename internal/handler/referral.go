package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental/internal/domain"
	"rental/internal/middleware"
	"rental/internal/service"
)

// ReferralHandler handles HTTP requests for the referral program.
type ReferralHandler struct {
	referralService *service.ReferralService
}

// NewReferralHandler creates a new ReferralHandler.
func NewReferralHandler(referralService *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// RegisterReferralRequest is the HTTP request for joining the program.
type RegisterReferralRequest struct {
	ReferrerHash string `json:"referrer_hash"`
}

// ReferralResponse is the HTTP response for referral operations.
type ReferralResponse struct {
	AccountID     string `json:"account_id"`
	Hash          string `json:"hash"`
	ReferrerHash  string `json:"referrer_hash,omitempty"`
	PendingPoints int64  `json:"pending_points"`
	SettledPoints int64  `json:"settled_points"`
}

func toReferralResponse(acct *domain.ReferralAccount) ReferralResponse {
	return ReferralResponse{
		AccountID:     acct.AccountID,
		Hash:          acct.Hash,
		ReferrerHash:  acct.ReferrerHash,
		PendingPoints: acct.PendingPoints,
		SettledPoints: acct.SettledPoints,
	}
}

// Register handles POST /v1/referral/register
func (h *ReferralHandler) Register(c *gin.Context) {
	var req RegisterReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	acct, err := h.referralService.Register(c.Request.Context(), middleware.AccountID(c), req.ReferrerHash)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReferralResponse(acct))
}

// Account handles GET /v1/referral
func (h *ReferralHandler) Account(c *gin.Context) {
	acct, err := h.referralService.Account(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReferralResponse(acct))
}

// ClaimPoints handles POST /v1/referral/claim
func (h *ReferralHandler) ClaimPoints(c *gin.Context) {
	moved, err := h.referralService.ClaimPoints(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"claimed_points": moved})
}
