package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental/internal/domain"
	"rental/internal/middleware"
	"rental/internal/repository"
	"rental/internal/service"
)

// ClaimHandler handles HTTP requests for claims.
type ClaimHandler struct {
	claimService *service.ClaimService
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(claimService *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// FileClaimRequest is the HTTP request for opening a claim.
type FileClaimRequest struct {
	TripID      int64  `json:"trip_id" binding:"required"`
	Type        string `json:"type" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
}

// PayClaimRequest is the HTTP request for settling a claim.
type PayClaimRequest struct {
	Currency string `json:"currency" binding:"required"`
}

// ClaimResponse is the HTTP response for claim operations.
type ClaimResponse struct {
	ClaimID         string `json:"claim_id"`
	TripID          int64  `json:"trip_id"`
	FilerID         string `json:"filer_id"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	AmountCents     int64  `json:"amount_cents"`
	Deadline        string `json:"deadline"`
	InsuranceBacked bool   `json:"insurance_backed"`
	PaidCurrency    string `json:"paid_currency,omitempty"`
	PaidCents       int64  `json:"paid_cents,omitempty"`
	UnresolvedCents int64  `json:"unresolved_cents,omitempty"`
	ClosedAt        string `json:"closed_at,omitempty"`
}

func toClaimResponse(claim *domain.Claim) ClaimResponse {
	resp := ClaimResponse{
		ClaimID:         claim.ID,
		TripID:          claim.TripID,
		FilerID:         claim.FilerID,
		Type:            string(claim.Type),
		Status:          string(claim.Status),
		AmountCents:     claim.AmountCents,
		Deadline:        claim.Deadline.Format(timeFormat),
		InsuranceBacked: claim.InsuranceBacked,
		PaidCurrency:    claim.PaidRate.Currency,
		PaidCents:       claim.PaidCents,
		UnresolvedCents: claim.UnresolvedCents,
	}
	if !claim.ClosedAt.IsZero() {
		resp.ClosedAt = claim.ClosedAt.Format(timeFormat)
	}
	return resp
}

// File handles POST /v1/claims
func (h *ClaimHandler) File(c *gin.Context) {
	var req FileClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	claim, err := h.claimService.File(c.Request.Context(), service.FileClaimRequest{
		TripID:      req.TripID,
		FilerID:     middleware.AccountID(c),
		Type:        domain.ClaimType(req.Type),
		AmountCents: req.AmountCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toClaimResponse(claim))
}

// Pay handles POST /v1/claims/:id/pay
func (h *ClaimHandler) Pay(c *gin.Context) {
	var req PayClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	claim, err := h.claimService.Pay(c.Request.Context(), c.Param("id"), middleware.AccountID(c), req.Currency)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toClaimResponse(claim))
}

// Reject handles POST /v1/claims/:id/reject
func (h *ClaimHandler) Reject(c *gin.Context) {
	claim, err := h.claimService.Reject(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toClaimResponse(claim))
}

// Get handles GET /v1/claims/:id
func (h *ClaimHandler) Get(c *gin.Context) {
	claim, err := h.claimService.Get(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toClaimResponse(claim))
}

// List handles GET /v1/claims
func (h *ClaimHandler) List(c *gin.Context) {
	filter := repository.ClaimFilter{
		Status: domain.ClaimStatus(c.Query("status")),
	}

	if v := c.Query("trip_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "trip_id", Reason: "must be an integer"})
			return
		}
		filter.TripID = id
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "limit", Reason: "must be an integer"})
			return
		}
		filter.Limit = limit
	}

	claims, err := h.claimService.List(c.Request.Context(), middleware.AccountID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ClaimResponse, 0, len(claims))
	for _, claim := range claims {
		response = append(response, toClaimResponse(claim))
	}
	respondJSON(c, http.StatusOK, response)
}
