package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rental/internal/domain"
	"rental/internal/middleware"
	"rental/internal/service"
)

// AdminHandler handles the admin configuration and operations surface: tax
// and discount registries, insurance enrollment, currency rates, promo
// batches, referral actions, and the sweeper tick.
type AdminHandler struct {
	identity  service.IdentityService
	taxes     *service.TaxTable
	discounts *service.DiscountTable
	insurance *service.InsuranceTable
	oracle    *service.TableOracle
	promos    *service.PromoService
	referrals *service.ReferralService
	sweeper   *service.SweepService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	identity service.IdentityService,
	taxes *service.TaxTable,
	discounts *service.DiscountTable,
	insurance *service.InsuranceTable,
	oracle *service.TableOracle,
	promos *service.PromoService,
	referrals *service.ReferralService,
	sweeper *service.SweepService,
) *AdminHandler {
	return &AdminHandler{
		identity:  identity,
		taxes:     taxes,
		discounts: discounts,
		insurance: insurance,
		oracle:    oracle,
		promos:    promos,
		referrals: referrals,
		sweeper:   sweeper,
	}
}

// requireAdmin aborts with 403 unless the caller is an admin.
func (h *AdminHandler) requireAdmin(c *gin.Context) bool {
	account := middleware.AccountID(c)
	role, err := h.identity.RoleOf(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return false
	}
	if role != domain.RoleAdmin {
		respondError(c, &service.AuthorizationError{Op: "admin", Account: account, Role: role})
		return false
	}
	return true
}

// TaxRuleRequest is one tax component in an update.
type TaxRuleRequest struct {
	Kind        string `json:"kind" binding:"required"`
	CentsPerDay int64  `json:"cents_per_day"`
	RatePPM     int64  `json:"rate_ppm"`
}

// SetTaxesRequest is the HTTP request for replacing a jurisdiction's rules.
type SetTaxesRequest struct {
	Jurisdiction string           `json:"jurisdiction" binding:"required"`
	Rules        []TaxRuleRequest `json:"rules" binding:"required"`
}

// SetTaxes handles POST /v1/admin/taxes
func (h *AdminHandler) SetTaxes(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req SetTaxesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	rules := make([]service.TaxRule, 0, len(req.Rules))
	for _, r := range req.Rules {
		switch service.TaxRuleKind(r.Kind) {
		case service.TaxFlatPerDay, service.TaxPercentSubtotal, service.TaxPercentTotal:
		default:
			respondError(c, &service.ValidationError{Field: "kind", Reason: "unknown: " + r.Kind})
			return
		}
		rules = append(rules, service.TaxRule{
			Kind:        service.TaxRuleKind(r.Kind),
			CentsPerDay: r.CentsPerDay,
			RatePPM:     r.RatePPM,
		})
	}

	h.taxes.SetRules(req.Jurisdiction, rules)
	respondJSON(c, http.StatusOK, gin.H{"version": h.taxes.Version()})
}

// DiscountTierRequest is one duration tier in an update.
type DiscountTierRequest struct {
	MinDays    int64 `json:"min_days" binding:"required"`
	PercentOff int64 `json:"percent_off" binding:"required"`
}

// SetDiscountsRequest is the HTTP request for replacing a host's tiers.
type SetDiscountsRequest struct {
	HostID string                `json:"host_id" binding:"required"`
	Tiers  []DiscountTierRequest `json:"tiers" binding:"required"`
}

// SetDiscounts handles POST /v1/admin/discounts
func (h *AdminHandler) SetDiscounts(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req SetDiscountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	tiers := make([]domain.DiscountTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		if t.PercentOff < 0 || t.PercentOff > 100 {
			respondError(c, &service.ValidationError{Field: "percent_off", Reason: "must be within [0,100]"})
			return
		}
		tiers = append(tiers, domain.DiscountTier{MinDays: t.MinDays, PercentOff: t.PercentOff})
	}

	h.discounts.SetRule(&domain.DiscountRule{HostID: req.HostID, Tiers: tiers})
	respondJSON(c, http.StatusOK, gin.H{"host_id": req.HostID})
}

// SetInsuranceRequest is the HTTP request for host pool enrollment.
type SetInsuranceRequest struct {
	HostID string `json:"host_id" binding:"required"`
	PPM    int64  `json:"ppm"`
}

// SetInsurance handles POST /v1/admin/insurance
func (h *AdminHandler) SetInsurance(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req SetInsuranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if req.PPM < 0 || req.PPM > 1_000_000 {
		respondError(c, &service.ValidationError{Field: "ppm", Reason: "must be within [0,1000000]"})
		return
	}

	h.insurance.SetPPM(req.HostID, req.PPM)
	respondJSON(c, http.StatusOK, gin.H{"host_id": req.HostID, "enrolled": req.PPM > 0})
}

// SetRateRequest is the HTTP request for installing a currency rate.
type SetRateRequest struct {
	Currency string `json:"currency" binding:"required"`
	Rate     int64  `json:"rate" binding:"required"`
	Decimals int32  `json:"decimals"`
}

// SetRate handles POST /v1/admin/rates
func (h *AdminHandler) SetRate(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	if err := h.oracle.SetRate(req.Currency, req.Rate, req.Decimals); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"currency": req.Currency})
}

// GeneratePromosRequest is the HTTP request for minting a code batch.
type GeneratePromosRequest struct {
	Prefix     string `json:"prefix" binding:"required"`
	Count      int    `json:"count" binding:"required"`
	Kind       string `json:"kind" binding:"required"`
	PercentOff int64  `json:"percent_off"`
	Waiver     bool   `json:"waiver"`
	ValidFrom  string `json:"valid_from" binding:"required"`
	ValidUntil string `json:"valid_until" binding:"required"`
}

// GeneratePromos handles POST /v1/admin/promos
func (h *AdminHandler) GeneratePromos(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req GeneratePromosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	from, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		respondError(c, &service.ValidationError{Field: "valid_from", Reason: "must be RFC 3339"})
		return
	}
	until, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		respondError(c, &service.ValidationError{Field: "valid_until", Reason: "must be RFC 3339"})
		return
	}

	codes, err := h.promos.GenerateBatch(c.Request.Context(), service.GenerateBatchRequest{
		Prefix:     req.Prefix,
		Count:      req.Count,
		Kind:       domain.PromoKind(req.Kind),
		PercentOff: req.PercentOff,
		Waiver:     req.Waiver,
		ValidFrom:  from,
		ValidUntil: until,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	generated := make([]string, 0, len(codes))
	for _, code := range codes {
		generated = append(generated, code.Code)
	}
	respondJSON(c, http.StatusCreated, gin.H{"batch_id": codes[0].BatchID, "codes": generated})
}

// DeactivatePromo handles POST /v1/admin/promos/:code/deactivate
func (h *AdminHandler) DeactivatePromo(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	if err := h.promos.Deactivate(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"code": c.Param("code"), "active": false})
}

// ReferralActionRequest is the HTTP request for recording a referral action
// reported by an external system, such as the catalog reporting a first
// listing.
type ReferralActionRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// RecordReferralAction handles POST /v1/admin/referral/actions
func (h *AdminHandler) RecordReferralAction(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req ReferralActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	switch domain.ReferralAction(req.Action) {
	case domain.ReferralActionRegistration, domain.ReferralActionFirstListing, domain.ReferralActionTripCompleted:
	default:
		respondError(c, &service.ValidationError{Field: "action", Reason: "unknown: " + req.Action})
		return
	}

	if err := h.referrals.RecordAction(c.Request.Context(), req.AccountID, domain.ReferralAction(req.Action)); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"recorded": true})
}

// Sweep handles POST /v1/admin/sweep. The engine holds no timers; this is
// the external scheduler's tick.
func (h *AdminHandler) Sweep(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	report, err := h.sweeper.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, report)
}
