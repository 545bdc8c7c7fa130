package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rental/internal/middleware"
	"rental/internal/service"
)

// PromoHandler handles the guest-facing promo surface.
type PromoHandler struct {
	promoService *service.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(promoService *service.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

// PromoResponse is the HTTP response for a code check.
type PromoResponse struct {
	Code       string `json:"code"`
	Kind       string `json:"kind"`
	PercentOff int64  `json:"percent_off"`
	Waiver     bool   `json:"waiver"`
	ValidUntil string `json:"valid_until"`
}

// Check handles GET /v1/promos/:code. A redeemable answer here is not a
// reservation: the code can still be consumed by someone else before booking.
func (h *PromoHandler) Check(c *gin.Context) {
	promo, err := h.promoService.Validate(c.Request.Context(), c.Param("code"), middleware.AccountID(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PromoResponse{
		Code:       promo.Code,
		Kind:       string(promo.Kind),
		PercentOff: promo.PercentOff,
		Waiver:     promo.Waiver,
		ValidUntil: promo.ValidUntil.Format(timeFormat),
	})
}
