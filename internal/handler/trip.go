package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rental/internal/domain"
	"rental/internal/middleware"
	"rental/internal/repository"
	"rental/internal/service"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// BookTripRequest is the HTTP request for creating a booking.
type BookTripRequest struct {
	CarID         string `json:"car_id" binding:"required"`
	Start         string `json:"scheduled_start" binding:"required"`
	End           string `json:"scheduled_end" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	DeliveryCents int64  `json:"delivery_cents"`
	SkipInsurance bool   `json:"skip_insurance"`
	PromoCode     string `json:"promo_code"`
}

// ReadingRequest carries an odometer/fuel observation.
type ReadingRequest struct {
	FuelPercent int64 `json:"fuel_percent"`
	Odometer    int64 `json:"odometer"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID         int64  `json:"trip_id"`
	CarID          string `json:"car_id"`
	HostID         string `json:"host_id"`
	GuestID        string `json:"guest_id"`
	Status         string `json:"status"`
	Location       string `json:"location"`
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
	PendingConfirm bool   `json:"pending_confirm,omitempty"`
	ClosedBy       string `json:"closed_by,omitempty"`
	FinishedAt     string `json:"finished_at,omitempty"`

	Payment PaymentResponse `json:"payment"`
}

// PaymentResponse is the trip economics part of the response.
type PaymentResponse struct {
	Currency            string `json:"currency"`
	Days                int64  `json:"days"`
	DayPriceCents       int64  `json:"day_price_cents"`
	TaxCents            int64  `json:"tax_cents"`
	DepositCents        int64  `json:"deposit_cents"`
	DeliveryCents       int64  `json:"delivery_cents"`
	InsuranceCents      int64  `json:"insurance_cents"`
	DiscountCents       int64  `json:"discount_cents"`
	EscrowCents         int64  `json:"escrow_cents"`
	EscrowSettled       int64  `json:"escrow_settled"`
	HostEarningsSettled int64  `json:"host_earnings_settled,omitempty"`
	PlatformFeeSettled  int64  `json:"platform_fee_settled,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	resp := TripResponse{
		TripID:         trip.ID,
		CarID:          trip.CarID,
		HostID:         trip.HostID,
		GuestID:        trip.GuestID,
		Status:         string(trip.Status),
		Location:       trip.Location,
		ScheduledStart: trip.ScheduledStart.Format(timeFormat),
		ScheduledEnd:   trip.ScheduledEnd.Format(timeFormat),
		PendingConfirm: trip.PendingConfirm,
		Payment: PaymentResponse{
			Currency:            trip.Payment.Rate.Currency,
			Days:                trip.Payment.Days,
			DayPriceCents:       trip.Payment.DayPriceCents,
			TaxCents:            trip.Payment.TaxCents,
			DepositCents:        trip.Payment.DepositCents,
			DeliveryCents:       trip.Payment.DeliveryCents,
			InsuranceCents:      trip.Payment.InsuranceCents,
			DiscountCents:       trip.Payment.DiscountCents,
			EscrowCents:         trip.Payment.EscrowCents,
			EscrowSettled:       trip.Payment.EscrowSettled,
			HostEarningsSettled: trip.Payment.HostEarningsSettled,
			PlatformFeeSettled:  trip.Payment.PlatformFeeSettled,
		},
	}

	if trip.ClosedBy != domain.RoleNone {
		resp.ClosedBy = string(trip.ClosedBy)
	}
	if !trip.FinishedAt.IsZero() {
		resp.FinishedAt = trip.FinishedAt.Format(timeFormat)
	}
	return resp
}

func (h *TripHandler) bookRequest(c *gin.Context) (service.BookTripRequest, bool) {
	var req BookTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return service.BookTripRequest{}, false
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		respondError(c, &service.ValidationError{Field: "scheduled_start", Reason: "must be RFC 3339"})
		return service.BookTripRequest{}, false
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		respondError(c, &service.ValidationError{Field: "scheduled_end", Reason: "must be RFC 3339"})
		return service.BookTripRequest{}, false
	}

	return service.BookTripRequest{
		GuestID:       middleware.AccountID(c),
		CarID:         req.CarID,
		Start:         start,
		End:           end,
		Currency:      req.Currency,
		DeliveryCents: req.DeliveryCents,
		SkipInsurance: req.SkipInsurance,
		PromoCode:     req.PromoCode,
	}, true
}

// Quote handles POST /v1/trips/quote
func (h *TripHandler) Quote(c *gin.Context) {
	req, ok := h.bookRequest(c)
	if !ok {
		return
	}

	quote, err := h.tripService.QuoteTrip(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, quote)
}

// Book handles POST /v1/trips
func (h *TripHandler) Book(c *gin.Context) {
	req, ok := h.bookRequest(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

func tripID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, &service.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// Approve handles POST /v1/trips/:id/approve
func (h *TripHandler) Approve(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Approve(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Reject handles POST /v1/trips/:id/reject
func (h *TripHandler) Reject(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Reject(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Cancel(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CheckinHost handles POST /v1/trips/:id/checkin/host
func (h *TripHandler) CheckinHost(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	var req ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	trip, err := h.tripService.CheckinHost(c.Request.Context(), id, middleware.AccountID(c),
		service.Reading{FuelPercent: req.FuelPercent, Odometer: req.Odometer})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CheckinGuest handles POST /v1/trips/:id/checkin/guest
func (h *TripHandler) CheckinGuest(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	var req ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	trip, err := h.tripService.CheckinGuest(c.Request.Context(), id, middleware.AccountID(c),
		service.Reading{FuelPercent: req.FuelPercent, Odometer: req.Odometer})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CheckoutGuest handles POST /v1/trips/:id/checkout/guest
func (h *TripHandler) CheckoutGuest(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	var req ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	trip, err := h.tripService.CheckoutGuest(c.Request.Context(), id, middleware.AccountID(c),
		service.Reading{FuelPercent: req.FuelPercent, Odometer: req.Odometer})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CheckoutHost handles POST /v1/trips/:id/checkout/host
func (h *TripHandler) CheckoutHost(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.CheckoutHost(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ConfirmCheckout handles POST /v1/trips/:id/confirm
func (h *TripHandler) ConfirmCheckout(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.ConfirmCheckout(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Finish handles POST /v1/trips/:id/finish
func (h *TripHandler) Finish(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Finish(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Get handles GET /v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Get(c.Request.Context(), id, middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// List handles GET /v1/trips
func (h *TripHandler) List(c *gin.Context) {
	filter := repository.TripFilter{
		Status:   domain.TripStatus(c.Query("status")),
		Location: c.Query("location"),
	}

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "from", Reason: "must be RFC 3339"})
			return
		}
		filter.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "to", Reason: "must be RFC 3339"})
			return
		}
		filter.To = t
	}
	if v := c.Query("settled"); v != "" {
		settled, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "settled", Reason: "must be a boolean"})
			return
		}
		filter.Settled = &settled
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "limit", Reason: "must be an integer"})
			return
		}
		filter.Limit = limit
	}

	trips, err := h.tripService.List(c.Request.Context(), middleware.AccountID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}
	respondJSON(c, http.StatusOK, response)
}
