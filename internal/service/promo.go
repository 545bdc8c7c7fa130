package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"rental/internal/domain"
	"rental/internal/repository"
)

// PromoService manages promo code batches and redemption.
type PromoService struct {
	promoRepo repository.PromoRepository
}

// NewPromoService creates a new PromoService.
func NewPromoService(promoRepo repository.PromoRepository) *PromoService {
	return &PromoService{promoRepo: promoRepo}
}

// GenerateBatchRequest contains the parameters for generating a code batch.
type GenerateBatchRequest struct {
	Prefix     string
	Count      int
	Kind       domain.PromoKind
	PercentOff int64
	Waiver     bool
	ValidFrom  time.Time
	ValidUntil time.Time
}

// GenerateBatch creates a batch of codes sharing a prefix. Single-use codes
// get one global redemption; general codes are unlimited but limited to one
// redemption per account.
func (s *PromoService) GenerateBatch(ctx context.Context, req GenerateBatchRequest) ([]*domain.PromoCode, error) {
	if req.Prefix == "" {
		return nil, &ValidationError{Field: "prefix", Reason: "must not be empty"}
	}
	if req.Count <= 0 {
		return nil, &ValidationError{Field: "count", Reason: "must be at least 1"}
	}
	if !req.Waiver && (req.PercentOff <= 0 || req.PercentOff > 100) {
		return nil, &ValidationError{Field: "percentOff", Reason: "must be within (0,100]"}
	}
	if req.Kind != domain.PromoKindSingleUse && req.Kind != domain.PromoKindGeneral {
		return nil, &ValidationError{Field: "kind", Reason: "unknown promo kind"}
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, &ValidationError{Field: "validUntil", Reason: "must be after validFrom"}
	}

	batchID := uuid.New().String()
	now := time.Now()

	codes := make([]*domain.PromoCode, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		remaining := int64(1)
		if req.Kind == domain.PromoKindGeneral {
			remaining = 0 // unlimited; per-account limit enforced via redemptions
		}
		codes = append(codes, &domain.PromoCode{
			Code:          req.Prefix + "-" + codeSuffix(),
			BatchID:       batchID,
			Kind:          req.Kind,
			PercentOff:    req.PercentOff,
			Waiver:        req.Waiver,
			ValidFrom:     req.ValidFrom,
			ValidUntil:    req.ValidUntil,
			Active:        true,
			RemainingUses: remaining,
			CreatedAt:     now,
		})
	}

	if err := s.promoRepo.CreateBatch(ctx, codes); err != nil {
		return nil, err
	}

	return codes, nil
}

// Validate checks a code at quote time without consuming it. The identical
// discount is only guaranteed at booking if the code is still within its
// window and unconsumed by the account then.
func (s *PromoService) Validate(ctx context.Context, code, accountID string, now time.Time) (*domain.PromoCode, error) {
	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Field: "promoCode", Reason: "unknown code"}
		}
		return nil, err
	}

	if !promo.Valid(now) {
		return nil, &ValidationError{Field: "promoCode", Reason: "expired or exhausted"}
	}

	if promo.Kind == domain.PromoKindGeneral {
		redeemed, err := s.promoRepo.HasRedeemed(ctx, code, accountID)
		if err != nil {
			return nil, err
		}
		if redeemed {
			return nil, &ValidationError{Field: "promoCode", Reason: "already redeemed by account"}
		}
	}

	return promo, nil
}

// Redeem consumes a code for a booking. The consumption is check-and-set
// atomic: single-use codes decrement a guarded counter, general codes insert
// into a uniquely constrained redemption ledger.
func (s *PromoService) Redeem(ctx context.Context, code, accountID string, tripID int64, now time.Time) (*domain.PromoCode, error) {
	promo, err := s.Validate(ctx, code, accountID, now)
	if err != nil {
		return nil, err
	}

	if promo.Kind == domain.PromoKindSingleUse {
		ok, err := s.promoRepo.ConsumeSingleUse(ctx, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ValidationError{Field: "promoCode", Reason: "already consumed"}
		}
	}

	ok, err := s.promoRepo.RecordRedemption(ctx, code, accountID, tripID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Field: "promoCode", Reason: "already redeemed by account"}
	}

	return promo, nil
}

// Deactivate turns a code off. Admin-gated at the handler layer.
func (s *PromoService) Deactivate(ctx context.Context, code string) error {
	return s.promoRepo.Deactivate(ctx, code)
}

// codeSuffix returns an 8-character uppercase code fragment.
func codeSuffix() string {
	id := uuid.New().String()
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
