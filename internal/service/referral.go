package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"rental/internal/domain"
	"rental/internal/repository"
)

// PointTable maps referral actions to the points they accrue for the hash
// owner.
type PointTable map[domain.ReferralAction]int64

// DefaultPointTable returns the platform's standard accrual rates.
func DefaultPointTable() PointTable {
	return PointTable{
		domain.ReferralActionRegistration:  100,
		domain.ReferralActionFirstListing:  250,
		domain.ReferralActionTripCompleted: 50,
	}
}

// ReferralService manages referral hashes and point accrual. Referral is
// independent of promo codes; the two never interact.
type ReferralService struct {
	referralRepo repository.ReferralRepository
	points       PointTable
}

// NewReferralService creates a new ReferralService.
func NewReferralService(referralRepo repository.ReferralRepository, points PointTable) *ReferralService {
	return &ReferralService{referralRepo: referralRepo, points: points}
}

// Register creates the account's referral record, optionally binding it to a
// referrer's hash, and accrues registration points to the referrer. The hash
// is durable: derived from the account id, it never changes.
func (s *ReferralService) Register(ctx context.Context, accountID, referrerHash string) (*domain.ReferralAccount, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "accountID", Reason: "must not be empty"}
	}

	if existing, err := s.referralRepo.GetByAccount(ctx, accountID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if referrerHash != "" {
		if _, err := s.referralRepo.GetByHash(ctx, referrerHash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ValidationError{Field: "referrerHash", Reason: "unknown hash"}
			}
			return nil, err
		}
	}

	acct := &domain.ReferralAccount{
		AccountID:    accountID,
		Hash:         ReferralHash(accountID),
		ReferrerHash: referrerHash,
		CreatedAt:    time.Now(),
	}
	if err := s.referralRepo.Create(ctx, acct); err != nil {
		return nil, err
	}

	if referrerHash != "" {
		if err := s.accrue(ctx, referrerHash, domain.ReferralActionRegistration); err != nil {
			return nil, err
		}
	}

	return acct, nil
}

// RecordAction accrues points to the referrer of the acting account, if the
// account registered with someone's hash. Accounts without a referrer accrue
// nothing.
func (s *ReferralService) RecordAction(ctx context.Context, accountID string, action domain.ReferralAction) error {
	acct, err := s.referralRepo.GetByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if acct.ReferrerHash == "" {
		return nil
	}

	return s.accrue(ctx, acct.ReferrerHash, action)
}

func (s *ReferralService) accrue(ctx context.Context, hash string, action domain.ReferralAction) error {
	points, ok := s.points[action]
	if !ok || points == 0 {
		return nil
	}
	return s.referralRepo.AddPending(ctx, hash, points)
}

// ClaimPoints moves the account's pending points to settled and returns the
// amount moved. Claiming again with no new qualifying activity moves zero.
func (s *ReferralService) ClaimPoints(ctx context.Context, accountID string) (int64, error) {
	return s.referralRepo.SettlePending(ctx, accountID)
}

// Account returns the referral record for an account.
func (s *ReferralService) Account(ctx context.Context, accountID string) (*domain.ReferralAccount, error) {
	return s.referralRepo.GetByAccount(ctx, accountID)
}

// ReferralHash derives the durable referral hash for an account.
func ReferralHash(accountID string) string {
	sum := sha256.Sum256([]byte("referral:" + accountID))
	return hex.EncodeToString(sum[:16])
}
