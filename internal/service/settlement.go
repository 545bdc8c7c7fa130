package service

import (
	"fmt"

	"rental/internal/domain"
)

// Settlement is the finish-time disbursement plan for one trip. Cent fields
// are USD; settled fields are in the trip's settlement currency and sum to
// exactly Payment.EscrowSettled.
type Settlement struct {
	UsageDeltaCents  int64
	PlatformFeeCents int64

	GuestCents    int64
	HostCents     int64
	PoolCents     int64
	PlatformCents int64

	GuestSettled    int64
	HostSettled     int64
	PoolSettled     int64
	PlatformSettled int64
}

// ComputeSettlement derives the disbursement plan from the trip's frozen
// economics. The split never touches funds outside the trip's escrow: usage
// charges are capped at the deposit, usage refunds at the host's gross
// earnings. Each share is floor-converted with the creation snapshot and the
// rounding remainder lands on the platform, so the settled shares conserve
// the escrow exactly.
func ComputeSettlement(trip *domain.Trip, poolPPM int64) (*Settlement, error) {
	p := &trip.Payment

	var usage int64
	if trip.Usage.EndRecorded {
		var err error
		usage, err = ComputeUsageDelta(UsageInput{
			Engine: trip.EngineType,
			Params: trip.EngineParams,
			Start:  Reading{FuelPercent: trip.Usage.StartFuelPercent, Odometer: trip.Usage.StartOdometer},
			End:    Reading{FuelPercent: trip.Usage.EndFuelPercent, Odometer: trip.Usage.EndOdometer},

			DayPriceCents:       p.DayPriceCents,
			MilesIncludedPerDay: trip.MilesIncludedPerDay,
			Days:                p.Days,
		})
		if err != nil {
			return nil, err
		}
	}

	fee := p.DiscountedSubtotalCents() * p.PlatformFeePPM / ppmDenominator
	hostGross := p.EscrowCents - p.DepositCents - p.InsuranceCents - fee
	if hostGross < 0 {
		return nil, &InvariantError{Detail: fmt.Sprintf("trip %d: platform fee exceeds escrowed earnings", trip.ID)}
	}

	guest := p.DepositCents
	host := hostGross
	switch {
	case usage > 0:
		charge := usage
		if charge > guest {
			charge = guest
		}
		guest -= charge
		host += charge
	case usage < 0:
		refund := -usage
		if refund > host {
			refund = host
		}
		host -= refund
		guest += refund
	}

	pool := host * poolPPM / ppmDenominator
	host -= pool

	s := &Settlement{
		UsageDeltaCents:  usage,
		PlatformFeeCents: fee,
		GuestCents:       guest,
		HostCents:        host,
		PoolCents:        pool,
		PlatformCents:    fee + p.InsuranceCents,
	}

	s.GuestSettled = p.Rate.Convert(guest)
	s.HostSettled = p.Rate.Convert(host)
	s.PoolSettled = p.Rate.Convert(pool)
	s.PlatformSettled = p.EscrowSettled - s.GuestSettled - s.HostSettled - s.PoolSettled
	if s.PlatformSettled < 0 {
		return nil, &InvariantError{Detail: fmt.Sprintf("trip %d: disbursements exceed escrow", trip.ID)}
	}

	return s, nil
}
