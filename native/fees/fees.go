package fees

import (
	"math/big"

	"remitledger/native/plans"
)

// Schedule captures the fee parameters applied to a transfer, denominated in
// the smallest ledger unit.
type Schedule struct {
	FlatFee *big.Int
	PctBps  uint32
	MinFee  *big.Int
	MaxFee  *big.Int
}

// DefaultSchedule returns the platform fee schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		FlatFee: big.NewInt(1_000_000),
		PctBps:  50,
		MinFee:  big.NewInt(500_000),
		MaxFee:  big.NewInt(100_000_000),
	}
}

// Batch discounting: 10% of the base fee per transfer beyond the first,
// saturating at 50%.
const (
	batchDiscountPctPerExtra = 10
	batchDiscountPctCap      = 50
)

// QuoteInput carries everything the calculator needs. Plan may be nil when the
// sender holds no subscription.
type QuoteInput struct {
	Amount    *big.Int
	IsBatch   bool
	BatchSize uint32
	Plan      *plans.Plan
	Now       int64
}

// Breakdown is the computed fee result. The network/service split is an even
// halving of the base fee; Total already has Discount applied and is floored
// at the schedule minimum.
type Breakdown struct {
	NetworkFee *big.Int
	ServiceFee *big.Int
	Discount   *big.Int
	Total      *big.Int
}

// baseFee computes flat + amount*bps/10000 clamped to the schedule bounds.
func (s Schedule) baseFee(amount *big.Int) *big.Int {
	amt := amount
	if amt == nil {
		amt = big.NewInt(0)
	}
	pct := new(big.Int).Mul(amt, big.NewInt(int64(s.PctBps)))
	pct.Div(pct, big.NewInt(10_000))
	total := new(big.Int).Add(s.FlatFee, pct)
	if total.Cmp(s.MinFee) < 0 {
		return new(big.Int).Set(s.MinFee)
	}
	if total.Cmp(s.MaxFee) > 0 {
		return new(big.Int).Set(s.MaxFee)
	}
	return total
}

// Quote evaluates the schedule for the supplied input. It is a pure function:
// identical inputs yield identical output and no state is touched. Batch and
// plan discounts are additive against the base fee, never compounded, and the
// final total never drops below the schedule minimum. A plan only discounts
// while it is both flagged active and unexpired.
func Quote(s Schedule, input QuoteInput) Breakdown {
	base := s.baseFee(input.Amount)

	discount := big.NewInt(0)
	if input.IsBatch && input.BatchSize > 1 {
		// Widen before multiplying so an absurd batch size cannot wrap
		// below the cap.
		pct := (int64(input.BatchSize) - 1) * batchDiscountPctPerExtra
		if pct > batchDiscountPctCap {
			pct = batchDiscountPctCap
		}
		batchDiscount := new(big.Int).Mul(base, big.NewInt(pct))
		batchDiscount.Div(batchDiscount, big.NewInt(100))
		discount.Add(discount, batchDiscount)
	}
	if input.Plan.CurrentAt(input.Now) {
		planDiscount := new(big.Int).Mul(base, big.NewInt(int64(input.Plan.DiscountBps)))
		planDiscount.Div(planDiscount, big.NewInt(10_000))
		discount.Add(discount, planDiscount)
	}

	total := new(big.Int).Sub(base, discount)
	if total.Cmp(s.MinFee) < 0 {
		total = new(big.Int).Set(s.MinFee)
	}

	half := new(big.Int).Div(base, big.NewInt(2))
	return Breakdown{
		NetworkFee: half,
		ServiceFee: new(big.Int).Set(half),
		Discount:   discount,
		Total:      total,
	}
}

// EstimateScheduleSavings returns the heuristic saving, in ledger units, from
// delaying a transfer by the given number of hours. The tiers come from
// observed off-peak spread patterns; actual savings depend on conditions at
// execution time.
func EstimateScheduleSavings(amount *big.Int, hoursDelay uint32) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	var bps int64
	switch {
	case hoursDelay >= 24:
		bps = 10
	case hoursDelay >= 12:
		bps = 7
	case hoursDelay >= 6:
		bps = 5
	case hoursDelay >= 2:
		bps = 3
	default:
		bps = 0
	}
	saving := new(big.Int).Mul(amount, big.NewInt(bps))
	return saving.Div(saving, big.NewInt(10_000))
}
