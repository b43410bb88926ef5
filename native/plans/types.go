package plans

import "math/big"

// Tier identifies a saver plan level. Each tier carries a fixed fee discount
// expressed in basis points.
type Tier uint8

const (
	TierFamily Tier = iota
	TierBusiness
	TierPremium
)

// Valid reports whether the tier is within the supported range.
func (t Tier) Valid() bool {
	switch t {
	case TierFamily, TierBusiness, TierPremium:
		return true
	default:
		return false
	}
}

// DiscountBps returns the fee discount granted by the tier.
func (t Tier) DiscountBps() uint32 {
	switch t {
	case TierFamily:
		return 1500
	case TierBusiness:
		return 2000
	case TierPremium:
		return 2500
	default:
		return 0
	}
}

func (t Tier) String() string {
	switch t {
	case TierFamily:
		return "family"
	case TierBusiness:
		return "business"
	case TierPremium:
		return "premium"
	default:
		return "unknown"
	}
}

// Plan is a time-boxed discount subscription keyed by owner. TransferCount and
// TotalVolume are accumulators reserved for future statements; they are reset
// on every new subscription.
type Plan struct {
	Owner         [20]byte
	Tier          Tier
	TransferCount uint32
	TotalVolume   *big.Int
	DiscountBps   uint32
	StartDate     int64
	EndDate       int64
	Active        bool
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	clone := *p
	if p.TotalVolume != nil {
		clone.TotalVolume = new(big.Int).Set(p.TotalVolume)
	} else {
		clone.TotalVolume = big.NewInt(0)
	}
	return &clone
}

// CurrentAt reports whether the plan grants its discount at the given time:
// it must be flagged active and not yet past its end date.
func (p *Plan) CurrentAt(now int64) bool {
	return p != nil && p.Active && now <= p.EndDate
}
