package ratelock

import "math/big"

// RateScale is the fixed-point scale for locked exchange rates: seven implied
// decimals, so a rate of 1.5 is stored as 15_000_000.
const RateScale = 10_000_000

// MaxDurationSeconds caps how long a rate reservation may be held.
const MaxDurationSeconds = 86_400

// RateLock reserves an exchange rate between two assets for a bounded window.
// The Amount field is a ceiling on the size of a single consuming transfer; it
// is never debited, so one lock may back any number of consuming transfers
// while it remains active.
type RateLock struct {
	ID         uint64
	Owner      [20]byte
	FromToken  string
	ToToken    string
	LockedRate *big.Int
	Amount     *big.Int
	Expiry     int64
	Active     bool
	CreatedAt  int64
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (l *RateLock) Clone() *RateLock {
	if l == nil {
		return nil
	}
	clone := *l
	if l.LockedRate != nil {
		clone.LockedRate = new(big.Int).Set(l.LockedRate)
	} else {
		clone.LockedRate = big.NewInt(0)
	}
	if l.Amount != nil {
		clone.Amount = new(big.Int).Set(l.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}
