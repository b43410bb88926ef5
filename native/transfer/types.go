package transfer

import "math/big"

// Kind tags the delivery mode of a transfer record.
type Kind uint8

const (
	KindImmediate Kind = iota
	KindScheduled
	KindSplit
	KindBatched
)

func (k Kind) String() string {
	switch k {
	case KindImmediate:
		return "immediate"
	case KindScheduled:
		return "scheduled"
	case KindSplit:
		return "split"
	case KindBatched:
		return "batched"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a transfer. Transitions are monotonic:
// Completed and Cancelled are terminal. Pending is reserved; no current flow
// stores it.
type Status uint8

const (
	StatusPending Status = iota
	StatusLocked
	StatusCompleted
	StatusCancelled
)

// Terminal reports whether no further transition is allowed from the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLocked:
		return "locked"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// BoundKind selects the comparison direction of a time bound.
type BoundKind uint8

const (
	// BoundBefore is satisfied while ledger time has not passed the timestamp.
	BoundBefore BoundKind = iota
	// BoundAfter is satisfied once ledger time has reached the timestamp.
	BoundAfter
)

// TimeBound gates the execution of a custody-held transfer leg.
type TimeBound struct {
	Kind      BoundKind
	Timestamp int64
}

// SatisfiedAt reports whether the bound allows execution at the given time.
func (b TimeBound) SatisfiedAt(now int64) bool {
	switch b.Kind {
	case BoundBefore:
		return now <= b.Timestamp
	case BoundAfter:
		return now >= b.Timestamp
	default:
		return false
	}
}

// Transfer is a ledger record of one value movement. The mode-specific fields
// form a tagged union keyed by Kind: Schedule is set only on custody-held
// scheduled legs, and RateLockID is non-zero only on rate-lock-backed
// transfers. Records are never deleted, only lifetime-refreshed.
type Transfer struct {
	ID         uint64
	Kind       Kind
	From       [20]byte
	To         [20]byte
	Token      string
	Amount     *big.Int
	Status     Status
	CreatedAt  int64
	Schedule   *TimeBound `rlp:"nil"`
	RateLockID uint64
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (t *Transfer) Clone() *Transfer {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Amount != nil {
		clone.Amount = new(big.Int).Set(t.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if t.Schedule != nil {
		bound := *t.Schedule
		clone.Schedule = &bound
	}
	return &clone
}
