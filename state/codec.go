package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"remitledger/native/plans"
	"remitledger/native/ratelock"
	"remitledger/native/transfer"
)

// envelope wraps every per-entity payload with its expiry so lifetime
// management stays orthogonal to the record codec.
type envelope struct {
	ExpiresAt uint64
	Payload   []byte
}

// Stored twins of the engine types. RLP has no signed integers, so ledger
// timestamps travel as uint64 here and convert back at the boundary.

type storedTimeBound struct {
	Kind      uint8
	Timestamp uint64
}

type storedTransfer struct {
	ID         uint64
	Kind       uint8
	From       [20]byte
	To         [20]byte
	Token      string
	Amount     *big.Int
	Status     uint8
	CreatedAt  uint64
	Schedule   *storedTimeBound `rlp:"nil"`
	RateLockID uint64
}

type storedRateLock struct {
	ID         uint64
	Owner      [20]byte
	FromToken  string
	ToToken    string
	LockedRate *big.Int
	Amount     *big.Int
	Expiry     uint64
	Active     bool
	CreatedAt  uint64
}

type storedPlan struct {
	Owner         [20]byte
	Tier          uint8
	TransferCount uint32
	TotalVolume   *big.Int
	DiscountBps   uint32
	StartDate     uint64
	EndDate       uint64
	Active        bool
}

// Instance is the singleton control record: admin identity, the pause
// switch, configured venue addresses, the monotonic ID counters and the
// subscription tally. It lives outside the TTL regime.
type Instance struct {
	Initialized     bool
	Admin           [20]byte
	Paused          bool
	RouterVenue     [20]byte
	FactoryVenue    [20]byte
	TransferCounter uint64
	RateLockCounter uint64
	PlanTally       uint64
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func encodeTransfer(t *transfer.Transfer) ([]byte, error) {
	rec := &storedTransfer{
		ID:         t.ID,
		Kind:       uint8(t.Kind),
		From:       t.From,
		To:         t.To,
		Token:      t.Token,
		Amount:     bigOrZero(t.Amount),
		Status:     uint8(t.Status),
		CreatedAt:  uint64(t.CreatedAt),
		RateLockID: t.RateLockID,
	}
	if t.Schedule != nil {
		rec.Schedule = &storedTimeBound{
			Kind:      uint8(t.Schedule.Kind),
			Timestamp: uint64(t.Schedule.Timestamp),
		}
	}
	return rlp.EncodeToBytes(rec)
}

func decodeTransfer(data []byte) (*transfer.Transfer, error) {
	rec := new(storedTransfer)
	if err := rlp.DecodeBytes(data, rec); err != nil {
		return nil, err
	}
	t := &transfer.Transfer{
		ID:         rec.ID,
		Kind:       transfer.Kind(rec.Kind),
		From:       rec.From,
		To:         rec.To,
		Token:      rec.Token,
		Amount:     bigOrZero(rec.Amount),
		Status:     transfer.Status(rec.Status),
		CreatedAt:  int64(rec.CreatedAt),
		RateLockID: rec.RateLockID,
	}
	if rec.Schedule != nil {
		t.Schedule = &transfer.TimeBound{
			Kind:      transfer.BoundKind(rec.Schedule.Kind),
			Timestamp: int64(rec.Schedule.Timestamp),
		}
	}
	return t, nil
}

func encodeRateLock(l *ratelock.RateLock) ([]byte, error) {
	return rlp.EncodeToBytes(&storedRateLock{
		ID:         l.ID,
		Owner:      l.Owner,
		FromToken:  l.FromToken,
		ToToken:    l.ToToken,
		LockedRate: bigOrZero(l.LockedRate),
		Amount:     bigOrZero(l.Amount),
		Expiry:     uint64(l.Expiry),
		Active:     l.Active,
		CreatedAt:  uint64(l.CreatedAt),
	})
}

func decodeRateLock(data []byte) (*ratelock.RateLock, error) {
	rec := new(storedRateLock)
	if err := rlp.DecodeBytes(data, rec); err != nil {
		return nil, err
	}
	return &ratelock.RateLock{
		ID:         rec.ID,
		Owner:      rec.Owner,
		FromToken:  rec.FromToken,
		ToToken:    rec.ToToken,
		LockedRate: bigOrZero(rec.LockedRate),
		Amount:     bigOrZero(rec.Amount),
		Expiry:     int64(rec.Expiry),
		Active:     rec.Active,
		CreatedAt:  int64(rec.CreatedAt),
	}, nil
}

func encodePlan(p *plans.Plan) ([]byte, error) {
	return rlp.EncodeToBytes(&storedPlan{
		Owner:         p.Owner,
		Tier:          uint8(p.Tier),
		TransferCount: p.TransferCount,
		TotalVolume:   bigOrZero(p.TotalVolume),
		DiscountBps:   p.DiscountBps,
		StartDate:     uint64(p.StartDate),
		EndDate:       uint64(p.EndDate),
		Active:        p.Active,
	})
}

func decodePlan(data []byte) (*plans.Plan, error) {
	rec := new(storedPlan)
	if err := rlp.DecodeBytes(data, rec); err != nil {
		return nil, err
	}
	return &plans.Plan{
		Owner:         rec.Owner,
		Tier:          plans.Tier(rec.Tier),
		TransferCount: rec.TransferCount,
		TotalVolume:   bigOrZero(rec.TotalVolume),
		DiscountBps:   rec.DiscountBps,
		StartDate:     int64(rec.StartDate),
		EndDate:       int64(rec.EndDate),
		Active:        rec.Active,
	}, nil
}
