package ratelock

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"remitledger/core/events"
	"remitledger/native/common"
)

var (
	errNilState = errors.New("ratelock registry: state not configured")
)

type registryState interface {
	RateLockPut(*RateLock) error
	RateLockGet(id uint64) (*RateLock, bool, error)
	NextRateLockID() (uint64, error)
}

// Registry manages exchange-rate reservations. Expiry is evaluated lazily by
// consumers against ledger time; the registry never sweeps expired records.
type Registry struct {
	state   registryState
	emitter events.Emitter
	nowFn   func() int64
}

// NewRegistry creates a registry with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewRegistry() *Registry {
	return &Registry{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) emit(evt *events.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(evt)
}

func (r *Registry) now() int64 {
	if r == nil || r.nowFn == nil {
		return time.Now().Unix()
	}
	return r.nowFn()
}

// Create reserves a rate between two assets and returns the lock identifier.
// The reservation window starts now and may not exceed MaxDurationSeconds.
func (r *Registry) Create(owner [20]byte, fromToken, toToken string, rate, amount *big.Int, durationSeconds int64) (*RateLock, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	from, err := common.NormalizeToken(fromToken)
	if err != nil {
		return nil, err
	}
	to, err := common.NormalizeToken(toToken)
	if err != nil {
		return nil, err
	}
	if rate == nil || rate.Sign() <= 0 {
		return nil, fmt.Errorf("ratelock: rate must be positive: %w", common.ErrInvalid)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("ratelock: amount must be positive: %w", common.ErrInvalid)
	}
	if durationSeconds < 0 || durationSeconds > MaxDurationSeconds {
		return nil, fmt.Errorf("ratelock: duration exceeds 24h limit: %w", common.ErrInvalid)
	}
	id, err := r.state.NextRateLockID()
	if err != nil {
		return nil, err
	}
	now := r.now()
	lock := &RateLock{
		ID:         id,
		Owner:      owner,
		FromToken:  from,
		ToToken:    to,
		LockedRate: new(big.Int).Set(rate),
		Amount:     new(big.Int).Set(amount),
		Expiry:     now + durationSeconds,
		Active:     true,
		CreatedAt:  now,
	}
	if err := r.state.RateLockPut(lock); err != nil {
		return nil, err
	}
	r.emit(NewCreatedEvent(lock))
	return lock.Clone(), nil
}

// Get returns the lock with the given identifier.
func (r *Registry) Get(id uint64) (*RateLock, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	lock, ok, err := r.state.RateLockGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ratelock: lock %d: %w", id, common.ErrNotFound)
	}
	return lock.Clone(), nil
}

// Cancel deactivates an active lock. Only the owner may cancel, and cancelling
// an already-inactive lock fails.
func (r *Registry) Cancel(owner [20]byte, id uint64) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	lock, ok, err := r.state.RateLockGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ratelock: lock %d: %w", id, common.ErrNotFound)
	}
	if lock.Owner != owner {
		return fmt.Errorf("ratelock: caller does not own lock %d: %w", id, common.ErrUnauthorized)
	}
	if !lock.Active {
		return fmt.Errorf("ratelock: lock %d already inactive: %w", id, common.ErrConflict)
	}
	lock.Active = false
	if err := r.state.RateLockPut(lock); err != nil {
		return err
	}
	r.emit(NewCancelledEvent(lock))
	return nil
}

// CheckConsume validates that a lock can back a consuming transfer of the
// given size at the given time. The lock is advisory: consumption does not
// reduce the ceiling.
func CheckConsume(lock *RateLock, caller [20]byte, amount *big.Int, now int64) error {
	if lock == nil {
		return fmt.Errorf("ratelock: %w", common.ErrNotFound)
	}
	if lock.Owner != caller {
		return fmt.Errorf("ratelock: caller does not own lock %d: %w", lock.ID, common.ErrUnauthorized)
	}
	if !lock.Active {
		return fmt.Errorf("ratelock: lock %d inactive: %w", lock.ID, common.ErrConflict)
	}
	if now > lock.Expiry {
		return fmt.Errorf("ratelock: lock %d expired: %w", lock.ID, common.ErrPrecondition)
	}
	if amount == nil || lock.Amount == nil || amount.Cmp(lock.Amount) > 0 {
		return fmt.Errorf("ratelock: amount exceeds lock %d ceiling: %w", lock.ID, common.ErrPrecondition)
	}
	return nil
}
