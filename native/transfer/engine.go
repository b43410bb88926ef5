package transfer

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"remitledger/core/events"
	"remitledger/native/common"
	"remitledger/native/ratelock"
)

// MaxBatchSize bounds the number of entries in one batched call.
const MaxBatchSize = 50

var (
	errNilState   = errors.New("transfer ledger: state not configured")
	errNilCustody = errors.New("transfer ledger: custody not configured")
)

type ledgerState interface {
	TransferPut(*Transfer) error
	TransferGet(id uint64) (*Transfer, bool, error)
	NextTransferID() (uint64, error)
	RateLockGet(id uint64) (*ratelock.RateLock, bool, error)
	CustodyAddress() [20]byte
}

// Ledger drives the transfer state machine across the four delivery modes.
// Settlement is delegated to the custody primitive; scheduled legs park funds
// under the ledger's own custody address until their time bound is met.
type Ledger struct {
	state   ledgerState
	custody common.Custody
	emitter events.Emitter
	nowFn   func() int64
}

// NewLedger creates a ledger with a no-op emitter.
func NewLedger() *Ledger {
	return &Ledger{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetCustody configures the asset movement primitive.
func (l *Ledger) SetCustody(custody common.Custody) { l.custody = custody }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt *events.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(evt)
}

func (l *Ledger) now() int64 {
	if l == nil || l.nowFn == nil {
		return time.Now().Unix()
	}
	return l.nowFn()
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if l.custody == nil {
		return errNilCustody
	}
	return nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("transfer: amount must be positive: %w", common.ErrInvalid)
	}
	return nil
}

// Immediate settles a transfer synchronously and records it Completed. There
// is no intermediate state.
func (l *Ledger) Immediate(from, to [20]byte, token string, amount *big.Int) (uint64, error) {
	return l.settleNow(KindImmediate, from, to, token, amount, 0)
}

// WithRateLock settles like Immediate after validating the referenced rate
// reservation. The lock is advisory: settlement still executes at current
// conditions, the reservation is not a hedge.
func (l *Ledger) WithRateLock(from, to [20]byte, token string, amount *big.Int, rateLockID uint64) (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	if err := validAmount(amount); err != nil {
		return 0, err
	}
	lock, ok, err := l.state.RateLockGet(rateLockID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("transfer: rate lock %d: %w", rateLockID, common.ErrNotFound)
	}
	if err := ratelock.CheckConsume(lock, from, amount, l.now()); err != nil {
		return 0, err
	}
	return l.settleNow(KindImmediate, from, to, token, amount, rateLockID)
}

func (l *Ledger) settleNow(kind Kind, from, to [20]byte, token string, amount *big.Int, rateLockID uint64) (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	if err := validAmount(amount); err != nil {
		return 0, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return 0, err
	}
	id, err := l.state.NextTransferID()
	if err != nil {
		return 0, err
	}
	if err := l.custody.Transfer(normalized, from, to, amount); err != nil {
		return 0, err
	}
	rec := &Transfer{
		ID:         id,
		Kind:       kind,
		From:       from,
		To:         to,
		Token:      normalized,
		Amount:     new(big.Int).Set(amount),
		Status:     StatusCompleted,
		CreatedAt:  l.now(),
		RateLockID: rateLockID,
	}
	if err := l.state.TransferPut(rec); err != nil {
		return 0, err
	}
	l.emit(NewCompletedEvent(rec))
	return id, nil
}

// Scheduled parks the amount under ledger custody and records a Locked leg
// that becomes executable once executeAfter is reached. The delay has no
// upper bound.
func (l *Ledger) Scheduled(from, to [20]byte, token string, amount *big.Int, executeAfter int64) (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	if executeAfter <= l.now() {
		return 0, fmt.Errorf("transfer: execute-after must be in the future: %w", common.ErrInvalid)
	}
	return l.lockLeg(KindScheduled, from, to, token, amount, executeAfter)
}

func (l *Ledger) lockLeg(kind Kind, from, to [20]byte, token string, amount *big.Int, executeAfter int64) (uint64, error) {
	if err := validAmount(amount); err != nil {
		return 0, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return 0, err
	}
	id, err := l.state.NextTransferID()
	if err != nil {
		return 0, err
	}
	if err := l.custody.Transfer(normalized, from, l.state.CustodyAddress(), amount); err != nil {
		return 0, err
	}
	rec := &Transfer{
		ID:        id,
		Kind:      kind,
		From:      from,
		To:        to,
		Token:     normalized,
		Amount:    new(big.Int).Set(amount),
		Status:    StatusLocked,
		CreatedAt: l.now(),
		Schedule:  &TimeBound{Kind: BoundAfter, Timestamp: executeAfter},
	}
	if err := l.state.TransferPut(rec); err != nil {
		return 0, err
	}
	l.emit(NewLockedEvent(rec))
	return id, nil
}

// ExecuteScheduled releases a Locked leg to its recipient once the time bound
// is satisfied. Deliberately permissionless: the gate is time, not identity.
func (l *Ledger) ExecuteScheduled(id uint64) error {
	if err := l.ready(); err != nil {
		return err
	}
	rec, err := l.load(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusLocked {
		return fmt.Errorf("transfer: %d not awaiting execution: %w", id, common.ErrConflict)
	}
	if rec.Schedule == nil {
		return fmt.Errorf("transfer: %d has no time bound: %w", id, common.ErrConflict)
	}
	if !rec.Schedule.SatisfiedAt(l.now()) {
		return fmt.Errorf("transfer: %d time bound not met: %w", id, common.ErrPrecondition)
	}
	if err := l.custody.Transfer(rec.Token, l.state.CustodyAddress(), rec.To, rec.Amount); err != nil {
		return err
	}
	rec.Status = StatusCompleted
	if err := l.state.TransferPut(rec); err != nil {
		return err
	}
	l.emit(NewCompletedEvent(rec))
	return nil
}

// CancelScheduled refunds a Locked leg to its original sender. Only the
// sender may cancel.
func (l *Ledger) CancelScheduled(caller [20]byte, id uint64) error {
	if err := l.ready(); err != nil {
		return err
	}
	rec, err := l.load(id)
	if err != nil {
		return err
	}
	if rec.From != caller {
		return fmt.Errorf("transfer: caller did not create %d: %w", id, common.ErrUnauthorized)
	}
	if rec.Status != StatusLocked {
		return fmt.Errorf("transfer: %d not awaiting execution: %w", id, common.ErrConflict)
	}
	if err := l.custody.Transfer(rec.Token, l.state.CustodyAddress(), rec.From, rec.Amount); err != nil {
		return err
	}
	rec.Status = StatusCancelled
	if err := l.state.TransferPut(rec); err != nil {
		return err
	}
	l.emit(NewCancelledEvent(rec))
	return nil
}

// Split settles immediatePct percent of the total now and parks the remainder
// as a scheduled leg. A zero-amount leg is not created; its returned
// identifier is the sentinel 0. The two legs always sum to exactly total.
func (l *Ledger) Split(from, to [20]byte, token string, total *big.Int, immediatePct uint32, scheduleAfter int64) (uint64, uint64, error) {
	if err := l.ready(); err != nil {
		return 0, 0, err
	}
	if err := validAmount(total); err != nil {
		return 0, 0, err
	}
	if immediatePct > 100 {
		return 0, 0, fmt.Errorf("transfer: split percentage above 100: %w", common.ErrInvalid)
	}
	if scheduleAfter <= l.now() {
		return 0, 0, fmt.Errorf("transfer: schedule-after must be in the future: %w", common.ErrInvalid)
	}
	immediateAmount := new(big.Int).Mul(total, big.NewInt(int64(immediatePct)))
	immediateAmount.Div(immediateAmount, big.NewInt(100))
	scheduledAmount := new(big.Int).Sub(total, immediateAmount)

	var immediateID, scheduledID uint64
	var err error
	if immediateAmount.Sign() > 0 {
		immediateID, err = l.settleNow(KindSplit, from, to, token, immediateAmount, 0)
		if err != nil {
			return 0, 0, err
		}
	}
	if scheduledAmount.Sign() > 0 {
		scheduledID, err = l.lockLeg(KindSplit, from, to, token, scheduledAmount, scheduleAfter)
		if err != nil {
			return 0, 0, err
		}
	}
	return immediateID, scheduledID, nil
}

// Batch settles up to MaxBatchSize independent immediate transfers sharing
// one sender and token, strictly in input order. Any invalid amount aborts
// the whole call; the surrounding invocation boundary guarantees no partial
// commit survives.
func (l *Ledger) Batch(from [20]byte, recipients [][20]byte, token string, amounts []*big.Int) ([]uint64, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if len(recipients) != len(amounts) {
		return nil, fmt.Errorf("transfer: recipients and amounts length mismatch: %w", common.ErrInvalid)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("transfer: empty batch: %w", common.ErrInvalid)
	}
	if len(recipients) > MaxBatchSize {
		return nil, fmt.Errorf("transfer: batch exceeds %d entries: %w", MaxBatchSize, common.ErrInvalid)
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	now := l.now()
	ids := make([]uint64, 0, len(recipients))
	for i, recipient := range recipients {
		amount := amounts[i]
		if err := validAmount(amount); err != nil {
			return nil, fmt.Errorf("transfer: batch entry %d: %w", i, err)
		}
		id, err := l.state.NextTransferID()
		if err != nil {
			return nil, err
		}
		if err := l.custody.Transfer(normalized, from, recipient, amount); err != nil {
			return nil, err
		}
		rec := &Transfer{
			ID:        id,
			Kind:      KindBatched,
			From:      from,
			To:        recipient,
			Token:     normalized,
			Amount:    new(big.Int).Set(amount),
			Status:    StatusCompleted,
			CreatedAt: now,
		}
		if err := l.state.TransferPut(rec); err != nil {
			return nil, err
		}
		l.emit(NewCompletedEvent(rec))
		ids = append(ids, id)
	}
	return ids, nil
}

// Get returns the transfer with the given identifier.
func (l *Ledger) Get(id uint64) (*Transfer, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	rec, err := l.load(id)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (l *Ledger) load(id uint64) (*Transfer, error) {
	rec, ok, err := l.state.TransferGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("transfer: %d: %w", id, common.ErrNotFound)
	}
	return rec, nil
}
