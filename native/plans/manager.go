package plans

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"remitledger/core/events"
	"remitledger/native/common"
)

const daySeconds = 86_400

// MaxDurationDays bounds a subscription term.
const MaxDurationDays = 365

var errNilState = errors.New("plans manager: state not configured")

type managerState interface {
	PlanPut(*Plan) error
	PlanGet(owner [20]byte) (*Plan, bool, error)
	IncrementPlanTally() error
}

// Manager administers saver-plan subscriptions.
type Manager struct {
	state   managerState
	emitter events.Emitter
	nowFn   func() int64
}

// NewManager creates a manager with a no-op emitter.
func NewManager() *Manager {
	return &Manager{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the manager.
func (m *Manager) SetState(state managerState) { m.state = state }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (m *Manager) SetNowFunc(now func() int64) {
	if now == nil {
		m.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	m.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

func (m *Manager) emit(evt *events.Event) {
	if m == nil || m.emitter == nil || evt == nil {
		return
	}
	m.emitter.Emit(evt)
}

func (m *Manager) now() int64 {
	if m == nil || m.nowFn == nil {
		return time.Now().Unix()
	}
	return m.nowFn()
}

// Subscribe creates a plan for the owner, replacing any lapsed one. It fails
// while a previous plan is still active and unexpired. Accumulators start at
// zero on every subscription.
func (m *Manager) Subscribe(owner [20]byte, tier Tier, durationDays uint32) (*Plan, error) {
	if m == nil || m.state == nil {
		return nil, errNilState
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("plans: unknown tier %d: %w", tier, common.ErrInvalid)
	}
	if durationDays == 0 || durationDays > MaxDurationDays {
		return nil, fmt.Errorf("plans: duration must be 1-%d days: %w", MaxDurationDays, common.ErrInvalid)
	}
	now := m.now()
	existing, ok, err := m.state.PlanGet(owner)
	if err != nil {
		return nil, err
	}
	if ok && existing.Active && now < existing.EndDate {
		return nil, fmt.Errorf("plans: owner already holds an active plan: %w", common.ErrPrecondition)
	}
	plan := &Plan{
		Owner:       owner,
		Tier:        tier,
		TotalVolume: big.NewInt(0),
		DiscountBps: tier.DiscountBps(),
		StartDate:   now,
		EndDate:     now + int64(durationDays)*daySeconds,
		Active:      true,
	}
	if err := m.state.PlanPut(plan); err != nil {
		return nil, err
	}
	if err := m.state.IncrementPlanTally(); err != nil {
		return nil, err
	}
	m.emit(NewSubscribedEvent(plan))
	return plan.Clone(), nil
}

// Get returns the owner's plan if one exists. Absence is a valid outcome, not
// an error.
func (m *Manager) Get(owner [20]byte) (*Plan, bool, error) {
	if m == nil || m.state == nil {
		return nil, false, errNilState
	}
	plan, ok, err := m.state.PlanGet(owner)
	if err != nil || !ok {
		return nil, false, err
	}
	return plan.Clone(), true, nil
}

// Cancel deactivates the owner's plan. Cancelling an inactive plan fails.
func (m *Manager) Cancel(owner [20]byte) error {
	if m == nil || m.state == nil {
		return errNilState
	}
	plan, ok, err := m.state.PlanGet(owner)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("plans: no plan for owner: %w", common.ErrNotFound)
	}
	if !plan.Active {
		return fmt.Errorf("plans: plan already inactive: %w", common.ErrConflict)
	}
	plan.Active = false
	if err := m.state.PlanPut(plan); err != nil {
		return err
	}
	m.emit(NewCancelledEvent(plan))
	return nil
}
