// Package remit is the operation surface of the ledger. The Service wires
// the engines to durable state, enforces authorization and the pause switch,
// and gives every invocation a single transaction so that an error anywhere
// leaves no trace.
package remit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"remitledger/auth"
	"remitledger/core/events"
	"remitledger/native/common"
	"remitledger/native/plans"
	"remitledger/native/ratelock"
	"remitledger/native/swap"
	"remitledger/native/transfer"
	"remitledger/observability/metrics"
	"remitledger/state"
)

// Service composes the engines over one durable store. All mutating
// operations run inside a staged transaction committed only on success;
// events buffered during the invocation reach the sink only after commit.
type Service struct {
	store      *state.Store
	authorizer auth.Authorizer
	venue      swap.Venue
	sink       events.Emitter
	logger     *slog.Logger
	metrics    *metrics.RemitMetrics
	nowFn      func() int64
}

// NewService builds a service over the store. A nil authorizer accepts every
// credential; production wiring passes the JWT authorizer.
func NewService(store *state.Store, authorizer auth.Authorizer) *Service {
	if authorizer == nil {
		authorizer = auth.AllowAll{}
	}
	return &Service{
		store:      store,
		authorizer: authorizer,
		sink:       events.NoopEmitter{},
		logger:     slog.Default(),
		nowFn:      func() int64 { return time.Now().Unix() },
	}
}

// SetVenue wires the external swap venue.
func (s *Service) SetVenue(venue swap.Venue) { s.venue = venue }

// SetEventSink receives committed events. Passing nil drops them.
func (s *Service) SetEventSink(sink events.Emitter) {
	if sink == nil {
		sink = events.NoopEmitter{}
	}
	s.sink = sink
}

// SetLogger overrides the structured logger.
func (s *Service) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// SetMetrics wires the Prometheus instrumentation.
func (s *Service) SetMetrics(m *metrics.RemitMetrics) { s.metrics = m }

// SetNowFunc overrides the clock for the service and the store beneath it.
// Primarily intended for tests.
func (s *Service) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	s.nowFn = now
	s.store.SetNowFunc(now)
}

// run is the invocation boundary: one transaction, one event buffer, commit
// then flush. Any error discards both.
func (s *Service) run(operation string, fn func(tx *state.Txn, rec *events.Recorder) error) error {
	invocation := uuid.NewString()
	tx := s.store.Begin()
	rec := events.NewRecorder()
	err := fn(tx, rec)
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		tx.Discard()
		s.metrics.ObserveOperation(operation, "error")
		s.logger.Warn("operation failed",
			slog.String("operation", operation),
			slog.String("invocation", invocation),
			slog.String("error", err.Error()))
		return err
	}
	rec.FlushTo(s.sink)
	s.metrics.ObserveOperation(operation, "ok")
	s.logger.Info("operation applied",
		slog.String("operation", operation),
		slog.String("invocation", invocation))
	return nil
}

// view runs fn against a read-only transaction that is never committed.
func (s *Service) view(fn func(tx *state.Txn) error) error {
	return s.store.View(fn)
}

// CustodyAddress returns the ledger vault address holding scheduled legs and
// in-flight conversions.
func (s *Service) CustodyAddress() [20]byte {
	var vault [20]byte
	_ = s.view(func(tx *state.Txn) error {
		vault = tx.CustodyAddress()
		return nil
	})
	return vault
}

// guard authorizes the account and checks the instance gates shared by all
// user-facing mutations.
func (s *Service) guard(tx *state.Txn, credential string, account [20]byte) error {
	if err := s.authorizer.Authorize(credential, account); err != nil {
		return err
	}
	inst, err := tx.InstanceGet()
	if err != nil {
		return err
	}
	if !inst.Initialized {
		return fmt.Errorf("remit: ledger not initialized: %w", common.ErrNotConfigured)
	}
	if inst.Paused {
		return fmt.Errorf("remit: ledger is paused: %w", common.ErrConflict)
	}
	return nil
}

// venueGuard checks that the admin has recorded a router address. Mutating
// conversion operations require both the recorded address and the wired venue;
// a process wired to a venue the admin never sanctioned must not trade.
func (s *Service) venueGuard(tx *state.Txn) error {
	inst, err := tx.InstanceGet()
	if err != nil {
		return err
	}
	if inst.RouterVenue == ([20]byte{}) {
		return fmt.Errorf("remit: router venue not set: %w", common.ErrNotConfigured)
	}
	return nil
}

// adminGuard authorizes the credential as the admin. Admin switches stay
// available while paused.
func (s *Service) adminGuard(tx *state.Txn, credential string) (*state.Instance, error) {
	inst, err := tx.InstanceGet()
	if err != nil {
		return nil, err
	}
	if !inst.Initialized {
		return nil, fmt.Errorf("remit: ledger not initialized: %w", common.ErrNotConfigured)
	}
	if err := s.authorizer.Authorize(credential, inst.Admin); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Service) ledger(tx *state.Txn, rec events.Emitter) *transfer.Ledger {
	l := transfer.NewLedger()
	l.SetState(tx)
	l.SetCustody(tx)
	l.SetNowFunc(s.nowFn)
	l.SetEmitter(rec)
	return l
}

func (s *Service) registry(tx *state.Txn, rec events.Emitter) *ratelock.Registry {
	r := ratelock.NewRegistry()
	r.SetState(tx)
	r.SetNowFunc(s.nowFn)
	r.SetEmitter(rec)
	return r
}

func (s *Service) planManager(tx *state.Txn, rec events.Emitter) *plans.Manager {
	m := plans.NewManager()
	m.SetState(tx)
	m.SetNowFunc(s.nowFn)
	m.SetEmitter(rec)
	return m
}

func (s *Service) orchestrator(tx *state.Txn, rec events.Emitter) *swap.Orchestrator {
	o := swap.NewOrchestrator()
	o.SetState(tx)
	o.SetCustody(tx)
	o.SetVenue(s.venue)
	o.SetNowFunc(s.nowFn)
	o.SetEmitter(rec)
	return o
}
