package remit

import (
	"fmt"

	"remitledger/core/events"
	"remitledger/native/common"
	"remitledger/state"
)

// Initialize claims the ledger for the admin account. It succeeds exactly
// once; later calls fail with a conflict regardless of caller.
func (s *Service) Initialize(credential string, admin [20]byte) error {
	return s.run("initialize", func(tx *state.Txn, _ *events.Recorder) error {
		if err := s.authorizer.Authorize(credential, admin); err != nil {
			return err
		}
		inst, err := tx.InstanceGet()
		if err != nil {
			return err
		}
		if inst.Initialized {
			return fmt.Errorf("remit: already initialized: %w", common.ErrConflict)
		}
		inst.Initialized = true
		inst.Admin = admin
		return tx.InstancePut(inst)
	})
}

// Pause halts all user-facing mutations. Admin only; idempotent.
func (s *Service) Pause(credential string) error {
	return s.run("pause", func(tx *state.Txn, _ *events.Recorder) error {
		inst, err := s.adminGuard(tx, credential)
		if err != nil {
			return err
		}
		inst.Paused = true
		return tx.InstancePut(inst)
	})
}

// Unpause lifts the pause switch. Admin only; idempotent.
func (s *Service) Unpause(credential string) error {
	return s.run("unpause", func(tx *state.Txn, _ *events.Recorder) error {
		inst, err := s.adminGuard(tx, credential)
		if err != nil {
			return err
		}
		inst.Paused = false
		return tx.InstancePut(inst)
	})
}

// SetRouterVenue records the router address of the pool venue. Admin only.
func (s *Service) SetRouterVenue(credential string, venue [20]byte) error {
	return s.run("set_router_venue", func(tx *state.Txn, _ *events.Recorder) error {
		inst, err := s.adminGuard(tx, credential)
		if err != nil {
			return err
		}
		inst.RouterVenue = venue
		return tx.InstancePut(inst)
	})
}

// SetFactoryVenue records the factory address of the pool venue. Admin only.
func (s *Service) SetFactoryVenue(credential string, venue [20]byte) error {
	return s.run("set_factory_venue", func(tx *state.Txn, _ *events.Recorder) error {
		inst, err := s.adminGuard(tx, credential)
		if err != nil {
			return err
		}
		inst.FactoryVenue = venue
		return tx.InstancePut(inst)
	})
}

// Admin returns the admin address recorded at initialization.
func (s *Service) Admin() ([20]byte, error) {
	var admin [20]byte
	err := s.view(func(tx *state.Txn) error {
		inst, err := tx.InstanceGet()
		if err != nil {
			return err
		}
		if !inst.Initialized {
			return fmt.Errorf("remit: ledger not initialized: %w", common.ErrNotConfigured)
		}
		admin = inst.Admin
		return nil
	})
	return admin, err
}

// Paused reports the pause switch.
func (s *Service) Paused() (bool, error) {
	var paused bool
	err := s.view(func(tx *state.Txn) error {
		inst, err := tx.InstanceGet()
		if err != nil {
			return err
		}
		paused = inst.Paused
		return nil
	})
	return paused, err
}

// RouterVenue returns the configured router address.
func (s *Service) RouterVenue() ([20]byte, error) {
	var venue [20]byte
	err := s.view(func(tx *state.Txn) error {
		inst, err := tx.InstanceGet()
		if err != nil {
			return err
		}
		venue = inst.RouterVenue
		return nil
	})
	return venue, err
}

// FactoryVenue returns the configured factory address.
func (s *Service) FactoryVenue() ([20]byte, error) {
	var venue [20]byte
	err := s.view(func(tx *state.Txn) error {
		inst, err := tx.InstanceGet()
		if err != nil {
			return err
		}
		venue = inst.FactoryVenue
		return nil
	})
	return venue, err
}

// PlanTally returns the lifetime count of plan subscriptions.
func (s *Service) PlanTally() (uint64, error) {
	var tally uint64
	err := s.view(func(tx *state.Txn) error {
		inst, err := tx.InstanceGet()
		if err != nil {
			return err
		}
		tally = inst.PlanTally
		return nil
	})
	return tally, err
}
