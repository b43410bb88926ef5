package remit

import (
	"math/big"

	"remitledger/core/events"
	"remitledger/native/common"
	"remitledger/native/plans"
	"remitledger/native/ratelock"
	"remitledger/native/transfer"
	"remitledger/state"
)

// Deposit credits an on-ramped amount onto the account's balance.
func (s *Service) Deposit(credential string, account [20]byte, token string, amount *big.Int) error {
	return s.run("deposit", func(tx *state.Txn, _ *events.Recorder) error {
		if err := s.guard(tx, credential, account); err != nil {
			return err
		}
		normalized, err := common.NormalizeToken(token)
		if err != nil {
			return err
		}
		return tx.Credit(normalized, account, amount)
	})
}

// TransferImmediate settles a direct transfer in one invocation.
func (s *Service) TransferImmediate(credential string, from, to [20]byte, token string, amount *big.Int) (uint64, error) {
	var id uint64
	err := s.run("transfer_immediate", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, from); err != nil {
			return err
		}
		var err error
		id, err = s.ledger(tx, rec).Immediate(from, to, token, amount)
		return err
	})
	return id, err
}

// TransferWithRateLock settles a direct transfer backed by a rate
// reservation.
func (s *Service) TransferWithRateLock(credential string, from, to [20]byte, token string, amount *big.Int, rateLockID uint64) (uint64, error) {
	var id uint64
	err := s.run("transfer_with_rate_lock", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, from); err != nil {
			return err
		}
		var err error
		id, err = s.ledger(tx, rec).WithRateLock(from, to, token, amount, rateLockID)
		return err
	})
	return id, err
}

// ScheduleTransfer locks funds under custody for release after the given
// ledger time.
func (s *Service) ScheduleTransfer(credential string, from, to [20]byte, token string, amount *big.Int, executeAfter int64) (uint64, error) {
	var id uint64
	err := s.run("schedule_transfer", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, from); err != nil {
			return err
		}
		var err error
		id, err = s.ledger(tx, rec).Scheduled(from, to, token, amount, executeAfter)
		return err
	})
	return id, err
}

// ExecuteScheduled releases a matured scheduled transfer. The release itself
// is permissionless; the credential only identifies the triggering account.
func (s *Service) ExecuteScheduled(credential string, caller [20]byte, id uint64) error {
	return s.run("execute_scheduled", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, caller); err != nil {
			return err
		}
		return s.ledger(tx, rec).ExecuteScheduled(id)
	})
}

// CancelScheduled refunds a pending scheduled transfer to its sender.
func (s *Service) CancelScheduled(credential string, caller [20]byte, id uint64) error {
	return s.run("cancel_scheduled", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, caller); err != nil {
			return err
		}
		return s.ledger(tx, rec).CancelScheduled(caller, id)
	})
}

// SplitTransfer settles a percentage immediately and schedules the rest.
// A zero-valued leg is skipped and reported with identifier 0.
func (s *Service) SplitTransfer(credential string, from, to [20]byte, token string, total *big.Int, immediatePct uint32, scheduleAfter int64) (uint64, uint64, error) {
	var immediateID, scheduledID uint64
	err := s.run("split_transfer", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, from); err != nil {
			return err
		}
		var err error
		immediateID, scheduledID, err = s.ledger(tx, rec).Split(from, to, token, total, immediatePct, scheduleAfter)
		return err
	})
	return immediateID, scheduledID, err
}

// BatchTransfer settles up to the batch limit of transfers atomically: one
// invalid entry aborts the whole batch.
func (s *Service) BatchTransfer(credential string, from [20]byte, recipients [][20]byte, token string, amounts []*big.Int) ([]uint64, error) {
	var ids []uint64
	err := s.run("batch_transfer", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, from); err != nil {
			return err
		}
		var err error
		ids, err = s.ledger(tx, rec).Batch(from, recipients, token, amounts)
		return err
	})
	return ids, err
}

// GetTransfer loads a transfer record.
func (s *Service) GetTransfer(id uint64) (*transfer.Transfer, error) {
	var rec *transfer.Transfer
	err := s.view(func(tx *state.Txn) error {
		var err error
		rec, err = s.ledger(tx, events.NoopEmitter{}).Get(id)
		return err
	})
	return rec, err
}

// CreateRateLock reserves an exchange rate for the owner.
func (s *Service) CreateRateLock(credential string, owner [20]byte, fromToken, toToken string, rate, amount *big.Int, durationSeconds int64) (uint64, error) {
	var id uint64
	err := s.run("create_rate_lock", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, owner); err != nil {
			return err
		}
		lock, err := s.registry(tx, rec).Create(owner, fromToken, toToken, rate, amount, durationSeconds)
		if err != nil {
			return err
		}
		id = lock.ID
		return nil
	})
	return id, err
}

// GetRateLock loads a rate lock record.
func (s *Service) GetRateLock(id uint64) (*ratelock.RateLock, error) {
	var lock *ratelock.RateLock
	err := s.view(func(tx *state.Txn) error {
		var err error
		lock, err = s.registry(tx, events.NoopEmitter{}).Get(id)
		return err
	})
	return lock, err
}

// CancelRateLock deactivates an owner's rate lock.
func (s *Service) CancelRateLock(credential string, owner [20]byte, id uint64) error {
	return s.run("cancel_rate_lock", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, owner); err != nil {
			return err
		}
		return s.registry(tx, rec).Cancel(owner, id)
	})
}

// Subscribe opens a saver plan for the owner.
func (s *Service) Subscribe(credential string, owner [20]byte, tier plans.Tier, durationDays uint32) (*plans.Plan, error) {
	var plan *plans.Plan
	err := s.run("subscribe_plan", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, owner); err != nil {
			return err
		}
		var err error
		plan, err = s.planManager(tx, rec).Subscribe(owner, tier, durationDays)
		return err
	})
	return plan, err
}

// GetPlan loads the owner's plan, reporting absence without error.
func (s *Service) GetPlan(owner [20]byte) (*plans.Plan, bool, error) {
	var (
		plan *plans.Plan
		ok   bool
	)
	err := s.view(func(tx *state.Txn) error {
		var err error
		plan, ok, err = s.planManager(tx, events.NoopEmitter{}).Get(owner)
		return err
	})
	return plan, ok, err
}

// CancelPlan deactivates the owner's plan.
func (s *Service) CancelPlan(credential string, owner [20]byte) error {
	return s.run("cancel_plan", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, owner); err != nil {
			return err
		}
		return s.planManager(tx, rec).Cancel(owner)
	})
}

// BalanceOf returns the account's balance for a token.
func (s *Service) BalanceOf(token string, account [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := s.view(func(tx *state.Txn) error {
		normalized, err := common.NormalizeToken(token)
		if err != nil {
			return err
		}
		balance, err = tx.BalanceOf(normalized, account)
		return err
	})
	return balance, err
}
