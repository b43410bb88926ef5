package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"remitledger/native/plans"
	"remitledger/native/ratelock"
	"remitledger/native/transfer"
	"remitledger/storage"
)

// ErrTxnClosed is returned when a transaction is used after Commit.
var ErrTxnClosed = errors.New("state: transaction already closed")

// Txn is a staged overlay over the store. Reads fall through to the backend,
// writes collect in memory, and Commit flushes them in deterministic key
// order. A failed invocation simply drops its Txn; no partial state is ever
// observable through the backend.
type Txn struct {
	store  *Store
	staged map[string][]byte // nil value marks a delete
	closed bool
}

func (tx *Txn) rawGet(key []byte) ([]byte, bool, error) {
	if tx.closed {
		return nil, false, ErrTxnClosed
	}
	if value, ok := tx.staged[string(key)]; ok {
		if value == nil {
			return nil, false, nil
		}
		return value, true, nil
	}
	value, err := tx.store.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (tx *Txn) rawPut(key, value []byte) error {
	if tx.closed {
		return ErrTxnClosed
	}
	tx.staged[string(key)] = value
	return nil
}

// Commit submits the staged writes as one atomic backend batch, in sorted
// key order, and closes the transaction. A failed write persists nothing:
// the backend applies the batch entirely or not at all.
func (tx *Txn) Commit() error {
	if tx.closed {
		return ErrTxnClosed
	}
	tx.closed = true
	keys := make([]string, 0, len(tx.staged))
	for key := range tx.staged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	batch := new(storage.Batch)
	for _, key := range keys {
		value := tx.staged[key]
		if value == nil {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), value)
	}
	if err := tx.store.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit batch: %w", err)
	}
	return nil
}

// Discard closes the transaction without writing anything.
func (tx *Txn) Discard() {
	tx.closed = true
	tx.staged = nil
}

// getEntity reads a lifetime-wrapped record. Expired records read as absent.
// A read that finds the remaining lifetime below the policy threshold stages
// a re-armed envelope alongside the unchanged payload.
func (tx *Txn) getEntity(key []byte) ([]byte, bool, error) {
	raw, ok, err := tx.rawGet(key)
	if err != nil || !ok {
		return nil, false, err
	}
	env := new(envelope)
	if err := rlp.DecodeBytes(raw, env); err != nil {
		return nil, false, fmt.Errorf("state: corrupt envelope: %w", err)
	}
	now := tx.store.now()
	if int64(env.ExpiresAt) < now {
		return nil, false, nil
	}
	if int64(env.ExpiresAt)-now < tx.store.policy.Threshold {
		if err := tx.sealEntity(key, env.Payload, uint64(now+tx.store.policy.Target)); err != nil {
			return nil, false, err
		}
	}
	return env.Payload, true, nil
}

// putEntity writes a lifetime-wrapped record. A healthy existing expiry is
// kept; a missing, expired or short one re-arms to now+Target.
func (tx *Txn) putEntity(key, payload []byte) error {
	now := tx.store.now()
	expiresAt := uint64(now + tx.store.policy.Target)
	if raw, ok, err := tx.rawGet(key); err != nil {
		return err
	} else if ok {
		env := new(envelope)
		if err := rlp.DecodeBytes(raw, env); err == nil {
			if remaining := int64(env.ExpiresAt) - now; remaining >= tx.store.policy.Threshold {
				expiresAt = env.ExpiresAt
			}
		}
	}
	return tx.sealEntity(key, payload, expiresAt)
}

func (tx *Txn) sealEntity(key, payload []byte, expiresAt uint64) error {
	raw, err := rlp.EncodeToBytes(&envelope{ExpiresAt: expiresAt, Payload: payload})
	if err != nil {
		return err
	}
	return tx.rawPut(key, raw)
}

// InstanceGet returns the singleton control record, zero-valued when the
// ledger has never been initialised.
func (tx *Txn) InstanceGet() (*Instance, error) {
	raw, ok, err := tx.rawGet(instanceKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Instance{}, nil
	}
	inst := new(Instance)
	if err := rlp.DecodeBytes(raw, inst); err != nil {
		return nil, fmt.Errorf("state: corrupt instance record: %w", err)
	}
	return inst, nil
}

// InstancePut stores the singleton control record.
func (tx *Txn) InstancePut(inst *Instance) error {
	raw, err := rlp.EncodeToBytes(inst)
	if err != nil {
		return err
	}
	return tx.rawPut(instanceKey, raw)
}

// NextTransferID allocates the next transfer identifier. IDs start at 1;
// zero stays reserved as the sentinel for skipped legs.
func (tx *Txn) NextTransferID() (uint64, error) {
	inst, err := tx.InstanceGet()
	if err != nil {
		return 0, err
	}
	inst.TransferCounter++
	if err := tx.InstancePut(inst); err != nil {
		return 0, err
	}
	return inst.TransferCounter, nil
}

// NextRateLockID allocates the next rate lock identifier.
func (tx *Txn) NextRateLockID() (uint64, error) {
	inst, err := tx.InstanceGet()
	if err != nil {
		return 0, err
	}
	inst.RateLockCounter++
	if err := tx.InstancePut(inst); err != nil {
		return 0, err
	}
	return inst.RateLockCounter, nil
}

// IncrementPlanTally bumps the lifetime subscription counter.
func (tx *Txn) IncrementPlanTally() error {
	inst, err := tx.InstanceGet()
	if err != nil {
		return err
	}
	inst.PlanTally++
	return tx.InstancePut(inst)
}

// CustodyAddress returns the ledger vault address.
func (tx *Txn) CustodyAddress() [20]byte { return custodyAddress() }

// TransferPut stores a transfer record under the lifetime regime.
func (tx *Txn) TransferPut(t *transfer.Transfer) error {
	payload, err := encodeTransfer(t)
	if err != nil {
		return err
	}
	return tx.putEntity(transferKey(t.ID), payload)
}

// TransferGet loads a transfer record by identifier.
func (tx *Txn) TransferGet(id uint64) (*transfer.Transfer, bool, error) {
	payload, ok, err := tx.getEntity(transferKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	t, err := decodeTransfer(payload)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// RateLockPut stores a rate lock record under the lifetime regime.
func (tx *Txn) RateLockPut(l *ratelock.RateLock) error {
	payload, err := encodeRateLock(l)
	if err != nil {
		return err
	}
	return tx.putEntity(ratelockKey(l.ID), payload)
}

// RateLockGet loads a rate lock record by identifier.
func (tx *Txn) RateLockGet(id uint64) (*ratelock.RateLock, bool, error) {
	payload, ok, err := tx.getEntity(ratelockKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	l, err := decodeRateLock(payload)
	if err != nil {
		return nil, false, err
	}
	return l, true, nil
}

// PlanPut stores a plan record, keyed by owner, under the lifetime regime.
func (tx *Txn) PlanPut(p *plans.Plan) error {
	payload, err := encodePlan(p)
	if err != nil {
		return err
	}
	return tx.putEntity(planKey(p.Owner), payload)
}

// PlanGet loads the plan record of an owner.
func (tx *Txn) PlanGet(owner [20]byte) (*plans.Plan, bool, error) {
	payload, ok, err := tx.getEntity(planKey(owner))
	if err != nil || !ok {
		return nil, false, err
	}
	p, err := decodePlan(payload)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
