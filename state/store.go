package state

import (
	"time"

	"remitledger/storage"
)

// Per-entity records are lifetime-managed: each write (and each read that
// finds the remaining lifetime short) re-arms the expiry to now+Target, but
// only once less than Threshold remains. Both are ledger-time seconds.
const (
	defaultTTLThreshold = 518_400 // 6 days
	defaultTTLTarget    = 604_800 // 7 days
)

// TTLPolicy controls when and how far entity lifetimes are extended.
type TTLPolicy struct {
	Threshold int64
	Target    int64
}

// DefaultTTLPolicy returns the 6-day threshold / 7-day target policy.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{Threshold: defaultTTLThreshold, Target: defaultTTLTarget}
}

// Store is the durable ledger state over a key-value backend. All typed
// access goes through a Txn; the store itself only carries the backend, the
// lifetime policy and the clock.
type Store struct {
	db     storage.Database
	policy TTLPolicy
	nowFn  func() int64
}

// NewStore wraps the database with the default TTL policy and wall clock.
func NewStore(db storage.Database) *Store {
	return &Store{
		db:     db,
		policy: DefaultTTLPolicy(),
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// SetTTLPolicy overrides the lifetime policy.
func (s *Store) SetTTLPolicy(policy TTLPolicy) { s.policy = policy }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (s *Store) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	s.nowFn = now
}

func (s *Store) now() int64 { return s.nowFn() }

// Begin opens a staged transaction over the store. Writes are invisible to
// the backend until Commit.
func (s *Store) Begin() *Txn {
	return &Txn{store: s, staged: make(map[string][]byte)}
}

// View runs fn against a transaction that is never committed, for read-only
// access. Lifetime bumps staged by reads are discarded with the rest.
func (s *Store) View(fn func(*Txn) error) error {
	return fn(s.Begin())
}
