// Package auth decides whether a presented credential may act as a ledger
// account. The facade consults an Authorizer before every mutating
// operation; transport-level concerns (headers, scopes) stay in the daemon.
package auth

import (
	"fmt"

	"remitledger/native/common"
)

// Authorizer validates that the credential grants control of the account.
type Authorizer interface {
	Authorize(credential string, account [20]byte) error
}

// AllowAll accepts every credential. Test and single-operator deployments
// only.
type AllowAll struct{}

// Authorize always succeeds.
func (AllowAll) Authorize(string, [20]byte) error { return nil }

// Static authorizes accounts by exact credential match. Intended for tests.
type Static struct {
	Credentials map[string][20]byte
}

// Authorize succeeds when the credential is known and bound to the account.
func (s Static) Authorize(credential string, account [20]byte) error {
	bound, ok := s.Credentials[credential]
	if !ok || bound != account {
		return fmt.Errorf("auth: credential not valid for account: %w", common.ErrUnauthorized)
	}
	return nil
}
