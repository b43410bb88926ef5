package common

import (
	"fmt"
	"math/big"
	"strings"
)

// Custody is the asset movement primitive consumed by the engines. It is
// synchronous and must fail when the source balance is insufficient; the
// implementation is external to the ledger core.
type Custody interface {
	Transfer(token string, from, to [20]byte, amount *big.Int) error
}

// NormalizeToken canonicalises a token symbol. Unlike a chain with a fixed
// native pair, the remittance ledger moves arbitrary custody-backed assets,
// so any non-empty symbol is accepted in its uppercase form.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", fmt.Errorf("token symbol required: %w", ErrInvalid)
	}
	return trimmed, nil
}
