package swap

import "math/big"

// VenueID tags which venue produced a quote.
type VenueID uint8

const (
	// VenueOrderBook is the order-book venue. It is never queried on-ledger;
	// quotes for it come from a static spread heuristic.
	VenueOrderBook VenueID = 0
	// VenueAMM is the pool-based venue reached through the router.
	VenueAMM VenueID = 1
)

func (v VenueID) String() string {
	switch v {
	case VenueOrderBook:
		return "orderbook"
	case VenueAMM:
		return "amm"
	default:
		return "unknown"
	}
}

// Venue is the external swap capability consumed by the orchestrator. A swap
// call aborts when the minimum output is unmet; AmountsOut moves no funds.
type Venue interface {
	SwapExactIn(amountIn, amountOutMin *big.Int, path []string, recipient [20]byte, deadline int64) ([]*big.Int, error)
	AmountsOut(amountIn *big.Int, path []string) ([]*big.Int, error)
	Pair(tokenA, tokenB string) (string, error)
}

// Path describes a conversion route: the endpoints plus the ordered
// intermediary assets threaded between them.
type Path struct {
	FromToken      string
	ToToken        string
	Intermediaries []string
}

// Quote is a venue-tagged expected output for a conversion.
type Quote struct {
	Venue  VenueID
	Output *big.Int
}
