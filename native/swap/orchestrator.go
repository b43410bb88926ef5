package swap

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"remitledger/core/events"
	"remitledger/native/common"
	"remitledger/native/transfer"
)

// swapDeadlineSeconds is how long a venue call stays valid from submission.
const swapDeadlineSeconds = 300

// bookSpreadBps is the static heuristic spread assumed for the order-book
// venue: quotes are 99.85% of input. The venue is never actually queried;
// this is a documented approximation based on typical spreads for liquid
// pairs.
const bookSpreadBps = 9_985

var (
	errNilState   = errors.New("swap orchestrator: state not configured")
	errNilCustody = errors.New("swap orchestrator: custody not configured")
)

type orchestratorState interface {
	TransferPut(*transfer.Transfer) error
	NextTransferID() (uint64, error)
	CustodyAddress() [20]byte
}

// Orchestrator executes conversions through an external venue under slippage
// bounds, holding input and output under ledger custody around the hops. It
// performs no per-hop rollback; the invocation boundary reverts everything on
// failure.
type Orchestrator struct {
	state   orchestratorState
	custody common.Custody
	venue   Venue
	emitter events.Emitter
	nowFn   func() int64
}

// NewOrchestrator creates an orchestrator with a no-op emitter.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend.
func (o *Orchestrator) SetState(state orchestratorState) { o.state = state }

// SetCustody configures the asset movement primitive.
func (o *Orchestrator) SetCustody(custody common.Custody) { o.custody = custody }

// SetVenue configures the external swap venue. A nil venue leaves conversion
// operations failing with a configuration error.
func (o *Orchestrator) SetVenue(venue Venue) { o.venue = venue }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (o *Orchestrator) SetNowFunc(now func() int64) {
	if now == nil {
		o.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	o.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (o *Orchestrator) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		o.emitter = events.NoopEmitter{}
		return
	}
	o.emitter = emitter
}

func (o *Orchestrator) emit(evt *events.Event) {
	if o == nil || o.emitter == nil || evt == nil {
		return
	}
	o.emitter.Emit(evt)
}

func (o *Orchestrator) now() int64 {
	if o == nil || o.nowFn == nil {
		return time.Now().Unix()
	}
	return o.nowFn()
}

func (o *Orchestrator) ready() error {
	if o == nil || o.state == nil {
		return errNilState
	}
	if o.custody == nil {
		return errNilCustody
	}
	if o.venue == nil {
		return fmt.Errorf("swap: venue not set: %w", common.ErrNotConfigured)
	}
	return nil
}

func lastAmount(amounts []*big.Int) (*big.Int, error) {
	if len(amounts) == 0 || amounts[len(amounts)-1] == nil {
		return nil, fmt.Errorf("swap: venue returned no output: %w", common.ErrInvalid)
	}
	return new(big.Int).Set(amounts[len(amounts)-1]), nil
}

// direct performs one venue hop with the supplied output floor. Output lands
// under ledger custody.
func (o *Orchestrator) direct(fromToken, toToken string, amount, minOut *big.Int) (*big.Int, error) {
	deadline := o.now() + swapDeadlineSeconds
	amounts, err := o.venue.SwapExactIn(amount, minOut, []string{fromToken, toToken}, o.state.CustodyAddress(), deadline)
	if err != nil {
		return nil, err
	}
	return lastAmount(amounts)
}

// multiHop threads the amount through the intermediaries one hop at a time.
// Intermediate hops carry a zero output floor; only the final hop enforces
// the caller's minimum.
func (o *Orchestrator) multiHop(fromToken, toToken string, amount, minOut *big.Int, intermediaries []string) (*big.Int, error) {
	currentAmount := new(big.Int).Set(amount)
	currentToken := fromToken
	for _, next := range intermediaries {
		out, err := o.direct(currentToken, next, currentAmount, big.NewInt(0))
		if err != nil {
			return nil, err
		}
		currentAmount = out
		currentToken = next
	}
	return o.direct(currentToken, toToken, currentAmount, minOut)
}

// ConvertAndTransfer debits the caller, converts through the venue along the
// optional intermediary path, credits the recipient with the final output and
// records a Completed transfer for the output leg. Any hop failure aborts the
// invocation, undoing the initial debit with everything else.
func (o *Orchestrator) ConvertAndTransfer(from, to [20]byte, fromToken, toToken string, amount, minOut *big.Int, intermediaries []string) (uint64, error) {
	if err := o.ready(); err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, fmt.Errorf("swap: amount must be positive: %w", common.ErrInvalid)
	}
	if minOut == nil || minOut.Sign() <= 0 {
		return 0, fmt.Errorf("swap: minimum output must be positive: %w", common.ErrInvalid)
	}
	src, err := common.NormalizeToken(fromToken)
	if err != nil {
		return 0, err
	}
	dst, err := common.NormalizeToken(toToken)
	if err != nil {
		return 0, err
	}
	route := make([]string, 0, len(intermediaries))
	for _, hop := range intermediaries {
		normalized, err := common.NormalizeToken(hop)
		if err != nil {
			return 0, err
		}
		route = append(route, normalized)
	}

	vault := o.state.CustodyAddress()
	if err := o.custody.Transfer(src, from, vault, amount); err != nil {
		return 0, err
	}
	var output *big.Int
	if len(route) == 0 {
		output, err = o.direct(src, dst, amount, minOut)
	} else {
		output, err = o.multiHop(src, dst, amount, minOut, route)
	}
	if err != nil {
		return 0, err
	}
	if err := o.custody.Transfer(dst, vault, to, output); err != nil {
		return 0, err
	}

	id, err := o.state.NextTransferID()
	if err != nil {
		return 0, err
	}
	rec := &transfer.Transfer{
		ID:        id,
		Kind:      transfer.KindImmediate,
		From:      from,
		To:        to,
		Token:     dst,
		Amount:    new(big.Int).Set(output),
		Status:    transfer.StatusCompleted,
		CreatedAt: o.now(),
	}
	if err := o.state.TransferPut(rec); err != nil {
		return 0, err
	}
	o.emit(NewConvertedEvent(rec, src, amount))
	return id, nil
}

// EstimateOutput previews the venue output for a direct conversion without
// moving funds. Same-token conversions return the input unchanged.
func (o *Orchestrator) EstimateOutput(fromToken, toToken string, amount *big.Int) (*big.Int, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	src, err := common.NormalizeToken(fromToken)
	if err != nil {
		return nil, err
	}
	dst, err := common.NormalizeToken(toToken)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return new(big.Int).Set(amount), nil
	}
	amounts, err := o.venue.AmountsOut(amount, []string{src, dst})
	if err != nil {
		return nil, err
	}
	return lastAmount(amounts)
}

// BookQuote is the static heuristic quote for the order-book venue. The venue
// cannot be queried from here; 99.85% of input approximates its typical
// spread for liquid pairs.
func BookQuote(fromToken, toToken string, amount *big.Int) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	if fromToken == toToken {
		return new(big.Int).Set(amount)
	}
	out := new(big.Int).Mul(amount, big.NewInt(bookSpreadBps))
	return out.Div(out, big.NewInt(10_000))
}

// BestQuote compares the live venue quote against the order-book heuristic
// and returns whichever is higher, tagged by venue.
func (o *Orchestrator) BestQuote(fromToken, toToken string, amount *big.Int) (*Quote, error) {
	ammOut, err := o.EstimateOutput(fromToken, toToken, amount)
	if err != nil {
		return nil, err
	}
	bookOut := BookQuote(fromToken, toToken, amount)
	if bookOut.Cmp(ammOut) > 0 {
		return &Quote{Venue: VenueOrderBook, Output: bookOut}, nil
	}
	return &Quote{Venue: VenueAMM, Output: ammOut}, nil
}

// SuggestPath returns the route to use between two assets. Route optimisation
// across pools lives off-ledger; the suggestion is always the direct pair.
func SuggestPath(fromToken, toToken string) Path {
	return Path{FromToken: fromToken, ToToken: toToken}
}
