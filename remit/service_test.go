package remit

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"remitledger/auth"
	"remitledger/core/events"
	"remitledger/native/common"
	"remitledger/native/plans"
	"remitledger/native/swap"
	"remitledger/native/transfer"
	"remitledger/state"
	"remitledger/storage"
)

func testAddr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

var (
	adminAddr = testAddr(0xAA)
	alice     = testAddr(0x01)
	bob       = testAddr(0x02)
	carol     = testAddr(0x03)
)

// rateVenue quotes at fixed per-pair rates and moves no funds; the ledger's
// vault float settles the output leg.
type rateVenue struct {
	rates map[string]int64 // output per 100 input
}

func (v *rateVenue) out(amountIn *big.Int, from, to string) (*big.Int, error) {
	rate, ok := v.rates[from+"/"+to]
	if !ok {
		return nil, fmt.Errorf("venue: no pool for %s/%s: %w", from, to, common.ErrNotFound)
	}
	out := new(big.Int).Mul(amountIn, big.NewInt(rate))
	return out.Div(out, big.NewInt(100)), nil
}

func (v *rateVenue) SwapExactIn(amountIn, amountOutMin *big.Int, path []string, recipient [20]byte, deadline int64) ([]*big.Int, error) {
	amounts := []*big.Int{new(big.Int).Set(amountIn)}
	current := new(big.Int).Set(amountIn)
	for i := 0; i+1 < len(path); i++ {
		next, err := v.out(current, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		current = next
		amounts = append(amounts, new(big.Int).Set(next))
	}
	if current.Cmp(amountOutMin) < 0 {
		return nil, fmt.Errorf("venue: output below minimum: %w", common.ErrSlippage)
	}
	return amounts, nil
}

func (v *rateVenue) AmountsOut(amountIn *big.Int, path []string) ([]*big.Int, error) {
	amounts := []*big.Int{new(big.Int).Set(amountIn)}
	current := new(big.Int).Set(amountIn)
	for i := 0; i+1 < len(path); i++ {
		next, err := v.out(current, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		current = next
		amounts = append(amounts, new(big.Int).Set(next))
	}
	return amounts, nil
}

func (v *rateVenue) Pair(tokenA, tokenB string) (string, error) {
	return tokenA + "-" + tokenB, nil
}

type captureSink struct {
	events []*events.Event
}

func (c *captureSink) Emit(evt *events.Event) { c.events = append(c.events, evt) }

func newTestService(t *testing.T) (*Service, *int64, *rateVenue, *captureSink) {
	t.Helper()
	store := state.NewStore(storage.NewMemDB())
	svc := NewService(store, auth.AllowAll{})
	now := int64(1_000_000)
	svc.SetNowFunc(func() int64 { return now })
	venue := &rateVenue{rates: map[string]int64{}}
	svc.SetVenue(venue)
	sink := &captureSink{}
	svc.SetEventSink(sink)
	if err := svc.Initialize("cred", adminAddr); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := svc.SetRouterVenue("cred", testAddr(0xDD)); err != nil {
		t.Fatalf("set router venue: %v", err)
	}
	return svc, &now, venue, sink
}

func fund(t *testing.T, svc *Service, account [20]byte, token string, amount int64) {
	t.Helper()
	if err := svc.Deposit("cred", account, token, big.NewInt(amount)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
}

func balance(t *testing.T, svc *Service, token string, account [20]byte) int64 {
	t.Helper()
	b, err := svc.BalanceOf(token, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b.Int64()
}

func TestInitializeOnce(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.Initialize("cred", testAddr(0xBB))
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict on re-init, got %v", err)
	}
	admin, err := svc.Admin()
	if err != nil || admin != adminAddr {
		t.Fatalf("admin unchanged expected, got %x err %v", admin, err)
	}
}

func TestMutationsRequireInitialization(t *testing.T) {
	store := state.NewStore(storage.NewMemDB())
	svc := NewService(store, nil)
	_, err := svc.TransferImmediate("cred", alice, bob, "USDC", big.NewInt(10))
	if !errors.Is(err, common.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured before init, got %v", err)
	}
}

func TestPauseBlocksMutationsButNotSwitches(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	fund(t, svc, alice, "USDC", 1_000)

	if err := svc.Pause("cred"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err := svc.TransferImmediate("cred", alice, bob, "USDC", big.NewInt(100))
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict while paused, got %v", err)
	}
	// Reads and the admin switches stay available.
	if _, err := svc.Paused(); err != nil {
		t.Fatalf("paused read: %v", err)
	}
	if err := svc.SetRouterVenue("cred", testAddr(0xDD)); err != nil {
		t.Fatalf("set router while paused: %v", err)
	}
	if err := svc.Unpause("cred"); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := svc.TransferImmediate("cred", alice, bob, "USDC", big.NewInt(100)); err != nil {
		t.Fatalf("transfer after unpause: %v", err)
	}
	if got := balance(t, svc, "USDC", bob); got != 100 {
		t.Fatalf("recipient balance %d, want 100", got)
	}
}

func TestAdminSwitchesRejectNonAdmin(t *testing.T) {
	store := state.NewStore(storage.NewMemDB())
	authorizer := auth.Static{Credentials: map[string][20]byte{
		"admin-token": adminAddr,
		"alice-token": alice,
	}}
	svc := NewService(store, authorizer)
	if err := svc.Initialize("admin-token", adminAddr); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := svc.Pause("alice-token"); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Pause("admin-token"); err != nil {
		t.Fatalf("admin pause: %v", err)
	}
}

func TestImmediateTransferRecordsAndMoves(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	fund(t, svc, alice, "USDC", 1_000)

	id, err := svc.TransferImmediate("cred", alice, bob, "usdc", big.NewInt(400))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balance(t, svc, "USDC", alice); got != 600 {
		t.Fatalf("sender balance %d, want 600", got)
	}
	if got := balance(t, svc, "USDC", bob); got != 400 {
		t.Fatalf("recipient balance %d, want 400", got)
	}
	rec, err := svc.GetTransfer(id)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if rec.Kind != transfer.KindImmediate || rec.Status != transfer.StatusCompleted || rec.Token != "USDC" {
		t.Fatalf("bad record %+v", rec)
	}
}

func TestBatchAbortLeavesNoTrace(t *testing.T) {
	svc, _, _, sink := newTestService(t)
	fund(t, svc, alice, "USDC", 1_000)
	sink.events = nil

	_, err := svc.BatchTransfer("cred", alice,
		[][20]byte{bob, carol}, "USDC",
		[]*big.Int{big.NewInt(100), big.NewInt(0)})
	if !errors.Is(err, common.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for zero entry, got %v", err)
	}
	// The first entry was processed inside the invocation but nothing of it
	// survives the abort: balances, records, counter and events all revert.
	if got := balance(t, svc, "USDC", alice); got != 1_000 {
		t.Fatalf("sender balance %d, want 1000", got)
	}
	if got := balance(t, svc, "USDC", bob); got != 0 {
		t.Fatalf("recipient balance %d, want 0", got)
	}
	if _, err := svc.GetTransfer(1); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected no record, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("no events must flush on abort, got %d", len(sink.events))
	}

	ids, err := svc.BatchTransfer("cred", alice,
		[][20]byte{bob, carol}, "USDC",
		[]*big.Int{big.NewInt(100), big.NewInt(200)})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	// The aborted invocation leaked no identifiers.
	if ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("expected ids [1 2], got %v", ids)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 flushed events, got %d", len(sink.events))
	}
}

func TestScheduledLifecycle(t *testing.T) {
	svc, now, _, _ := newTestService(t)
	fund(t, svc, alice, "EURC", 500)
	vault := svc.CustodyAddress()

	id, err := svc.ScheduleTransfer("cred", alice, bob, "EURC", big.NewInt(500), *now+3_600)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := balance(t, svc, "EURC", vault); got != 500 {
		t.Fatalf("vault balance %d, want 500", got)
	}

	err = svc.ExecuteScheduled("cred", carol, id)
	if !errors.Is(err, common.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition before maturity, got %v", err)
	}

	*now += 3_600
	if err := svc.ExecuteScheduled("cred", carol, id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := balance(t, svc, "EURC", bob); got != 500 {
		t.Fatalf("recipient balance %d, want 500", got)
	}
	rec, err := svc.GetTransfer(id)
	if err != nil || rec.Status != transfer.StatusCompleted {
		t.Fatalf("record not completed: %+v err %v", rec, err)
	}
}

func TestCancelScheduledRefunds(t *testing.T) {
	svc, now, _, _ := newTestService(t)
	fund(t, svc, alice, "EURC", 500)

	id, err := svc.ScheduleTransfer("cred", alice, bob, "EURC", big.NewInt(500), *now+3_600)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := svc.CancelScheduled("cred", bob, id); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-sender, got %v", err)
	}
	if err := svc.CancelScheduled("cred", alice, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := balance(t, svc, "EURC", alice); got != 500 {
		t.Fatalf("refund balance %d, want 500", got)
	}
}

func TestSplitTransfer(t *testing.T) {
	svc, now, _, _ := newTestService(t)
	fund(t, svc, alice, "USDC", 1_000)

	immediateID, scheduledID, err := svc.SplitTransfer("cred", alice, bob, "USDC", big.NewInt(1_000), 30, *now+7_200)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if immediateID == 0 || scheduledID == 0 {
		t.Fatalf("both legs expected, got %d %d", immediateID, scheduledID)
	}
	if got := balance(t, svc, "USDC", bob); got != 300 {
		t.Fatalf("immediate leg %d, want 300", got)
	}
	if got := balance(t, svc, "USDC", svc.CustodyAddress()); got != 700 {
		t.Fatalf("scheduled leg %d, want 700", got)
	}
}

func TestRateLockBackedTransfer(t *testing.T) {
	svc, now, _, _ := newTestService(t)
	fund(t, svc, alice, "USDC", 1_000)

	lockID, err := svc.CreateRateLock("cred", alice, "USDC", "EURC", big.NewInt(9_200_000), big.NewInt(1_000), 3_600)
	if err != nil {
		t.Fatalf("create lock: %v", err)
	}
	if _, err := svc.TransferWithRateLock("cred", alice, bob, "USDC", big.NewInt(2_000), lockID); !errors.Is(err, common.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition above ceiling, got %v", err)
	}
	if _, err := svc.TransferWithRateLock("cred", alice, bob, "USDC", big.NewInt(800), lockID); err != nil {
		t.Fatalf("locked transfer: %v", err)
	}
	// The ceiling is not drawn down by consumption.
	lock, err := svc.GetRateLock(lockID)
	if err != nil {
		t.Fatalf("get lock: %v", err)
	}
	if lock.Amount.Int64() != 1_000 {
		t.Fatalf("ceiling changed to %d", lock.Amount.Int64())
	}

	*now += 3_601
	if _, err := svc.TransferWithRateLock("cred", alice, bob, "USDC", big.NewInt(100), lockID); !errors.Is(err, common.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition after expiry, got %v", err)
	}
}

func TestPlanLifecycleAndFeeQuote(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	quote, err := svc.QuoteFee(alice, big.NewInt(10_000_000), false, 0)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Total.Int64() != 1_050_000 {
		t.Fatalf("undiscounted total %d, want 1050000", quote.Total.Int64())
	}

	plan, err := svc.Subscribe("cred", alice, plans.TierPremium, 30)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if plan.DiscountBps != 2_500 {
		t.Fatalf("discount %d, want 2500", plan.DiscountBps)
	}
	if _, err := svc.Subscribe("cred", alice, plans.TierFamily, 30); !errors.Is(err, common.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition while plan active, got %v", err)
	}

	quote, err = svc.QuoteFee(alice, big.NewInt(10_000_000), false, 0)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// base 1_050_000 minus 25% plan discount.
	if quote.Total.Int64() != 787_500 {
		t.Fatalf("discounted total %d, want 787500", quote.Total.Int64())
	}

	tally, err := svc.PlanTally()
	if err != nil || tally != 1 {
		t.Fatalf("tally %d err %v, want 1", tally, err)
	}

	if err := svc.CancelPlan("cred", alice); err != nil {
		t.Fatalf("cancel plan: %v", err)
	}
	plan, ok, err := svc.GetPlan(alice)
	if err != nil || !ok || plan.Active {
		t.Fatalf("expected inactive plan, got %+v ok=%v err=%v", plan, ok, err)
	}
}

func TestConvertAndTransferEndToEnd(t *testing.T) {
	svc, _, venue, sink := newTestService(t)
	venue.rates["XLM/USDC"] = 50
	fund(t, svc, alice, "XLM", 1_000)
	fund(t, svc, svc.CustodyAddress(), "USDC", 10_000) // venue settlement float
	sink.events = nil

	id, err := svc.ConvertAndTransfer("cred", alice, bob, "XLM", "USDC", big.NewInt(1_000), big.NewInt(400), nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got := balance(t, svc, "USDC", bob); got != 500 {
		t.Fatalf("recipient balance %d, want 500", got)
	}
	if got := balance(t, svc, "XLM", alice); got != 0 {
		t.Fatalf("sender balance %d, want 0", got)
	}
	rec, err := svc.GetTransfer(id)
	if err != nil || rec.Token != "USDC" || rec.Amount.Int64() != 500 {
		t.Fatalf("bad record %+v err %v", rec, err)
	}
	if len(sink.events) != 1 || sink.events[0].Type != swap.EventTypeConverted {
		t.Fatalf("expected one converted event, got %+v", sink.events)
	}
}

func TestConvertAbortRevertsDebit(t *testing.T) {
	svc, _, venue, _ := newTestService(t)
	venue.rates["XLM/USDC"] = 50
	fund(t, svc, alice, "XLM", 1_000)
	fund(t, svc, svc.CustodyAddress(), "USDC", 10_000)

	_, err := svc.ConvertAndTransfer("cred", alice, bob, "XLM", "USDC", big.NewInt(1_000), big.NewInt(501), nil)
	if !errors.Is(err, common.ErrSlippage) {
		t.Fatalf("expected ErrSlippage, got %v", err)
	}
	if got := balance(t, svc, "XLM", alice); got != 1_000 {
		t.Fatalf("debit must revert, balance %d", got)
	}
}

func TestConversionsRequireRouterVenue(t *testing.T) {
	// A process wired to a venue the admin never recorded must not trade.
	store := state.NewStore(storage.NewMemDB())
	svc := NewService(store, auth.AllowAll{})
	venue := &rateVenue{rates: map[string]int64{"XLM/USDC": 50}}
	svc.SetVenue(venue)
	if err := svc.Initialize("cred", adminAddr); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	fund(t, svc, alice, "XLM", 1_000)

	_, err := svc.ConvertAndTransfer("cred", alice, bob, "XLM", "USDC", big.NewInt(1_000), big.NewInt(400), nil)
	if !errors.Is(err, common.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without router venue, got %v", err)
	}
	if _, err := svc.ExecuteArbitrage("cred", alice, "XLM", "USDC", big.NewInt(1_000), big.NewInt(1)); !errors.Is(err, common.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without router venue, got %v", err)
	}
	if got := balance(t, svc, "XLM", alice); got != 1_000 {
		t.Fatalf("balance %d, want 1000", got)
	}

	// Quoting stays available; only fund movement needs the recorded address.
	if _, err := svc.EstimateOutput("XLM", "USDC", big.NewInt(100)); err != nil {
		t.Fatalf("estimate: %v", err)
	}

	if err := svc.SetRouterVenue("cred", testAddr(0xDD)); err != nil {
		t.Fatalf("set router venue: %v", err)
	}
	fund(t, svc, svc.CustodyAddress(), "USDC", 10_000)
	if _, err := svc.ConvertAndTransfer("cred", alice, bob, "XLM", "USDC", big.NewInt(1_000), big.NewInt(400), nil); err != nil {
		t.Fatalf("convert after recording venue: %v", err)
	}
}

func TestQuotingAndEstimates(t *testing.T) {
	svc, _, venue, _ := newTestService(t)
	venue.rates["XLM/USDC"] = 100

	quote, err := svc.BestQuote("XLM", "USDC", big.NewInt(10_000))
	if err != nil {
		t.Fatalf("best quote: %v", err)
	}
	if quote.Venue != swap.VenueAMM || quote.Output.Int64() != 10_000 {
		t.Fatalf("expected amm 10000, got %s %s", quote.Venue, quote.Output)
	}

	path := svc.SuggestPath("XLM", "USDC")
	if path.FromToken != "XLM" || len(path.Intermediaries) != 0 {
		t.Fatalf("expected direct path, got %+v", path)
	}

	saving := svc.EstimateScheduleSavings(big.NewInt(10_000_000), 24)
	if saving.Int64() != 10_000 {
		t.Fatalf("24h saving %d, want 10000", saving.Int64())
	}
}

func TestArbitrageThroughFacade(t *testing.T) {
	svc, _, venue, _ := newTestService(t)
	venue.rates["XLM/USDC"] = 110
	fund(t, svc, alice, "XLM", 1_000)
	fund(t, svc, svc.CustodyAddress(), "USDC", 10_000)

	ok, err := svc.HasArbitrageOpportunity("XLM", "USDC", big.NewInt(1_000), 500)
	if err != nil || !ok {
		t.Fatalf("expected opportunity, ok=%v err=%v", ok, err)
	}
	profit, err := svc.ExecuteArbitrage("cred", alice, "XLM", "USDC", big.NewInt(1_000), big.NewInt(50))
	if err != nil {
		t.Fatalf("arbitrage: %v", err)
	}
	if profit.Int64() != 100 {
		t.Fatalf("profit %d, want 100", profit.Int64())
	}
	if got := balance(t, svc, "USDC", alice); got != 1_100 {
		t.Fatalf("executor output balance %d, want 1100", got)
	}
}
