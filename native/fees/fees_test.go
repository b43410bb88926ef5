package fees

import (
	"math"
	"math/big"
	"testing"

	"remitledger/native/plans"
)

func TestQuoteConcreteExample(t *testing.T) {
	// amount=10,000,000, no batch, no plan:
	// base = clamp(1,000,000 + 50,000, 500,000, 100,000,000) = 1,050,000.
	out := Quote(DefaultSchedule(), QuoteInput{Amount: big.NewInt(10_000_000), Now: 1000})
	if out.Total.Int64() != 1_050_000 {
		t.Fatalf("expected total 1050000, got %s", out.Total)
	}
	if out.Discount.Sign() != 0 {
		t.Fatalf("expected zero discount, got %s", out.Discount)
	}
	if out.NetworkFee.Int64() != 525_000 || out.ServiceFee.Int64() != 525_000 {
		t.Fatalf("unexpected split: %s / %s", out.NetworkFee, out.ServiceFee)
	}
}

func TestQuoteClampsToBounds(t *testing.T) {
	s := DefaultSchedule()
	// Tiny amount still pays at least the flat fee (above the minimum).
	low := Quote(s, QuoteInput{Amount: big.NewInt(1)})
	if low.Total.Int64() != 1_000_000 {
		t.Fatalf("expected flat fee floor, got %s", low.Total)
	}
	// A huge amount is capped at the maximum.
	huge := new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))
	high := Quote(s, QuoteInput{Amount: huge})
	if high.Total.Cmp(s.MaxFee) != 0 {
		t.Fatalf("expected max fee cap, got %s", high.Total)
	}
}

func TestBatchDiscountSaturates(t *testing.T) {
	s := DefaultSchedule()
	amount := big.NewInt(10_000_000) // base 1,050,000
	for _, tc := range []struct {
		size        uint32
		discountPct int64
	}{
		{1, 0}, {2, 10}, {3, 20}, {5, 40}, {6, 50}, {10, 50}, {50, 50},
	} {
		out := Quote(s, QuoteInput{Amount: amount, IsBatch: true, BatchSize: tc.size})
		want := big.NewInt(1_050_000 * tc.discountPct / 100)
		if out.Discount.Cmp(want) != 0 {
			t.Fatalf("size %d: expected discount %s, got %s", tc.size, want, out.Discount)
		}
	}
	// Sizes far beyond any legitimate batch stay pinned at the cap; the
	// multiply must not wrap back under it.
	for _, size := range []uint32{1 << 20, math.MaxUint32} {
		capped := Quote(s, QuoteInput{Amount: amount, IsBatch: true, BatchSize: size})
		if capped.Discount.Int64() != 525_000 {
			t.Fatalf("size %d: expected capped discount 525000, got %s", size, capped.Discount)
		}
	}
	// Not flagged as a batch: no discount regardless of size.
	out := Quote(s, QuoteInput{Amount: amount, IsBatch: false, BatchSize: 10})
	if out.Discount.Sign() != 0 {
		t.Fatalf("expected no discount without batch flag, got %s", out.Discount)
	}
}

func TestPlanDiscount(t *testing.T) {
	s := DefaultSchedule()
	amount := big.NewInt(10_000_000)
	plan := &plans.Plan{Tier: plans.TierPremium, DiscountBps: 2500, EndDate: 5000, Active: true}

	withPlan := Quote(s, QuoteInput{Amount: amount, Plan: plan, Now: 4000})
	without := Quote(s, QuoteInput{Amount: amount, Now: 4000})
	if withPlan.Total.Cmp(without.Total) >= 0 {
		t.Fatalf("premium plan must strictly lower the fee: %s vs %s", withPlan.Total, without.Total)
	}
	// 25% of 1,050,000.
	if withPlan.Discount.Int64() != 262_500 {
		t.Fatalf("expected discount 262500, got %s", withPlan.Discount)
	}

	// A plan past its end date grants nothing even while still flagged active.
	expired := Quote(s, QuoteInput{Amount: amount, Plan: plan, Now: 5001})
	if expired.Discount.Sign() != 0 {
		t.Fatalf("expired plan must not discount, got %s", expired.Discount)
	}
	// Inclusive boundary: the discount still applies at the end date itself.
	atEnd := Quote(s, QuoteInput{Amount: amount, Plan: plan, Now: 5000})
	if atEnd.Discount.Sign() == 0 {
		t.Fatalf("plan must discount at its end date")
	}
}

func TestDiscountsAreAdditiveAndFloored(t *testing.T) {
	s := DefaultSchedule()
	amount := big.NewInt(10_000_000) // base 1,050,000
	plan := &plans.Plan{Tier: plans.TierPremium, DiscountBps: 2500, EndDate: 5000, Active: true}
	out := Quote(s, QuoteInput{Amount: amount, IsBatch: true, BatchSize: 6, Plan: plan, Now: 4000})
	// 50% batch + 25% plan = 75% of base, additive.
	if out.Discount.Int64() != 787_500 {
		t.Fatalf("expected additive discount 787500, got %s", out.Discount)
	}
	// Even with deep discounts the total never drops below the minimum.
	if out.Total.Cmp(s.MinFee) < 0 {
		t.Fatalf("total %s below minimum %s", out.Total, s.MinFee)
	}
}

func TestQuoteIsPure(t *testing.T) {
	s := DefaultSchedule()
	input := QuoteInput{Amount: big.NewInt(123_456_789), IsBatch: true, BatchSize: 4, Now: 777}
	a := Quote(s, input)
	b := Quote(s, input)
	if a.Total.Cmp(b.Total) != 0 || a.Discount.Cmp(b.Discount) != 0 {
		t.Fatalf("identical inputs produced different outputs")
	}
}

func TestEstimateScheduleSavings(t *testing.T) {
	amount := big.NewInt(10_000_000)
	for _, tc := range []struct {
		hours uint32
		want  int64
	}{
		{0, 0}, {1, 0}, {2, 3000}, {6, 5000}, {12, 7000}, {24, 10_000}, {48, 10_000},
	} {
		got := EstimateScheduleSavings(amount, tc.hours)
		if got.Int64() != tc.want {
			t.Fatalf("hours %d: expected %d, got %s", tc.hours, tc.want, got)
		}
	}
}
