package splitter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

type fakeQuotes struct {
	mu       sync.Mutex
	price    decimal.Decimal
	priceErr error
	failFor  map[solana.PublicKey]bool
	calls    map[solana.PublicKey]uint64
}

func newFakeQuotes(price string) *fakeQuotes {
	return &fakeQuotes{
		price:   decimal.RequireFromString(price),
		failFor: map[solana.PublicKey]bool{},
		calls:   map[solana.PublicKey]uint64{},
	}
}

func (f *fakeQuotes) NativePriceUSD(context.Context) (decimal.Decimal, error) {
	return f.price, f.priceErr
}

// ResolveDecimals reports 9 for the native mint and 6 for everything else.
func (f *fakeQuotes) ResolveDecimals(_ context.Context, mint solana.PublicKey) uint8 {
	if mint.Equals(common.NativeMint) {
		return common.NativeDecimals
	}
	return 6
}

func (f *fakeQuotes) GetQuote(_ context.Context, in, out solana.PublicKey, amount uint64, slippageBps uint16) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[out] = amount
	if f.failFor[out] {
		return nil, domain.ErrQuoteUnavailable
	}
	return &domain.Quote{InputMint: in, OutputMint: out, InAmount: amount, OutAmount: amount * 2, SlippageBps: slippageBps}, nil
}

func newSplitter(t *testing.T, q QuoteSource) *Splitter {
	t.Helper()
	s, err := New(q, decimal.RequireFromString("0.0575"), 50, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNativePairedWorkedExample(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	q := newFakeQuotes("150")
	s := newSplitter(t, q)

	plan, err := s.PlanEqualValueSplit(context.Background(), 1_000_000_000, common.NativeMint, token, 0)
	if err != nil {
		t.Fatalf("PlanEqualValueSplit: %v", err)
	}

	if plan.PairType != domain.PairNativePaired {
		t.Errorf("pair type = %s", plan.PairType)
	}
	if plan.FeeDeducted != 57_500_000 || plan.Available != 942_500_000 {
		t.Errorf("fee/available = %d/%d", plan.FeeDeducted, plan.Available)
	}

	kept, converted := plan.Legs[0], plan.Legs[1]
	if !kept.Kept() || !kept.TargetAsset.Equals(common.NativeMint) {
		t.Fatalf("leg 0 should be the kept native leg: %+v", kept)
	}
	if kept.SourceAmount != 471_250_000 || converted.SourceAmount != 471_250_000 {
		t.Errorf("legs = %d/%d, want 471250000 each", kept.SourceAmount, converted.SourceAmount)
	}
	if _, quoted := q.calls[common.NativeMint]; quoted {
		t.Error("kept leg must not be quoted")
	}
	if q.calls[token] != 471_250_000 {
		t.Errorf("converted quote amount = %d", q.calls[token])
	}

	want := decimal.RequireFromString("70.6875")
	if !kept.ValueUSD.Equal(want) || !converted.ValueUSD.Equal(want) {
		t.Errorf("leg values = %s/%s, want %s", kept.ValueUSD, converted.ValueUSD, want)
	}
	if total := kept.ValueUSD.Add(converted.ValueUSD); !total.Equal(decimal.RequireFromString("141.375")) {
		t.Errorf("total value = %s", total)
	}
	if converted.ExpectedTargetAmount != 942_500_000 || plan.SlippageBps != 50 {
		t.Errorf("expected target = %d, slippage = %d", converted.ExpectedTargetAmount, plan.SlippageBps)
	}
	if converted.TargetDecimals != 6 || !converted.ExpectedTarget.Equal(decimal.RequireFromString("942.5")) {
		t.Errorf("converted leg = %s (%d decimals), want 942.5", converted.ExpectedTarget, converted.TargetDecimals)
	}
	if kept.TargetDecimals != 9 || !kept.ExpectedTarget.Equal(decimal.RequireFromString("0.47125")) {
		t.Errorf("kept leg = %s (%d decimals), want 0.47125", kept.ExpectedTarget, kept.TargetDecimals)
	}
}

func TestNativePairedKeepsLegOrder(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	s := newSplitter(t, newFakeQuotes("97.31"))

	plan, err := s.PlanEqualValueSplit(context.Background(), 2_345_678_901, token, common.NativeMint, 100)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Legs[0].Kept() || !plan.Legs[1].Kept() {
		t.Fatalf("kept leg should follow the native asset position")
	}
	if leg, ok := plan.LegFor(token); !ok || leg.Quote == nil {
		t.Errorf("LegFor(token) = %+v, %v", leg, ok)
	}
	if sum := plan.Legs[0].SourceAmount + plan.Legs[1].SourceAmount; sum != plan.Available {
		t.Errorf("legs sum %d != available %d", sum, plan.Available)
	}
}

func TestNativePairedValuesMatch(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	for _, total := range []uint64{60_000_001, 100_000_000, 1_000_000_007, 33_333_333_333} {
		for _, price := range []string{"0.5", "150", "187.123456"} {
			s := newSplitter(t, newFakeQuotes(price))
			plan, err := s.PlanEqualValueSplit(context.Background(), total, common.NativeMint, token, 50)
			if err != nil {
				t.Fatalf("total %d price %s: %v", total, price, err)
			}

			a, b := plan.Legs[0].ValueUSD, plan.Legs[1].ValueUSD
			tolerance := a.Add(b).Mul(decimal.NewFromInt(50)).Div(decimal.NewFromInt(10_000))
			if diff := a.Sub(b).Abs(); diff.GreaterThan(tolerance) {
				t.Errorf("total %d price %s: leg values %s and %s differ by %s", total, price, a, b, diff)
			}
			if plan.Legs[1].SourceAmount < plan.Legs[0].SourceAmount || plan.Legs[1].SourceAmount-plan.Legs[0].SourceAmount > 1 {
				t.Errorf("total %d price %s: kept %d converted %d", total, price, plan.Legs[0].SourceAmount, plan.Legs[1].SourceAmount)
			}
		}
	}
}

func TestDualForeignSplitsEqually(t *testing.T) {
	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	q := newFakeQuotes("150")
	s := newSplitter(t, q)

	plan, err := s.PlanEqualValueSplit(context.Background(), 57_500_000+1_000_000_001, a, b, 30)
	if err != nil {
		t.Fatal(err)
	}
	if plan.PairType != domain.PairDualForeign {
		t.Errorf("pair type = %s", plan.PairType)
	}
	if plan.Legs[0].SourceAmount != 500_000_000 || plan.Legs[1].SourceAmount != 500_000_001 {
		t.Errorf("halves = %d/%d", plan.Legs[0].SourceAmount, plan.Legs[1].SourceAmount)
	}
	if plan.Legs[0].Quote == nil || plan.Legs[1].Quote == nil {
		t.Error("both legs must be quoted")
	}
	if q.calls[a] != 500_000_000 || q.calls[b] != 500_000_001 {
		t.Errorf("quote calls = %v", q.calls)
	}
	if len(plan.Conversions()) != 2 {
		t.Errorf("conversions = %d", len(plan.Conversions()))
	}
}

func TestSplitFailures(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	tests := []struct {
		name    string
		total   uint64
		a, b    solana.PublicKey
		setup   func(*fakeQuotes)
		wantErr error
	}{
		{"input equals reserve", 57_500_000, common.NativeMint, token, nil, domain.ErrInsufficientInput},
		{"input below reserve", 1_000, common.NativeMint, token, nil, domain.ErrInsufficientInput},
		{"same asset", 1_000_000_000, token, token, nil, domain.ErrInputValidation},
		{"price unavailable", 1_000_000_000, common.NativeMint, token, func(f *fakeQuotes) { f.priceErr = domain.ErrQuoteUnavailable }, domain.ErrQuoteUnavailable},
		{"converted leg fails", 1_000_000_000, common.NativeMint, token, func(f *fakeQuotes) { f.failFor[token] = true }, domain.ErrQuoteUnavailable},
		{"one foreign leg fails", 1_000_000_000, token, other, func(f *fakeQuotes) { f.failFor[other] = true }, domain.ErrQuoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newFakeQuotes("150")
			if tt.setup != nil {
				tt.setup(q)
			}
			plan, err := newSplitter(t, q).PlanEqualValueSplit(context.Background(), tt.total, tt.a, tt.b, 50)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if plan != nil {
				t.Error("no plan may be returned on failure")
			}
			if errors.Is(tt.wantErr, domain.ErrInsufficientInput) && len(q.calls) != 0 {
				t.Error("insufficient input must fail before quoting")
			}
		})
	}
}
