package priority

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

type staticFees struct {
	fees []uint64
	err  error
}

func (s staticFees) RecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error) {
	return s.fees, s.err
}

func TestCalculatePercentile(t *testing.T) {
	sorted := []uint64{100, 200, 300, 400, 500}

	tests := []struct {
		percentile int
		want       uint64
	}{
		{0, 100},
		{50, 300},
		{75, 400},
		{100, 500},
	}

	for _, tt := range tests {
		if got := calculatePercentile(sorted, tt.percentile); got != tt.want {
			t.Errorf("p%d = %d, want %d", tt.percentile, got, tt.want)
		}
	}

	if got := calculatePercentile(nil, 50); got != 0 {
		t.Errorf("empty samples = %d, want 0", got)
	}
}

func TestGetOptimalFee(t *testing.T) {
	tests := []struct {
		name    string
		source  FeeSource
		urgency Urgency
		want    uint64
		samples int
	}{
		{"rpc error falls back", staticFees{err: errors.New("boom")}, UrgencyHigh, DefaultFees[UrgencyHigh], 0},
		{"all zero falls back", staticFees{fees: []uint64{0, 0}}, UrgencyLow, DefaultFees[UrgencyLow], 0},
		{"floor applied", staticFees{fees: []uint64{1, 2, 3}}, UrgencyMedium, MinFeePerCU, 3},
		{"median of samples", staticFees{fees: []uint64{5000, 1000, 3000}}, UrgencyLow, 3000, 3},
		{"nil source", nil, UrgencyExtreme, DefaultFees[UrgencyExtreme], 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFeeCalculator(tt.source).GetOptimalFee(context.Background(), tt.urgency, nil)
			if got.FeePerCU != tt.want {
				t.Errorf("FeePerCU = %d, want %d", got.FeePerCU, tt.want)
			}
			if got.SampleCount != tt.samples {
				t.Errorf("SampleCount = %d, want %d", got.SampleCount, tt.samples)
			}
		})
	}
}

func TestBudgetInstructions(t *testing.T) {
	var nilSvc *Service
	ixs := nilSvc.BudgetInstructions(context.Background(), 0, nil)
	if len(ixs) != 1 {
		t.Fatalf("nil service returned %d instructions, want 1", len(ixs))
	}
	data, _ := ixs[0].Data()
	if data[0] != 2 || data[1] != 0x40 || data[2] != 0x0d || data[3] != 0x03 {
		t.Errorf("limit data = %x, want default 200000 units", data)
	}

	svc := NewService(staticFees{fees: []uint64{1000}}, UrgencyMedium)
	ixs = svc.BudgetInstructions(context.Background(), 2_000_000, nil)
	if len(ixs) != 2 {
		t.Fatalf("got %d instructions, want 2", len(ixs))
	}
	if limit := ixs[0].(*SetComputeUnitLimitInstruction).Units; limit != MaxComputeUnits {
		t.Errorf("limit = %d, want capped %d", limit, MaxComputeUnits)
	}
	price, _ := ixs[1].Data()
	if price[0] != 3 || price[1] != 0xe8 || price[2] != 0x03 {
		t.Errorf("price data = %x, want 1000 microLamports", price)
	}
}

func TestParseUrgency(t *testing.T) {
	if ParseUrgency("HIGH") != UrgencyHigh || ParseUrgency("bogus") != UrgencyMedium {
		t.Error("unexpected urgency parse")
	}
}
