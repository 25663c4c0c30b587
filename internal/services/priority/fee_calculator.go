package priority

import (
	"context"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
)

type Urgency uint8

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyExtreme
)

// MinFeePerCU is the floor applied to sampled fees, in microLamports per compute unit.
const MinFeePerCU = 100

// DefaultFees are used when no recent fee samples are available (microLamports per CU).
var DefaultFees = map[Urgency]uint64{
	UrgencyLow:     1000,
	UrgencyMedium:  10000,
	UrgencyHigh:    100000,
	UrgencyExtreme: 1000000,
}

// ParseUrgency maps a config value to an Urgency; unknown values fall back to medium.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow
	case "high":
		return UrgencyHigh
	case "extreme":
		return UrgencyExtreme
	default:
		return UrgencyMedium
	}
}

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyHigh:
		return "high"
	case UrgencyExtreme:
		return "extreme"
	default:
		return "medium"
	}
}

// FeeSource returns recent non-zero and zero prioritization fees paid for the given accounts.
type FeeSource interface {
	RecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error)
}

type FeeCalculator struct {
	source FeeSource
}

func NewFeeCalculator(source FeeSource) *FeeCalculator {
	return &FeeCalculator{source: source}
}

type PriorityFeeResult struct {
	FeePerCU    uint64
	Urgency     Urgency
	Percentile  int
	SampleCount int
}

// GetOptimalFee picks the urgency percentile of recent fees on accounts. It never fails; RPC errors yield DefaultFees.
func (f *FeeCalculator) GetOptimalFee(ctx context.Context, urgency Urgency, accounts []solana.PublicKey) *PriorityFeeResult {
	percentile := getPercentileForUrgency(urgency)
	fallback := &PriorityFeeResult{
		FeePerCU:   DefaultFees[urgency],
		Urgency:    urgency,
		Percentile: percentile,
	}
	if f.source == nil {
		return fallback
	}

	recent, err := f.source.RecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return fallback
	}

	fees := make([]uint64, 0, len(recent))
	for _, fee := range recent {
		if fee > 0 {
			fees = append(fees, fee)
		}
	}
	if len(fees) == 0 {
		return fallback
	}

	sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })

	feePerCU := calculatePercentile(fees, percentile)
	if feePerCU < MinFeePerCU {
		feePerCU = MinFeePerCU
	}

	return &PriorityFeeResult{
		FeePerCU:    feePerCU,
		Urgency:     urgency,
		Percentile:  percentile,
		SampleCount: len(fees),
	}
}

func getPercentileForUrgency(urgency Urgency) int {
	switch urgency {
	case UrgencyLow:
		return 50
	case UrgencyMedium:
		return 75
	case UrgencyHigh:
		return 90
	case UrgencyExtreme:
		return 99
	default:
		return 75
	}
}

// calculatePercentile linearly interpolates between the closest ranks of sorted.
func calculatePercentile(sorted []uint64, percentile int) uint64 {
	if len(sorted) == 0 {
		return 0
	}
	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 100 {
		return sorted[len(sorted)-1]
	}

	k := float64(percentile) / 100.0 * float64(len(sorted)-1)
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		c = len(sorted) - 1
	}

	d := k - float64(f)
	return uint64(float64(sorted[f])*(1-d) + float64(sorted[c])*d)
}

// TotalLamports is the priority fee paid for computeUnits at this price.
func (r *PriorityFeeResult) TotalLamports(computeUnits uint32) uint64 {
	return r.FeePerCU * uint64(computeUnits) / 1_000_000
}
