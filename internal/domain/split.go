package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

type PairType string

const (
	// PairNativePaired: one pool asset is the native asset, half the value is kept as-is.
	PairNativePaired PairType = "NATIVE_PAIRED"
	// PairDualForeign: neither pool asset is native, the input is converted into both.
	PairDualForeign PairType = "DUAL_FOREIGN"
)

// LegPlan is one of the two allocations of a split. Quote is nil for a kept native leg.
type LegPlan struct {
	SourceAsset          solana.PublicKey `json:"sourceAsset"`
	TargetAsset          solana.PublicKey `json:"targetAsset"`
	SourceAmount         uint64           `json:"sourceAmountAtomic"`
	ExpectedTargetAmount uint64           `json:"expectedTargetAmountAtomic"`
	ValueUSD             decimal.Decimal  `json:"valueUsd"`
	Quote                *Quote           `json:"quote,omitempty"`

	// ExpectedTarget is ExpectedTargetAmount in whole units of the target asset.
	ExpectedTarget decimal.Decimal `json:"expectedTargetAmount"`
	TargetDecimals uint8           `json:"targetDecimals"`
}

func (l *LegPlan) Kept() bool {
	return l.Quote == nil
}

type SplitPlan struct {
	PairType          PairType        `json:"pairType"`
	Legs              [2]LegPlan      `json:"legs"`
	ReferencePriceUSD decimal.Decimal `json:"referencePriceUsd"`
	TotalInput        uint64          `json:"totalInputAtomic"`
	FeeDeducted       uint64          `json:"feeDeductedAtomic"`
	Available         uint64          `json:"availableAtomic"`
	SlippageBps       uint16          `json:"slippageBps"`
}

// LegFor returns the leg whose target is mint.
func (p *SplitPlan) LegFor(mint solana.PublicKey) (*LegPlan, bool) {
	for i := range p.Legs {
		if p.Legs[i].TargetAsset.Equals(mint) {
			return &p.Legs[i], true
		}
	}
	return nil, false
}

// Conversions returns the legs that need an on-chain swap, in leg order.
func (p *SplitPlan) Conversions() []*LegPlan {
	out := make([]*LegPlan, 0, 2)
	for i := range p.Legs {
		if !p.Legs[i].Kept() {
			out = append(out, &p.Legs[i])
		}
	}
	return out
}
