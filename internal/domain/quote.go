package domain

import (
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
)

type QuoteRequest struct {
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Amount      uint64
	SlippageBps uint16

	// Dexes restricts routing to the named venues (aggregator labels). Empty means any venue.
	Dexes []string

	OnlyDirectRoutes bool
}

type RouteStep struct {
	Label      string `json:"label"`
	AmmKey     string `json:"ammKey"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	Percent    int    `json:"percent"`
}

// Quote is an aggregator-issued quote. It is a one-shot capability: it may back at most one
// transaction build and only inside its validity window.
type Quote struct {
	InputMint            solana.PublicKey `json:"inputMint"`
	OutputMint           solana.PublicKey `json:"outputMint"`
	InAmount             uint64           `json:"inAmount,string"`
	OutAmount            uint64           `json:"outAmount,string"`
	OtherAmountThreshold uint64           `json:"otherAmountThreshold,string"`
	SlippageBps          uint16           `json:"slippageBps"`
	PriceImpactPct       string           `json:"priceImpactPct"`
	RoutePlan            []RouteStep      `json:"routePlan"`
	FetchedAt            time.Time        `json:"fetchedAt"`
	ValidUntil           time.Time        `json:"validUntil"`

	// Raw is the aggregator response exactly as received; it is echoed back when building the swap.
	Raw []byte `json:"-"`

	consumed atomic.Bool
}

func (q *Quote) IsStale(now time.Time) bool {
	return !q.ValidUntil.IsZero() && now.After(q.ValidUntil)
}

// Consume marks the quote as used. It fails when the quote expired or was already consumed.
func (q *Quote) Consume(now time.Time) error {
	if q.IsStale(now) {
		return ErrQuoteStale
	}
	if !q.consumed.CompareAndSwap(false, true) {
		return ErrQuoteConsumed
	}
	return nil
}

func (q *Quote) Consumed() bool {
	return q.consumed.Load()
}

// SwapBuildRequest asks the aggregator for a serialized swap transaction backed by a quote.
type SwapBuildRequest struct {
	Quote                   *Quote
	UserPublicKey           solana.PublicKey
	DynamicComputeUnitLimit bool
	DynamicSlippage         bool
	PriorityMaxLamports     uint64
	PriorityLevel           string
}

type SwapBuildResult struct {
	// SwapTransaction is the unsigned serialized transaction.
	SwapTransaction      []byte
	LastValidBlockHeight uint64
	PrioritizationFee    uint64
}
