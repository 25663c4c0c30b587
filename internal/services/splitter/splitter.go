// Package splitter divides a native input into two legs of equal reference value.
package splitter

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/metrics"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/quote"
)

// QuoteSource is the part of the quote service the splitter needs.
type QuoteSource interface {
	GetQuote(ctx context.Context, input, output solana.PublicKey, amount uint64, slippageBps uint16) (*domain.Quote, error)
	NativePriceUSD(ctx context.Context) (decimal.Decimal, error)
	ResolveDecimals(ctx context.Context, mint solana.PublicKey) uint8
}

type Splitter struct {
	quotes      QuoteSource
	feeReserve  uint64
	native      solana.PublicKey
	defaultSlip uint16
	logger      zerolog.Logger
}

// New builds a splitter holding back feeReserve native units from every input.
func New(quotes QuoteSource, feeReserve decimal.Decimal, defaultSlippageBps uint16, logger zerolog.Logger) (*Splitter, error) {
	reserve, err := quote.ToAtomic(feeReserve, common.NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("fee reserve: %w", err)
	}
	if defaultSlippageBps == 0 {
		defaultSlippageBps = common.DefaultSlippage
	}
	return &Splitter{
		quotes:      quotes,
		feeReserve:  reserve,
		native:      common.NativeMint,
		defaultSlip: defaultSlippageBps,
		logger:      logger,
	}, nil
}

func (s *Splitter) FeeReserve() uint64 {
	return s.feeReserve
}

// PlanEqualValueSplit plans how totalInput lamports are divided between assetA and assetB.
// It is read-only: no plan is returned unless every conversion leg was quoted.
func (s *Splitter) PlanEqualValueSplit(ctx context.Context, totalInput uint64, assetA, assetB solana.PublicKey, slippageBps uint16) (*domain.SplitPlan, error) {
	if assetA.IsZero() || assetB.IsZero() || assetA.Equals(assetB) {
		return nil, fmt.Errorf("%w: split needs two distinct assets", domain.ErrInputValidation)
	}
	if slippageBps == 0 {
		slippageBps = s.defaultSlip
	}
	if totalInput <= s.feeReserve {
		metrics.SplitPlans.WithLabelValues("", "insufficient").Inc()
		return nil, fmt.Errorf("%w: %d lamports does not cover the %d lamport fee reserve",
			domain.ErrInsufficientInput, totalInput, s.feeReserve)
	}
	available := totalInput - s.feeReserve

	price, err := s.quotes.NativePriceUSD(ctx)
	if err != nil {
		metrics.SplitPlans.WithLabelValues("", "error").Inc()
		return nil, err
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive native price %s", domain.ErrQuoteUnavailable, price)
	}

	plan := &domain.SplitPlan{
		ReferencePriceUSD: price,
		TotalInput:        totalInput,
		FeeDeducted:       s.feeReserve,
		Available:         available,
		SlippageBps:       slippageBps,
	}

	switch {
	case assetA.Equals(s.native) || assetB.Equals(s.native):
		err = s.planNativePaired(ctx, plan, assetA, assetB)
	default:
		err = s.planDualForeign(ctx, plan, assetA, assetB)
	}
	if err != nil {
		metrics.SplitPlans.WithLabelValues(string(plan.PairType), "error").Inc()
		return nil, err
	}

	for i := range plan.Legs {
		leg := &plan.Legs[i]
		leg.TargetDecimals = s.quotes.ResolveDecimals(ctx, leg.TargetAsset)
		leg.ExpectedTarget = quote.FromAtomic(leg.ExpectedTargetAmount, leg.TargetDecimals)
	}

	metrics.SplitPlans.WithLabelValues(string(plan.PairType), "ok").Inc()
	s.logger.Info().
		Str("pair_type", string(plan.PairType)).
		Uint64("available", available).
		Str("price_usd", price.String()).
		Uint64("leg_a", plan.Legs[0].SourceAmount).
		Uint64("leg_b", plan.Legs[1].SourceAmount).
		Msg("[Splitter] equal-value split planned")
	return plan, nil
}

// planNativePaired keeps half the value as native and converts the rest into the other asset.
func (s *Splitter) planNativePaired(ctx context.Context, plan *domain.SplitPlan, assetA, assetB solana.PublicKey) error {
	plan.PairType = domain.PairNativePaired

	availableValue := s.valueOf(plan.Available, plan.ReferencePriceUSD)
	halfValue := availableValue.Div(decimal.NewFromInt(2))
	keep, err := quote.ToAtomic(halfValue.Div(plan.ReferencePriceUSD), common.NativeDecimals)
	if err != nil {
		return err
	}
	convert := plan.Available - keep

	other := assetB
	if assetB.Equals(s.native) {
		other = assetA
	}

	q, err := s.quotes.GetQuote(ctx, s.native, other, convert, plan.SlippageBps)
	if err != nil {
		return fmt.Errorf("quote native -> %s: %w", other, err)
	}

	kept := domain.LegPlan{
		SourceAsset:          s.native,
		TargetAsset:          s.native,
		SourceAmount:         keep,
		ExpectedTargetAmount: keep,
		ValueUSD:             s.valueOf(keep, plan.ReferencePriceUSD),
	}
	converted := domain.LegPlan{
		SourceAsset:          s.native,
		TargetAsset:          other,
		SourceAmount:         convert,
		ExpectedTargetAmount: q.OutAmount,
		ValueUSD:             s.valueOf(convert, plan.ReferencePriceUSD),
		Quote:                q,
	}

	if assetA.Equals(s.native) {
		plan.Legs = [2]domain.LegPlan{kept, converted}
	} else {
		plan.Legs = [2]domain.LegPlan{converted, kept}
	}
	return nil
}

// planDualForeign converts two equal atomic halves, quoting both legs concurrently.
func (s *Splitter) planDualForeign(ctx context.Context, plan *domain.SplitPlan, assetA, assetB solana.PublicKey) error {
	plan.PairType = domain.PairDualForeign

	halfA := plan.Available / 2
	halfB := plan.Available - halfA
	targets := [2]solana.PublicKey{assetA, assetB}
	amounts := [2]uint64{halfA, halfB}
	var quotes [2]*domain.Quote

	g, gctx := errgroup.WithContext(ctx)
	for i := range targets {
		g.Go(func() error {
			q, err := s.quotes.GetQuote(gctx, s.native, targets[i], amounts[i], plan.SlippageBps)
			if err != nil {
				return fmt.Errorf("quote native -> %s: %w", targets[i], err)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range targets {
		plan.Legs[i] = domain.LegPlan{
			SourceAsset:          s.native,
			TargetAsset:          targets[i],
			SourceAmount:         amounts[i],
			ExpectedTargetAmount: quotes[i].OutAmount,
			ValueUSD:             s.valueOf(amounts[i], plan.ReferencePriceUSD),
			Quote:                quotes[i],
		}
	}
	return nil
}

func (s *Splitter) valueOf(lamports uint64, price decimal.Decimal) decimal.Decimal {
	return quote.FromAtomic(lamports, common.NativeDecimals).Mul(price)
}
