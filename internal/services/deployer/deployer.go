// Package deployer plans DLMM deposits around the active bin using the spot distribution.
package deployer

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/dlmm"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/metrics"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/builder"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/priority"
)

const (
	depositComputeUnits      = 400_000
	binArrayInitComputeUnits = 60_000
)

// DLMM is the pool reader and instruction builder the deployer relies on.
type DLMM interface {
	GetPool(ctx context.Context, address solana.PublicKey) (*domain.PoolRef, error)
	MissingBinArrays(ctx context.Context, lbPair solana.PublicKey, lower, upper int64) ([]int64, error)
	DepositInstructions(p dlmm.DepositParams) ([]solana.Instruction, error)
}

type Config struct {
	// HalfWidth is the number of bins on each side of the active bin.
	HalfWidth   int32
	SlippageBps uint16
}

type Deployer struct {
	dlmm   DLMM
	chain  domain.BlockhashSource
	fees   *priority.Service
	cfg    Config
	logger zerolog.Logger
}

// New builds a deployer. fees may be nil, in which case only a compute limit is set.
func New(d DLMM, chain domain.BlockhashSource, fees *priority.Service, cfg Config, logger zerolog.Logger) *Deployer {
	return &Deployer{dlmm: d, chain: chain, fees: fees, cfg: cfg, logger: logger}
}

// PlanBalancedPosition reads the pool fresh, deploys the split's X leg across
// [active-HalfWidth, active+HalfWidth] and derives Y with the spot fill rule. The returned intent
// must be co-signed by the new position key.
func (d *Deployer) PlanBalancedPosition(ctx context.Context, poolAddr, owner solana.PublicKey, split *domain.SplitPlan, slippageBps uint16) (*domain.DepositPlan, error) {
	if split == nil {
		return nil, fmt.Errorf("%w: split plan is required", domain.ErrInputValidation)
	}

	pool, err := d.dlmm.GetPool(ctx, poolAddr)
	if err != nil {
		return nil, err
	}

	legX, okX := split.LegFor(pool.MintX)
	legY, okY := split.LegFor(pool.MintY)
	if !okX || !okY {
		return nil, fmt.Errorf("%w: split legs do not target the pool mints %s/%s", domain.ErrInputValidation, pool.MintX, pool.MintY)
	}

	minBin, maxBin := dlmm.BinWindow(pool.ActiveBinID, d.cfg.HalfWidth)
	amountX, amountY := BalancedAmounts(pool, minBin, maxBin, depositable(legX), depositable(legY))
	if amountX == 0 && amountY == 0 {
		return nil, fmt.Errorf("%w: split legs leave nothing to deposit", domain.ErrInsufficientInput)
	}

	positionKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate position key: %w", err)
	}

	intent, err := d.buildDeposit(ctx, domain.IntentDeposit, pool, owner, positionKey.PublicKey(), true,
		minBin, maxBin, amountX, amountY, slippageBps, positionKey)
	if err != nil {
		return nil, err
	}

	metrics.Deployments.WithLabelValues("balanced", "planned").Inc()
	d.logger.Info().
		Str("pool", pool.Address.String()).
		Str("position", positionKey.PublicKey().String()).
		Int32("active_bin", pool.ActiveBinID).
		Int32("min_bin", minBin).
		Int32("max_bin", maxBin).
		Uint64("amount_x", amountX).
		Uint64("amount_y", amountY).
		Msg("[Deployer] balanced position planned")

	return &domain.DepositPlan{
		Pool:        pool.Address,
		Position:    positionKey.PublicKey(),
		ActiveBinID: pool.ActiveBinID,
		MinBinID:    minBin,
		MaxBinID:    maxBin,
		AmountX:     amountX,
		AmountY:     amountY,
		Intent:      intent,
		PositionKey: positionKey,
	}, nil
}

// PlanImbalancedPosition opens a position with caller-chosen amounts on both sides.
func (d *Deployer) PlanImbalancedPosition(ctx context.Context, poolAddr, owner solana.PublicKey, amountX, amountY uint64, slippageBps uint16) (*domain.DepositPlan, error) {
	if amountX == 0 && amountY == 0 {
		return nil, fmt.Errorf("%w: at least one deposit amount must be positive", domain.ErrInputValidation)
	}

	pool, err := d.dlmm.GetPool(ctx, poolAddr)
	if err != nil {
		return nil, err
	}

	positionKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate position key: %w", err)
	}

	minBin, maxBin := dlmm.BinWindow(pool.ActiveBinID, d.cfg.HalfWidth)
	intent, err := d.buildDeposit(ctx, domain.IntentDeposit, pool, owner, positionKey.PublicKey(), true,
		minBin, maxBin, amountX, amountY, slippageBps, positionKey)
	if err != nil {
		return nil, err
	}

	metrics.Deployments.WithLabelValues("imbalanced", "planned").Inc()
	return &domain.DepositPlan{
		Pool:        pool.Address,
		Position:    positionKey.PublicKey(),
		ActiveBinID: pool.ActiveBinID,
		MinBinID:    minBin,
		MaxBinID:    maxBin,
		AmountX:     amountX,
		AmountY:     amountY,
		Intent:      intent,
		PositionKey: positionKey,
	}, nil
}

// PlanAddLiquidity tops up an existing position over its own bin range, deriving Y from amountX.
func (d *Deployer) PlanAddLiquidity(ctx context.Context, position *domain.Position, owner solana.PublicKey, amountX uint64, slippageBps uint16) (*domain.DepositPlan, error) {
	if position == nil || amountX == 0 {
		return nil, fmt.Errorf("%w: position and a positive X amount are required", domain.ErrInputValidation)
	}

	pool, err := d.dlmm.GetPool(ctx, position.Pool)
	if err != nil {
		return nil, err
	}

	amountY := dlmm.AutoFillYSpot(spotInput(pool, position.LowerBinID, position.UpperBinID, amountX))
	intent, err := d.buildDeposit(ctx, domain.IntentAddLiquidity, pool, owner, position.PublicKey, false,
		position.LowerBinID, position.UpperBinID, amountX, amountY, slippageBps)
	if err != nil {
		return nil, err
	}

	metrics.Deployments.WithLabelValues("add_liquidity", "planned").Inc()
	return &domain.DepositPlan{
		Pool:        pool.Address,
		Position:    position.PublicKey,
		ActiveBinID: pool.ActiveBinID,
		MinBinID:    position.LowerBinID,
		MaxBinID:    position.UpperBinID,
		AmountX:     amountX,
		AmountY:     amountY,
		Intent:      intent,
	}, nil
}

func (d *Deployer) buildDeposit(
	ctx context.Context,
	kind domain.IntentKind,
	pool *domain.PoolRef,
	owner, position solana.PublicKey,
	newPosition bool,
	minBin, maxBin int32,
	amountX, amountY uint64,
	slippageBps uint16,
	extraSigners ...solana.PrivateKey,
) (*domain.TransactionIntent, error) {
	if slippageBps == 0 {
		slippageBps = d.cfg.SlippageBps
	}

	lower, upper := dlmm.BinArrayRange(minBin, maxBin)
	missing, err := d.dlmm.MissingBinArrays(ctx, pool.Address, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("%w: bin arrays: %v", domain.ErrPoolStateUnavailable, err)
	}

	ixs, err := d.dlmm.DepositInstructions(dlmm.DepositParams{
		Pool:             pool,
		Owner:            owner,
		Position:         position,
		NewPosition:      newPosition,
		MinBinID:         minBin,
		MaxBinID:         maxBin,
		AmountX:          amountX,
		AmountY:          amountY,
		SlippageBps:      slippageBps,
		Strategy:         dlmm.StrategySpotImBalanced,
		MissingBinArrays: missing,
	})
	if err != nil {
		return nil, fmt.Errorf("build deposit instructions: %w", err)
	}

	units := uint32(depositComputeUnits + binArrayInitComputeUnits*len(missing))
	budget := d.fees.BudgetInstructions(ctx, units, []solana.PublicKey{pool.Address, pool.ReserveX, pool.ReserveY})

	blockhash, err := d.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest blockhash: %w", err)
	}

	desc := fmt.Sprintf("deposit %d X / %d Y into bins [%d, %d] of %s", amountX, amountY, minBin, maxBin, pool.Address)
	return builder.BuildIntent(kind, desc, append(budget, ixs...), blockhash, owner, extraSigners...)
}

// depositable is what a leg is guaranteed to deliver: the kept amount or the quote's minimum out.
func depositable(leg *domain.LegPlan) uint64 {
	if leg.Kept() {
		return leg.SourceAmount
	}
	if leg.Quote != nil && leg.Quote.OtherAmountThreshold > 0 {
		return leg.Quote.OtherAmountThreshold
	}
	return leg.ExpectedTargetAmount
}

func spotInput(pool *domain.PoolRef, minBin, maxBin int32, amountX uint64) dlmm.SpotFillInput {
	return dlmm.SpotFillInput{
		ActiveID:      pool.ActiveBinID,
		BinStep:       pool.BinStep,
		AmountX:       amountX,
		ActiveAmountX: pool.ActiveBin.AmountX,
		ActiveAmountY: pool.ActiveBin.AmountY,
		MinBinID:      minBin,
		MaxBinID:      maxBin,
	}
}

// BalancedAmounts deposits all of availX when availY covers its spot complement, otherwise scales X
// down so the complement fits availY.
func BalancedAmounts(pool *domain.PoolRef, minBin, maxBin int32, availX, availY uint64) (uint64, uint64) {
	amountY := dlmm.AutoFillYSpot(spotInput(pool, minBin, maxBin, availX))
	if amountY <= availY {
		return availX, amountY
	}

	scaled, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(availX), uint256.NewInt(availY), uint256.NewInt(amountY))
	if overflow || !scaled.IsUint64() {
		return availX, availY
	}
	amountX := scaled.Uint64()
	amountY = dlmm.AutoFillYSpot(spotInput(pool, minBin, maxBin, amountX))
	if amountY > availY {
		amountY = availY
	}
	return amountX, amountY
}
