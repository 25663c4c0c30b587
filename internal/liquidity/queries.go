package liquidity

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/jupiter"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/persistence"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/dlmm"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/quote"
)

type SwapRequest struct {
	Pool solana.PublicKey
	// Amount is in atomic units of the input side.
	Amount      uint64
	SwapYtoX    bool
	SlippageBps uint16
	Execution   ExecutionOverrides
}

// ListPositions enumerates positions in pool. A zero owner lists the signer's positions.
func (e *Engine) ListPositions(ctx context.Context, owner, pool solana.PublicKey) ([]domain.Position, error) {
	if owner.IsZero() {
		signer, err := e.signer(ctx)
		if err != nil {
			return nil, err
		}
		owner = signer.PublicKey()
	}
	return e.lifecycle.ListPositions(ctx, owner, pool)
}

// Swap trades inside one DLMM pool: the aggregator is restricted to the DLMM venue and direct routes,
// and a quote routed through any other pool is rejected before it is consumed.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) (*Result, error) {
	if req.Amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInputValidation)
	}
	signer, err := e.signer(ctx)
	if err != nil {
		return nil, err
	}
	owner := signer.PublicKey()

	pool, err := e.pools.GetPool(ctx, req.Pool)
	if err != nil {
		return nil, err
	}
	in, out := pool.MintX, pool.MintY
	if req.SwapYtoX {
		in, out = out, in
	}

	q, err := e.quotes.Quote(ctx, domain.QuoteRequest{
		InputMint:        in,
		OutputMint:       out,
		Amount:           req.Amount,
		SlippageBps:      e.slippage(req.SlippageBps),
		Dexes:            []string{jupiter.MeteoraDLMMLabel},
		OnlyDirectRoutes: true,
	})
	if err != nil {
		return nil, err
	}
	if err := requirePoolRoute(q, req.Pool); err != nil {
		e.logger.Warn().Err(err).Str("pool", req.Pool.String()).Msg("[Liquidity] swap quote rejected")
		return nil, err
	}

	// an explicit slippage is a hard bound; without one the aggregator picks it
	intent, err := e.swapIntent(ctx, q, owner, fmt.Sprintf("swap %d %s -> %s in %s", req.Amount, in, out, req.Pool), req.SlippageBps == 0)
	if err != nil {
		return nil, err
	}

	var committed uint64
	if in.Equals(common.NativeMint) {
		committed = req.Amount
	}

	res := &Result{Operation: OpSwap, Pool: req.Pool.String()}
	report := e.executor.Execute(ctx, []*domain.TransactionIntent{intent}, signer, committed, e.options(req.Execution))
	res.absorb(report)
	res.Signature = res.lastSignature()
	e.journalExecution(OpSwap, req.Pool, solana.PublicKey{}, report)
	return res, res.Err()
}

// requirePoolRoute accepts only a single-hop route through pool. The aggregator may otherwise pick
// another DLMM pair with the same mints.
func requirePoolRoute(q *domain.Quote, pool solana.PublicKey) error {
	if len(q.RoutePlan) != 1 {
		return fmt.Errorf("%w: route has %d hops, want a single hop through %s", domain.ErrQuoteUnavailable, len(q.RoutePlan), pool)
	}
	amm, err := solana.PublicKeyFromBase58(q.RoutePlan[0].AmmKey)
	if err != nil || !amm.Equals(pool) {
		return fmt.Errorf("%w: route goes through %q, not %s", domain.ErrQuoteUnavailable, q.RoutePlan[0].AmmKey, pool)
	}
	return nil
}

// PreviewSplit plans a balanced split for pool without building or submitting anything.
func (e *Engine) PreviewSplit(ctx context.Context, poolAddr solana.PublicKey, amount decimal.Decimal, slippageBps uint16) (*domain.SplitPlan, error) {
	lamports, err := quote.ToAtomic(amount, common.NativeDecimals)
	if err != nil {
		return nil, err
	}
	pool, err := e.pools.GetPool(ctx, poolAddr)
	if err != nil {
		return nil, err
	}
	return e.splitter.PlanEqualValueSplit(ctx, lamports, pool.MintX, pool.MintY, e.slippage(slippageBps))
}

// PoolInfo reads the pair fresh from chain and decorates it with directory metadata when available.
func (e *Engine) PoolInfo(ctx context.Context, address solana.PublicKey) (*domain.PoolSnapshot, error) {
	pool, err := e.pools.GetPool(ctx, address)
	if err != nil {
		return nil, err
	}

	snap := &domain.PoolSnapshot{
		Address:          pool.Address.String(),
		MintX:            pool.MintX.String(),
		MintY:            pool.MintY.String(),
		ActiveBinID:      pool.ActiveBinID,
		BinStep:          pool.BinStep,
		PricePerLamport:  pool.PriceAtActiveBin.String(),
		PricePerToken:    dlmm.PricePerToken(pool.PriceAtActiveBin, pool.DecimalsX, pool.DecimalsY).String(),
		ActiveBinAmountX: pool.ActiveBin.AmountX,
		ActiveBinAmountY: pool.ActiveBin.AmountY,
	}

	if e.directory != nil {
		info, err := e.directory.PoolInfo(ctx, address.String())
		if err != nil {
			e.logger.Debug().Err(err).Str("pool", snap.Address).Msg("[Liquidity] pool metadata unavailable")
		} else {
			snap.Info = info
			snap.Name = info.Name
		}
	}
	return snap, nil
}

// History returns journaled deployments, newest first.
func (e *Engine) History() ([]*persistence.DeploymentRecord, error) {
	if e.journal == nil {
		return []*persistence.DeploymentRecord{}, nil
	}
	return e.journal.ListDeployments()
}
