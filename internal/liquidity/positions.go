package liquidity

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/persistence"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/builder"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/executor"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/quote"
)

const (
	OpBalanced     = "create_balanced_position"
	OpImbalanced   = "create_imbalanced_position"
	OpAddLiquidity = "add_liquidity"
	OpRemove       = "remove_liquidity"
	OpClose        = "close_position"
	OpClaimFees    = "claim_fees"
	OpSwap         = "swap"

	ataComputeUnits = 60_000
)

// ExecutionOverrides adjusts the submission policy for a single request.
type ExecutionOverrides struct {
	SkipPreflight *bool
	Commitment    string
}

type BalancedRequest struct {
	Pool solana.PublicKey
	// Amount is the native input in whole units (SOL), including the fee reserve share.
	Amount      decimal.Decimal
	SlippageBps uint16
	Execution   ExecutionOverrides
}

type ImbalancedRequest struct {
	// Pool defaults to the configured imbalanced pool.
	Pool        solana.PublicKey
	AmountX     uint64
	AmountY     uint64
	SlippageBps uint16
	Execution   ExecutionOverrides
}

type AddLiquidityRequest struct {
	Pool        solana.PublicKey
	Position    solana.PublicKey
	AmountX     uint64
	SlippageBps uint16
	Execution   ExecutionOverrides
}

type RemoveRequest struct {
	Pool     solana.PublicKey
	Position solana.PublicKey
	// Bps defaults to a full removal.
	Bps           uint16
	ClaimAndClose bool
	Execution     ExecutionOverrides
}

func (e *Engine) options(o ExecutionOverrides) executor.Options {
	opts := e.settings.Execution
	if o.SkipPreflight != nil {
		opts.SkipPreflight = *o.SkipPreflight
	}
	if o.Commitment != "" {
		opts.Commitment = o.Commitment
	}
	return opts
}

// CreateBalancedPosition splits a native amount into equal-value halves of the pool's assets,
// executes the conversions and deposits the result around the active bin.
func (e *Engine) CreateBalancedPosition(ctx context.Context, req BalancedRequest) (*Result, error) {
	if req.Pool.IsZero() {
		return nil, fmt.Errorf("%w: pool address is required", domain.ErrInputValidation)
	}
	lamports, err := quote.ToAtomic(req.Amount, common.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if lamports == 0 {
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
	name := e.poolName(ctx, req.Pool)

	if err := e.checkBalance(ctx, owner, lamports, name); err != nil {
		return nil, err
	}
	e.notify(ctx, "Starting balanced deployment of *%s SOL* into *%s*", req.Amount.String(), name)

	slippage := e.slippage(req.SlippageBps)
	plan, err := e.splitter.PlanEqualValueSplit(ctx, lamports, pool.MintX, pool.MintY, slippage)
	if err != nil {
		return nil, err
	}

	opts := e.options(req.Execution)
	res := &Result{Operation: OpBalanced, Status: StatusSuccess, Pool: req.Pool.String(), Split: plan, Executions: []domain.ExecutionResult{}}

	conversions, err := e.conversionIntents(ctx, pool, owner, plan)
	if err != nil {
		return nil, err
	}
	if len(conversions) > 0 {
		convOpts := opts
		convOpts.FeeReserve = e.splitter.FeeReserve()
		report := e.executor.Execute(ctx, conversions, signer, lamports, convOpts)
		res.absorb(report)
		e.journalExecution(OpBalanced, req.Pool, solana.PublicKey{}, report)
		if !report.AllConfirmed() {
			e.notify(ctx, "Conversions for *%s* failed: %s", name, res.Error)
			return res, res.Err()
		}
	}

	deposit, err := e.deployer.PlanBalancedPosition(ctx, req.Pool, owner, plan, slippage)
	if err != nil {
		res.failWith(err)
		e.notify(ctx, "Deposit planning for *%s* failed after conversions: %s", name, res.Error)
		return res, err
	}
	res.Deposit = deposit
	res.Position = deposit.Position.String()

	report := e.executor.Execute(ctx, []*domain.TransactionIntent{deposit.Intent}, signer, 0, opts)
	res.absorb(report)
	e.journalExecution(OpBalanced, req.Pool, deposit.Position, report)
	e.finishDeposit(ctx, res, deposit, owner, name, report)
	return res, res.Err()
}

// CreateImbalancedPosition deposits caller-chosen amounts of both assets without a split.
func (e *Engine) CreateImbalancedPosition(ctx context.Context, req ImbalancedRequest) (*Result, error) {
	poolAddr := req.Pool
	if poolAddr.IsZero() {
		poolAddr = e.settings.ImbalancedPool
	}
	if poolAddr.IsZero() {
		return nil, fmt.Errorf("%w: pool address is required", domain.ErrInputValidation)
	}

	signer, err := e.signer(ctx)
	if err != nil {
		return nil, err
	}
	owner := signer.PublicKey()

	deposit, err := e.deployer.PlanImbalancedPosition(ctx, poolAddr, owner, req.AmountX, req.AmountY, e.slippage(req.SlippageBps))
	if err != nil {
		return nil, err
	}

	name := e.poolName(ctx, poolAddr)
	res := &Result{Operation: OpImbalanced, Pool: poolAddr.String(), Position: deposit.Position.String(), Deposit: deposit}
	report := e.executor.Execute(ctx, []*domain.TransactionIntent{deposit.Intent}, signer, 0, e.options(req.Execution))
	res.absorb(report)
	e.journalExecution(OpImbalanced, poolAddr, deposit.Position, report)
	e.finishDeposit(ctx, res, deposit, owner, name, report)
	return res, res.Err()
}

// AddLiquidity tops up a position the signer owns.
func (e *Engine) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (*Result, error) {
	signer, err := e.signer(ctx)
	if err != nil {
		return nil, err
	}
	owner := signer.PublicKey()

	position, err := e.lifecycle.FindPosition(ctx, owner, req.Pool, req.Position)
	if err != nil {
		return nil, err
	}
	deposit, err := e.deployer.PlanAddLiquidity(ctx, position, owner, req.AmountX, e.slippage(req.SlippageBps))
	if err != nil {
		return nil, err
	}

	res := &Result{Operation: OpAddLiquidity, Pool: req.Pool.String(), Position: req.Position.String(), Deposit: deposit}
	report := e.executor.Execute(ctx, []*domain.TransactionIntent{deposit.Intent}, signer, 0, e.options(req.Execution))
	res.absorb(report)
	res.Signature = res.lastSignature()
	e.journalExecution(OpAddLiquidity, req.Pool, req.Position, report)
	e.notify(ctx, "Add liquidity to `%s`: *%s*", req.Position, res.Status)
	return res, res.Err()
}

// RemoveLiquidity withdraws a share of an owned position, optionally claiming and closing it.
func (e *Engine) RemoveLiquidity(ctx context.Context, req RemoveRequest) (*Result, error) {
	signer, err := e.signer(ctx)
	if err != nil {
		return nil, err
	}
	bps := req.Bps
	if bps == 0 {
		bps = common.BasisPointMax
	}

	plan, err := e.lifecycle.RemoveLiquidity(ctx, signer.PublicKey(), req.Pool, req.Position, bps, req.ClaimAndClose)
	if err != nil {
		return nil, err
	}
	return e.settleRemoval(ctx, OpRemove, req.Pool, plan, signer, e.options(req.Execution)), nil
}

// ClosePosition drains, claims and closes an owned position.
func (e *Engine) ClosePosition(ctx context.Context, pool, positionKey solana.PublicKey, o ExecutionOverrides) (*Result, error) {
	signer, err := e.signer(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := e.lifecycle.ClosePosition(ctx, signer.PublicKey(), pool, positionKey)
	if err != nil {
		return nil, err
	}
	return e.settleRemoval(ctx, OpClose, pool, plan, signer, e.options(o)), nil
}

// ClaimFees claims unclaimed swap fees of every owned position in pool, or in every pool when pool is zero.
func (e *Engine) ClaimFees(ctx context.Context, pool solana.PublicKey, o ExecutionOverrides) (*Result, error) {
	signer, err := e.signer(ctx)
	if err != nil {
		return nil, err
	}
	intents, err := e.lifecycle.ClaimFees(ctx, signer.PublicKey(), pool)
	if err != nil {
		return nil, err
	}

	res := &Result{Operation: OpClaimFees, Status: StatusSuccess, Pool: keyString(pool), Executions: []domain.ExecutionResult{}}
	if len(intents) == 0 {
		return res, nil
	}
	report := e.executor.Execute(ctx, intents, signer, 0, e.options(o))
	res.absorb(report)
	e.journalExecution(OpClaimFees, pool, solana.PublicKey{}, report)
	e.notify(ctx, "Fee claim: %d confirmed, %d failed", res.Summary.SuccessCount, res.Summary.FailureCount)
	return res, res.Err()
}

func (e *Engine) settleRemoval(ctx context.Context, op string, pool solana.PublicKey, plan *domain.RemovalPlan, signer domain.Signer, opts executor.Options) *Result {
	res := &Result{Operation: op, Pool: pool.String(), Position: plan.Position.String(), Removal: plan}
	report := e.executor.Execute(ctx, []*domain.TransactionIntent{plan.Intent}, signer, 0, opts)
	res.absorb(report)
	res.Signature = res.lastSignature()
	e.journalExecution(op, pool, plan.Position, report)

	name := e.poolName(ctx, pool)
	if res.Status != StatusSuccess {
		e.notify(ctx, "Removal from *%s* failed: %s", name, res.Error)
		return res
	}

	if plan.ResultStatus == domain.PositionClosed {
		e.positionClosed(ctx, plan, name, res.Signature)
	}
	e.notify(ctx, "Removed *%d bps* from `%s` in *%s* (%s)\n%s%s",
		plan.Bps, plan.Position, name, plan.ResultStatus, common.SolscanTxBaseURL, res.Signature)
	return res
}

func (e *Engine) positionClosed(ctx context.Context, plan *domain.RemovalPlan, name, signature string) {
	if e.journal != nil {
		if err := e.journal.MarkDeploymentStatus(plan.Position.String(), domain.PositionClosed, signature); err != nil {
			e.logger.Warn().Err(err).Str("position", plan.Position.String()).Msg("[Liquidity] failed to journal closure")
		}
	}
	if e.registry != nil {
		rec := domain.RegistryRecord{
			Name:        name,
			PoolAddress: plan.Pool.String(),
			OwnerID:     e.settings.OwnerID,
			PositionKey: plan.Position.String(),
		}
		if err := e.registry.RemovePool(ctx, rec); err != nil {
			e.logger.Warn().Err(err).Str("pool", rec.PoolAddress).Msg("[Liquidity] registry remove-pool failed")
		}
	}
}

func (e *Engine) finishDeposit(ctx context.Context, res *Result, deposit *domain.DepositPlan, owner solana.PublicKey, name string, report *domain.ExecutionReport) {
	if !report.AllConfirmed() {
		e.notify(ctx, "Deposit into *%s* failed: %s", name, res.Error)
		return
	}
	res.Signature = res.lastSignature()

	if e.journal != nil {
		rec := &persistence.DeploymentRecord{
			Position:   deposit.Position.String(),
			Pool:       deposit.Pool.String(),
			Owner:      owner.String(),
			MinBinID:   deposit.MinBinID,
			MaxBinID:   deposit.MaxBinID,
			AmountX:    deposit.AmountX,
			AmountY:    deposit.AmountY,
			Status:     domain.PositionOpen,
			Signatures: []string{res.Signature},
		}
		if err := e.journal.SaveDeployments([]*persistence.DeploymentRecord{rec}); err != nil {
			e.logger.Warn().Err(err).Str("position", rec.Position).Msg("[Liquidity] failed to journal deployment")
		}
	}

	if e.registry != nil {
		rec := domain.RegistryRecord{
			Name:        name,
			PoolAddress: deposit.Pool.String(),
			OwnerID:     e.settings.OwnerID,
			PositionKey: deposit.Position.String(),
		}
		if err := e.registry.AddPool(ctx, rec); err != nil {
			e.logger.Warn().Err(err).Str("pool", rec.PoolAddress).Msg("[Liquidity] registry add-pool failed")
		}
	}

	e.logger.Info().
		Str("pool", deposit.Pool.String()).
		Str("position", deposit.Position.String()).
		Str("signature", res.Signature).
		Msg("[Liquidity] position deployed")
	e.notify(ctx, "Deployed position `%s` in *%s*: %d X / %d Y over bins [%d, %d]\n%s%s",
		deposit.Position, name, deposit.AmountX, deposit.AmountY, deposit.MinBinID, deposit.MaxBinID,
		common.SolscanTxBaseURL, res.Signature)
}

// checkBalance requires the wallet to hold the amount plus the fee reserve.
func (e *Engine) checkBalance(ctx context.Context, owner solana.PublicKey, lamports uint64, name string) error {
	balance, err := e.chain.GetBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("%w: wallet balance: %v", domain.ErrLookupFailed, err)
	}
	required := lamports + e.splitter.FeeReserve()
	if balance >= required {
		return nil
	}

	e.logger.Warn().
		Uint64("required", required).
		Uint64("balance", balance).
		Msg("[Liquidity] insufficient balance for split")
	e.notify(ctx, "Insufficient balance for *%s*: need %s SOL, wallet holds %s SOL", name,
		quote.FromAtomic(required, common.NativeDecimals).String(),
		quote.FromAtomic(balance, common.NativeDecimals).String())
	return fmt.Errorf("%w: need %d lamports including the fee reserve, wallet holds %d", domain.ErrInsufficientInput, required, balance)
}

// conversionIntents returns the token account intent (when a converted asset needs one) followed
// by one swap intent per converted leg, in leg order.
func (e *Engine) conversionIntents(ctx context.Context, pool *domain.PoolRef, owner solana.PublicKey, plan *domain.SplitPlan) ([]*domain.TransactionIntent, error) {
	legs := plan.Conversions()
	if len(legs) == 0 {
		return nil, nil
	}

	var intents []*domain.TransactionIntent
	ata, err := e.tokenAccountIntent(ctx, pool, owner, legs)
	if err != nil {
		return nil, err
	}
	if ata != nil {
		intents = append(intents, ata)
	}

	for _, leg := range legs {
		desc := fmt.Sprintf("swap %d %s -> %s", leg.SourceAmount, leg.SourceAsset, leg.TargetAsset)
		// fixed slippage: the deposit is sized from each leg's quoted minimum output
		intent, err := e.swapIntent(ctx, leg.Quote, owner, desc, false)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

func (e *Engine) tokenAccountIntent(ctx context.Context, pool *domain.PoolRef, owner solana.PublicKey, legs []*domain.LegPlan) (*domain.TransactionIntent, error) {
	var ixs []solana.Instruction
	for _, leg := range legs {
		if leg.TargetAsset.Equals(common.NativeMint) {
			continue
		}
		program := pool.TokenProgramY
		if leg.TargetAsset.Equals(pool.MintX) {
			program = pool.TokenProgramX
		}
		ix, err := builder.CreateATAInstructionForMint(owner, owner, leg.TargetAsset, program)
		if err != nil {
			return nil, fmt.Errorf("token account for %s: %w", leg.TargetAsset, err)
		}
		ixs = append(ixs, ix)
	}
	if len(ixs) == 0 {
		return nil, nil
	}

	budget := e.fees.BudgetInstructions(ctx, ataComputeUnits, nil)
	blockhash, err := e.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest blockhash: %w", err)
	}
	return builder.BuildIntent(domain.IntentCreateATA, fmt.Sprintf("create %d token account(s)", len(ixs)),
		append(budget, ixs...), blockhash, owner)
}

// swapIntent consumes q and asks the aggregator for the transaction it backs. With dynamicSlippage
// the aggregator may widen the quoted tolerance at build time.
func (e *Engine) swapIntent(ctx context.Context, q *domain.Quote, owner solana.PublicKey, desc string, dynamicSlippage bool) (*domain.TransactionIntent, error) {
	if err := e.quotes.Consume(q); err != nil {
		return nil, err
	}
	built, err := e.swaps.BuildSwap(ctx, domain.SwapBuildRequest{
		Quote:                   q,
		UserPublicKey:           owner,
		DynamicComputeUnitLimit: true,
		DynamicSlippage:         dynamicSlippage,
		PriorityMaxLamports:     e.settings.PriorityMaxLamports,
		PriorityLevel:           e.settings.PriorityLevel,
	})
	if err != nil {
		return nil, err
	}
	return builder.IntentFromPayload(domain.IntentSwap, desc, built.SwapTransaction, owner), nil
}

func (r *Result) failWith(err error) {
	r.ErrorKind = domain.KindOf(err)
	r.Error = err.Error()
	if r.Summary.SuccessCount > 0 {
		r.Status = StatusPartial
	} else {
		r.Status = StatusFailed
	}
}
