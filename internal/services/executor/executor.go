// Package executor runs transaction intents strictly in order: sign, simulate, broadcast, confirm.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/metrics"
)

const defaultConfirmTimeout = 60 * time.Second

// Options is the per-operation submission policy.
type Options struct {
	SkipPreflight  bool
	Commitment     string
	ConfirmTimeout time.Duration

	// FeeReserve is the native amount held back for rent and fees; it is deducted in the summary.
	FeeReserve uint64
}

func DefaultOptions() Options {
	return Options{
		SkipPreflight:  false,
		Commitment:     string(rpc.CommitmentConfirmed),
		ConfirmTimeout: defaultConfirmTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Commitment == "" {
		o.Commitment = d.Commitment
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = d.ConfirmTimeout
	}
	return o
}

type Chain interface {
	domain.TransactionSubmitter
	domain.BalanceReader
}

type Executor struct {
	chain  Chain
	logger zerolog.Logger
}

func New(chain Chain, logger zerolog.Logger) *Executor {
	return &Executor{chain: chain, logger: logger}
}

// Execute runs intents in order and always returns one result per intent. When the first intent
// fails the rest are reported NOT_ATTEMPTED; later failures do not stop their siblings.
// committedInput is the native amount the operation put at stake, used for the summary.
func (e *Executor) Execute(
	ctx context.Context,
	intents []*domain.TransactionIntent,
	signer domain.Signer,
	committedInput uint64,
	opts Options,
) *domain.ExecutionReport {
	opts = opts.withDefaults()
	report := &domain.ExecutionReport{Results: make([]domain.ExecutionResult, 0, len(intents))}

	balance, err := e.chain.GetBalance(ctx, signer.PublicKey())
	balanceKnown := err == nil
	if err != nil {
		e.logger.Warn().Err(err).Msg("[Executor] pre-operation balance unavailable, net balance unknown")
	}

	aborted := false
	for i, intent := range intents {
		if aborted {
			report.Results = append(report.Results, domain.ExecutionResult{
				IntentID: intent.ID,
				Kind:     intent.Kind,
				Status:   domain.TxNotAttempted,
			})
			metrics.Executions.WithLabelValues(string(intent.Kind), string(domain.TxNotAttempted)).Inc()
			continue
		}

		res := e.executeOne(ctx, intent, signer, opts)
		report.Results = append(report.Results, res)
		metrics.Executions.WithLabelValues(string(intent.Kind), string(res.Status)).Inc()

		if res.Status == domain.TxFailed && i == 0 && len(intents) > 1 {
			e.logger.Warn().
				Str("intent", intent.ID).
				Str("kind", string(intent.Kind)).
				Int("skipped", len(intents)-1).
				Msg("[Executor] first intent failed, skipping remaining intents")
			aborted = true
		}
	}

	report.Summary = summarize(report.Results, balance, balanceKnown, committedInput, opts.FeeReserve)
	ev := e.logger.Info().
		Int("success", report.Summary.SuccessCount).
		Int("failed", report.Summary.FailureCount).
		Int("not_attempted", report.Summary.NotAttemptedCount)
	if report.Summary.NetNativeBalance != nil {
		ev = ev.Int64("net_native", *report.Summary.NetNativeBalance)
	}
	ev.Msg("[Executor] execution finished")
	return report
}

func (e *Executor) executeOne(ctx context.Context, intent *domain.TransactionIntent, signer domain.Signer, opts Options) domain.ExecutionResult {
	res := domain.ExecutionResult{IntentID: intent.ID, Kind: intent.Kind, Status: domain.TxPending}
	log := e.logger.With().Str("intent", intent.ID).Str("kind", string(intent.Kind)).Logger()

	tx, err := solana.TransactionFromBytes(intent.Payload)
	if err != nil {
		return fail(res, fmt.Errorf("%w: malformed transaction payload: %v", domain.ErrInputValidation, err))
	}

	if err := signer.Sign(tx, intent.ExtraSigners...); err != nil {
		return fail(res, fmt.Errorf("%w: %v", domain.ErrKeyUnavailable, err))
	}

	metrics.SimulationRequests.Inc()
	sim, err := e.chain.SimulateTransaction(ctx, tx)
	if err != nil {
		metrics.SimulationFailures.WithLabelValues("rpc").Inc()
		return fail(res, fmt.Errorf("%w: %v", domain.ErrSimulationFailed, err))
	}
	res.Simulation = sim
	if !sim.Success {
		metrics.SimulationFailures.WithLabelValues(simulationReason(sim)).Inc()
		log.Warn().Str("error", sim.Error).Msg("[Executor] simulation failed, not broadcasting")
		return fail(res, fmt.Errorf("%w: %s", domain.ErrSimulationFailed, sim.Error))
	}
	metrics.ComputeUnits.Observe(float64(sim.ComputeUnitsConsumed))

	sig, err := e.chain.SendTransaction(ctx, tx, opts.SkipPreflight, opts.Commitment)
	if err != nil {
		return fail(res, fmt.Errorf("%w: %v", domain.ErrBroadcastFailed, err))
	}
	res.Signature = sig.String()
	res.ExplorerURL = common.SolscanTxBaseURL + res.Signature
	log.Info().Str("signature", res.Signature).Msg("[Executor] transaction broadcast")

	confirmCtx, cancel := context.WithTimeout(ctx, opts.ConfirmTimeout)
	defer cancel()

	start := time.Now()
	conf, err := e.chain.ConfirmTransaction(confirmCtx, sig, opts.Commitment)
	if err != nil {
		if !errors.Is(err, domain.ErrConfirmationTimeout) {
			err = fmt.Errorf("%w: %v", domain.ErrConfirmationTimeout, err)
		}
		return fail(res, err)
	}
	metrics.ConfirmationDuration.Observe(time.Since(start).Seconds())
	res.Confirmation = conf
	if conf.Err != "" {
		return fail(res, fmt.Errorf("%w: transaction failed on-chain: %s", domain.ErrBroadcastFailed, conf.Err))
	}

	res.Status = domain.TxConfirmed
	log.Info().Str("signature", res.Signature).Uint64("slot", conf.Slot).Msg("[Executor] transaction confirmed")
	return res
}

func fail(res domain.ExecutionResult, err error) domain.ExecutionResult {
	res.Status = domain.TxFailed
	res.ErrorKind = domain.KindOf(err)
	res.Error = err.Error()
	return res
}

func simulationReason(sim *domain.SimulationResult) string {
	switch {
	case sim.InsufficientFunds:
		return "insufficient_funds"
	case sim.SlippageExceeded:
		return "slippage"
	default:
		return "program_error"
	}
}

// summarize counts outcomes. The net native balance is left nil when the pre-operation balance
// could not be read.
func summarize(results []domain.ExecutionResult, balanceBefore uint64, balanceKnown bool, committed, reserve uint64) domain.ExecutionSummary {
	s := domain.ExecutionSummary{
		CommittedInput: committed,
		FeeReserve:     reserve,
	}
	if balanceKnown {
		net := int64(balanceBefore) - int64(committed) - int64(reserve)
		s.BalanceBefore = &balanceBefore
		s.NetNativeBalance = &net
	}
	for i := range results {
		switch results[i].Status {
		case domain.TxConfirmed:
			s.SuccessCount++
		case domain.TxFailed:
			s.FailureCount++
		case domain.TxNotAttempted:
			s.NotAttemptedCount++
		}
	}
	return s
}
