// Package liquidity composes the quote, split, execution, deployment and lifecycle components into
// the operator-facing liquidity workflows.
package liquidity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/persistence"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/deployer"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/executor"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/lifecycle"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/priority"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/quote"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/splitter"
)

type PoolReader interface {
	GetPool(ctx context.Context, address solana.PublicKey) (*domain.PoolRef, error)
}

type SwapBuilder interface {
	BuildSwap(ctx context.Context, req domain.SwapBuildRequest) (*domain.SwapBuildResult, error)
}

// PoolDirectory serves display metadata for pools.
type PoolDirectory interface {
	PoolInfo(ctx context.Context, address string) (*domain.PoolInfo, error)
	PoolName(ctx context.Context, address string) string
}

type Journal interface {
	RecordExecution(rec *persistence.ExecutionRecord) error
	SaveDeployments(records []*persistence.DeploymentRecord) error
	ListDeployments() ([]*persistence.DeploymentRecord, error)
	MarkDeploymentStatus(position string, status domain.PositionStatus, signature string) error
}

type Chain interface {
	domain.BalanceReader
	domain.BlockhashSource
}

type Settings struct {
	SlippageBps uint16
	Execution   executor.Options

	// OwnerID files registry records under the operator's identity.
	OwnerID        string
	ImbalancedPool solana.PublicKey

	PriorityMaxLamports uint64
	PriorityLevel       string
}

// Deps wires an Engine. Directory, Registry, Notifier, Journal and Fees are optional.
type Deps struct {
	Keys      domain.KeyProvider
	Chain     Chain
	Pools     PoolReader
	Quotes    *quote.Service
	Swaps     SwapBuilder
	Splitter  *splitter.Splitter
	Executor  *executor.Executor
	Deployer  *deployer.Deployer
	Lifecycle *lifecycle.Manager
	Fees      *priority.Service

	Directory PoolDirectory
	Registry  domain.PoolRegistry
	Notifier  domain.Notifier
	Journal   Journal

	Settings Settings
	Logger   zerolog.Logger
}

type Engine struct {
	keys      domain.KeyProvider
	chain     Chain
	pools     PoolReader
	quotes    *quote.Service
	swaps     SwapBuilder
	splitter  *splitter.Splitter
	executor  *executor.Executor
	deployer  *deployer.Deployer
	lifecycle *lifecycle.Manager
	fees      *priority.Service

	directory PoolDirectory
	registry  domain.PoolRegistry
	notifier  domain.Notifier
	journal   Journal

	settings Settings
	logger   zerolog.Logger
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		keys:      d.Keys,
		chain:     d.Chain,
		pools:     d.Pools,
		quotes:    d.Quotes,
		swaps:     d.Swaps,
		splitter:  d.Splitter,
		executor:  d.Executor,
		deployer:  d.Deployer,
		lifecycle: d.Lifecycle,
		fees:      d.Fees,
		directory: d.Directory,
		registry:  d.Registry,
		notifier:  d.Notifier,
		journal:   d.Journal,
		settings:  d.Settings,
		logger:    d.Logger,
	}
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	// StatusPartial: some intents confirmed, others failed or were skipped.
	StatusPartial Status = "PARTIAL"
	StatusFailed  Status = "FAILED"
)

// Result is the outcome of a workflow that submits transactions.
type Result struct {
	Operation string           `json:"operation"`
	Status    Status           `json:"status"`
	ErrorKind domain.ErrorKind `json:"errorKind,omitempty"`
	Error     string           `json:"error,omitempty"`

	Pool     string `json:"poolAddress,omitempty"`
	Position string `json:"positionKey,omitempty"`

	Split   *domain.SplitPlan   `json:"split,omitempty"`
	Deposit *domain.DepositPlan `json:"deposit,omitempty"`
	Removal *domain.RemovalPlan `json:"removal,omitempty"`

	Executions []domain.ExecutionResult `json:"executions"`
	Summary    domain.ExecutionSummary  `json:"summary"`

	// Signature is the deposit or removal signature that settles the operation.
	Signature string `json:"signature,omitempty"`
}

// Err returns the taxonomy error for a failed result, or nil.
func (r *Result) Err() error {
	if r.Status == StatusSuccess {
		return nil
	}
	if sentinel := r.ErrorKind.Err(); sentinel != nil {
		return fmt.Errorf("%s: %w: %s", r.Operation, sentinel, r.Error)
	}
	return fmt.Errorf("%s: %s", r.Operation, r.Error)
}

// absorb appends a report's results and folds its counts into the summary. The first report sets
// the balance figures.
func (r *Result) absorb(report *domain.ExecutionReport) {
	if report == nil {
		return
	}
	if len(r.Executions) == 0 {
		r.Summary = report.Summary
	} else {
		r.Summary.SuccessCount += report.Summary.SuccessCount
		r.Summary.FailureCount += report.Summary.FailureCount
		r.Summary.NotAttemptedCount += report.Summary.NotAttemptedCount
	}
	r.Executions = append(r.Executions, report.Results...)

	switch {
	case r.Summary.FailureCount == 0 && r.Summary.NotAttemptedCount == 0:
		r.Status = StatusSuccess
		r.ErrorKind, r.Error = "", ""
	case r.Summary.SuccessCount > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
	if failed := report.FirstFailure(); failed != nil && r.Error == "" {
		r.ErrorKind = failed.ErrorKind
		r.Error = failed.Error
	}
}

func (r *Result) lastSignature() string {
	for i := len(r.Executions) - 1; i >= 0; i-- {
		if r.Executions[i].Succeeded() {
			return r.Executions[i].Signature
		}
	}
	return ""
}

func (e *Engine) signer(ctx context.Context) (domain.Signer, error) {
	if e.keys == nil {
		return nil, fmt.Errorf("%w: no key provider", domain.ErrKeyUnavailable)
	}
	s, err := e.keys.Signer(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrKeyUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyUnavailable, err)
	}
	return s, nil
}

func (e *Engine) slippage(bps uint16) uint16 {
	if bps == 0 {
		return e.settings.SlippageBps
	}
	return bps
}

func (e *Engine) notify(ctx context.Context, format string, args ...any) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, fmt.Sprintf(format, args...))
}

func (e *Engine) poolName(ctx context.Context, pool solana.PublicKey) string {
	if e.directory == nil {
		return pool.String()
	}
	return e.directory.PoolName(ctx, pool.String())
}

// journalExecution is best effort.
func (e *Engine) journalExecution(operation string, pool, position solana.PublicKey, report *domain.ExecutionReport) {
	if e.journal == nil || report == nil || len(report.Results) == 0 {
		return
	}
	rec := &persistence.ExecutionRecord{
		ID:        report.Results[0].IntentID,
		Operation: operation,
		Pool:      keyString(pool),
		Position:  keyString(position),
		CreatedAt: time.Now().UTC(),
		Report:    report,
	}
	if err := e.journal.RecordExecution(rec); err != nil {
		e.logger.Warn().Err(err).Str("operation", operation).Msg("[Liquidity] failed to journal execution")
	}
}

func keyString(k solana.PublicKey) string {
	if k.IsZero() {
		return ""
	}
	return k.String()
}
