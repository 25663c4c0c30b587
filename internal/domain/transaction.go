package domain

import (
	"github.com/gagliardetto/solana-go"
)

type IntentKind string

const (
	IntentSwap            IntentKind = "SWAP"
	IntentCreateATA       IntentKind = "CREATE_ATA"
	IntentDeposit         IntentKind = "DEPOSIT"
	IntentAddLiquidity    IntentKind = "ADD_LIQUIDITY"
	IntentRemoveLiquidity IntentKind = "REMOVE_LIQUIDITY"
	IntentClaimFee        IntentKind = "CLAIM_FEE"
	IntentClosePosition   IntentKind = "CLOSE_POSITION"
)

// TransactionIntent is an unsigned transaction waiting for the executor.
type TransactionIntent struct {
	ID              string             `json:"id"`
	Kind            IntentKind         `json:"kind"`
	Description     string             `json:"description,omitempty"`
	Payload         []byte             `json:"payload"`
	RequiredSigners []solana.PublicKey `json:"requiredSigners"`

	// ExtraSigners are ephemeral keys created for this intent (e.g. a new position account).
	ExtraSigners []solana.PrivateKey `json:"-"`
}

type TxStatus string

const (
	TxPending      TxStatus = "PENDING"
	TxConfirmed    TxStatus = "CONFIRMED"
	TxFailed       TxStatus = "FAILED"
	TxNotAttempted TxStatus = "NOT_ATTEMPTED"
)

type SimulationResult struct {
	Success              bool     `json:"success"`
	Logs                 []string `json:"logs"`
	ComputeUnitsConsumed uint64   `json:"computeUnitsConsumed"`
	Error                string   `json:"error,omitempty"`

	InsufficientFunds bool `json:"insufficientFunds"`
	SlippageExceeded  bool `json:"slippageExceeded"`
}

type Confirmation struct {
	Slot               uint64 `json:"slot"`
	ConfirmationStatus string `json:"confirmationStatus"`
	Err                string `json:"err,omitempty"`
}

// ExecutionResult is the outcome of one intent. Failures never collapse sibling results.
type ExecutionResult struct {
	IntentID     string            `json:"intentId"`
	Kind         IntentKind        `json:"kind"`
	Status       TxStatus          `json:"status"`
	Signature    string            `json:"signature,omitempty"`
	ExplorerURL  string            `json:"explorerUrl,omitempty"`
	ErrorKind    ErrorKind         `json:"errorKind,omitempty"`
	Error        string            `json:"error,omitempty"`
	Simulation   *SimulationResult `json:"simulation,omitempty"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
}

func (r *ExecutionResult) Succeeded() bool {
	return r.Status == TxConfirmed
}

type ExecutionSummary struct {
	SuccessCount      int    `json:"successCount"`
	FailureCount      int    `json:"failureCount"`
	NotAttemptedCount int    `json:"notAttemptedCount"`
	CommittedInput    uint64 `json:"committedInput"`
	FeeReserve        uint64 `json:"feeReserve"`

	// BalanceBefore and NetNativeBalance are nil when the pre-operation balance could not be read.
	BalanceBefore    *uint64 `json:"balanceBefore"`
	// NetNativeBalance is the pre-operation balance minus the committed input and the fee reserve.
	NetNativeBalance *int64  `json:"netNativeBalance"`
}

type ExecutionReport struct {
	Results []ExecutionResult `json:"results"`
	Summary ExecutionSummary  `json:"summary"`
}

// Aborted reports whether the first intent failed and the remainder were skipped.
func (r *ExecutionReport) Aborted() bool {
	return len(r.Results) > 0 && r.Results[0].Status == TxFailed && r.Summary.NotAttemptedCount > 0
}

func (r *ExecutionReport) AllConfirmed() bool {
	for i := range r.Results {
		if !r.Results[i].Succeeded() {
			return false
		}
	}
	return len(r.Results) > 0
}

// FirstFailure returns the first failed result, or nil.
func (r *ExecutionReport) FirstFailure() *ExecutionResult {
	for i := range r.Results {
		if r.Results[i].Status == TxFailed {
			return &r.Results[i]
		}
	}
	return nil
}
