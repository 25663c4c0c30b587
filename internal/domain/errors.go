package domain

import "errors"

// Error taxonomy. Components wrap these with fmt.Errorf("...: %w") so callers can branch with errors.Is.
var (
	ErrInputValidation      = errors.New("invalid input")
	ErrInsufficientInput    = errors.New("insufficient input")
	ErrQuoteUnavailable     = errors.New("quote unavailable")
	ErrPoolStateUnavailable = errors.New("pool state unavailable")
	ErrSimulationFailed     = errors.New("simulation failed")
	ErrBroadcastFailed      = errors.New("broadcast failed")
	ErrConfirmationTimeout  = errors.New("confirmation timeout")
	ErrPositionNotFound     = errors.New("position not found")
	ErrInvalidPositionData  = errors.New("invalid position data")
	ErrNoPositions          = errors.New("no positions")
	ErrLookupFailed         = errors.New("lookup failed")
	ErrKeyUnavailable       = errors.New("signing key unavailable")

	ErrAccountNotFound = errors.New("account not found")
	ErrQuoteStale      = errors.New("quote is stale")
	ErrQuoteConsumed   = errors.New("quote already consumed")
)

type ErrorKind string

const (
	KindInputValidation      ErrorKind = "InputValidation"
	KindInsufficientInput    ErrorKind = "InsufficientInput"
	KindQuoteUnavailable     ErrorKind = "QuoteUnavailable"
	KindPoolStateUnavailable ErrorKind = "PoolStateUnavailable"
	KindSimulationFailed     ErrorKind = "SimulationFailed"
	KindBroadcastFailed      ErrorKind = "BroadcastFailed"
	KindConfirmationTimeout  ErrorKind = "ConfirmationTimeout"
	KindPositionNotFound     ErrorKind = "PositionNotFound"
	KindInvalidPositionData  ErrorKind = "InvalidPositionData"
	KindNoPositions          ErrorKind = "NoPositions"
	KindLookupFailed         ErrorKind = "LookupFailed"
	KindKeyUnavailable       ErrorKind = "KeyUnavailable"
	KindInternal             ErrorKind = "Internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInputValidation, KindInputValidation},
	{ErrInsufficientInput, KindInsufficientInput},
	{ErrQuoteStale, KindQuoteUnavailable},
	{ErrQuoteConsumed, KindQuoteUnavailable},
	{ErrQuoteUnavailable, KindQuoteUnavailable},
	{ErrPoolStateUnavailable, KindPoolStateUnavailable},
	{ErrSimulationFailed, KindSimulationFailed},
	{ErrBroadcastFailed, KindBroadcastFailed},
	{ErrConfirmationTimeout, KindConfirmationTimeout},
	{ErrPositionNotFound, KindPositionNotFound},
	{ErrInvalidPositionData, KindInvalidPositionData},
	{ErrNoPositions, KindNoPositions},
	{ErrLookupFailed, KindLookupFailed},
	{ErrKeyUnavailable, KindKeyUnavailable},
}

// KindOf maps an error onto its taxonomy kind. Unknown errors are Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Err returns the sentinel for a taxonomy kind, or nil for unknown kinds.
func (k ErrorKind) Err() error {
	switch k {
	case KindQuoteUnavailable:
		return ErrQuoteUnavailable
	case "", KindInternal:
		return nil
	}
	for _, e := range errorKinds {
		if e.kind == k {
			return e.err
		}
	}
	return nil
}
