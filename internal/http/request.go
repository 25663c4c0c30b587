package http

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/httputil"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
)

// ExecutionFields override the submission policy of one request.
type ExecutionFields struct {
	// Skip the RPC node's preflight checks on broadcast. Local simulation always runs.
	SkipPreflight *bool `json:"skipPreflight,omitempty" example:"false"`

	// Commitment to wait for: processed, confirmed or finalized
	Commitment string `json:"commitment,omitempty" enums:"processed,confirmed,finalized" example:"confirmed"`
}

func (f ExecutionFields) overrides() (liquidity.ExecutionOverrides, error) {
	switch f.Commitment {
	case "", "processed", "confirmed", "finalized":
	default:
		return liquidity.ExecutionOverrides{}, fmt.Errorf("%w: unknown commitment %q", domain.ErrInputValidation, f.Commitment)
	}
	return liquidity.ExecutionOverrides{SkipPreflight: f.SkipPreflight, Commitment: f.Commitment}, nil
}

// parseKey decodes a base58 address. An empty value is an error unless optional.
func parseKey(field, value string, optional bool) (solana.PublicKey, error) {
	if value == "" {
		if optional {
			return solana.PublicKey{}, nil
		}
		return solana.PublicKey{}, fmt.Errorf("%w: %s is required", domain.ErrInputValidation, field)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: invalid %s: %v", domain.ErrInputValidation, field, err)
	}
	return key, nil
}

func parseAtomic(field, value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an unsigned integer in atomic units", domain.ErrInputValidation, field)
	}
	return n, nil
}

// bindJSON decodes the body and writes a 400 when it is malformed.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// respond writes a workflow result. A result that failed part way is still returned as data.
func respond(c *gin.Context, res *liquidity.Result, err error) {
	if err == nil {
		httputil.Success(c, res)
		return
	}
	if res != nil {
		httputil.Fail(c, err, res)
		return
	}
	httputil.Fail(c, err, nil)
}

// workflowContext detaches a submitting workflow from the client connection: once intents start
// broadcasting, a disconnect must not abort the sequence half way.
func workflowContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
