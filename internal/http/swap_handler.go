package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/httputil"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
)

// SwapHandler trades inside a single DLMM pool through the aggregator.
type SwapHandler struct {
	liquidity Liquidity
}

func NewSwapHandler(api Liquidity) *SwapHandler {
	return &SwapHandler{liquidity: api}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.POST("", h.swap)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapHandlerRequest represents a pool-local swap
type SwapHandlerRequest struct {
	// DLMM pool to trade in. Routing is restricted to this venue with direct routes only
	PoolAddress string `json:"poolAddress" binding:"required" example:"5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"`

	// Input amount in atomic units of the input token
	Amount string `json:"amount" binding:"required" example:"100000000"`

	// Swap token Y for token X. Default: X for Y
	SwapYtoX bool `json:"swapYtoX" example:"false"`

	// Slippage tolerance in basis points. Default: configured slippage
	SlippageBps uint16 `json:"slippageBps" example:"50"`

	ExecutionFields
}

// @Summary Swap within a pool
// @Description Quotes, builds, signs, simulates and submits a swap between the two assets of a DLMM pool.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapHandlerRequest true "Swap request"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 400 {object} httputil.Response "Invalid input"
// @Failure 502 {object} httputil.Response "Quote unavailable"
// @Router /api/v1/swap [post]
func (h *SwapHandler) swap(c *gin.Context) {
	var req SwapHandlerRequest
	if !bindJSON(c, &req) {
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	amount, err := parseAtomic("amount", req.Amount)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.Swap(workflowContext(c), liquidity.SwapRequest{
		Pool:        pool,
		Amount:      amount,
		SwapYtoX:    req.SwapYtoX,
		SlippageBps: req.SlippageBps,
		Execution:   overrides,
	})
	respond(c, res, err)
}
