package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/httputil"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
)

type PositionHandler struct {
	liquidity Liquidity
}

func NewPositionHandler(api Liquidity) *PositionHandler {
	return &PositionHandler{liquidity: api}
}

func (h *PositionHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPositions)
	pub.GET("/history", h.history)

	private.POST("/balanced", h.createBalanced)
	private.POST("/imbalanced", h.createImbalanced)
	private.POST("/fees/claim", h.claimFees)
	private.POST("/:position/liquidity", h.addLiquidity)
	private.POST("/:position/remove", h.removeLiquidity)
	private.POST("/:position/close", h.closePosition)
}

func (h *PositionHandler) Root() string {
	return "/positions"
}

// BalancedPositionRequest opens a position from a single native amount
type BalancedPositionRequest struct {
	// DLMM pool (LbPair) address
	PoolAddress string `json:"poolAddress" binding:"required" example:"5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"`

	// Native input in whole SOL, fee reserve included
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"1.5"`

	// Slippage tolerance in basis points. Default: configured slippage
	SlippageBps uint16 `json:"slippageBps" example:"100"`

	ExecutionFields
}

// @Summary Create balanced position
// @Description Splits a native amount into equal-value halves of the pool's assets, runs the swaps and
// @Description deposits both sides around the active bin with the spot distribution.
// @Tags positions
// @Accept json
// @Produce json
// @Param request body BalancedPositionRequest true "Balanced position request"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 400 {object} httputil.Response "Invalid input"
// @Failure 422 {object} httputil.Response "Insufficient input or simulation failure"
// @Failure 502 {object} httputil.Response "Quote or pool state unavailable"
// @Router /api/v1/positions/balanced [post]
func (h *PositionHandler) createBalanced(c *gin.Context) {
	var req BalancedPositionRequest
	if !bindJSON(c, &req) {
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.CreateBalancedPosition(workflowContext(c), liquidity.BalancedRequest{
		Pool:        pool,
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
		Execution:   overrides,
	})
	respond(c, res, err)
}

// ImbalancedPositionRequest opens a position with caller-chosen amounts of both assets
type ImbalancedPositionRequest struct {
	// DLMM pool address. Default: configured imbalanced pool
	PoolAddress string `json:"poolAddress" example:"5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"`

	// Amount of token X in atomic units
	AmountX string `json:"amountX" example:"500000000"`

	// Amount of token Y in atomic units
	AmountY string `json:"amountY" example:"75000000"`

	SlippageBps uint16 `json:"slippageBps" example:"100"`

	ExecutionFields
}

// @Summary Create imbalanced position
// @Tags positions
// @Accept json
// @Produce json
// @Param request body ImbalancedPositionRequest true "Imbalanced position request"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 400 {object} httputil.Response "Invalid input"
// @Router /api/v1/positions/imbalanced [post]
func (h *PositionHandler) createImbalanced(c *gin.Context) {
	var req ImbalancedPositionRequest
	if !bindJSON(c, &req) {
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, true)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	amountX, err := parseAtomic("amountX", req.AmountX)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	amountY, err := parseAtomic("amountY", req.AmountY)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.CreateImbalancedPosition(workflowContext(c), liquidity.ImbalancedRequest{
		Pool:        pool,
		AmountX:     amountX,
		AmountY:     amountY,
		SlippageBps: req.SlippageBps,
		Execution:   overrides,
	})
	respond(c, res, err)
}

// AddLiquidityRequest tops up an owned position; Y is filled from the pool price
type AddLiquidityRequest struct {
	PoolAddress string `json:"poolAddress" binding:"required" example:"5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"`

	// Amount of token X in atomic units
	AmountX string `json:"amountX" binding:"required" example:"250000000"`

	SlippageBps uint16 `json:"slippageBps" example:"100"`

	ExecutionFields
}

// @Summary Add liquidity to a position
// @Tags positions
// @Accept json
// @Produce json
// @Param position path string true "Position address"
// @Param request body AddLiquidityRequest true "Add liquidity request"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 404 {object} httputil.Response "Position not owned by the signer"
// @Router /api/v1/positions/{position}/liquidity [post]
func (h *PositionHandler) addLiquidity(c *gin.Context) {
	var req AddLiquidityRequest
	if !bindJSON(c, &req) {
		return
	}
	position, err := parseKey("position", c.Param("position"), false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	amountX, err := parseAtomic("amountX", req.AmountX)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.AddLiquidity(workflowContext(c), liquidity.AddLiquidityRequest{
		Pool:        pool,
		Position:    position,
		AmountX:     amountX,
		SlippageBps: req.SlippageBps,
		Execution:   overrides,
	})
	respond(c, res, err)
}

// @Summary List positions
// @Description Positions owned in a pool. Defaults to the signer's positions. An empty list is a success.
// @Tags positions
// @Produce json
// @Param poolAddress query string true "DLMM pool address"
// @Param owner query string false "Owner wallet. Default: signer"
// @Success 200 {object} httputil.Response{data=[]domain.Position}
// @Failure 502 {object} httputil.Response "Position lookup failed"
// @Router /api/v1/positions [get]
func (h *PositionHandler) listPositions(c *gin.Context) {
	pool, err := parseKey("poolAddress", c.Query("poolAddress"), false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	owner, err := parseKey("owner", c.Query("owner"), true)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	positions, err := h.liquidity.ListPositions(c.Request.Context(), owner, pool)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	httputil.Success(c, positions)
}

// @Summary Deployment history
// @Tags positions
// @Produce json
// @Success 200 {object} httputil.Response{data=[]persistence.DeploymentRecord}
// @Router /api/v1/positions/history [get]
func (h *PositionHandler) history(c *gin.Context) {
	records, err := h.liquidity.History()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	httputil.Success(c, records)
}

// RemoveLiquidityRequest withdraws a share of an owned position
type RemoveLiquidityRequest struct {
	PoolAddress string `json:"poolAddress" binding:"required" example:"5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"`

	// Share to withdraw in basis points (1-10000). Default: 10000
	Bps uint16 `json:"bps" binding:"omitempty,max=10000" example:"5000"`

	// Claim fees and close the position after a full withdrawal
	ClaimAndClose bool `json:"claimAndClose" example:"false"`

	ExecutionFields
}

// @Summary Remove liquidity
// @Tags positions
// @Accept json
// @Produce json
// @Param position path string true "Position address"
// @Param request body RemoveLiquidityRequest true "Removal request"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 404 {object} httputil.Response "Position not owned by the signer"
// @Failure 422 {object} httputil.Response "Position has no usable bin data"
// @Router /api/v1/positions/{position}/remove [post]
func (h *PositionHandler) removeLiquidity(c *gin.Context) {
	var req RemoveLiquidityRequest
	if !bindJSON(c, &req) {
		return
	}
	position, err := parseKey("position", c.Param("position"), false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.RemoveLiquidity(workflowContext(c), liquidity.RemoveRequest{
		Pool:          pool,
		Position:      position,
		Bps:           req.Bps,
		ClaimAndClose: req.ClaimAndClose,
		Execution:     overrides,
	})
	respond(c, res, err)
}

// PoolScopedRequest names the pool an operation runs in
type PoolScopedRequest struct {
	PoolAddress string `json:"poolAddress" example:"5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"`

	ExecutionFields
}

// @Summary Close position
// @Description Withdraws everything, claims fees and closes an owned position.
// @Tags positions
// @Accept json
// @Produce json
// @Param position path string true "Position address"
// @Param request body PoolScopedRequest true "Pool of the position"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 404 {object} httputil.Response "Position not owned by the signer"
// @Router /api/v1/positions/{position}/close [post]
func (h *PositionHandler) closePosition(c *gin.Context) {
	var req PoolScopedRequest
	if !bindJSON(c, &req) {
		return
	}
	position, err := parseKey("position", c.Param("position"), false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.ClosePosition(workflowContext(c), pool, position, overrides)
	respond(c, res, err)
}

// @Summary Claim fees
// @Description Claims swap fees of every owned position in the pool, or in every pool when poolAddress is empty.
// @Tags positions
// @Accept json
// @Produce json
// @Param request body PoolScopedRequest true "Pool filter"
// @Success 200 {object} httputil.Response{data=liquidity.Result}
// @Failure 404 {object} httputil.Response "No open positions"
// @Router /api/v1/positions/fees/claim [post]
func (h *PositionHandler) claimFees(c *gin.Context) {
	var req PoolScopedRequest
	if !bindJSON(c, &req) {
		return
	}
	pool, err := parseKey("poolAddress", req.PoolAddress, true)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	overrides, err := req.overrides()
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	res, err := h.liquidity.ClaimFees(workflowContext(c), pool, overrides)
	respond(c, res, err)
}
