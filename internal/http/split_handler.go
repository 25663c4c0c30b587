package http

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/httputil"
)

type SplitHandler struct {
	liquidity Liquidity
}

func NewSplitHandler(api Liquidity) *SplitHandler {
	return &SplitHandler{liquidity: api}
}

func (h *SplitHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/preview", h.preview)
}

func (h *SplitHandler) Root() string {
	return "/split"
}

// @Summary Preview equal-value split
// @Description Plans how a native amount would be split between the pool's assets. Nothing is built or submitted.
// @Tags split
// @Produce json
// @Param poolAddress query string true "DLMM pool address"
// @Param amount query string true "Native input in whole SOL" example("1.5")
// @Param slippageBps query int false "Slippage tolerance in basis points"
// @Success 200 {object} httputil.Response{data=domain.SplitPlan}
// @Failure 422 {object} httputil.Response "Amount does not cover the fee reserve"
// @Failure 502 {object} httputil.Response "Quote unavailable"
// @Router /api/v1/split/preview [get]
func (h *SplitHandler) preview(c *gin.Context) {
	pool, err := parseKey("poolAddress", c.Query("poolAddress"), false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		httputil.Fail(c, fmt.Errorf("%w: amount must be a decimal number", domain.ErrInputValidation), nil)
		return
	}
	var slippage uint64
	if raw := c.Query("slippageBps"); raw != "" {
		if slippage, err = strconv.ParseUint(raw, 10, 16); err != nil {
			httputil.Fail(c, fmt.Errorf("%w: slippageBps must be 0-65535", domain.ErrInputValidation), nil)
			return
		}
	}

	plan, err := h.liquidity.PreviewSplit(c.Request.Context(), pool, amount, uint16(slippage))
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	httputil.Success(c, plan)
}
