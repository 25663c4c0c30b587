package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/httputil"
)

type PoolHandler struct {
	liquidity Liquidity
}

func NewPoolHandler(api Liquidity) *PoolHandler {
	return &PoolHandler{liquidity: api}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:address", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// @Summary Get pool state
// @Description Reads the pair fresh from chain: active bin, bin step and price. Directory metadata is
// @Description attached when the Meteora API answers.
// @Tags pools
// @Produce json
// @Param address path string true "DLMM pool address"
// @Success 200 {object} httputil.Response{data=domain.PoolSnapshot}
// @Failure 400 {object} httputil.Response "Invalid address"
// @Failure 502 {object} httputil.Response "Pool state unavailable"
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := parseKey("address", c.Param("address"), false)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}

	snap, err := h.liquidity.PoolInfo(c.Request.Context(), address)
	if err != nil {
		httputil.Fail(c, err, nil)
		return
	}
	httputil.Success(c, snap)
}
