package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/persistence"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/httputil"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/http/middlewares"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

// Liquidity is the workflow surface the handlers drive.
type Liquidity interface {
	CreateBalancedPosition(ctx context.Context, req liquidity.BalancedRequest) (*liquidity.Result, error)
	CreateImbalancedPosition(ctx context.Context, req liquidity.ImbalancedRequest) (*liquidity.Result, error)
	AddLiquidity(ctx context.Context, req liquidity.AddLiquidityRequest) (*liquidity.Result, error)
	RemoveLiquidity(ctx context.Context, req liquidity.RemoveRequest) (*liquidity.Result, error)
	ClosePosition(ctx context.Context, pool, position solana.PublicKey, o liquidity.ExecutionOverrides) (*liquidity.Result, error)
	ClaimFees(ctx context.Context, pool solana.PublicKey, o liquidity.ExecutionOverrides) (*liquidity.Result, error)
	ListPositions(ctx context.Context, owner, pool solana.PublicKey) ([]domain.Position, error)
	History() ([]*persistence.DeploymentRecord, error)
	Swap(ctx context.Context, req liquidity.SwapRequest) (*liquidity.Result, error)
	PreviewSplit(ctx context.Context, pool solana.PublicKey, amount decimal.Decimal, slippageBps uint16) (*domain.SplitPlan, error)
	PoolInfo(ctx context.Context, address solana.PublicKey) (*domain.PoolSnapshot, error)
}

type HTTPService struct {
	container.BaseDIInstance

	liquidity   Liquidity
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig
	logger      zerolog.Logger

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}

	svc.liquidity = c.Instance(liquidity.LIQUIDITY_SERVICE).(*liquidity.Service)
	svc.rateLimiter = middlewares.NewRateLimiter(10, 20)
	svc.handlers = Handlers(svc.liquidity)
	return nil
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           NewRouter(svc.handlers, svc.rateLimiter),
		ReadHeaderTimeout: 10 * time.Second,
	}
	svc.logger.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("[HTTP] server started")

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		svc.logger.Error().Err(err).Msg("[HTTP] failed to stop server")
		return err
	}
	svc.logger.Info().Msg("[HTTP] server stopped gracefully")
	return nil
}

// Handlers returns every route group served under /api/v1.
func Handlers(api Liquidity) []httputil.IHttpHandler {
	return []httputil.IHttpHandler{
		NewPositionHandler(api),
		NewSwapHandler(api),
		NewSplitHandler(api),
		NewPoolHandler(api),
	}
}

// NewRouter builds the gin engine. A nil limiter disables rate limiting.
func NewRouter(handlers []httputil.IHttpHandler, limiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	if limiter != nil {
		r.Use(limiter.RateLimitMiddleware())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)
	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	for _, h := range handlers {
		h.SetRoutes(pub.Group(h.Root()), priv.Group(h.Root()), admin.Group(h.Root()))
	}
	return r
}
