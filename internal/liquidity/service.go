package liquidity

import (
	"fmt"

	"github.com/rs/zerolog"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/jupiter"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/meteora"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/persistence"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/registry"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/telegram"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/wallet"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/dlmm"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/deployer"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/executor"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/lifecycle"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/priority"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/quote"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/splitter"
)

const LIQUIDITY_SERVICE = "liquidity-svc"

// Service exposes the Engine to the container.
type Service struct {
	container.BaseDIInstance
	*Engine

	logger zerolog.Logger
	close  func()
}

func (svc *Service) ID() string {
	return LIQUIDITY_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)

	cfgs := Configs{
		RPC:        c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig),
		Aggregator: c.GetConfig(config.AGGREGATOR_CONFIG_KEY).(*config.AggregatorConfig),
		Liquidity:  c.GetConfig(config.LIQUIDITY_CONFIG_KEY).(*config.LiquidityConfig),
		Registry:   c.GetConfig(config.REGISTRY_CONFIG_KEY).(*config.RegistryConfig),
		Notify:     c.GetConfig(config.NOTIFY_CONFIG_KEY).(*config.NotifyConfig),
		Storage:    c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig),
	}
	chain := c.Instance(blockchain.CHAIN_SERVICE).(*blockchain.ChainService)
	keys := c.Instance(wallet.WALLET_SERVICE).(*wallet.WalletService)

	engine, closeFn, err := Assemble(cfgs, chain, keys, svc.logger)
	if err != nil {
		return err
	}
	svc.Engine = engine
	svc.close = closeFn
	return nil
}

func (svc *Service) Start() error {
	svc.logger.Info().Msg("[LiquidityService] ready")
	return nil
}

func (svc *Service) Stop() error {
	if svc.close != nil {
		svc.close()
	}
	return nil
}

type Configs struct {
	RPC        *config.RPCConfig
	Aggregator *config.AggregatorConfig
	Liquidity  *config.LiquidityConfig
	Registry   *config.RegistryConfig
	Notify     *config.NotifyConfig
	Storage    *config.StorageConfig
}

// ChainClient is what the assembled components need from the chain adapter.
type ChainClient interface {
	domain.ChainClient
	priority.FeeSource
}

// Assemble wires every component from configuration. The returned func releases the journal and
// the metadata cache.
func Assemble(cfgs Configs, chain ChainClient, keys domain.KeyProvider, logger zerolog.Logger) (*Engine, func(), error) {
	liq := cfgs.Liquidity

	fees := priority.NewService(chain, priority.ParseUrgency(liq.PriorityUrgency))
	dlmmClient := dlmm.NewClient(chain,
		dlmm.WithProgramID(liq.ProgramID),
		dlmm.WithLogger(services.ComponentLogger(logger, "dlmm")),
	)
	aggregator := jupiter.New(cfgs.Aggregator)
	quotes := quote.NewService(aggregator, chain, services.ComponentLogger(logger, "quote"))

	split, err := splitter.New(quotes, liq.FeeReserve, liq.DefaultSlippageBps, services.ComponentLogger(logger, "splitter"))
	if err != nil {
		return nil, nil, err
	}

	directory, err := meteora.New(cfgs.Registry, services.ComponentLogger(logger, "meteora"))
	if err != nil {
		return nil, nil, err
	}

	deps := Deps{
		Keys:     keys,
		Chain:    chain,
		Pools:    dlmmClient,
		Quotes:   quotes,
		Swaps:    aggregator,
		Splitter: split,
		Executor: executor.New(chain, services.ComponentLogger(logger, "executor")),
		Deployer: deployer.New(dlmmClient, chain, fees, deployer.Config{
			HalfWidth:   liq.BinHalfWidth,
			SlippageBps: liq.DefaultSlippageBps,
		}, services.ComponentLogger(logger, "deployer")),
		Lifecycle: lifecycle.New(dlmmClient, chain, fees, services.ComponentLogger(logger, "lifecycle")),
		Fees:      fees,
		Directory: directory,
		Notifier:  telegram.New(cfgs.Notify, services.ComponentLogger(logger, "notifier")),
		Settings: Settings{
			SlippageBps: liq.DefaultSlippageBps,
			Execution: executor.Options{
				SkipPreflight:  liq.SkipPreflight,
				Commitment:     cfgs.RPC.Commitment,
				ConfirmTimeout: cfgs.RPC.ConfirmTimeout,
			},
			OwnerID:             cfgs.Registry.OwnerID,
			ImbalancedPool:      liq.ImbalancedPool,
			PriorityMaxLamports: cfgs.Aggregator.PriorityMaxLamports,
			PriorityLevel:       cfgs.Aggregator.PriorityLevel,
		},
		Logger: logger,
	}
	if cfgs.Registry.RegistryURL != "" {
		deps.Registry = registry.New(cfgs.Registry)
	}

	var storage *persistence.Storage
	if cfgs.Storage != nil && cfgs.Storage.Enabled {
		storage, err = persistence.NewStorage(cfgs.Storage.DBPath)
		if err != nil {
			directory.Close()
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		deps.Journal = storage
	}

	closeFn := func() {
		directory.Close()
		if storage != nil {
			if err := storage.Close(); err != nil {
				logger.Warn().Err(err).Msg("[Liquidity] failed to close journal")
			}
		}
	}
	return NewEngine(deps), closeFn, nil
}
