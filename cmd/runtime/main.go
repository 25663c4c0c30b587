package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/wallet"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/http"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services"
)

// @title DLMM Liquidity Agent API
// @version 1.0
// @description Opens, tops up, withdraws from and closes Meteora DLMM positions on Solana.
// @description
// @description ## - Workflows
// @description - **Balanced position**: one native amount is split into equal-value halves, swapped and deposited around the active bin
// @description - **Imbalanced position**: caller-chosen amounts of both assets, no swaps
// @description - **Lifecycle**: list, partial or full removal, fee claims and closure of owned positions
// @description
// @description ## - Amounts
// @description - Balanced deployments and split previews take whole SOL (`"1.5"`)
// @description - Every other amount is in atomic units (lamports for SOL, base units for SPL tokens)
// @description
// @description ## - Errors
// @description Failed requests carry `status`, one of: InputValidation, InsufficientInput, QuoteUnavailable,
// @description PoolStateUnavailable, SimulationFailed, BroadcastFailed, ConfirmationTimeout, PositionNotFound,
// @description InvalidPositionData, NoPositions, LookupFailed, KeyUnavailable, Internal.
// @description
// @description Rate limit: 10 requests/second (burst: 20)
// @BasePath /
// @schemes http https
// @tag.name positions
// @tag.description Open, manage and close DLMM positions
// @tag.name swap
// @tag.description Swap inside a single DLMM pool
// @tag.name split
// @tag.description Preview equal-value splits
// @tag.name pools
// @tag.description Live pool state

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load general config")
		return
	}
	services.SetGlobalLevel(general.LogLevel)

	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.WalletConfig{},
		&config.AggregatorConfig{},
		&config.LiquidityConfig{},
		&config.RegistryConfig{},
		&config.NotifyConfig{},
		&config.StorageConfig{},
	)

	dic, err := container.New(
		conf,

		// chain access
		&blockchain.BlockhashCacheService{},
		&blockchain.ChainService{},
		&wallet.WalletService{},

		// workflows
		&liquidity.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM.
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
