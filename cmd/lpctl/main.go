// Command lpctl inspects pools, positions and split plans without running the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/wallet"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:          "lpctl",
		Short:        "Meteora DLMM liquidity agent CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error). Default: LOG_LEVEL")

	splitCmd := &cobra.Command{
		Use:   "split",
		Short: "Preview the equal-value split of a native amount into a pool's assets",
		RunE:  runSplit,
	}
	splitCmd.Flags().String("pool", "", "DLMM pool address")
	splitCmd.Flags().String("amount", "", "native input in whole SOL")
	splitCmd.Flags().Uint16("slippage-bps", 0, "slippage tolerance in basis points. Default: configured slippage")
	_ = splitCmd.MarkFlagRequired("pool")
	_ = splitCmd.MarkFlagRequired("amount")
	root.AddCommand(splitCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List positions in a pool",
		RunE:  runPositions,
	}
	positionsCmd.Flags().String("pool", "", "DLMM pool address")
	positionsCmd.Flags().String("owner", "", "owner wallet. Default: configured signer")
	_ = positionsCmd.MarkFlagRequired("pool")
	root.AddCommand(positionsCmd)

	root.AddCommand(&cobra.Command{
		Use:   "pool <address>",
		Short: "Show live pool state",
		Args:  cobra.ExactArgs(1),
		RunE:  runPool,
	})

	root.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "List journaled deployments",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the same environment as the service and assembles the engine without the container.
func setup(cmd *cobra.Command) (*liquidity.Engine, func(), error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	rpcCfg := &config.RPCConfig{}
	walletCfg := &config.WalletConfig{}
	cfgs := liquidity.Configs{
		RPC:        rpcCfg,
		Aggregator: &config.AggregatorConfig{},
		Liquidity:  &config.LiquidityConfig{},
		Registry:   &config.RegistryConfig{},
		Notify:     &config.NotifyConfig{},
		Storage:    &config.StorageConfig{},
	}
	loaders := []interface{ Load() error }{
		general, rpcCfg, walletCfg, cfgs.Aggregator, cfgs.Liquidity, cfgs.Registry, cfgs.Notify, cfgs.Storage,
	}
	for _, l := range loaders {
		if err := l.Load(); err != nil {
			return nil, nil, err
		}
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = general.LogLevel
	}
	services.SetGlobalLevel(level)

	logger := log.With().Str("service", "lpctl").Logger()
	return liquidity.Assemble(cfgs, blockchain.NewChainService(rpcCfg), wallet.NewWalletService(walletCfg), logger)
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func flagKey(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return key, nil
}

func runSplit(cmd *cobra.Command, _ []string) error {
	pool, err := flagKey(cmd, "pool")
	if err != nil {
		return err
	}
	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return fmt.Errorf("invalid --amount: %w", err)
	}
	slippage, _ := cmd.Flags().GetUint16("slippage-bps")

	engine, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := commandContext()
	defer stop()

	plan, err := engine.PreviewSplit(ctx, pool, amount, slippage)
	if err != nil {
		return err
	}
	return printJSON(cmd, plan)
}

func runPositions(cmd *cobra.Command, _ []string) error {
	pool, err := flagKey(cmd, "pool")
	if err != nil {
		return err
	}
	owner, err := flagKey(cmd, "owner")
	if err != nil {
		return err
	}

	engine, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := commandContext()
	defer stop()

	positions, err := engine.ListPositions(ctx, owner, pool)
	if err != nil {
		return err
	}
	return printJSON(cmd, positions)
}

func runPool(cmd *cobra.Command, args []string) error {
	address, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid pool address: %w", err)
	}

	engine, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := commandContext()
	defer stop()

	snap, err := engine.PoolInfo(ctx, address)
	if err != nil {
		return err
	}
	return printJSON(cmd, snap)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	engine, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := engine.History()
	if err != nil {
		return err
	}
	return printJSON(cmd, records)
}
