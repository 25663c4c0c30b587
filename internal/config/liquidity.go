package config

import (
	"errors"
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const (
	DefaultFeeReserveSOL    = "0.0575"
	DefaultBinHalfWidth     = 10
	DefaultSlippageBps      = 50
	DefaultDLMMProgramID    = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
	DefaultImbalancedLbPair = "5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"
)

// LiquidityConfig holds the deployment policy values of the liquidity workflow.
type LiquidityConfig struct {
	// FeeReserve is the native amount held back from every split for rent and fees.
	FeeReserve decimal.Decimal

	// BinHalfWidth is the number of bins deployed on each side of the active bin.
	BinHalfWidth int32

	DefaultSlippageBps uint16
	SkipPreflight      bool

	ProgramID solana.PublicKey

	// ImbalancedPool is used by imbalanced deposits when the caller omits a pool.
	ImbalancedPool solana.PublicKey

	// PriorityUrgency selects the recent-fee percentile for DLMM transactions: low, medium, high or extreme.
	PriorityUrgency string
}

func (c *LiquidityConfig) Key() string {
	return LIQUIDITY_CONFIG_KEY
}

func (c *LiquidityConfig) Load() error {
	var err error
	c.FeeReserve, err = decimal.NewFromString(common.GetEnvOrDefault("FEE_RESERVE_SOL", DefaultFeeReserveSOL))
	if err != nil {
		return fmt.Errorf("invalid FEE_RESERVE_SOL: %w", err)
	}
	c.BinHalfWidth = int32(common.GetEnvOrDefaultInt("BIN_HALF_WIDTH", DefaultBinHalfWidth))
	c.DefaultSlippageBps = uint16(common.GetEnvOrDefaultInt("DEFAULT_SLIPPAGE_BPS", DefaultSlippageBps))
	c.SkipPreflight = common.GetEnvOrDefault("SKIP_PREFLIGHT", "false") == "true"
	c.PriorityUrgency = common.GetEnvOrDefault("PRIORITY_URGENCY", "medium")

	c.ProgramID, err = solana.PublicKeyFromBase58(common.GetEnvOrDefault("DLMM_PROGRAM_ID", DefaultDLMMProgramID))
	if err != nil {
		return fmt.Errorf("invalid DLMM_PROGRAM_ID: %w", err)
	}
	c.ImbalancedPool, err = solana.PublicKeyFromBase58(common.GetEnvOrDefault("IMBALANCED_POOL_ADDRESS", DefaultImbalancedLbPair))
	if err != nil {
		return fmt.Errorf("invalid IMBALANCED_POOL_ADDRESS: %w", err)
	}
	return c.Validate()
}

func (c *LiquidityConfig) Validate() error {
	if c.FeeReserve.IsNegative() {
		return errors.New("invalid liquidity config: negative fee reserve")
	}
	// a position account holds at most 70 bins
	if c.BinHalfWidth < 0 || 2*c.BinHalfWidth+1 > 70 {
		return errors.New("invalid liquidity config: bin half-width out of range")
	}
	if c.DefaultSlippageBps > 10_000 {
		return errors.New("invalid liquidity config: slippage above 100%")
	}
	return nil
}
