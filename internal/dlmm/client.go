// Package dlmm reads Meteora DLMM (lb_clmm) program state and builds its instructions.
package dlmm

import (
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

var (
	MainnetProgramID      = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	MainnetEventAuthority = solana.MustPublicKeyFromBase58("D1ZN9Wj1fRSUQfCjhvnu1hqDMT7hzjzBBpi12nVniYD6")
)

const (
	MaxBinPerArray       = 70
	MaxBinPerPosition    = 70
	MaxActiveBinSlippage = 3
	PositionV2Size       = 8120

	// Rent-exempt deposits in lamports.
	BinArrayRentLamports     uint64 = 71_437_440
	PositionRentLamports     uint64 = 57_406_080
	TokenAccountRentLamports uint64 = 2_039_280
)

var (
	accountLbPair     = anchorDiscriminator("account", "LbPair")
	accountPositionV2 = anchorDiscriminator("account", "PositionV2")
	accountBinArray   = anchorDiscriminator("account", "BinArray")

	ixInitializePosition     = anchorDiscriminator("global", "initialize_position")
	ixInitializeBinArray     = anchorDiscriminator("global", "initialize_bin_array")
	ixAddLiquidityByStrategy = anchorDiscriminator("global", "add_liquidity_by_strategy")
	ixRemoveLiquidityByRange = anchorDiscriminator("global", "remove_liquidity_by_range")
	ixClaimFee               = anchorDiscriminator("global", "claim_fee")
	ixClosePosition          = anchorDiscriminator("global", "close_position")
)

func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Client reads pair and position state through an AccountReader and builds program instructions.
type Client struct {
	chain          domain.AccountReader
	programID      solana.PublicKey
	eventAuthority solana.PublicKey
	logger         zerolog.Logger
}

type Option func(*Client)

func WithProgramID(programID solana.PublicKey) Option {
	return func(c *Client) { c.programID = programID }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(chain domain.AccountReader, opts ...Option) *Client {
	c := &Client{
		chain:     chain,
		programID: MainnetProgramID,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.eventAuthority = MainnetEventAuthority
	if !c.programID.Equals(MainnetProgramID) {
		addr, _, err := solana.FindProgramAddress([][]byte{[]byte("__event_authority")}, c.programID)
		if err != nil {
			c.logger.Error().Err(err).Str("program", c.programID.String()).Msg("[DLMM] Failed to derive event authority")
		}
		c.eventAuthority = addr
	}
	return c
}

func (c *Client) ProgramID() solana.PublicKey { return c.programID }

