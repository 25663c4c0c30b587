package domain

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// PoolRef is a read-only snapshot of a DLMM pair. It is fetched fresh for every operation.
type PoolRef struct {
	Address solana.PublicKey

	MintX solana.PublicKey
	MintY solana.PublicKey

	ReserveX solana.PublicKey
	ReserveY solana.PublicKey

	TokenProgramX solana.PublicKey
	TokenProgramY solana.PublicKey

	DecimalsX uint8
	DecimalsY uint8

	// BitmapExtension is the pair's bin array bitmap extension, zero when the pair has none.
	BitmapExtension solana.PublicKey

	Oracle solana.PublicKey

	ActiveBinID int32
	BinStep     uint16

	// PriceAtActiveBin is the price of one atomic X unit in atomic Y units.
	PriceAtActiveBin decimal.Decimal

	ActiveBin Bin
}

// IsNativePaired reports whether one side of the pair is the wrapped native mint.
func (p *PoolRef) IsNativePaired(native solana.PublicKey) bool {
	return p.MintX.Equals(native) || p.MintY.Equals(native)
}

// Bin is the reserve state of a single price bin.
type Bin struct {
	BinID           int32
	AmountX         uint64
	AmountY         uint64
	LiquiditySupply *big.Int
}

// PoolInfo is display metadata served by the Meteora pair API.
type PoolInfo struct {
	Address       string  `json:"address"`
	Name          string  `json:"name"`
	MintX         string  `json:"mint_x"`
	MintY         string  `json:"mint_y"`
	ReserveX      string  `json:"reserve_x"`
	ReserveY      string  `json:"reserve_y"`
	BinStep       int     `json:"bin_step"`
	BaseFeePct    string  `json:"base_fee_percentage"`
	CurrentPrice  float64 `json:"current_price"`
	Liquidity     string  `json:"liquidity"`
	TradeVolume24 float64 `json:"trade_volume_24h"`
	Fees24        float64 `json:"fees_24h"`
	APR           float64 `json:"apr"`
	Hide          bool    `json:"hide"`
}

// PoolSnapshot combines the on-chain pair state with its display metadata for API responses.
type PoolSnapshot struct {
	Address          string    `json:"address"`
	Name             string    `json:"name,omitempty"`
	MintX            string    `json:"mintX"`
	MintY            string    `json:"mintY"`
	ActiveBinID      int32     `json:"activeBinId"`
	BinStep          uint16    `json:"binStep"`
	PricePerLamport  string    `json:"pricePerLamport"`
	PricePerToken    string    `json:"pricePerToken"`
	ActiveBinAmountX uint64    `json:"activeBinAmountX"`
	ActiveBinAmountY uint64    `json:"activeBinAmountY"`
	Info             *PoolInfo `json:"info,omitempty"`
}
