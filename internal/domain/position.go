package domain

import (
	"github.com/gagliardetto/solana-go"
)

type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

type PositionBin struct {
	BinID     int32  `json:"binId"`
	Liquidity string `json:"liquidity"`
	AmountX   uint64 `json:"amountX"`
	AmountY   uint64 `json:"amountY"`
	FeeX      uint64 `json:"feeX"`
	FeeY      uint64 `json:"feeY"`
}

type Position struct {
	PublicKey     solana.PublicKey `json:"publicKey"`
	Pool          solana.PublicKey `json:"poolAddress"`
	Owner         solana.PublicKey `json:"owner"`
	LowerBinID    int32            `json:"lowerBinId"`
	UpperBinID    int32            `json:"upperBinId"`
	Bins          []PositionBin    `json:"liquidityByBin"`
	TotalX        uint64           `json:"totalX"`
	TotalY        uint64           `json:"totalY"`
	FeeX          uint64           `json:"feeX"`
	FeeY          uint64           `json:"feeY"`
	LastUpdatedAt int64            `json:"lastUpdatedAt"`
	Status        PositionStatus   `json:"status"`
}

// HasLiquidity reports whether any bin still holds shares.
func (p *Position) HasLiquidity() bool {
	for _, b := range p.Bins {
		if b.Liquidity != "" && b.Liquidity != "0" {
			return true
		}
	}
	return false
}

// RemovalPlan describes a withdrawal built by the lifecycle manager.
type RemovalPlan struct {
	Position      solana.PublicKey   `json:"position"`
	Pool          solana.PublicKey   `json:"poolAddress"`
	BinIDs        []int32            `json:"binIds"`
	FromBinID     int32              `json:"fromBinId"`
	ToBinID       int32              `json:"toBinId"`
	Bps           uint16             `json:"bps"`
	ClaimAndClose bool               `json:"claimAndClose"`
	ResultStatus  PositionStatus     `json:"resultStatus"`
	Intent        *TransactionIntent `json:"intent"`
}

// DepositPlan is the output of the position deployer.
type DepositPlan struct {
	Pool        solana.PublicKey   `json:"poolAddress"`
	Position    solana.PublicKey   `json:"position"`
	ActiveBinID int32              `json:"activeBinId"`
	MinBinID    int32              `json:"minBinId"`
	MaxBinID    int32              `json:"maxBinId"`
	AmountX     uint64             `json:"amountX"`
	AmountY     uint64             `json:"amountY"`
	Intent      *TransactionIntent `json:"intent"`

	// PositionKey is the fresh position account keypair; it must co-sign the deposit.
	PositionKey solana.PrivateKey `json:"-"`
}
