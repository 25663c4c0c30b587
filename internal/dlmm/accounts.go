package dlmm

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// u128 is a little-endian unsigned 128-bit integer as stored on chain.
type u128 [16]byte

func (v u128) Int() *uint256.Int {
	var be [16]byte
	for i := range v {
		be[15-i] = v[i]
	}
	return new(uint256.Int).SetBytes(be[:])
}

func (v u128) IsZero() bool {
	return v == u128{}
}

// LbPair covers the leading fields of the pair account; trailing fields are not decoded.
type LbPair struct {
	StaticParameters        [32]uint8
	VariableParameters      [32]uint8
	BumpSeed                [1]uint8
	BinStepSeed             [2]uint8
	PairType                uint8
	ActiveID                int32
	BinStep                 uint16
	Status                  uint8
	RequireBaseFactorSeed   uint8
	BaseFactorSeed          [2]uint8
	ActivationType          uint8
	CreatorPoolOnOffControl uint8
	TokenXMint              solana.PublicKey
	TokenYMint              solana.PublicKey
	ReserveX                solana.PublicKey
	ReserveY                solana.PublicKey
	ProtocolFee             [16]uint8
	Padding1                [32]uint8
	RewardInfos             [288]uint8
	Oracle                  solana.PublicKey
	BinArrayBitmap          [16]uint64
	LastUpdatedAt           int64
}

type Bin struct {
	AmountX                  uint64
	AmountY                  uint64
	Price                    u128
	LiquiditySupply          u128
	RewardPerTokenStored     [2]u128
	FeeAmountXPerTokenStored u128
	FeeAmountYPerTokenStored u128
	AmountXIn                u128
	AmountYIn                u128
}

type BinArray struct {
	Index   int64
	Version uint8
	Padding [7]uint8
	LbPair  solana.PublicKey
	Bins    [MaxBinPerArray]Bin
}

type UserRewardInfo struct {
	RewardPerTokenCompletes [2]u128
	RewardPendings          [2]uint64
}

type FeeInfo struct {
	FeeXPerTokenComplete u128
	FeeYPerTokenComplete u128
	FeeXPending          uint64
	FeeYPending          uint64
}

// PositionV2 covers the position account up to the claimed fee totals.
type PositionV2 struct {
	LbPair                 solana.PublicKey
	Owner                  solana.PublicKey
	LiquidityShares        [MaxBinPerPosition]u128
	RewardInfos            [MaxBinPerPosition]UserRewardInfo
	FeeInfos               [MaxBinPerPosition]FeeInfo
	LowerBinID             int32
	UpperBinID             int32
	LastUpdatedAt          int64
	TotalClaimedFeeXAmount uint64
	TotalClaimedFeeYAmount uint64
}

func decodeAccount(data []byte, discriminator [8]byte, name string, v interface{}) error {
	if len(data) < 8 {
		return fmt.Errorf("decode %s: account data too short (%d bytes)", name, len(data))
	}
	if !bytes.Equal(data[:8], discriminator[:]) {
		return fmt.Errorf("decode %s: discriminator mismatch", name)
	}
	if err := bin.NewBinDecoder(data[8:]).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func ParseLbPair(data []byte) (*LbPair, error) {
	var pair LbPair
	if err := decodeAccount(data, accountLbPair, "LbPair", &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func ParseBinArray(data []byte) (*BinArray, error) {
	var arr BinArray
	if err := decodeAccount(data, accountBinArray, "BinArray", &arr); err != nil {
		return nil, err
	}
	return &arr, nil
}

func ParsePositionV2(data []byte) (*PositionV2, error) {
	var pos PositionV2
	if err := decodeAccount(data, accountPositionV2, "PositionV2", &pos); err != nil {
		return nil, err
	}
	if pos.UpperBinID < pos.LowerBinID || pos.UpperBinID-pos.LowerBinID >= MaxBinPerPosition {
		return nil, fmt.Errorf("decode PositionV2: invalid bin range [%d, %d]", pos.LowerBinID, pos.UpperBinID)
	}
	return &pos, nil
}

// BinAt returns the bin with binID if it lives in this array.
func (a *BinArray) BinAt(binID int32) (*Bin, bool) {
	offset := int64(binID) - a.Index*MaxBinPerArray
	if offset < 0 || offset >= MaxBinPerArray {
		return nil, false
	}
	return &a.Bins[offset], true
}
