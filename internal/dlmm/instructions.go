package dlmm

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/builder"
)

// StrategyType mirrors the program's strategy enum ordinal.
type StrategyType uint8

const (
	StrategySpotOneSide StrategyType = iota
	StrategyCurveOneSide
	StrategyBidAskOneSide
	StrategySpotBalanced
	StrategyCurveBalanced
	StrategyBidAskBalanced
	StrategySpotImBalanced
	StrategyCurveImBalanced
	StrategyBidAskImBalanced
)

type instruction struct {
	programID solana.PublicKey
	accounts  []*solana.AccountMeta
	data      []byte
}

func (i *instruction) ProgramID() solana.PublicKey      { return i.programID }
func (i *instruction) Accounts() []*solana.AccountMeta { return i.accounts }
func (i *instruction) Data() ([]byte, error)           { return i.data, nil }

func encodeInstruction(discriminator [8]byte, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func meta(key solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}

func (c *Client) newInstruction(discriminator [8]byte, args interface{}, accounts ...*solana.AccountMeta) (solana.Instruction, error) {
	data, err := encodeInstruction(discriminator, args)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts,
		meta(c.eventAuthority, false, false),
		meta(c.programID, false, false),
	)
	return &instruction{programID: c.programID, accounts: accounts, data: data}, nil
}

type initializePositionArgs struct {
	LowerBinID int32
	Width      int32
}

func (c *Client) InitializePositionInstruction(payer, position, lbPair, owner solana.PublicKey, lowerBinID, width int32) (solana.Instruction, error) {
	if width <= 0 || width > MaxBinPerPosition {
		return nil, fmt.Errorf("initialize position: width %d out of range", width)
	}
	return c.newInstruction(ixInitializePosition,
		initializePositionArgs{LowerBinID: lowerBinID, Width: width},
		meta(payer, true, true),
		meta(position, true, true),
		meta(lbPair, false, false),
		meta(owner, false, true),
		meta(common.SystemProgramID, false, false),
		meta(common.RentSysvarID, false, false),
	)
}

type initializeBinArrayArgs struct {
	Index int64
}

// InitializeBinArrayInstruction has no event accounts.
func (c *Client) InitializeBinArrayInstruction(lbPair solana.PublicKey, index int64, funder solana.PublicKey) (solana.Instruction, error) {
	binArray, err := c.DeriveBinArray(lbPair, index)
	if err != nil {
		return nil, err
	}
	data, err := encodeInstruction(ixInitializeBinArray, initializeBinArrayArgs{Index: index})
	if err != nil {
		return nil, err
	}
	return &instruction{
		programID: c.programID,
		accounts: []*solana.AccountMeta{
			meta(lbPair, false, false),
			meta(binArray, true, false),
			meta(funder, true, true),
			meta(common.SystemProgramID, false, false),
		},
		data: data,
	}, nil
}

type strategyParameters struct {
	MinBinID     int32
	MaxBinID     int32
	StrategyType uint8
	Parameters   [64]uint8
}

type liquidityParameterByStrategy struct {
	AmountX              uint64
	AmountY              uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	StrategyParameters   strategyParameters
}

// liquidityAccounts is the account block shared by add and remove liquidity.
type liquidityAccounts struct {
	userTokenX    solana.PublicKey
	userTokenY    solana.PublicKey
	binArrayLower solana.PublicKey
	binArrayUpper solana.PublicKey
}

func (c *Client) resolveLiquidityAccounts(pool *domain.PoolRef, owner solana.PublicKey, minBinID, maxBinID int32) (*liquidityAccounts, error) {
	userX, err := builder.GetATAAddressForMint(owner, pool.MintX, pool.TokenProgramX)
	if err != nil {
		return nil, err
	}
	userY, err := builder.GetATAAddressForMint(owner, pool.MintY, pool.TokenProgramY)
	if err != nil {
		return nil, err
	}

	lowerIdx, upperIdx := BinArrayRange(minBinID, maxBinID)
	lower, err := c.DeriveBinArray(pool.Address, lowerIdx)
	if err != nil {
		return nil, err
	}
	upper, err := c.DeriveBinArray(pool.Address, upperIdx)
	if err != nil {
		return nil, err
	}

	return &liquidityAccounts{
		userTokenX:    userX,
		userTokenY:    userY,
		binArrayLower: lower,
		binArrayUpper: upper,
	}, nil
}

// bitmapExtension falls back to the program id, which the program reads as None.
func (c *Client) bitmapExtension(pool *domain.PoolRef) solana.PublicKey {
	if pool.BitmapExtension.IsZero() {
		return c.programID
	}
	return pool.BitmapExtension
}

func (c *Client) liquidityMetas(pool *domain.PoolRef, position, owner solana.PublicKey, acc *liquidityAccounts) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		meta(position, true, false),
		meta(pool.Address, true, false),
		meta(c.bitmapExtension(pool), !pool.BitmapExtension.IsZero(), false),
		meta(acc.userTokenX, true, false),
		meta(acc.userTokenY, true, false),
		meta(pool.ReserveX, true, false),
		meta(pool.ReserveY, true, false),
		meta(pool.MintX, false, false),
		meta(pool.MintY, false, false),
		meta(acc.binArrayLower, true, false),
		meta(acc.binArrayUpper, true, false),
		meta(owner, false, true),
		meta(pool.TokenProgramX, false, false),
		meta(pool.TokenProgramY, false, false),
	}
}

type AddLiquidityParams struct {
	Pool        *domain.PoolRef
	Position    solana.PublicKey
	Owner       solana.PublicKey
	AmountX     uint64
	AmountY     uint64
	MinBinID    int32
	MaxBinID    int32
	SlippageBps uint16
	Strategy    StrategyType
}

func (c *Client) AddLiquidityByStrategyInstruction(p AddLiquidityParams) (solana.Instruction, error) {
	if p.MaxBinID < p.MinBinID {
		return nil, fmt.Errorf("add liquidity: inverted bin range [%d, %d]", p.MinBinID, p.MaxBinID)
	}
	acc, err := c.resolveLiquidityAccounts(p.Pool, p.Owner, p.MinBinID, p.MaxBinID)
	if err != nil {
		return nil, err
	}

	args := liquidityParameterByStrategy{
		AmountX:              p.AmountX,
		AmountY:              p.AmountY,
		ActiveID:             p.Pool.ActiveBinID,
		MaxActiveBinSlippage: MaxActiveBinSlippageFor(p.SlippageBps, p.Pool.BinStep),
		StrategyParameters: strategyParameters{
			MinBinID:     p.MinBinID,
			MaxBinID:     p.MaxBinID,
			StrategyType: uint8(p.Strategy),
		},
	}
	return c.newInstruction(ixAddLiquidityByStrategy, args, c.liquidityMetas(p.Pool, p.Position, p.Owner, acc)...)
}

type removeLiquidityByRangeArgs struct {
	FromBinID   int32
	ToBinID     int32
	BpsToRemove uint16
}

type RemoveLiquidityParams struct {
	Pool      *domain.PoolRef
	Position  *domain.Position
	Owner     solana.PublicKey
	FromBinID int32
	ToBinID   int32
	Bps       uint16
}

func (c *Client) RemoveLiquidityByRangeInstruction(p RemoveLiquidityParams) (solana.Instruction, error) {
	if p.Bps == 0 || p.Bps > BasisPointMax {
		return nil, fmt.Errorf("remove liquidity: bps %d out of range", p.Bps)
	}
	acc, err := c.resolveLiquidityAccounts(p.Pool, p.Owner, p.Position.LowerBinID, p.Position.UpperBinID)
	if err != nil {
		return nil, err
	}
	args := removeLiquidityByRangeArgs{FromBinID: p.FromBinID, ToBinID: p.ToBinID, BpsToRemove: p.Bps}
	return c.newInstruction(ixRemoveLiquidityByRange, args, c.liquidityMetas(p.Pool, p.Position.PublicKey, p.Owner, acc)...)
}

func (c *Client) ClaimFeeInstruction(pool *domain.PoolRef, position *domain.Position, owner solana.PublicKey) (solana.Instruction, error) {
	acc, err := c.resolveLiquidityAccounts(pool, owner, position.LowerBinID, position.UpperBinID)
	if err != nil {
		return nil, err
	}
	return c.newInstruction(ixClaimFee, nil,
		meta(pool.Address, true, false),
		meta(position.PublicKey, true, false),
		meta(acc.binArrayLower, true, false),
		meta(acc.binArrayUpper, true, false),
		meta(owner, false, true),
		meta(pool.ReserveX, true, false),
		meta(pool.ReserveY, true, false),
		meta(acc.userTokenX, true, false),
		meta(acc.userTokenY, true, false),
		meta(pool.MintX, false, false),
		meta(pool.MintY, false, false),
		meta(pool.TokenProgramX, false, false),
	)
}

func (c *Client) ClosePositionInstruction(pool *domain.PoolRef, position *domain.Position, owner solana.PublicKey) (solana.Instruction, error) {
	lowerIdx, upperIdx := BinArrayRange(position.LowerBinID, position.UpperBinID)
	lower, err := c.DeriveBinArray(pool.Address, lowerIdx)
	if err != nil {
		return nil, err
	}
	upper, err := c.DeriveBinArray(pool.Address, upperIdx)
	if err != nil {
		return nil, err
	}
	return c.newInstruction(ixClosePosition, nil,
		meta(position.PublicKey, true, false),
		meta(pool.Address, true, false),
		meta(lower, true, false),
		meta(upper, true, false),
		meta(owner, false, true),
		meta(owner, true, false),
	)
}
