package dlmm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/builder"
)

// DepositParams describes one deposit transaction. NewPosition requests initialize_position for Position first.
type DepositParams struct {
	Pool             *domain.PoolRef
	Owner            solana.PublicKey
	Position         solana.PublicKey
	NewPosition      bool
	MinBinID         int32
	MaxBinID         int32
	AmountX          uint64
	AmountY          uint64
	SlippageBps      uint16
	Strategy         StrategyType
	MissingBinArrays []int64
}

// DepositInstructions lists the program instructions of a deposit in execution order.
func (c *Client) DepositInstructions(p DepositParams) ([]solana.Instruction, error) {
	if p.Pool == nil {
		return nil, fmt.Errorf("deposit: nil pool")
	}
	ixs := make([]solana.Instruction, 0, 10)

	for _, idx := range p.MissingBinArrays {
		ix, err := c.InitializeBinArrayInstruction(p.Pool.Address, idx, p.Owner)
		if err != nil {
			return nil, err
		}
		ixs = append(ixs, ix)
	}

	if p.NewPosition {
		ix, err := c.InitializePositionInstruction(p.Owner, p.Position, p.Pool.Address, p.Owner, p.MinBinID, p.MaxBinID-p.MinBinID+1)
		if err != nil {
			return nil, err
		}
		ixs = append(ixs, ix)
	}

	tokenIxs, err := tokenAccountInstructions(p.Pool, p.Owner, p.AmountX, p.AmountY)
	if err != nil {
		return nil, err
	}
	ixs = append(ixs, tokenIxs...)

	addIx, err := c.AddLiquidityByStrategyInstruction(AddLiquidityParams{
		Pool:        p.Pool,
		Position:    p.Position,
		Owner:       p.Owner,
		AmountX:     p.AmountX,
		AmountY:     p.AmountY,
		MinBinID:    p.MinBinID,
		MaxBinID:    p.MaxBinID,
		SlippageBps: p.SlippageBps,
		Strategy:    p.Strategy,
	})
	if err != nil {
		return nil, err
	}
	ixs = append(ixs, addIx)

	return appendUnwrap(ixs, p.Pool, p.Owner)
}

// WithdrawParams describes a removal over [FromBinID, ToBinID] of Bps basis points of each bin's shares.
type WithdrawParams struct {
	Pool          *domain.PoolRef
	Position      *domain.Position
	Owner         solana.PublicKey
	FromBinID     int32
	ToBinID       int32
	Bps           uint16
	ClaimAndClose bool
}

func (c *Client) WithdrawInstructions(p WithdrawParams) ([]solana.Instruction, error) {
	ixs, err := tokenAccountInstructions(p.Pool, p.Owner, 0, 0)
	if err != nil {
		return nil, err
	}

	removeIx, err := c.RemoveLiquidityByRangeInstruction(RemoveLiquidityParams{
		Pool:      p.Pool,
		Position:  p.Position,
		Owner:     p.Owner,
		FromBinID: p.FromBinID,
		ToBinID:   p.ToBinID,
		Bps:       p.Bps,
	})
	if err != nil {
		return nil, err
	}
	ixs = append(ixs, removeIx)

	if p.ClaimAndClose {
		claimIx, err := c.ClaimFeeInstruction(p.Pool, p.Position, p.Owner)
		if err != nil {
			return nil, err
		}
		closeIx, err := c.ClosePositionInstruction(p.Pool, p.Position, p.Owner)
		if err != nil {
			return nil, err
		}
		ixs = append(ixs, claimIx, closeIx)
	}

	return appendUnwrap(ixs, p.Pool, p.Owner)
}

func (c *Client) ClaimFeeInstructions(pool *domain.PoolRef, position *domain.Position, owner solana.PublicKey) ([]solana.Instruction, error) {
	ixs, err := tokenAccountInstructions(pool, owner, 0, 0)
	if err != nil {
		return nil, err
	}
	claimIx, err := c.ClaimFeeInstruction(pool, position, owner)
	if err != nil {
		return nil, err
	}
	return appendUnwrap(append(ixs, claimIx), pool, owner)
}

// tokenAccountInstructions makes sure both owner token accounts exist and funds the wrapped native side.
func tokenAccountInstructions(pool *domain.PoolRef, owner solana.PublicKey, amountX, amountY uint64) ([]solana.Instruction, error) {
	var ixs []solana.Instruction
	sides := []struct {
		mint    solana.PublicKey
		program solana.PublicKey
		amount  uint64
	}{
		{pool.MintX, pool.TokenProgramX, amountX},
		{pool.MintY, pool.TokenProgramY, amountY},
	}

	for _, side := range sides {
		if side.mint.Equals(common.NativeMint) {
			wrap, err := builder.WrapSOLInstructions(owner, side.amount)
			if err != nil {
				return nil, err
			}
			ixs = append(ixs, wrap...)
			continue
		}
		ix, err := builder.CreateATAInstructionForMint(owner, owner, side.mint, side.program)
		if err != nil {
			return nil, err
		}
		ixs = append(ixs, ix)
	}
	return ixs, nil
}

func appendUnwrap(ixs []solana.Instruction, pool *domain.PoolRef, owner solana.PublicKey) ([]solana.Instruction, error) {
	if !pool.IsNativePaired(common.NativeMint) {
		return ixs, nil
	}
	ix, err := builder.UnwrapSOLInstruction(owner)
	if err != nil {
		return nil, err
	}
	return append(ixs, ix), nil
}

// CloseInstructions claims any outstanding fees and closes a position that holds no liquidity.
func (c *Client) CloseInstructions(pool *domain.PoolRef, position *domain.Position, owner solana.PublicKey) ([]solana.Instruction, error) {
	var ixs []solana.Instruction
	if position.FeeX > 0 || position.FeeY > 0 {
		claim, err := c.ClaimFeeInstructions(pool, position, owner)
		if err != nil {
			return nil, err
		}
		ixs = append(ixs, claim...)
	}
	closeIx, err := c.ClosePositionInstruction(pool, position, owner)
	if err != nil {
		return nil, err
	}
	return append(ixs, closeIx), nil
}
