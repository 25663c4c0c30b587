package builder

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
)

// WrapSOLInstructions funds owner's wrapped SOL account with lamports and syncs its token balance.
func WrapSOLInstructions(owner solana.PublicKey, lamports uint64) ([]solana.Instruction, error) {
	createIx, err := CreateATAInstructionForMint(owner, owner, common.NativeMint, common.TokenProgramID)
	if err != nil {
		return nil, err
	}
	ixs := []solana.Instruction{createIx}
	if lamports == 0 {
		return ixs, nil
	}

	wsol, err := GetATAAddressForMint(owner, common.NativeMint, common.TokenProgramID)
	if err != nil {
		return nil, err
	}
	ixs = append(ixs,
		system.NewTransferInstruction(lamports, owner, wsol).Build(),
		token.NewSyncNativeInstruction(wsol).Build(),
	)
	return ixs, nil
}

// UnwrapSOLInstruction closes owner's wrapped SOL account, returning its lamports to owner.
func UnwrapSOLInstruction(owner solana.PublicKey) (solana.Instruction, error) {
	wsol, err := GetATAAddressForMint(owner, common.NativeMint, common.TokenProgramID)
	if err != nil {
		return nil, err
	}
	return token.NewCloseAccountInstruction(wsol, owner, owner, nil).Build(), nil
}
