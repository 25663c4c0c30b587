package dlmm

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

func testPool() *domain.PoolRef {
	return &domain.PoolRef{
		Address:       solana.NewWallet().PublicKey(),
		MintX:         common.NativeMint,
		MintY:         common.USDCMint,
		ReserveX:      solana.NewWallet().PublicKey(),
		ReserveY:      solana.NewWallet().PublicKey(),
		TokenProgramX: common.TokenProgramID,
		TokenProgramY: common.TokenProgramID,
		ActiveBinID:   -20,
		BinStep:       25,
	}
}

func TestAnchorDiscriminatorsDistinct(t *testing.T) {
	seen := map[[8]byte]string{}
	for name, d := range map[string][8]byte{
		"initialize_position":       ixInitializePosition,
		"initialize_bin_array":      ixInitializeBinArray,
		"add_liquidity_by_strategy": ixAddLiquidityByStrategy,
		"remove_liquidity_by_range": ixRemoveLiquidityByRange,
		"claim_fee":                 ixClaimFee,
		"close_position":            ixClosePosition,
	} {
		if other, ok := seen[d]; ok {
			t.Fatalf("%s and %s share a discriminator", name, other)
		}
		seen[d] = name
	}
}

func TestAddLiquidityByStrategyInstruction(t *testing.T) {
	c := NewClient(nil)
	pool := testPool()
	owner := solana.NewWallet().PublicKey()

	ix, err := c.AddLiquidityByStrategyInstruction(AddLiquidityParams{
		Pool:        pool,
		Position:    solana.NewWallet().PublicKey(),
		Owner:       owner,
		AmountX:     1_000,
		AmountY:     2_000,
		MinBinID:    -30,
		MaxBinID:    -10,
		SlippageBps: 50,
		Strategy:    StrategySpotImBalanced,
	})
	if err != nil {
		t.Fatalf("AddLiquidityByStrategyInstruction() error = %v", err)
	}

	data, _ := ix.Data()
	if len(data) != 8+8+8+4+4+4+4+1+64 {
		t.Fatalf("data length = %d", len(data))
	}
	if binary.LittleEndian.Uint64(data[8:]) != 1_000 || binary.LittleEndian.Uint64(data[16:]) != 2_000 {
		t.Errorf("amounts not encoded")
	}
	if int32(binary.LittleEndian.Uint32(data[24:])) != -20 {
		t.Errorf("active id not encoded")
	}
	if binary.LittleEndian.Uint32(data[28:]) != 2 {
		t.Errorf("max active bin slippage = %d, want 2", binary.LittleEndian.Uint32(data[28:]))
	}
	if data[40] != byte(StrategySpotImBalanced) {
		t.Errorf("strategy = %d", data[40])
	}

	accounts := ix.Accounts()
	if len(accounts) != 16 {
		t.Fatalf("accounts = %d, want 16", len(accounts))
	}
	if !accounts[2].PublicKey.Equals(c.ProgramID()) {
		t.Errorf("absent bitmap extension must be the program id")
	}
	if !accounts[11].PublicKey.Equals(owner) || !accounts[11].IsSigner {
		t.Errorf("sender meta = %+v", accounts[11])
	}

	lower, _ := c.DeriveBinArray(pool.Address, -1)
	upper, _ := c.DeriveBinArray(pool.Address, 0)
	if !accounts[9].PublicKey.Equals(lower) || !accounts[10].PublicKey.Equals(upper) {
		t.Errorf("bin array accounts do not cover [-1, 0]")
	}
}

func TestDepositInstructionsWrapsNative(t *testing.T) {
	c := NewClient(nil)
	pool := testPool()
	owner := solana.NewWallet().PublicKey()

	ixs, err := c.DepositInstructions(DepositParams{
		Pool:             pool,
		Owner:            owner,
		Position:         solana.NewWallet().PublicKey(),
		NewPosition:      true,
		MinBinID:         -30,
		MaxBinID:         -10,
		AmountX:          1_000,
		AmountY:          2_000,
		MissingBinArrays: []int64{-1},
	})
	if err != nil {
		t.Fatalf("DepositInstructions() error = %v", err)
	}

	// bin array, position, wsol ata+transfer+sync, usdc ata, add liquidity, unwrap
	if len(ixs) != 8 {
		t.Fatalf("instructions = %d, want 8", len(ixs))
	}
	if !ixs[0].ProgramID().Equals(c.ProgramID()) || !ixs[1].ProgramID().Equals(c.ProgramID()) {
		t.Errorf("program instructions must lead")
	}
	width := int32(binary.LittleEndian.Uint32(mustData(t, ixs[1])[12:]))
	if width != 21 {
		t.Errorf("position width = %d, want 21", width)
	}
	if !ixs[7].ProgramID().Equals(common.TokenProgramID) {
		t.Errorf("last instruction should close the wrapped SOL account")
	}
}

func TestWithdrawInstructions(t *testing.T) {
	c := NewClient(nil)
	pool := testPool()
	pool.MintX = solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	pos := &domain.Position{PublicKey: solana.NewWallet().PublicKey(), LowerBinID: -30, UpperBinID: -10}

	partial, err := c.WithdrawInstructions(WithdrawParams{Pool: pool, Position: pos, Owner: owner, FromBinID: -30, ToBinID: -10, Bps: 5_000})
	if err != nil {
		t.Fatal(err)
	}
	full, err := c.WithdrawInstructions(WithdrawParams{Pool: pool, Position: pos, Owner: owner, FromBinID: -30, ToBinID: -10, Bps: 10_000, ClaimAndClose: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != len(partial)+2 {
		t.Errorf("claim-and-close adds %d instructions, want 2", len(full)-len(partial))
	}

	if _, err := c.WithdrawInstructions(WithdrawParams{Pool: pool, Position: pos, Owner: owner, Bps: 0}); err == nil {
		t.Error("zero bps should be rejected")
	}
}

func mustData(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	if err != nil {
		t.Fatal(err)
	}
	return data
}
