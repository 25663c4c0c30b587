package builder

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
)

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

// GetATAAddressForMint derives the associated token account of wallet for mint under tokenProgram.
func GetATAAddressForMint(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if tokenProgram.IsZero() {
		tokenProgram = common.TokenProgramID
	}
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, nil
	}
	ataCacheMu.RUnlock()

	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		common.ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, nil
}

// CreateATAInstructionForMint creates an idempotent ATA creation instruction.
func CreateATAInstructionForMint(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	if tokenProgram.IsZero() {
		tokenProgram = common.TokenProgramID
	}
	ata, err := GetATAAddressForMint(owner, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	return &createATAIdempotent{
		payer:        payer,
		ata:          ata,
		owner:        owner,
		mint:         mint,
		tokenProgram: tokenProgram,
	}, nil
}

type createATAIdempotent struct {
	payer        solana.PublicKey
	ata          solana.PublicKey
	owner        solana.PublicKey
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
}

func (i *createATAIdempotent) ProgramID() solana.PublicKey {
	return common.ATAProgramID
}

func (i *createATAIdempotent) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: i.payer, IsSigner: true, IsWritable: true},
		{PublicKey: i.ata, IsSigner: false, IsWritable: true},
		{PublicKey: i.owner, IsSigner: false, IsWritable: false},
		{PublicKey: i.mint, IsSigner: false, IsWritable: false},
		{PublicKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: i.tokenProgram, IsSigner: false, IsWritable: false},
	}
}

// Data is the CreateIdempotent variant of the associated token program.
func (i *createATAIdempotent) Data() ([]byte, error) {
	return []byte{1}, nil
}
