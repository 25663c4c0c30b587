package priority

import (
	"context"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
)

var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const (
	// DefaultComputeUnits is used for program transactions whose cost is not otherwise known.
	DefaultComputeUnits = 200_000
	MaxComputeUnits     = 1_400_000

	// maxFeeAccounts bounds the account list sent to getRecentPrioritizationFees.
	maxFeeAccounts = 8
)

// Service prices compute for locally built program transactions.
type Service struct {
	feeCalculator *FeeCalculator
	urgency       Urgency
}

func NewService(source FeeSource, urgency Urgency) *Service {
	return &Service{
		feeCalculator: NewFeeCalculator(source),
		urgency:       urgency,
	}
}

// BudgetInstructions returns the SetComputeUnitLimit and SetComputeUnitPrice pair. A nil Service only sets the limit.
func (s *Service) BudgetInstructions(ctx context.Context, computeUnits uint32, writable []solana.PublicKey) []solana.Instruction {
	if computeUnits == 0 {
		computeUnits = DefaultComputeUnits
	}
	if computeUnits > MaxComputeUnits {
		computeUnits = MaxComputeUnits
	}

	instructions := []solana.Instruction{NewSetComputeUnitLimitInstruction(computeUnits)}
	if s == nil {
		return instructions
	}

	if len(writable) > maxFeeAccounts {
		writable = writable[:maxFeeAccounts]
	}
	fee := s.feeCalculator.GetOptimalFee(ctx, s.urgency, writable)

	log.Debug().
		Str("urgency", fee.Urgency.String()).
		Int("percentile", fee.Percentile).
		Int("samples", fee.SampleCount).
		Uint64("fee_per_cu", fee.FeePerCU).
		Uint64("max_fee_lamports", fee.TotalLamports(computeUnits)).
		Msg("[Priority] Priced compute budget")

	return append(instructions, NewSetComputeUnitPriceInstruction(fee.FeePerCU))
}

type SetComputeUnitLimitInstruction struct {
	Units uint32
}

func NewSetComputeUnitLimitInstruction(units uint32) *SetComputeUnitLimitInstruction {
	return &SetComputeUnitLimitInstruction{Units: units}
}

func (ix *SetComputeUnitLimitInstruction) ProgramID() solana.PublicKey {
	return ComputeBudgetProgramID
}

func (ix *SetComputeUnitLimitInstruction) Accounts() []*solana.AccountMeta {
	return nil
}

func (ix *SetComputeUnitLimitInstruction) Data() ([]byte, error) {
	data := make([]byte, 5)
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:], ix.Units)
	return data, nil
}

type SetComputeUnitPriceInstruction struct {
	MicroLamports uint64
}

func NewSetComputeUnitPriceInstruction(microLamports uint64) *SetComputeUnitPriceInstruction {
	return &SetComputeUnitPriceInstruction{MicroLamports: microLamports}
}

func (ix *SetComputeUnitPriceInstruction) ProgramID() solana.PublicKey {
	return ComputeBudgetProgramID
}

func (ix *SetComputeUnitPriceInstruction) Accounts() []*solana.AccountMeta {
	return nil
}

func (ix *SetComputeUnitPriceInstruction) Data() ([]byte, error) {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], ix.MicroLamports)
	return data, nil
}
