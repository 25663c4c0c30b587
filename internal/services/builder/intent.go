package builder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

// BuildIntent assembles instructions into an unsigned legacy transaction and wraps it as an intent.
func BuildIntent(
	kind domain.IntentKind,
	description string,
	instructions []solana.Instruction,
	blockhash solana.Hash,
	payer solana.PublicKey,
	extraSigners ...solana.PrivateKey,
) (*domain.TransactionIntent, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("build %s intent: no instructions", kind)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("build %s transaction: %w", kind, err)
	}

	payload, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize %s transaction: %w", kind, err)
	}

	return &domain.TransactionIntent{
		ID:              uuid.NewString(),
		Kind:            kind,
		Description:     description,
		Payload:         payload,
		RequiredSigners: tx.Message.Signers(),
		ExtraSigners:    extraSigners,
	}, nil
}

// IntentFromPayload wraps an externally built serialized transaction (e.g. from the swap aggregator).
func IntentFromPayload(kind domain.IntentKind, description string, payload []byte, signer solana.PublicKey) *domain.TransactionIntent {
	return &domain.TransactionIntent{
		ID:              uuid.NewString(),
		Kind:            kind,
		Description:     description,
		Payload:         payload,
		RequiredSigners: []solana.PublicKey{signer},
	}
}
