package domain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// MemcmpFilter matches program accounts whose data at Offset equals Bytes.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

type AccountReader interface {
	// GetAccount returns ErrAccountNotFound when the account does not exist.
	GetAccount(ctx context.Context, address solana.PublicKey) (*Account, error)
	// GetMultipleAccounts keeps input order; missing accounts are nil entries.
	GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*Account, error)
	GetProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64, filters []MemcmpFilter) ([]*Account, error)
}

type BalanceReader interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
}

type BlockhashSource interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

type TransactionSubmitter interface {
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, skipPreflight bool, commitment string) (solana.Signature, error)
	// ConfirmTransaction blocks until the signature reaches commitment, fails, or ctx expires.
	ConfirmTransaction(ctx context.Context, sig solana.Signature, commitment string) (*Confirmation, error)
}

// ChainClient is the full chain RPC capability handed to components.
type ChainClient interface {
	AccountReader
	BalanceReader
	BlockhashSource
	TransactionSubmitter
}

// Signer signs transactions on behalf of the operator wallet.
type Signer interface {
	PublicKey() solana.PublicKey
	// Sign signs every signature slot it or one of extra owns.
	Sign(tx *solana.Transaction, extra ...solana.PrivateKey) error
}

type KeyProvider interface {
	Signer(ctx context.Context) (Signer, error)
}

// Notifier delivers human-readable status messages. Implementations must not block the caller on failure.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type RegistryRecord struct {
	Name        string `json:"name"`
	PoolAddress string `json:"poolAddress"`
	OwnerID     string `json:"tgId"`
	PositionKey string `json:"positionKey,omitempty"`
}

type PoolRegistry interface {
	AddPool(ctx context.Context, rec RegistryRecord) error
	RemovePool(ctx context.Context, rec RegistryRecord) error
}
