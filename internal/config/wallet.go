package config

import (
	"errors"
	"os"
)

// WalletConfig selects where the signing key comes from. Exactly one source must be set.
type WalletConfig struct {
	PrivateKey  string // base58 encoded 64-byte secret key
	KeypairPath string // solana-keygen JSON file
}

func (w *WalletConfig) Key() string {
	return WALLET_CONFIG_KEY
}

func (w *WalletConfig) Load() error {
	w.PrivateKey = os.Getenv("WALLET_PRIVATE_KEY")
	w.KeypairPath = os.Getenv("WALLET_KEYPAIR_PATH")
	return nil
}

func (w *WalletConfig) Validate() error {
	if w.PrivateKey != "" && w.KeypairPath != "" {
		return errors.New("wallet config: set only one of WALLET_PRIVATE_KEY or WALLET_KEYPAIR_PATH")
	}
	return nil
}
