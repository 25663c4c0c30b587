package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

const WALLET_SERVICE = "wallet-svc"

// WalletService loads the operator key lazily; a missing or malformed key surfaces as ErrKeyUnavailable per call.
type WalletService struct {
	container.BaseDIInstance

	cfg *config.WalletConfig
}

func NewWalletService(cfg *config.WalletConfig) *WalletService {
	return &WalletService{cfg: cfg}
}

func (svc *WalletService) ID() string {
	return WALLET_SERVICE
}

func (svc *WalletService) Configure(c container.IContainer) error {
	svc.cfg = c.GetConfig(config.WALLET_CONFIG_KEY).(*config.WalletConfig)
	return nil
}

func (svc *WalletService) Start() error {
	signer, err := svc.load()
	if err != nil {
		log.Warn().Err(err).Msg("[WalletService] no usable signing key; signing operations will fail")
		return nil
	}
	log.Info().Str("wallet", signer.PublicKey().String()).Msg("[WalletService] signing key loaded")
	return nil
}

func (svc *WalletService) Stop() error {
	return nil
}

func (svc *WalletService) Signer(ctx context.Context) (domain.Signer, error) {
	return svc.load()
}

func (svc *WalletService) load() (*LocalSigner, error) {
	if svc.cfg == nil {
		return nil, fmt.Errorf("%w: wallet not configured", domain.ErrKeyUnavailable)
	}

	var (
		key solana.PrivateKey
		err error
	)
	switch {
	case svc.cfg.PrivateKey != "":
		key, err = solana.PrivateKeyFromBase58(svc.cfg.PrivateKey)
	case svc.cfg.KeypairPath != "":
		key, err = solana.PrivateKeyFromSolanaKeygenFile(svc.cfg.KeypairPath)
	default:
		return nil, fmt.Errorf("%w: set WALLET_PRIVATE_KEY or WALLET_KEYPAIR_PATH", domain.ErrKeyUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyUnavailable, err)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("%w: key must be 64 bytes, got %d", domain.ErrKeyUnavailable, len(key))
	}
	return NewLocalSigner(key), nil
}

// LocalSigner signs with an in-memory ed25519 key.
type LocalSigner struct {
	key solana.PrivateKey
}

func NewLocalSigner(key solana.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key}
}

func (s *LocalSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *LocalSigner) Sign(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	owner := s.key.PublicKey()
	_, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(owner) {
			return &s.key
		}
		for i := range extra {
			if extra[i].PublicKey().Equals(pub) {
				return &extra[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
