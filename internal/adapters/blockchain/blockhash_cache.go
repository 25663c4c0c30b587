package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
)

const BLOCKHASH_CACHE_SERVICE = "cache-blockhash-svc"

// blockhashTTL is well inside the ~60s validity window of a blockhash.
const blockhashTTL = 2 * time.Second

type CachedBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
	UpdatedAt            time.Time
}

type blockhashFetcher func(ctx context.Context) (*CachedBlockhash, error)

// BlockhashCacheService serves recent blockhashes, refreshing from RPC at most every blockhashTTL.
type BlockhashCacheService struct {
	container.BaseDIInstance

	mu      sync.RWMutex
	current *CachedBlockhash
	fetch   blockhashFetcher
}

func (svc *BlockhashCacheService) ID() string {
	return BLOCKHASH_CACHE_SERVICE
}

func (svc *BlockhashCacheService) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.fetch = rpcBlockhashFetcher(newRPCClient(rpcConfig))
	return nil
}

func (svc *BlockhashCacheService) Start() error {
	if _, err := svc.refresh(context.Background()); err != nil {
		log.Warn().Err(err).Msg("[BlockhashCacheService] failed to fetch initial blockhash, will retry on first request")
		return nil
	}
	log.Info().Msg("[BlockhashCacheService] initialized")
	return nil
}

func (svc *BlockhashCacheService) Stop() error {
	return nil
}

func rpcBlockhashFetcher(client *rpc.Client) blockhashFetcher {
	return func(ctx context.Context) (*CachedBlockhash, error) {
		res, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return nil, err
		}
		return &CachedBlockhash{
			Blockhash:            res.Value.Blockhash,
			LastValidBlockHeight: res.Value.LastValidBlockHeight,
			Slot:                 res.Context.Slot,
			UpdatedAt:            time.Now(),
		}, nil
	}
}

func (svc *BlockhashCacheService) refresh(ctx context.Context) (*CachedBlockhash, error) {
	fresh, err := svc.fetch(ctx)
	if err != nil {
		return nil, err
	}
	svc.mu.Lock()
	svc.current = fresh
	svc.mu.Unlock()

	log.Debug().
		Str("blockhash", fresh.Blockhash.String()).
		Uint64("slot", fresh.Slot).
		Msg("[BlockhashCacheService] refreshed blockhash")
	return fresh, nil
}

// GetBlockhash returns the cached blockhash, refreshing it when stale. A stale value is served if RPC fails.
func (svc *BlockhashCacheService) GetBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	svc.mu.RLock()
	cached := svc.current
	svc.mu.RUnlock()

	if cached != nil && time.Since(cached.UpdatedAt) < blockhashTTL {
		return cached.Blockhash, cached.LastValidBlockHeight, nil
	}

	fresh, err := svc.refresh(ctx)
	if err != nil {
		if cached != nil {
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
		return solana.Hash{}, 0, err
	}
	return fresh.Blockhash, fresh.LastValidBlockHeight, nil
}

func (svc *BlockhashCacheService) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	hash, _, err := svc.GetBlockhash(ctx)
	return hash, err
}
