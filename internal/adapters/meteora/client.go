// Package meteora reads display metadata from the Meteora DLMM pair API.
package meteora

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/httpx"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

// Client caches pair metadata for PoolInfoTTL. Only names and static descriptors are served from
// the cache; on-chain pool state is always read fresh by the dlmm reader.
type Client struct {
	http    *httpx.Client
	baseURL string
	ttl     time.Duration
	cache   *ristretto.Cache
	logger  zerolog.Logger
}

func New(cfg *config.RegistryConfig, logger zerolog.Logger) (*Client, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pool info cache: %w", err)
	}
	return &Client{
		http:    httpx.New(10*time.Second, 1),
		baseURL: strings.TrimRight(cfg.MeteoraURL, "/"),
		ttl:     cfg.PoolInfoTTL,
		cache:   cache,
		logger:  logger,
	}, nil
}

// PoolInfo returns the pair metadata for address.
func (c *Client) PoolInfo(ctx context.Context, address string) (*domain.PoolInfo, error) {
	if v, ok := c.cache.Get(address); ok {
		return v.(*domain.PoolInfo), nil
	}

	var info domain.PoolInfo
	if _, err := c.http.GetJSON(ctx, c.baseURL+"/pair/"+address, nil, &info); err != nil {
		return nil, fmt.Errorf("%w: pair %s: %v", domain.ErrPoolStateUnavailable, address, err)
	}
	if info.Address == "" {
		info.Address = address
	}

	if c.ttl > 0 {
		c.cache.SetWithTTL(address, &info, 1, c.ttl)
	}
	c.logger.Debug().Str("pool", address).Str("name", info.Name).Msg("[Meteora] pool info fetched")
	return &info, nil
}

// PoolName returns the display name, or a shortened address when the API is unreachable.
func (c *Client) PoolName(ctx context.Context, address string) string {
	info, err := c.PoolInfo(ctx, address)
	if err != nil || info.Name == "" {
		c.logger.Warn().Err(err).Str("pool", address).Msg("[Meteora] pool name unavailable")
		return shortAddress(address)
	}
	return info.Name
}

func (c *Client) Close() {
	c.cache.Close()
}

func shortAddress(a string) string {
	if len(a) <= 8 {
		return a
	}
	return a[:4] + "..." + a[len(a)-4:]
}
