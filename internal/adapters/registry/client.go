// Package registry files pool records with the external pool registry API.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/httpx"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

var ErrRegistryRejected = errors.New("registry rejected record")

type Client struct {
	http    *httpx.Client
	baseURL string
}

func New(cfg *config.RegistryConfig) *Client {
	return &Client{
		http:    httpx.New(10*time.Second, 0),
		baseURL: strings.TrimRight(cfg.RegistryURL, "/"),
	}
}

type registryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) AddPool(ctx context.Context, rec domain.RegistryRecord) error {
	return c.post(ctx, "/add-pool", rec)
}

func (c *Client) RemovePool(ctx context.Context, rec domain.RegistryRecord) error {
	return c.post(ctx, "/remove-pool", rec)
}

func (c *Client) post(ctx context.Context, path string, rec domain.RegistryRecord) error {
	if rec.Name == "" || rec.PoolAddress == "" || rec.OwnerID == "" {
		return fmt.Errorf("%w: registry record needs name, pool address and owner id", domain.ErrInputValidation)
	}

	var resp registryResponse
	if _, err := c.http.PostJSON(ctx, c.baseURL+path, rec, nil, &resp); err != nil {
		return fmt.Errorf("registry %s: %w", path, err)
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "no message"
		}
		return fmt.Errorf("%w: %s", ErrRegistryRejected, msg)
	}
	return nil
}
