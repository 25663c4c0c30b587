package meteora

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

func TestPoolInfoCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/pair/pool1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"address":"pool1","name":"SOL-USDC","mint_x":"x","mint_y":"y","bin_step":10,"current_price":150.5}`)
	}))
	defer srv.Close()

	c, err := New(&config.RegistryConfig{MeteoraURL: srv.URL, PoolInfoTTL: time.Minute}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	info, err := c.PoolInfo(context.Background(), "pool1")
	if err != nil {
		t.Fatalf("PoolInfo: %v", err)
	}
	if info.Name != "SOL-USDC" || info.BinStep != 10 || info.CurrentPrice != 150.5 {
		t.Errorf("info = %+v", info)
	}

	c.cache.Wait()
	if _, err := c.PoolInfo(context.Background(), "pool1"); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("api hits = %d, want 1", hits.Load())
	}
}

func TestPoolNameFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(&config.RegistryConfig{MeteoraURL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.PoolInfo(context.Background(), "5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"); !errors.Is(err, domain.ErrPoolStateUnavailable) {
		t.Errorf("err = %v", err)
	}
	if got := c.PoolName(context.Background(), "5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6"); got != "5rCf...HAS6" {
		t.Errorf("name = %q", got)
	}
}
