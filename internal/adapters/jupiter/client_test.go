package jupiter

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

const (
	wsol = "So11111111111111111111111111111111111111112"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func newTestClient(baseURL string) *Client {
	c := New(&config.AggregatorConfig{
		BaseURL:        baseURL,
		APIKey:         "k",
		QuoteValidity:  30 * time.Second,
		RequestTimeout: 2 * time.Second,
	})
	c.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return c
}

func TestQuote(t *testing.T) {
	body := `{"inputMint":"` + wsol + `","inAmount":"1000000000","outputMint":"` + usdc + `","outAmount":"150000000","otherAmountThreshold":"149250000","slippageBps":50,"priceImpactPct":"0.0001","routePlan":[{"swapInfo":{"ammKey":"pool1","label":"Meteora DLMM","inputMint":"` + wsol + `","outputMint":"` + usdc + `","inAmount":"1000000000","outAmount":"150000000"},"percent":100}]}`

	var gotQuery string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-api-key")
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	q, err := c.Quote(context.Background(), domain.QuoteRequest{
		InputMint:        solana.MustPublicKeyFromBase58(wsol),
		OutputMint:       solana.MustPublicKeyFromBase58(usdc),
		Amount:           1_000_000_000,
		SlippageBps:      50,
		Dexes:            []string{MeteoraDLMMLabel},
		OnlyDirectRoutes: true,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	for _, want := range []string{"amount=1000000000", "slippageBps=50", "restrictIntermediateTokens=true", "onlyDirectRoutes=true", "dexes=Meteora+DLMM"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if gotKey != "k" {
		t.Errorf("api key header = %q", gotKey)
	}
	if q.OutAmount != 150_000_000 || q.OtherAmountThreshold != 149_250_000 {
		t.Errorf("amounts = %d/%d", q.OutAmount, q.OtherAmountThreshold)
	}
	if len(q.RoutePlan) != 1 || q.RoutePlan[0].Label != MeteoraDLMMLabel {
		t.Errorf("route = %+v", q.RoutePlan)
	}
	if string(q.Raw) != body {
		t.Error("raw body not preserved")
	}
	if got := q.ValidUntil.Sub(q.FetchedAt); got != 30*time.Second {
		t.Errorf("validity = %v", got)
	}
}

func TestQuoteUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"no route"}`},
		{"missing out amount", http.StatusOK, `{"inputMint":"` + wsol + `","inAmount":"1","outputMint":"` + usdc + `"}`},
		{"not json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Quote(context.Background(), domain.QuoteRequest{
				InputMint:  solana.MustPublicKeyFromBase58(wsol),
				OutputMint: solana.MustPublicKeyFromBase58(usdc),
				Amount:     1,
			})
			if !errors.Is(err, domain.ErrQuoteUnavailable) {
				t.Errorf("err = %v, want ErrQuoteUnavailable", err)
			}
		})
	}
}

func TestBuildSwap(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/swap" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, `{"swapTransaction":"`+base64.StdEncoding.EncodeToString(payload)+`","lastValidBlockHeight":99,"prioritizationFeeLamports":5000}`)
	}))
	defer srv.Close()

	user := solana.NewWallet().PublicKey()
	res, err := newTestClient(srv.URL).BuildSwap(context.Background(), domain.SwapBuildRequest{
		Quote:                   &domain.Quote{Raw: []byte(`{"outAmount":"7"}`)},
		UserPublicKey:           user,
		DynamicComputeUnitLimit: true,
		DynamicSlippage:         true,
		PriorityMaxLamports:     1_000_000,
		PriorityLevel:           "veryHigh",
	})
	if err != nil {
		t.Fatalf("BuildSwap: %v", err)
	}
	if string(res.SwapTransaction) != string(payload) || res.LastValidBlockHeight != 99 {
		t.Errorf("result = %+v", res)
	}
	for _, want := range []string{`"quoteResponse":{"outAmount":"7"}`, user.String(), `"maxLamports":1000000`, `"priorityLevel":"veryHigh"`, `"dynamicComputeUnitLimit":true`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body %s missing %s", gotBody, want)
		}
	}
}

func TestBuildSwapRequiresRawQuote(t *testing.T) {
	_, err := newTestClient("http://unused").BuildSwap(context.Background(), domain.SwapBuildRequest{Quote: &domain.Quote{}})
	if !errors.Is(err, domain.ErrInputValidation) {
		t.Errorf("err = %v", err)
	}
}
