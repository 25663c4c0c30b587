// Package jupiter talks to the Jupiter swap API (quote and swap-transaction endpoints).
package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/httpx"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

// MeteoraDLMMLabel is the aggregator venue label of DLMM pools.
const MeteoraDLMMLabel = "Meteora DLMM"

type Client struct {
	http     *httpx.Client
	baseURL  string
	apiKey   string
	validity time.Duration
	now      func() time.Time
}

func New(cfg *config.AggregatorConfig) *Client {
	return &Client{
		http:     httpx.New(cfg.RequestTimeout, 2),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   strings.TrimSpace(cfg.APIKey),
		validity: cfg.QuoteValidity,
		now:      time.Now,
	}
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": c.apiKey}
}

type swapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

type quoteResponse struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SlippageBps          int    `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`
	RoutePlan            []struct {
		SwapInfo swapInfo `json:"swapInfo"`
		Percent  int      `json:"percent"`
	} `json:"routePlan"`
}

// Quote fetches a quote. Any transport, status or decoding failure is ErrQuoteUnavailable.
func (c *Client) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	vals := url.Values{}
	vals.Set("inputMint", req.InputMint.String())
	vals.Set("outputMint", req.OutputMint.String())
	vals.Set("amount", strconv.FormatUint(req.Amount, 10))
	vals.Set("slippageBps", strconv.Itoa(int(req.SlippageBps)))
	vals.Set("restrictIntermediateTokens", "true")
	if len(req.Dexes) > 0 {
		vals.Set("dexes", strings.Join(req.Dexes, ","))
	}
	if req.OnlyDirectRoutes {
		vals.Set("onlyDirectRoutes", "true")
	}

	endpoint := fmt.Sprintf("%s/quote?%s", c.baseURL, vals.Encode())

	var resp quoteResponse
	raw, err := c.http.GetJSON(ctx, endpoint, c.headers(), &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s -> %s: %v", domain.ErrQuoteUnavailable, req.InputMint, req.OutputMint, err)
	}

	return c.toQuote(&resp, raw)
}

func (c *Client) toQuote(resp *quoteResponse, raw []byte) (*domain.Quote, error) {
	inAmount, err := strconv.ParseUint(resp.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad inAmount %q", domain.ErrQuoteUnavailable, resp.InAmount)
	}
	outAmount, err := strconv.ParseUint(resp.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad outAmount %q", domain.ErrQuoteUnavailable, resp.OutAmount)
	}
	threshold, _ := strconv.ParseUint(resp.OtherAmountThreshold, 10, 64)

	inputMint, err := solana.PublicKeyFromBase58(resp.InputMint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad inputMint: %v", domain.ErrQuoteUnavailable, err)
	}
	outputMint, err := solana.PublicKeyFromBase58(resp.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad outputMint: %v", domain.ErrQuoteUnavailable, err)
	}

	route := make([]domain.RouteStep, 0, len(resp.RoutePlan))
	for _, hop := range resp.RoutePlan {
		route = append(route, domain.RouteStep{
			Label:      hop.SwapInfo.Label,
			AmmKey:     hop.SwapInfo.AmmKey,
			InputMint:  hop.SwapInfo.InputMint,
			OutputMint: hop.SwapInfo.OutputMint,
			InAmount:   hop.SwapInfo.InAmount,
			OutAmount:  hop.SwapInfo.OutAmount,
			Percent:    hop.Percent,
		})
	}

	now := c.now()
	return &domain.Quote{
		InputMint:            inputMint,
		OutputMint:           outputMint,
		InAmount:             inAmount,
		OutAmount:            outAmount,
		OtherAmountThreshold: threshold,
		SlippageBps:          uint16(resp.SlippageBps),
		PriceImpactPct:       resp.PriceImpactPct,
		RoutePlan:            route,
		FetchedAt:            now,
		ValidUntil:           now.Add(c.validity),
		Raw:                  raw,
	}, nil
}

type priorityLevelWithMaxLamports struct {
	MaxLamports   uint64 `json:"maxLamports"`
	PriorityLevel string `json:"priorityLevel"`
}

type prioritizationFeeLamports struct {
	PriorityLevelWithMaxLamports priorityLevelWithMaxLamports `json:"priorityLevelWithMaxLamports"`
}

type swapRequest struct {
	QuoteResponse             json.RawMessage            `json:"quoteResponse"`
	UserPublicKey             string                     `json:"userPublicKey"`
	WrapAndUnwrapSol          bool                       `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool                       `json:"dynamicComputeUnitLimit"`
	DynamicSlippage           bool                       `json:"dynamicSlippage"`
	PrioritizationFeeLamports *prioritizationFeeLamports `json:"prioritizationFeeLamports,omitempty"`
}

type swapResponse struct {
	SwapTransaction           string `json:"swapTransaction"`
	LastValidBlockHeight      uint64 `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports uint64 `json:"prioritizationFeeLamports"`
}

// BuildSwap requests the serialized swap transaction for a quote. It does not check quote freshness.
func (c *Client) BuildSwap(ctx context.Context, req domain.SwapBuildRequest) (*domain.SwapBuildResult, error) {
	if req.Quote == nil || len(req.Quote.Raw) == 0 {
		return nil, fmt.Errorf("%w: swap build needs the raw quote", domain.ErrInputValidation)
	}

	body := swapRequest{
		QuoteResponse:           json.RawMessage(req.Quote.Raw),
		UserPublicKey:           req.UserPublicKey.String(),
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: req.DynamicComputeUnitLimit,
		DynamicSlippage:         req.DynamicSlippage,
	}
	if req.PriorityMaxLamports > 0 {
		body.PrioritizationFeeLamports = &prioritizationFeeLamports{
			PriorityLevelWithMaxLamports: priorityLevelWithMaxLamports{
				MaxLamports:   req.PriorityMaxLamports,
				PriorityLevel: req.PriorityLevel,
			},
		}
	}

	var resp swapResponse
	if _, err := c.http.PostJSON(ctx, c.baseURL+"/swap", body, c.headers(), &resp); err != nil {
		return nil, fmt.Errorf("%w: swap build: %v", domain.ErrQuoteUnavailable, err)
	}
	if resp.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: swap build returned no transaction", domain.ErrQuoteUnavailable)
	}

	payload, err := base64.StdEncoding.DecodeString(resp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: swap transaction is not base64: %v", domain.ErrQuoteUnavailable, err)
	}

	return &domain.SwapBuildResult{
		SwapTransaction:      payload,
		LastValidBlockHeight: resp.LastValidBlockHeight,
		PrioritizationFee:    resp.PrioritizationFeeLamports,
	}, nil
}

