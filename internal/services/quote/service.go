// Package quote wraps the swap aggregator and owns unit conversion between atomic and decimal amounts.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/metrics"
)

const decimalsCacheMaxSize = 4096

// knownDecimals backs decimals resolution when the mint account cannot be read.
var knownDecimals = map[solana.PublicKey]uint8{
	common.NativeMint: common.NativeDecimals,
	common.USDCMint:   common.USDCDecimals,
	common.USDTMint:   6,
	solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"): 5, // BONK
	solana.MustPublicKeyFromBase58("EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"): 6, // WIF
	solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"):  6, // JUP
	solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"): 6, // RAY
	solana.MustPublicKeyFromBase58("6p6xgHyF7AeE6TZkSmFsko444wqoP15icUSqi2jfGiPN"): 6, // TRUMP
}

type Quoter interface {
	Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error)
}

type Service struct {
	quoter   Quoter
	chain    domain.AccountReader
	decimals *boundedLRU[solana.PublicKey, uint8]
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService builds the quote service. chain may be nil, in which case decimals come from the known table.
func NewService(quoter Quoter, chain domain.AccountReader, logger zerolog.Logger) *Service {
	return &Service{
		quoter:   quoter,
		chain:    chain,
		decimals: newBoundedLRU[solana.PublicKey, uint8](decimalsCacheMaxSize),
		logger:   logger,
		now:      time.Now,
	}
}

// GetQuote quotes amount atomic units of input into output.
func (s *Service) GetQuote(ctx context.Context, input, output solana.PublicKey, amount uint64, slippageBps uint16) (*domain.Quote, error) {
	return s.Quote(ctx, domain.QuoteRequest{
		InputMint:   input,
		OutputMint:  output,
		Amount:      amount,
		SlippageBps: slippageBps,
	})
}

// Quote validates req and fetches a quote. An incomplete aggregator payload is ErrQuoteUnavailable.
func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	q, err := s.quoter.Quote(ctx, req)
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).
			Str("input", req.InputMint.String()).
			Str("output", req.OutputMint.String()).
			Uint64("amount", req.Amount).
			Msg("[QuoteService] quote failed")
		if !errors.Is(err, domain.ErrQuoteUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
		}
		return nil, err
	}
	if q == nil || q.OutAmount == 0 {
		metrics.QuoteRequests.WithLabelValues("incomplete").Inc()
		return nil, fmt.Errorf("%w: missing output amount for %s -> %s", domain.ErrQuoteUnavailable, req.InputMint, req.OutputMint)
	}

	metrics.QuoteRequests.WithLabelValues("ok").Inc()
	s.logger.Debug().
		Str("input", req.InputMint.String()).
		Str("output", req.OutputMint.String()).
		Uint64("in", q.InAmount).
		Uint64("out", q.OutAmount).
		Msg("[QuoteService] quote received")
	return q, nil
}

func validateRequest(req domain.QuoteRequest) error {
	switch {
	case req.InputMint.IsZero() || req.OutputMint.IsZero():
		return fmt.Errorf("%w: quote mints are required", domain.ErrInputValidation)
	case req.InputMint.Equals(req.OutputMint):
		return fmt.Errorf("%w: input and output mint are the same", domain.ErrInputValidation)
	case req.Amount == 0:
		return fmt.Errorf("%w: quote amount must be positive", domain.ErrInputValidation)
	case req.SlippageBps > common.BasisPointMax:
		return fmt.Errorf("%w: slippage %d bps above 100%%", domain.ErrInputValidation, req.SlippageBps)
	}
	return nil
}

// Consume marks q as used by a transaction build. Stale or reused quotes are rejected.
func (s *Service) Consume(q *domain.Quote) error {
	if err := q.Consume(s.now()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrQuoteUnavailable, err)
	}
	return nil
}

// NativePriceUSD prices one native unit in USDC through the aggregator.
func (s *Service) NativePriceUSD(ctx context.Context) (decimal.Decimal, error) {
	q, err := s.GetQuote(ctx, common.NativeMint, common.USDCMint, common.LamportsPerSOL, common.DefaultSlippage)
	if err != nil {
		return decimal.Zero, fmt.Errorf("native reference price: %w", err)
	}
	return FromAtomic(q.OutAmount, s.ResolveDecimals(ctx, common.USDCMint)), nil
}

// ResolveDecimals returns the mint precision: cached or on-chain value, then the known table,
// then DefaultDecimals. It never fails.
func (s *Service) ResolveDecimals(ctx context.Context, mint solana.PublicKey) uint8 {
	if d, ok := s.decimals.Get(mint); ok {
		return d
	}

	if s.chain != nil {
		d, err := s.fetchDecimals(ctx, mint)
		if err == nil {
			s.decimals.Set(mint, d)
			metrics.DecimalsCacheSize.Set(float64(s.decimals.Len()))
			return d
		}
		s.logger.Warn().Err(err).Str("mint", mint.String()).Msg("[QuoteService] on-chain decimals unavailable")
	}

	if d, ok := knownDecimals[mint]; ok {
		metrics.DecimalsFallbacks.WithLabelValues("known").Inc()
		s.logger.Info().Str("mint", mint.String()).Uint8("decimals", d).Msg("[QuoteService] using known decimals")
		return d
	}

	metrics.DecimalsFallbacks.WithLabelValues("default").Inc()
	s.logger.Warn().Str("mint", mint.String()).Int("decimals", common.DefaultDecimals).Msg("[QuoteService] using default decimals")
	return common.DefaultDecimals
}

func (s *Service) fetchDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	acc, err := s.chain.GetAccount(ctx, mint)
	if err != nil {
		return 0, err
	}
	var m token.Mint
	if err := bin.NewBinDecoder(acc.Data).Decode(&m); err != nil {
		return 0, fmt.Errorf("decode mint: %w", err)
	}
	if !m.IsInitialized {
		return 0, errors.New("mint not initialized")
	}
	return m.Decimals, nil
}

// ToAtomic converts a decimal amount to atomic units, truncating the remainder.
func ToAtomic(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", domain.ErrInputValidation, amount)
	}
	atomic := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	if !atomic.IsUint64() {
		return 0, fmt.Errorf("%w: amount %s overflows atomic units", domain.ErrInputValidation, amount)
	}
	return atomic.Uint64(), nil
}

func FromAtomic(atomic uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(atomic), -int32(decimals))
}
