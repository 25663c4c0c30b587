package quote

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

type fakeQuoter struct {
	mu    sync.Mutex
	calls []domain.QuoteRequest
	quote func(domain.QuoteRequest) (*domain.Quote, error)
}

func (f *fakeQuoter) Quote(_ context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.quote(req)
}

type fakeAccounts struct {
	accounts map[solana.PublicKey]*domain.Account
	gets     int
}

func (f *fakeAccounts) GetAccount(_ context.Context, addr solana.PublicKey) (*domain.Account, error) {
	f.gets++
	acc, ok := f.accounts[addr]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccounts) GetMultipleAccounts(context.Context, []solana.PublicKey) ([]*domain.Account, error) {
	return nil, errors.New("not used")
}

func (f *fakeAccounts) GetProgramAccounts(context.Context, solana.PublicKey, uint64, []domain.MemcmpFilter) ([]*domain.Account, error) {
	return nil, errors.New("not used")
}

func mintAccount(decimals uint8) *domain.Account {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:], 1_000_000)
	data[44] = decimals
	data[45] = 1
	return &domain.Account{Owner: solana.TokenProgramID, Data: data}
}

func echoQuote(out uint64) func(domain.QuoteRequest) (*domain.Quote, error) {
	return func(req domain.QuoteRequest) (*domain.Quote, error) {
		return &domain.Quote{InputMint: req.InputMint, OutputMint: req.OutputMint, InAmount: req.Amount, OutAmount: out}, nil
	}
}

func TestQuoteValidation(t *testing.T) {
	other := solana.NewWallet().PublicKey()
	svc := NewService(&fakeQuoter{quote: echoQuote(1)}, nil, zerolog.Nop())

	tests := []struct {
		name string
		req  domain.QuoteRequest
	}{
		{"zero amount", domain.QuoteRequest{InputMint: common.NativeMint, OutputMint: other}},
		{"same mint", domain.QuoteRequest{InputMint: other, OutputMint: other, Amount: 1}},
		{"missing mint", domain.QuoteRequest{InputMint: common.NativeMint, Amount: 1}},
		{"slippage above max", domain.QuoteRequest{InputMint: common.NativeMint, OutputMint: other, Amount: 1, SlippageBps: 10_001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Quote(context.Background(), tt.req); !errors.Is(err, domain.ErrInputValidation) {
				t.Errorf("err = %v, want ErrInputValidation", err)
			}
		})
	}
}

func TestQuoteUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		quote func(domain.QuoteRequest) (*domain.Quote, error)
	}{
		{"transport error", func(domain.QuoteRequest) (*domain.Quote, error) { return nil, errors.New("dial tcp: refused") }},
		{"missing output", echoQuote(0)},
		{"nil quote", func(domain.QuoteRequest) (*domain.Quote, error) { return nil, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeQuoter{quote: tt.quote}, nil, zerolog.Nop())
			_, err := svc.GetQuote(context.Background(), common.NativeMint, common.USDCMint, 10, 50)
			if !errors.Is(err, domain.ErrQuoteUnavailable) {
				t.Errorf("err = %v, want ErrQuoteUnavailable", err)
			}
		})
	}
}

func TestNativePriceUSD(t *testing.T) {
	q := &fakeQuoter{quote: echoQuote(150_250_000)}
	svc := NewService(q, nil, zerolog.Nop())

	price, err := svc.NativePriceUSD(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !price.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("price = %s", price)
	}
	if len(q.calls) != 1 || q.calls[0].Amount != common.LamportsPerSOL || !q.calls[0].OutputMint.Equals(common.USDCMint) {
		t.Errorf("calls = %+v", q.calls)
	}
}

func TestNativePriceUSDUsesResolvedDecimals(t *testing.T) {
	q := &fakeQuoter{quote: echoQuote(150_250_000)}
	chain := &fakeAccounts{accounts: map[solana.PublicKey]*domain.Account{common.USDCMint: mintAccount(6)}}
	svc := NewService(q, chain, zerolog.Nop())

	price, err := svc.NativePriceUSD(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !price.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("price = %s", price)
	}
	if chain.gets != 1 {
		t.Errorf("mint reads = %d, want 1", chain.gets)
	}

	if _, err := svc.NativePriceUSD(context.Background()); err != nil {
		t.Fatal(err)
	}
	if chain.gets != 1 {
		t.Error("USDC decimals should be served from the cache")
	}
}

func TestResolveDecimals(t *testing.T) {
	custom := solana.NewWallet().PublicKey()
	bonk := solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
	unknown := solana.NewWallet().PublicKey()

	chain := &fakeAccounts{accounts: map[solana.PublicKey]*domain.Account{custom: mintAccount(8)}}
	svc := NewService(&fakeQuoter{}, chain, zerolog.Nop())

	tests := []struct {
		name string
		mint solana.PublicKey
		want uint8
	}{
		{"on-chain", custom, 8},
		{"known table", bonk, 5},
		{"default", unknown, common.DefaultDecimals},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ResolveDecimals(context.Background(), tt.mint); got != tt.want {
				t.Errorf("decimals = %d, want %d", got, tt.want)
			}
		})
	}

	before := chain.gets
	if got := svc.ResolveDecimals(context.Background(), custom); got != 8 {
		t.Errorf("cached decimals = %d", got)
	}
	if chain.gets != before {
		t.Error("cached mint was fetched again")
	}
}

func TestResolveDecimalsWithoutChain(t *testing.T) {
	svc := NewService(&fakeQuoter{}, nil, zerolog.Nop())
	if got := svc.ResolveDecimals(context.Background(), common.NativeMint); got != 9 {
		t.Errorf("native decimals = %d", got)
	}
}

func TestToAtomic(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		want     uint64
	}{
		{"0.47125", 9, 471_250_000},
		{"1.2345678919", 9, 1_234_567_891},
		{"70.689999", 2, 7068},
		{"0", 6, 0},
	}
	for _, tt := range tests {
		got, err := ToAtomic(decimal.RequireFromString(tt.amount), tt.decimals)
		if err != nil {
			t.Fatalf("ToAtomic(%s): %v", tt.amount, err)
		}
		if got != tt.want {
			t.Errorf("ToAtomic(%s, %d) = %d, want %d", tt.amount, tt.decimals, got, tt.want)
		}
	}

	if _, err := ToAtomic(decimal.NewFromInt(-1), 9); !errors.Is(err, domain.ErrInputValidation) {
		t.Errorf("negative err = %v", err)
	}
	if _, err := ToAtomic(decimal.RequireFromString("1e30"), 9); !errors.Is(err, domain.ErrInputValidation) {
		t.Errorf("overflow err = %v", err)
	}
	if got := FromAtomic(471_250_000, 9); !got.Equal(decimal.RequireFromString("0.47125")) {
		t.Errorf("FromAtomic = %s", got)
	}
}

func TestConsume(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	svc := NewService(&fakeQuoter{}, nil, zerolog.Nop())
	svc.now = func() time.Time { return now }

	fresh := &domain.Quote{ValidUntil: now.Add(time.Second)}
	if err := svc.Consume(fresh); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := svc.Consume(fresh); !errors.Is(err, domain.ErrQuoteUnavailable) {
		t.Errorf("second consume err = %v", err)
	}

	stale := &domain.Quote{ValidUntil: now.Add(-time.Second)}
	if err := svc.Consume(stale); !errors.Is(err, domain.ErrQuoteUnavailable) {
		t.Errorf("stale consume err = %v", err)
	}
}
