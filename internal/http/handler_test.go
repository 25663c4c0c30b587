package http

import (
	"context"
	"fmt"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/persistence"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/liquidity"
)

type fakeLiquidity struct {
	calls []string
	err   error
	res   *liquidity.Result

	balanced  liquidity.BalancedRequest
	remove    liquidity.RemoveRequest
	swap      liquidity.SwapRequest
	claimPool solana.PublicKey
	listOwner solana.PublicKey
	listPool  solana.PublicKey
	preview   decimal.Decimal
}

func (f *fakeLiquidity) result(op string) (*liquidity.Result, error) {
	f.calls = append(f.calls, op)
	if f.res != nil || f.err != nil {
		return f.res, f.err
	}
	return &liquidity.Result{Operation: op, Status: liquidity.StatusSuccess, Executions: []domain.ExecutionResult{}}, nil
}

func (f *fakeLiquidity) CreateBalancedPosition(_ context.Context, req liquidity.BalancedRequest) (*liquidity.Result, error) {
	f.balanced = req
	return f.result(liquidity.OpBalanced)
}

func (f *fakeLiquidity) CreateImbalancedPosition(_ context.Context, req liquidity.ImbalancedRequest) (*liquidity.Result, error) {
	return f.result(liquidity.OpImbalanced)
}

func (f *fakeLiquidity) AddLiquidity(_ context.Context, req liquidity.AddLiquidityRequest) (*liquidity.Result, error) {
	return f.result(liquidity.OpAddLiquidity)
}

func (f *fakeLiquidity) RemoveLiquidity(_ context.Context, req liquidity.RemoveRequest) (*liquidity.Result, error) {
	f.remove = req
	return f.result(liquidity.OpRemove)
}

func (f *fakeLiquidity) ClosePosition(_ context.Context, pool, position solana.PublicKey, _ liquidity.ExecutionOverrides) (*liquidity.Result, error) {
	return f.result(liquidity.OpClose)
}

func (f *fakeLiquidity) ClaimFees(_ context.Context, pool solana.PublicKey, _ liquidity.ExecutionOverrides) (*liquidity.Result, error) {
	f.claimPool = pool
	return f.result(liquidity.OpClaimFees)
}

func (f *fakeLiquidity) ListPositions(_ context.Context, owner, pool solana.PublicKey) ([]domain.Position, error) {
	f.calls = append(f.calls, "list")
	f.listOwner, f.listPool = owner, pool
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Position{{PublicKey: pool, Pool: pool, LowerBinID: -3, UpperBinID: 3}}, nil
}

func (f *fakeLiquidity) History() ([]*persistence.DeploymentRecord, error) {
	f.calls = append(f.calls, "history")
	return []*persistence.DeploymentRecord{}, f.err
}

func (f *fakeLiquidity) Swap(_ context.Context, req liquidity.SwapRequest) (*liquidity.Result, error) {
	f.swap = req
	return f.result(liquidity.OpSwap)
}

func (f *fakeLiquidity) PreviewSplit(_ context.Context, pool solana.PublicKey, amount decimal.Decimal, _ uint16) (*domain.SplitPlan, error) {
	f.calls = append(f.calls, "preview")
	f.preview = amount
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SplitPlan{PairType: domain.PairNativePaired, TotalInput: 1_500_000_000}, nil
}

func (f *fakeLiquidity) PoolInfo(_ context.Context, address solana.PublicKey) (*domain.PoolSnapshot, error) {
	f.calls = append(f.calls, "pool")
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PoolSnapshot{Address: address.String(), ActiveBinID: 12}, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error"`
	Status  string `json:"status"`
}

func serve(t *testing.T, api Liquidity, method, path, body string) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := NewRouter(Handlers(api), nil)

	var req *gohttp.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := sonic.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w.Code, env
}

func TestCreateBalancedRequestMapping(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	api := &fakeLiquidity{}

	body := fmt.Sprintf(`{"poolAddress":%q,"amount":"1.5","slippageBps":75,"skipPreflight":true,"commitment":"finalized"}`, pool)
	code, env := serve(t, api, gohttp.MethodPost, "/api/v1/positions/balanced", body)
	if code != gohttp.StatusOK || !env.Success {
		t.Fatalf("code = %d env = %+v", code, env)
	}

	got := api.balanced
	if !got.Pool.Equals(pool) || !got.Amount.Equal(decimal.RequireFromString("1.5")) || got.SlippageBps != 75 {
		t.Errorf("request = %+v", got)
	}
	if got.Execution.SkipPreflight == nil || !*got.Execution.SkipPreflight || got.Execution.Commitment != "finalized" {
		t.Errorf("execution overrides = %+v", got.Execution)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	position := solana.NewWallet().PublicKey()

	tests := []struct {
		name       string
		err        error
		res        *liquidity.Result
		method     string
		path       string
		body       string
		wantCode   int
		wantStatus string
		wantCalled bool
	}{
		{
			name:     "bad pool address",
			method:   gohttp.MethodPost,
			path:     "/api/v1/positions/balanced",
			body:     `{"poolAddress":"not-a-key","amount":"1"}`,
			wantCode: gohttp.StatusBadRequest, wantStatus: string(domain.KindInputValidation),
		},
		{
			name:     "unknown commitment",
			method:   gohttp.MethodPost,
			path:     "/api/v1/swap",
			body:     fmt.Sprintf(`{"poolAddress":%q,"amount":"10","commitment":"eventually"}`, pool),
			wantCode: gohttp.StatusBadRequest, wantStatus: string(domain.KindInputValidation),
		},
		{
			name:     "bps out of range",
			method:   gohttp.MethodPost,
			path:     "/api/v1/positions/" + position.String() + "/remove",
			body:     fmt.Sprintf(`{"poolAddress":%q,"bps":20000}`, pool),
			wantCode: gohttp.StatusBadRequest, wantStatus: string(domain.KindInputValidation),
		},
		{
			name:       "position not owned",
			err:        fmt.Errorf("%w: %s", domain.ErrPositionNotFound, position),
			method:     gohttp.MethodPost,
			path:       "/api/v1/positions/" + position.String() + "/close",
			body:       fmt.Sprintf(`{"poolAddress":%q}`, pool),
			wantCode:   gohttp.StatusNotFound,
			wantStatus: string(domain.KindPositionNotFound),
			wantCalled: true,
		},
		{
			name:       "insufficient input",
			err:        fmt.Errorf("%w: need 2 SOL", domain.ErrInsufficientInput),
			method:     gohttp.MethodGet,
			path:       "/api/v1/split/preview?poolAddress=" + pool.String() + "&amount=0.001",
			wantCode:   gohttp.StatusUnprocessableEntity,
			wantStatus: string(domain.KindInsufficientInput),
			wantCalled: true,
		},
		{
			name:       "pool state unavailable",
			err:        fmt.Errorf("%w: rpc down", domain.ErrPoolStateUnavailable),
			method:     gohttp.MethodGet,
			path:       "/api/v1/pools/" + pool.String(),
			wantCode:   gohttp.StatusBadGateway,
			wantStatus: string(domain.KindPoolStateUnavailable),
			wantCalled: true,
		},
		{
			name:       "no positions to claim",
			err:        domain.ErrNoPositions,
			method:     gohttp.MethodPost,
			path:       "/api/v1/positions/fees/claim",
			body:       `{}`,
			wantCode:   gohttp.StatusNotFound,
			wantStatus: string(domain.KindNoPositions),
			wantCalled: true,
		},
		{
			name:       "unclassified",
			err:        fmt.Errorf("boom"),
			method:     gohttp.MethodGet,
			path:       "/api/v1/positions/history",
			wantCode:   gohttp.StatusInternalServerError,
			wantStatus: string(domain.KindInternal),
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeLiquidity{err: tt.err, res: tt.res}
			code, env := serve(t, api, tt.method, tt.path, tt.body)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d (%+v)", code, tt.wantCode, env)
			}
			if env.Success || env.Status != tt.wantStatus || env.Error == "" {
				t.Errorf("envelope = %+v", env)
			}
			if called := len(api.calls) > 0; called != tt.wantCalled {
				t.Errorf("engine called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestPartialResultIsReturnedWithError(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	res := &liquidity.Result{
		Operation: liquidity.OpBalanced,
		Status:    liquidity.StatusPartial,
		ErrorKind: domain.KindSimulationFailed,
		Error:     "deposit simulation failed",
		Summary:   domain.ExecutionSummary{SuccessCount: 2, FailureCount: 1},
	}
	api := &fakeLiquidity{res: res, err: res.Err()}

	body := fmt.Sprintf(`{"poolAddress":%q,"amount":"1"}`, pool)
	code, env := serve(t, api, gohttp.MethodPost, "/api/v1/positions/balanced", body)
	if code != gohttp.StatusUnprocessableEntity || env.Status != string(domain.KindSimulationFailed) {
		t.Fatalf("code = %d env = %+v", code, env)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v", env.Data)
	}
	if data["status"] != string(liquidity.StatusPartial) {
		t.Errorf("result status = %v", data["status"])
	}
}

func TestQueryRoutes(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	t.Run("positions default to signer", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, env := serve(t, api, gohttp.MethodGet, "/api/v1/positions?poolAddress="+pool.String(), "")
		if code != gohttp.StatusOK || !env.Success {
			t.Fatalf("code = %d env = %+v", code, env)
		}
		if !api.listOwner.IsZero() || !api.listPool.Equals(pool) {
			t.Errorf("owner = %s pool = %s", api.listOwner, api.listPool)
		}
		if list, ok := env.Data.([]any); !ok || len(list) != 1 {
			t.Errorf("data = %#v", env.Data)
		}
	})

	t.Run("positions for owner", func(t *testing.T) {
		api := &fakeLiquidity{}
		serve(t, api, gohttp.MethodGet, "/api/v1/positions?poolAddress="+pool.String()+"&owner="+owner.String(), "")
		if !api.listOwner.Equals(owner) {
			t.Errorf("owner = %s", api.listOwner)
		}
	})

	t.Run("positions need a pool", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, _ := serve(t, api, gohttp.MethodGet, "/api/v1/positions", "")
		if code != gohttp.StatusBadRequest || len(api.calls) != 0 {
			t.Errorf("code = %d calls = %v", code, api.calls)
		}
	})

	t.Run("split preview", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, env := serve(t, api, gohttp.MethodGet, "/api/v1/split/preview?poolAddress="+pool.String()+"&amount=1.5", "")
		if code != gohttp.StatusOK || !api.preview.Equal(decimal.RequireFromString("1.5")) {
			t.Fatalf("code = %d preview = %s env = %+v", code, api.preview, env)
		}
	})

	t.Run("split preview rejects bad amount", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, _ := serve(t, api, gohttp.MethodGet, "/api/v1/split/preview?poolAddress="+pool.String()+"&amount=lots", "")
		if code != gohttp.StatusBadRequest || len(api.calls) != 0 {
			t.Errorf("code = %d calls = %v", code, api.calls)
		}
	})

	t.Run("pool info", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, env := serve(t, api, gohttp.MethodGet, "/api/v1/pools/"+pool.String(), "")
		data, _ := env.Data.(map[string]any)
		if code != gohttp.StatusOK || data["address"] != pool.String() {
			t.Errorf("code = %d data = %#v", code, env.Data)
		}
	})
}

func TestMutationRoutes(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	position := solana.NewWallet().PublicKey()

	t.Run("remove defaults", func(t *testing.T) {
		api := &fakeLiquidity{}
		body := fmt.Sprintf(`{"poolAddress":%q,"claimAndClose":true}`, pool)
		code, _ := serve(t, api, gohttp.MethodPost, "/api/v1/positions/"+position.String()+"/remove", body)
		if code != gohttp.StatusOK {
			t.Fatalf("code = %d", code)
		}
		if !api.remove.Position.Equals(position) || api.remove.Bps != 0 || !api.remove.ClaimAndClose {
			t.Errorf("request = %+v", api.remove)
		}
	})

	t.Run("claim across pools", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, _ := serve(t, api, gohttp.MethodPost, "/api/v1/positions/fees/claim", `{}`)
		if code != gohttp.StatusOK || !api.claimPool.IsZero() {
			t.Errorf("code = %d pool = %s", code, api.claimPool)
		}
	})

	t.Run("swap amount is atomic", func(t *testing.T) {
		api := &fakeLiquidity{}
		body := fmt.Sprintf(`{"poolAddress":%q,"amount":"250000","swapYtoX":true}`, pool)
		code, _ := serve(t, api, gohttp.MethodPost, "/api/v1/swap", body)
		if code != gohttp.StatusOK || api.swap.Amount != 250000 || !api.swap.SwapYtoX {
			t.Errorf("code = %d request = %+v", code, api.swap)
		}
	})

	t.Run("swap rejects fractional amount", func(t *testing.T) {
		api := &fakeLiquidity{}
		body := fmt.Sprintf(`{"poolAddress":%q,"amount":"0.5"}`, pool)
		code, _ := serve(t, api, gohttp.MethodPost, "/api/v1/swap", body)
		if code != gohttp.StatusBadRequest || len(api.calls) != 0 {
			t.Errorf("code = %d calls = %v", code, api.calls)
		}
	})

	t.Run("imbalanced uses configured pool", func(t *testing.T) {
		api := &fakeLiquidity{}
		code, _ := serve(t, api, gohttp.MethodPost, "/api/v1/positions/imbalanced", `{"amountX":"100","amountY":"200"}`)
		if code != gohttp.StatusOK || len(api.calls) != 1 {
			t.Errorf("code = %d calls = %v", code, api.calls)
		}
	})
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Handlers(&fakeLiquidity{}), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(gohttp.MethodGet, "/health", nil))
	if w.Code != gohttp.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("code = %d body = %s", w.Code, w.Body.String())
	}
}
