package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

const CHAIN_SERVICE = "chain-svc"

const confirmPollInterval = 500 * time.Millisecond

// ChainService is the RPC-backed chain client shared by every component.
type ChainService struct {
	container.BaseDIInstance

	rpcClient  *rpc.Client
	blockhash  *BlockhashCacheService
	commitment rpc.CommitmentType
}

// NewChainService builds a chain client outside the container, with its own blockhash cache.
func NewChainService(cfg *config.RPCConfig) *ChainService {
	client := newRPCClient(cfg)
	return &ChainService{
		rpcClient:  client,
		blockhash:  &BlockhashCacheService{fetch: rpcBlockhashFetcher(client)},
		commitment: rpc.CommitmentType(cfg.Commitment),
	}
}

func (svc *ChainService) ID() string {
	return CHAIN_SERVICE
}

func (svc *ChainService) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.rpcClient = newRPCClient(rpcConfig)
	svc.commitment = rpc.CommitmentType(rpcConfig.Commitment)
	svc.blockhash = c.Instance(BLOCKHASH_CACHE_SERVICE).(*BlockhashCacheService)
	return nil
}

func (svc *ChainService) Start() error {
	log.Info().Str("commitment", string(svc.commitment)).Msg("[ChainService] ready")
	return nil
}

func (svc *ChainService) Stop() error {
	return nil
}

func newRPCClient(cfg *config.RPCConfig) *rpc.Client {
	if cfg.RPCApiKey != "" {
		return rpc.NewWithHeaders(cfg.RPCUrl, map[string]string{"x-api-key": cfg.RPCApiKey})
	}
	return rpc.New(cfg.RPCUrl)
}

func toAccount(address solana.PublicKey, acc *rpc.Account) *domain.Account {
	if acc == nil {
		return nil
	}
	out := &domain.Account{
		Address:  address,
		Owner:    acc.Owner,
		Lamports: acc.Lamports,
	}
	if acc.Data != nil {
		out.Data = acc.Data.GetBinary()
	}
	return out
}

func (svc *ChainService) GetAccount(ctx context.Context, address solana.PublicKey) (*domain.Account, error) {
	res, err := svc.rpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: svc.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, domain.ErrAccountNotFound
	}
	return toAccount(address, res.Value), nil
}

func (svc *ChainService) GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*domain.Account, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	res, err := svc.rpcClient.GetMultipleAccountsWithOpts(ctx, addresses, &rpc.GetMultipleAccountsOpts{
		Commitment: svc.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Account, len(addresses))
	for i, acc := range res.Value {
		if i < len(out) {
			out[i] = toAccount(addresses[i], acc)
		}
	}
	return out, nil
}

func (svc *ChainService) GetProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64, filters []domain.MemcmpFilter) ([]*domain.Account, error) {
	rpcFilters := make([]rpc.RPCFilter, 0, len(filters)+1)
	if dataSize > 0 {
		rpcFilters = append(rpcFilters, rpc.RPCFilter{DataSize: dataSize})
	}
	for _, f := range filters {
		rpcFilters = append(rpcFilters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{Offset: f.Offset, Bytes: solana.Base58(f.Bytes)},
		})
	}

	res, err := svc.rpcClient.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
		Commitment: svc.commitment,
		Encoding:   solana.EncodingBase64,
		Filters:    rpcFilters,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Account, 0, len(res))
	for _, keyed := range res {
		if keyed == nil {
			continue
		}
		out = append(out, toAccount(keyed.Pubkey, keyed.Account))
	}
	return out, nil
}

func (svc *ChainService) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	res, err := svc.rpcClient.GetBalance(ctx, owner, svc.commitment)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

func (svc *ChainService) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return svc.blockhash.LatestBlockhash(ctx)
}

func (svc *ChainService) RecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error) {
	res, err := svc.rpcClient.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return nil, err
	}
	fees := make([]uint64, 0, len(res))
	for _, fee := range res {
		fees = append(fees, fee.PrioritizationFee)
	}
	return fees, nil
}

// SimulateTransaction reports program failures in the result; only transport failures return an error.
func (svc *ChainService) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}

	result, err := svc.rpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:  true,
		Commitment: svc.commitment,
	})
	if err != nil {
		return nil, err
	}

	sim := &domain.SimulationResult{
		Success: result.Value.Err == nil,
		Logs:    result.Value.Logs,
	}
	if result.Value.UnitsConsumed != nil {
		sim.ComputeUnitsConsumed = *result.Value.UnitsConsumed
	}
	if result.Value.Err != nil {
		sim.Error = fmt.Sprintf("%v", result.Value.Err)
		classifySimulationError(sim)
	}
	return sim, nil
}

// classifySimulationError flags common failure causes from the error and program logs.
func classifySimulationError(sim *domain.SimulationResult) {
	text := strings.ToLower(sim.Error + "\n" + strings.Join(sim.Logs, "\n"))
	sim.InsufficientFunds = strings.Contains(text, "insufficient") || strings.Contains(text, "not enough")
	sim.SlippageExceeded = strings.Contains(text, "slippage") || strings.Contains(text, "exceededbinslippagetolerance")
}

func (svc *ChainService) SendTransaction(ctx context.Context, tx *solana.Transaction, skipPreflight bool, commitment string) (solana.Signature, error) {
	maxRetries := uint(3)
	return svc.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: rpc.CommitmentType(commitment),
		MaxRetries:          &maxRetries,
	})
}

// ConfirmTransaction polls signature status. An on-chain failure is returned in Confirmation.Err with a nil error.
func (svc *ChainService) ConfirmTransaction(ctx context.Context, sig solana.Signature, commitment string) (*domain.Confirmation, error) {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		res, err := svc.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return &domain.Confirmation{
					Slot:               status.Slot,
					ConfirmationStatus: string(status.ConfirmationStatus),
					Err:                fmt.Sprintf("%v", status.Err),
				}, nil
			}
			if reached(status.ConfirmationStatus, commitment) {
				return &domain.Confirmation{
					Slot:               status.Slot,
					ConfirmationStatus: string(status.ConfirmationStatus),
				}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfirmationTimeout, sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

var commitmentRank = map[string]int{
	string(rpc.ConfirmationStatusProcessed): 1,
	string(rpc.ConfirmationStatusConfirmed): 2,
	string(rpc.ConfirmationStatusFinalized): 3,
}

func reached(status rpc.ConfirmationStatusType, target string) bool {
	want, ok := commitmentRank[target]
	if !ok {
		want = commitmentRank[string(rpc.ConfirmationStatusConfirmed)]
	}
	return commitmentRank[string(status)] >= want
}
