// Package lifecycle lists an owner's DLMM positions and builds removal, fee claim and close intents.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/dlmm"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/metrics"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/builder"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/services/priority"
)

const (
	withdrawComputeUnits = 400_000
	claimComputeUnits    = 200_000
)

type DLMM interface {
	GetPool(ctx context.Context, address solana.PublicKey) (*domain.PoolRef, error)
	GetPositionsByUserAndLbPair(ctx context.Context, lbPair, owner solana.PublicKey) ([]domain.Position, error)
	GetPositionsByUser(ctx context.Context, owner solana.PublicKey) ([]domain.Position, error)
	WithdrawInstructions(p dlmm.WithdrawParams) ([]solana.Instruction, error)
	ClaimFeeInstructions(pool *domain.PoolRef, position *domain.Position, owner solana.PublicKey) ([]solana.Instruction, error)
	CloseInstructions(pool *domain.PoolRef, position *domain.Position, owner solana.PublicKey) ([]solana.Instruction, error)
}

type Manager struct {
	dlmm   DLMM
	chain  domain.BlockhashSource
	fees   *priority.Service
	logger zerolog.Logger
}

// New builds a lifecycle manager. fees may be nil.
func New(d DLMM, chain domain.BlockhashSource, fees *priority.Service, logger zerolog.Logger) *Manager {
	return &Manager{dlmm: d, chain: chain, fees: fees, logger: logger}
}

// ListPositions enumerates owner's positions in pool. No positions is an empty slice, not an error.
func (m *Manager) ListPositions(ctx context.Context, owner, pool solana.PublicKey) ([]domain.Position, error) {
	if owner.IsZero() || pool.IsZero() {
		return nil, fmt.Errorf("%w: owner and pool are required", domain.ErrInputValidation)
	}
	positions, err := m.dlmm.GetPositionsByUserAndLbPair(ctx, pool, owner)
	if err != nil {
		return nil, lookupError(err)
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	return positions, nil
}

// FindPosition returns the position only if owner's enumeration of pool contains it.
func (m *Manager) FindPosition(ctx context.Context, owner, pool, positionKey solana.PublicKey) (*domain.Position, error) {
	positions, err := m.ListPositions(ctx, owner, pool)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		if positions[i].PublicKey.Equals(positionKey) {
			return &positions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not owned by %s in pool %s", domain.ErrPositionNotFound, positionKey, owner, pool)
}

// RemoveLiquidity withdraws bps of every bin the position covers. claimAndClose is only valid for a
// full removal and leaves the position CLOSED.
func (m *Manager) RemoveLiquidity(ctx context.Context, owner, pool, positionKey solana.PublicKey, bps uint16, claimAndClose bool) (*domain.RemovalPlan, error) {
	if bps == 0 || bps > common.BasisPointMax {
		return nil, fmt.Errorf("%w: bps %d must be in [1, %d]", domain.ErrInputValidation, bps, common.BasisPointMax)
	}
	if claimAndClose && bps != common.BasisPointMax {
		return nil, fmt.Errorf("%w: claim and close requires a full removal", domain.ErrInputValidation)
	}

	position, err := m.FindPosition(ctx, owner, pool, positionKey)
	if err != nil {
		return nil, err
	}

	binIDs, err := sortedBinIDs(position)
	if err != nil {
		return nil, err
	}

	poolRef, err := m.dlmm.GetPool(ctx, position.Pool)
	if err != nil {
		return nil, err
	}

	from, to := binIDs[0], binIDs[len(binIDs)-1]
	ixs, err := m.dlmm.WithdrawInstructions(dlmm.WithdrawParams{
		Pool:          poolRef,
		Position:      position,
		Owner:         owner,
		FromBinID:     from,
		ToBinID:       to,
		Bps:           bps,
		ClaimAndClose: claimAndClose,
	})
	if err != nil {
		return nil, fmt.Errorf("build withdraw instructions: %w", err)
	}

	kind := domain.IntentRemoveLiquidity
	status := domain.PositionOpen
	if claimAndClose {
		kind = domain.IntentClosePosition
		status = domain.PositionClosed
	}

	desc := fmt.Sprintf("remove %d bps from bins [%d, %d] of %s", bps, from, to, position.PublicKey)
	intent, err := m.buildIntent(ctx, kind, desc, poolRef, owner, withdrawComputeUnits, ixs)
	if err != nil {
		return nil, err
	}

	metrics.Deployments.WithLabelValues("remove_liquidity", "planned").Inc()
	m.logger.Info().
		Str("position", position.PublicKey.String()).
		Int32("from_bin", from).
		Int32("to_bin", to).
		Uint16("bps", bps).
		Bool("claim_and_close", claimAndClose).
		Msg("[Lifecycle] removal planned")

	return &domain.RemovalPlan{
		Position:      position.PublicKey,
		Pool:          position.Pool,
		BinIDs:        binIDs,
		FromBinID:     from,
		ToBinID:       to,
		Bps:           bps,
		ClaimAndClose: claimAndClose,
		ResultStatus:  status,
		Intent:        intent,
	}, nil
}

// ClosePosition removes whatever liquidity remains, claims fees and closes the account.
func (m *Manager) ClosePosition(ctx context.Context, owner, pool, positionKey solana.PublicKey) (*domain.RemovalPlan, error) {
	position, err := m.FindPosition(ctx, owner, pool, positionKey)
	if err != nil {
		return nil, err
	}
	if position.HasLiquidity() {
		return m.RemoveLiquidity(ctx, owner, pool, positionKey, common.BasisPointMax, true)
	}

	poolRef, err := m.dlmm.GetPool(ctx, position.Pool)
	if err != nil {
		return nil, err
	}
	ixs, err := m.dlmm.CloseInstructions(poolRef, position, owner)
	if err != nil {
		return nil, fmt.Errorf("build close instructions: %w", err)
	}

	intent, err := m.buildIntent(ctx, domain.IntentClosePosition, "close empty position "+position.PublicKey.String(),
		poolRef, owner, claimComputeUnits, ixs)
	if err != nil {
		return nil, err
	}

	metrics.Deployments.WithLabelValues("close", "planned").Inc()
	return &domain.RemovalPlan{
		Position:      position.PublicKey,
		Pool:          position.Pool,
		FromBinID:     position.LowerBinID,
		ToBinID:       position.UpperBinID,
		Bps:           common.BasisPointMax,
		ClaimAndClose: true,
		ResultStatus:  domain.PositionClosed,
		Intent:        intent,
	}, nil
}

// ClaimFees builds one claim intent per owned position holding unclaimed fees. A zero pool claims
// across every pool. Owning no open position at all is ErrNoPositions.
func (m *Manager) ClaimFees(ctx context.Context, owner, pool solana.PublicKey) ([]*domain.TransactionIntent, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInputValidation)
	}

	var (
		positions []domain.Position
		err       error
	)
	if pool.IsZero() {
		positions, err = m.dlmm.GetPositionsByUser(ctx, owner)
	} else {
		positions, err = m.dlmm.GetPositionsByUserAndLbPair(ctx, pool, owner)
	}
	if err != nil {
		return nil, lookupError(err)
	}

	open := 0
	pools := make(map[solana.PublicKey]*domain.PoolRef)
	var intents []*domain.TransactionIntent
	for i := range positions {
		p := &positions[i]
		if p.Status == domain.PositionClosed {
			continue
		}
		open++
		if p.FeeX == 0 && p.FeeY == 0 {
			continue
		}

		poolRef, ok := pools[p.Pool]
		if !ok {
			poolRef, err = m.dlmm.GetPool(ctx, p.Pool)
			if err != nil {
				return nil, err
			}
			pools[p.Pool] = poolRef
		}

		ixs, err := m.dlmm.ClaimFeeInstructions(poolRef, p, owner)
		if err != nil {
			return nil, fmt.Errorf("build claim instructions: %w", err)
		}
		desc := fmt.Sprintf("claim %d X / %d Y fees from %s", p.FeeX, p.FeeY, p.PublicKey)
		intent, err := m.buildIntent(ctx, domain.IntentClaimFee, desc, poolRef, owner, claimComputeUnits, ixs)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}

	if open == 0 {
		return nil, fmt.Errorf("%w: %s has no open positions", domain.ErrNoPositions, owner)
	}

	m.logger.Info().
		Int("positions", open).
		Int("claims", len(intents)).
		Msg("[Lifecycle] fee claims planned")
	return intents, nil
}

func (m *Manager) buildIntent(
	ctx context.Context,
	kind domain.IntentKind,
	desc string,
	pool *domain.PoolRef,
	owner solana.PublicKey,
	units uint32,
	ixs []solana.Instruction,
) (*domain.TransactionIntent, error) {
	budget := m.fees.BudgetInstructions(ctx, units, []solana.PublicKey{pool.Address, pool.ReserveX, pool.ReserveY})
	blockhash, err := m.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest blockhash: %w", err)
	}
	return builder.BuildIntent(kind, desc, append(budget, ixs...), blockhash, owner)
}

// sortedBinIDs takes the bin range from the position's own bin data.
func sortedBinIDs(p *domain.Position) ([]int32, error) {
	if len(p.Bins) == 0 {
		return nil, fmt.Errorf("%w: position %s has no bins", domain.ErrInvalidPositionData, p.PublicKey)
	}
	ids := make([]int32, 0, len(p.Bins))
	for _, b := range p.Bins {
		if b.BinID < p.LowerBinID || b.BinID > p.UpperBinID {
			return nil, fmt.Errorf("%w: bin %d outside [%d, %d] of %s",
				domain.ErrInvalidPositionData, b.BinID, p.LowerBinID, p.UpperBinID, p.PublicKey)
		}
		ids = append(ids, b.BinID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func lookupError(err error) error {
	if errors.Is(err, domain.ErrLookupFailed) || errors.Is(err, domain.ErrInvalidPositionData) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
}
