package dlmm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

// maxMultipleAccounts is the getMultipleAccounts page size accepted by RPC nodes.
const maxMultipleAccounts = 100

// GetPool reads the pair, its mints and the active bin. Every failure is wrapped in ErrPoolStateUnavailable.
func (c *Client) GetPool(ctx context.Context, address solana.PublicKey) (*domain.PoolRef, error) {
	pool, err := c.getPool(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPoolStateUnavailable, address, err)
	}
	return pool, nil
}

func (c *Client) getPool(ctx context.Context, address solana.PublicKey) (*domain.PoolRef, error) {
	bitmapExt, err := c.DeriveBitmapExtension(address)
	if err != nil {
		return nil, err
	}

	accounts, err := c.chain.GetMultipleAccounts(ctx, []solana.PublicKey{address, bitmapExt})
	if err != nil {
		return nil, err
	}
	if len(accounts) < 1 || accounts[0] == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !accounts[0].Owner.Equals(c.programID) {
		return nil, fmt.Errorf("account owned by %s, not the DLMM program", accounts[0].Owner)
	}

	pair, err := ParseLbPair(accounts[0].Data)
	if err != nil {
		return nil, err
	}

	pool := &domain.PoolRef{
		Address:     address,
		MintX:       pair.TokenXMint,
		MintY:       pair.TokenYMint,
		ReserveX:    pair.ReserveX,
		ReserveY:    pair.ReserveY,
		Oracle:      pair.Oracle,
		ActiveBinID: pair.ActiveID,
		BinStep:     pair.BinStep,
	}
	if len(accounts) > 1 && accounts[1] != nil {
		pool.BitmapExtension = bitmapExt
	}

	activeArrayIdx := BinIDToBinArrayIndex(pair.ActiveID)
	activeArray, err := c.DeriveBinArray(address, activeArrayIdx)
	if err != nil {
		return nil, err
	}

	related, err := c.chain.GetMultipleAccounts(ctx, []solana.PublicKey{pair.TokenXMint, pair.TokenYMint, activeArray})
	if err != nil {
		return nil, err
	}
	if len(related) < 3 || related[0] == nil || related[1] == nil {
		return nil, fmt.Errorf("pair mints not found")
	}

	pool.TokenProgramX = related[0].Owner
	pool.TokenProgramY = related[1].Owner
	if pool.DecimalsX, err = mintDecimals(related[0].Data); err != nil {
		return nil, fmt.Errorf("mint x: %w", err)
	}
	if pool.DecimalsY, err = mintDecimals(related[1].Data); err != nil {
		return nil, fmt.Errorf("mint y: %w", err)
	}

	pool.ActiveBin = domain.Bin{BinID: pair.ActiveID}
	if related[2] != nil {
		arr, err := ParseBinArray(related[2].Data)
		if err != nil {
			return nil, err
		}
		if b, ok := arr.BinAt(pair.ActiveID); ok {
			pool.ActiveBin.AmountX = b.AmountX
			pool.ActiveBin.AmountY = b.AmountY
			pool.ActiveBin.LiquiditySupply = b.LiquiditySupply.Int().ToBig()
		}
	}

	pool.PriceAtActiveBin = PriceOfBin(pair.ActiveID, pair.BinStep)

	c.logger.Debug().
		Str("pool", address.String()).
		Int32("active_bin", pool.ActiveBinID).
		Uint16("bin_step", pool.BinStep).
		Str("price", pool.PriceAtActiveBin.String()).
		Msg("[DLMM] Pool state fetched")

	return pool, nil
}

func mintDecimals(data []byte) (uint8, error) {
	var mint token.Mint
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return 0, err
	}
	return mint.Decimals, nil
}

// MissingBinArrays returns the indexes in [lower, upper] whose bin array account does not exist yet.
func (c *Client) MissingBinArrays(ctx context.Context, lbPair solana.PublicKey, lower, upper int64) ([]int64, error) {
	keys := make([]solana.PublicKey, 0, upper-lower+1)
	for idx := lower; idx <= upper; idx++ {
		key, err := c.DeriveBinArray(lbPair, idx)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	accounts, err := c.chain.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: bin arrays: %v", domain.ErrPoolStateUnavailable, err)
	}

	var missing []int64
	for i := range keys {
		if i >= len(accounts) || accounts[i] == nil {
			missing = append(missing, lower+int64(i))
		}
	}
	return missing, nil
}

// GetPositionsByUserAndLbPair lists owner's positions in lbPair with per-bin amounts and unclaimed fees.
func (c *Client) GetPositionsByUserAndLbPair(ctx context.Context, lbPair, owner solana.PublicKey) ([]domain.Position, error) {
	return c.queryPositions(ctx, &lbPair, owner)
}

// GetPositionsByUser lists owner's positions across every pair.
func (c *Client) GetPositionsByUser(ctx context.Context, owner solana.PublicKey) ([]domain.Position, error) {
	return c.queryPositions(ctx, nil, owner)
}

// GetPosition reads a single position. A missing account yields ErrPositionNotFound.
func (c *Client) GetPosition(ctx context.Context, address solana.PublicKey) (*domain.Position, error) {
	acc, err := c.chain.GetAccount(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPositionNotFound, address)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	if !acc.Owner.Equals(c.programID) {
		return nil, fmt.Errorf("%w: %s is not a DLMM position", domain.ErrPositionNotFound, address)
	}

	positions, err := c.hydratePositions(ctx, []*domain.Account{acc})
	if err != nil {
		return nil, err
	}
	return &positions[0], nil
}

func (c *Client) queryPositions(ctx context.Context, lbPair *solana.PublicKey, owner solana.PublicKey) ([]domain.Position, error) {
	filters := []domain.MemcmpFilter{
		{Offset: 0, Bytes: accountPositionV2[:]},
		{Offset: 8 + 32, Bytes: owner.Bytes()},
	}
	if lbPair != nil {
		filters = append(filters, domain.MemcmpFilter{Offset: 8, Bytes: lbPair.Bytes()})
	}

	accounts, err := c.chain.GetProgramAccounts(ctx, c.programID, PositionV2Size, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	if len(accounts) == 0 {
		return []domain.Position{}, nil
	}

	positions, err := c.hydratePositions(ctx, accounts)
	if err != nil {
		return nil, err
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].PublicKey.String() < positions[j].PublicKey.String()
	})
	return positions, nil
}

type decodedPosition struct {
	address solana.PublicKey
	state   *PositionV2
}

// hydratePositions decodes position accounts and resolves their bins against the covering bin arrays.
func (c *Client) hydratePositions(ctx context.Context, accounts []*domain.Account) ([]domain.Position, error) {
	decoded := make([]decodedPosition, 0, len(accounts))
	arrayKeys := make(map[solana.PublicKey]struct{})
	var keys []solana.PublicKey

	for _, acc := range accounts {
		if acc == nil {
			continue
		}
		state, err := ParsePositionV2(acc.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidPositionData, acc.Address, err)
		}
		decoded = append(decoded, decodedPosition{address: acc.Address, state: state})

		lower := BinIDToBinArrayIndex(state.LowerBinID)
		upper := BinIDToBinArrayIndex(state.UpperBinID)
		for idx := lower; idx <= upper; idx++ {
			key, err := c.DeriveBinArray(state.LbPair, idx)
			if err != nil {
				return nil, err
			}
			if _, seen := arrayKeys[key]; !seen {
				arrayKeys[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}

	arrays, err := c.fetchBinArrays(ctx, keys)
	if err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(decoded))
	for _, d := range decoded {
		pos, err := c.resolvePosition(d, arrays)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *pos)
	}
	return positions, nil
}

func (c *Client) fetchBinArrays(ctx context.Context, keys []solana.PublicKey) (map[solana.PublicKey]*BinArray, error) {
	arrays := make(map[solana.PublicKey]*BinArray, len(keys))
	for start := 0; start < len(keys); start += maxMultipleAccounts {
		end := start + maxMultipleAccounts
		if end > len(keys) {
			end = len(keys)
		}
		page := keys[start:end]

		accounts, err := c.chain.GetMultipleAccounts(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("%w: bin arrays: %v", domain.ErrLookupFailed, err)
		}
		for i, acc := range accounts {
			if acc == nil || i >= len(page) {
				continue
			}
			arr, err := ParseBinArray(acc.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: bin array %s: %v", domain.ErrInvalidPositionData, page[i], err)
			}
			arrays[page[i]] = arr
		}
	}
	return arrays, nil
}

func (c *Client) resolvePosition(d decodedPosition, arrays map[solana.PublicKey]*BinArray) (*domain.Position, error) {
	st := d.state
	pos := &domain.Position{
		PublicKey:     d.address,
		Pool:          st.LbPair,
		Owner:         st.Owner,
		LowerBinID:    st.LowerBinID,
		UpperBinID:    st.UpperBinID,
		LastUpdatedAt: st.LastUpdatedAt,
		Status:        domain.PositionOpen,
		Bins:          make([]domain.PositionBin, 0, st.UpperBinID-st.LowerBinID+1),
	}

	for binID := st.LowerBinID; binID <= st.UpperBinID; binID++ {
		i := binID - st.LowerBinID
		share := st.LiquidityShares[i].Int()
		pb := domain.PositionBin{BinID: binID, Liquidity: share.Dec()}

		key, err := c.DeriveBinArray(st.LbPair, BinIDToBinArrayIndex(binID))
		if err != nil {
			return nil, err
		}
		// a missing array holds no liquidity
		if arr, ok := arrays[key]; ok {
			if b, ok := arr.BinAt(binID); ok {
				pb.AmountX, pb.AmountY = ShareOfBin(b, share)
				pb.FeeX, pb.FeeY = ClaimableFees(b, &st.FeeInfos[i], share)
			}
		}

		pos.TotalX += pb.AmountX
		pos.TotalY += pb.AmountY
		pos.FeeX += pb.FeeX
		pos.FeeY += pb.FeeY
		pos.Bins = append(pos.Bins, pb)
	}
	return pos, nil
}
