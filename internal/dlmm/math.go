package dlmm

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	BasisPointMax = 10_000

	// ScaleOffset is the fractional bit count of on-chain Q64.64 values.
	ScaleOffset = 64

	weightPrecision int32 = 40
)

var scaleSquared = new(uint256.Int).Lsh(uint256.NewInt(1), 2*ScaleOffset)

// BinIDToBinArrayIndex floors binID into its 70-bin array index.
func BinIDToBinArrayIndex(binID int32) int64 {
	q := binID / MaxBinPerArray
	r := binID % MaxBinPerArray
	if binID < 0 && r != 0 {
		q--
	}
	return int64(q)
}

// BinArrayRange returns the lower and upper bin array indexes an instruction over [minBinID, maxBinID] must pass.
// The upper array is always distinct from the lower one.
func BinArrayRange(minBinID, maxBinID int32) (int64, int64) {
	lower := BinIDToBinArrayIndex(minBinID)
	upper := BinIDToBinArrayIndex(maxBinID)
	if upper < lower+1 {
		upper = lower + 1
	}
	return lower, upper
}

// BinWindow is the inclusive range of 2*halfWidth+1 bins centered on activeID.
func BinWindow(activeID, halfWidth int32) (int32, int32) {
	return activeID - halfWidth, activeID + halfWidth
}

// PriceOfBin returns (1 + binStep/10000)^binID: the price of one atomic X unit in atomic Y units.
func PriceOfBin(binID int32, binStep uint16) decimal.Decimal {
	const prec = 256

	base := new(big.Float).SetPrec(prec).SetInt64(int64(binStep))
	base.Quo(base, new(big.Float).SetPrec(prec).SetInt64(BasisPointMax))
	base.Add(base, new(big.Float).SetPrec(prec).SetInt64(1))

	res := new(big.Float).SetPrec(prec).SetInt64(1)
	exp := int64(binID)
	neg := exp < 0
	if neg {
		exp = -exp
	}
	for exp > 0 {
		if exp&1 == 1 {
			res.Mul(res, base)
		}
		base.Mul(base, base)
		exp >>= 1
	}
	if neg {
		res.Quo(new(big.Float).SetPrec(prec).SetInt64(1), res)
	}

	price, err := decimal.NewFromString(res.Text('e', 50))
	if err != nil {
		return decimal.Zero
	}
	return price
}

// PricePerToken converts a per-lamport price into a per-whole-token price.
func PricePerToken(pricePerLamport decimal.Decimal, decimalsX, decimalsY uint8) decimal.Decimal {
	return pricePerLamport.Shift(int32(decimalsX) - int32(decimalsY))
}

// MaxActiveBinSlippageFor converts a slippage tolerance into the number of bins the active bin may move.
func MaxActiveBinSlippageFor(slippageBps, binStep uint16) int32 {
	if slippageBps == 0 || binStep == 0 {
		return MaxActiveBinSlippage
	}
	return int32((uint32(slippageBps) + uint32(binStep) - 1) / uint32(binStep))
}

// SpotFillInput describes a uniform-weight distribution over [MinBinID, MaxBinID].
type SpotFillInput struct {
	ActiveID      int32
	BinStep       uint16
	AmountX       uint64
	ActiveAmountX uint64
	ActiveAmountY uint64
	MinBinID      int32
	MaxBinID      int32
}

// AutoFillYSpot returns the Y amount that balances AmountX under a spot (equal weight) distribution.
// The active bin is split according to its current reserve composition.
func AutoFillYSpot(in SpotFillInput) uint64 {
	if in.AmountX == 0 || in.MaxBinID < in.MinBinID {
		return 0
	}

	one := decimal.NewFromInt(1)
	totalWeightX := decimal.Zero
	totalWeightY := decimal.Zero

	activeInRange := in.ActiveID >= in.MinBinID && in.ActiveID <= in.MaxBinID
	if activeInRange {
		p0 := PriceOfBin(in.ActiveID, in.BinStep)
		var wx0, wy0 decimal.Decimal

		switch {
		case in.ActiveAmountX == 0 && in.ActiveAmountY == 0:
			wx0 = one.DivRound(p0.Mul(decimal.NewFromInt(2)), weightPrecision)
			wy0 = decimal.NewFromFloat(0.5)
		default:
			ax := decimal.NewFromBigInt(new(big.Int).SetUint64(in.ActiveAmountX), 0)
			ay := decimal.NewFromBigInt(new(big.Int).SetUint64(in.ActiveAmountY), 0)
			if !ax.IsZero() {
				wx0 = one.DivRound(p0.Add(ay.DivRound(ax, weightPrecision)), weightPrecision)
			}
			if !ay.IsZero() {
				wy0 = one.DivRound(one.Add(p0.Mul(ax).DivRound(ay, weightPrecision)), weightPrecision)
			}
		}
		totalWeightX = totalWeightX.Add(wx0)
		totalWeightY = totalWeightY.Add(wy0)
	}

	for binID := in.MinBinID; binID <= in.MaxBinID; binID++ {
		switch {
		case binID < in.ActiveID:
			totalWeightY = totalWeightY.Add(one)
		case binID > in.ActiveID || !activeInRange:
			totalWeightX = totalWeightX.Add(one.DivRound(PriceOfBin(binID, in.BinStep), weightPrecision))
		}
	}

	kx := one
	if !totalWeightX.IsZero() {
		kx = decimal.NewFromBigInt(new(big.Int).SetUint64(in.AmountX), 0).DivRound(totalWeightX, weightPrecision)
	}

	amountY := kx.Mul(totalWeightY).Floor()
	if amountY.IsNegative() {
		return 0
	}
	if !amountY.BigInt().IsUint64() {
		return ^uint64(0)
	}
	return amountY.BigInt().Uint64()
}

// ShareOfBin returns the X and Y amounts a liquidity share redeems from a bin.
func ShareOfBin(b *Bin, share *uint256.Int) (uint64, uint64) {
	supply := b.LiquiditySupply.Int()
	if share.IsZero() || supply.IsZero() {
		return 0, 0
	}
	x, _ := new(uint256.Int).MulDivOverflow(uint256.NewInt(b.AmountX), share, supply)
	y, _ := new(uint256.Int).MulDivOverflow(uint256.NewInt(b.AmountY), share, supply)
	return x.Uint64(), y.Uint64()
}

// ClaimableFees returns the unclaimed X and Y fees of a share in a bin, including pending amounts.
func ClaimableFees(b *Bin, fee *FeeInfo, share *uint256.Int) (uint64, uint64) {
	return accruedFee(b.FeeAmountXPerTokenStored.Int(), fee.FeeXPerTokenComplete.Int(), share, fee.FeeXPending),
		accruedFee(b.FeeAmountYPerTokenStored.Int(), fee.FeeYPerTokenComplete.Int(), share, fee.FeeYPending)
}

func accruedFee(stored, complete, share *uint256.Int, pending uint64) uint64 {
	total := uint256.NewInt(pending)
	if stored.Gt(complete) && !share.IsZero() {
		delta := new(uint256.Int).Sub(stored, complete)
		accrued, _ := new(uint256.Int).MulDivOverflow(delta, share, scaleSquared)
		total.Add(total, accrued)
	}
	if !total.IsUint64() {
		return ^uint64(0)
	}
	return total.Uint64()
}
