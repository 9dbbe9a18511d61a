package types

import (
	"math/big"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Fixed-point scalars
var (
	// BRateScalar is 1.0 for b_rate values (12 decimals)
	BRateScalar = math.NewInt(1_000_000_000_000)
	// TakeRateScalar is 100% for take rates (7 decimals)
	TakeRateScalar = math.NewInt(1_000_0000)
	// DustThreshold is the smallest underlying value (in base units) a position may keep
	// after a withdrawal. 1 base unit is 1e-7 of a 7 decimal token.
	DustThreshold = math.OneInt()
	// MaxAmount is the largest amount a message may carry (signed 128-bit max)
	MaxAmount = math.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)))
)

// ValidateAmount checks that amount is positive and fits in 128 bits
func ValidateAmount(amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "%s must be positive", amount)
	}
	if amount.GT(MaxAmount) {
		return errors.Wrapf(ErrInvalidAmount, "%s exceeds %s", amount, MaxAmount)
	}
	return nil
}

// MulDivFloor returns floor(x * y / z) for non-negative operands
func MulDivFloor(x, y, z math.Int) math.Int {
	return x.Mul(y).Quo(z)
}

// MulDivCeil returns ceil(x * y / z) for non-negative operands
func MulDivCeil(x, y, z math.Int) math.Int {
	product := x.Mul(y)
	quo := product.Quo(z)
	if !product.Mod(z).IsZero() {
		quo = quo.AddRaw(1)
	}
	return quo
}

// UnderlyingToBTokensDown converts an underlying amount to b-tokens at bRate, rounding down
func UnderlyingToBTokensDown(amount, bRate math.Int) math.Int {
	return MulDivFloor(amount, BRateScalar, bRate)
}

// UnderlyingToBTokensUp converts an underlying amount to b-tokens at bRate, rounding up
func UnderlyingToBTokensUp(amount, bRate math.Int) math.Int {
	return MulDivCeil(amount, BRateScalar, bRate)
}

// BTokensToUnderlyingDown converts b-tokens to underlying at bRate, rounding down
func BTokensToUnderlyingDown(bTokens, bRate math.Int) math.Int {
	return MulDivFloor(bTokens, bRate, BRateScalar)
}
