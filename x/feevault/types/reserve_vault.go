package types

import (
	"fmt"
	"math/big"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Accrue books the admin fee for interest earned since LastBRate.
// A rate at or below LastBRate is a no-op; LastBRate only moves up.
func (v *ReserveVault) Accrue(bRate, takeRate math.Int) AccrualResult {
	result := AccrualResult{
		PreviousBRate:   v.LastBRate,
		BRate:           bRate,
		InterestBTokens: math.ZeroInt(),
		FeeBTokens:      math.ZeroInt(),
		FeeShares:       math.ZeroInt(),
	}
	if bRate.LTE(v.LastBRate) {
		result.Regressed = bRate.LT(v.LastBRate)
		return result
	}

	if v.TotalBTokens.IsPositive() && takeRate.IsPositive() {
		// interest in b-token terms: TB * (rate - last) / rate
		result.InterestBTokens = MulDivFloor(v.TotalBTokens, bRate.Sub(v.LastBRate), bRate)
		result.FeeBTokens = MulDivFloor(result.InterestBTokens, takeRate, TakeRateScalar)
	}
	if result.FeeBTokens.IsPositive() {
		// fee shares are worth FeeBTokens after they join the supply
		result.FeeShares = MulDivFloor(result.FeeBTokens, v.TotalShares, v.TotalBTokens.Sub(result.FeeBTokens))
		v.TotalShares = v.TotalShares.Add(result.FeeShares)
		v.AccruedAdminFeeShares = v.AccruedAdminFeeShares.Add(result.FeeShares)
	}

	v.LastBRate = bRate
	return result
}

// DepositShares mints shares for bTokens newly added to the vault
func (v *ReserveVault) DepositShares(bTokens math.Int) (math.Int, error) {
	if !bTokens.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(ErrInsufficientAmount, "b-tokens %s", bTokens)
	}

	shares := bTokens
	if v.TotalShares.IsPositive() {
		shares = MulDivFloor(bTokens, v.TotalShares, v.TotalBTokens)
	}
	if !shares.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(ErrInsufficientAmount, "%s b-tokens mint no shares", bTokens)
	}

	v.TotalBTokens = v.TotalBTokens.Add(bTokens)
	v.TotalShares = v.TotalShares.Add(shares)
	return shares, nil
}

// WithdrawShares burns shares out of a position holding userShares. If the
// position left behind is worth less than DustThreshold at bRate it is
// cleared as well.
func (v *ReserveVault) WithdrawShares(userShares, shares, bRate math.Int) (WithdrawResult, error) {
	if !shares.IsPositive() || shares.GT(v.TotalShares) {
		return WithdrawResult{}, errors.Wrapf(ErrInvalidAmount, "shares %s, total %s", shares, v.TotalShares)
	}
	if userShares.LT(shares) {
		return WithdrawResult{}, errors.Wrapf(ErrInsufficientShares, "have %s, need %s", userShares, shares)
	}

	bTokens := v.SharesToBTokens(shares)
	v.TotalBTokens = v.TotalBTokens.Sub(bTokens)
	v.TotalShares = v.TotalShares.Sub(shares)

	result := WithdrawResult{
		BTokens:         bTokens,
		SharesBurned:    shares,
		DustShares:      math.ZeroInt(),
		RemainingShares: userShares.Sub(shares),
	}

	if result.RemainingShares.IsPositive() && v.isDust(result.RemainingShares, bRate) {
		if result.RemainingShares.GTE(v.TotalShares) {
			// sole holder: burning would leave b-tokens without shares
			v.AccruedAdminFeeShares = v.AccruedAdminFeeShares.Add(result.RemainingShares)
			result.DustToAdmin = true
		} else {
			v.TotalShares = v.TotalShares.Sub(result.RemainingShares)
		}
		result.DustShares = result.RemainingShares
		result.RemainingShares = math.ZeroInt()
	}

	return result, nil
}

// ClaimFees burns all accrued admin fee shares and returns the b-tokens they
// were worth along with the shares burned.
func (v *ReserveVault) ClaimFees() (bTokens, shares math.Int, err error) {
	shares = v.AccruedAdminFeeShares
	if !shares.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), errors.Wrap(ErrInvalidAmount, "no accrued fees to claim")
	}

	bTokens = v.SharesToBTokens(shares)
	v.TotalBTokens = v.TotalBTokens.Sub(bTokens)
	v.TotalShares = v.TotalShares.Sub(shares)
	v.AccruedAdminFeeShares = math.ZeroInt()
	return bTokens, shares, nil
}

// SharesToBTokens converts shares to b-tokens, rounding down
func (v *ReserveVault) SharesToBTokens(shares math.Int) math.Int {
	if !v.TotalShares.IsPositive() {
		return math.ZeroInt()
	}
	return MulDivFloor(shares, v.TotalBTokens, v.TotalShares)
}

// BTokensToSharesUp converts b-tokens to shares, rounding up
func (v *ReserveVault) BTokensToSharesUp(bTokens math.Int) math.Int {
	if !v.TotalShares.IsPositive() || !v.TotalBTokens.IsPositive() {
		return bTokens
	}
	return MulDivCeil(bTokens, v.TotalShares, v.TotalBTokens)
}

// UnderlyingValue returns what shares are worth in the underlying asset at bRate
func (v *ReserveVault) UnderlyingValue(shares, bRate math.Int) math.Int {
	return BTokensToUnderlyingDown(v.SharesToBTokens(shares), bRate)
}

// SharesForUnderlying returns the shares that must be burned to withdraw amount
func (v *ReserveVault) SharesForUnderlying(amount, bRate math.Int) math.Int {
	return v.BTokensToSharesUp(UnderlyingToBTokensUp(amount, bRate))
}

// isDust reports whether shares are worth less than DustThreshold at bRate.
// Compared without division: shares*TB*rate < threshold*TS*scalar. The
// three-way products of i128 amounts exceed math.Int's 256 bits, so they are
// taken on big.Int.
func (v *ReserveVault) isDust(shares, bRate math.Int) bool {
	if !v.TotalShares.IsPositive() {
		return false
	}
	value := new(big.Int).Mul(shares.BigInt(), v.TotalBTokens.BigInt())
	value.Mul(value, bRate.BigInt())
	threshold := new(big.Int).Mul(DustThreshold.BigInt(), v.TotalShares.BigInt())
	threshold.Mul(threshold, BRateScalar.BigInt())
	return value.Cmp(threshold) < 0
}

// Refund puts back b-tokens a withdrawal released but the pool did not burn.
// With no shares left to hold them they are minted to the admin one to one.
// Returns the admin shares minted.
func (v *ReserveVault) Refund(bTokens math.Int) math.Int {
	if !bTokens.IsPositive() {
		return math.ZeroInt()
	}
	v.TotalBTokens = v.TotalBTokens.Add(bTokens)
	if v.TotalShares.IsPositive() {
		return math.ZeroInt()
	}
	v.TotalShares = bTokens
	v.AccruedAdminFeeShares = v.AccruedAdminFeeShares.Add(bTokens)
	return bTokens
}

// Validate checks the reserve vault's internal consistency
func (v *ReserveVault) Validate() error {
	if v.ReserveID == "" {
		return errors.Wrap(ErrReserveNotFound, "empty reserve id")
	}
	for name, val := range map[string]math.Int{
		"total_b_tokens":           v.TotalBTokens,
		"total_shares":             v.TotalShares,
		"accrued_admin_fee_shares": v.AccruedAdminFeeShares,
	} {
		if val.IsNil() || val.IsNegative() {
			return errors.Wrapf(ErrInvalidAmount, "reserve %s: %s must be non-negative", v.ReserveID, name)
		}
	}
	if v.LastBRate.IsNil() || !v.LastBRate.IsPositive() {
		return errors.Wrapf(ErrInvalidBRate, "reserve %s: last b-rate %s", v.ReserveID, v.LastBRate)
	}
	if v.TotalShares.IsZero() != v.TotalBTokens.IsZero() {
		return fmt.Errorf("reserve %s: total shares %s and total b-tokens %s must be zero together",
			v.ReserveID, v.TotalShares, v.TotalBTokens)
	}
	if v.AccruedAdminFeeShares.GT(v.TotalShares) {
		return fmt.Errorf("reserve %s: accrued fee shares %s exceed total shares %s",
			v.ReserveID, v.AccruedAdminFeeShares, v.TotalShares)
	}
	return nil
}
