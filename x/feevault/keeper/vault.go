package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/openalpha/fee-vault/metrics"
	"github.com/openalpha/fee-vault/x/feevault/types"
)

// feeClaimNamespace seeds the name-based ids of fee claim records
var feeClaimNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("feevault/fee-claims"))

// Deposit supplies amount of the reserve's underlying from user into the pool
// and mints vault shares for the b-tokens received. Returns the shares minted.
func (k *Keeper) Deposit(ctx context.Context, user, reserveID string, amount math.Int) (math.Int, error) {
	timer := metrics.NewTimer()
	shares, err := k.deposit(sdk.UnwrapSDKContext(ctx), user, reserveID, amount)
	k.metrics.RecordOperation(types.TypeMsgDeposit, err, timer.ElapsedMs())
	return shares, err
}

func (k *Keeper) deposit(ctx sdk.Context, user, reserveID string, amount math.Int) (math.Int, error) {
	if err := types.ValidateAmount(amount); err != nil {
		return math.ZeroInt(), errors.Wrap(err, "deposit amount")
	}
	userAddr, err := sdk.AccAddressFromBech32(user)
	if err != nil {
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidAddress, "depositor %q: %s", user, err)
	}
	config, vault, err := k.loadReserve(ctx, reserveID)
	if err != nil {
		return math.ZeroInt(), err
	}

	cacheCtx, write := ctx.CacheContext()

	bRate, err := k.fetchBRate(cacheCtx, config, reserveID)
	if err != nil {
		return math.ZeroInt(), err
	}
	k.accrue(cacheCtx, vault, bRate, config.TakeRate)

	bTokens, err := k.poolKeeper.Supply(cacheCtx, config.Pool, reserveID, k.moduleAddr, userAddr, amount)
	if err != nil {
		return math.ZeroInt(), k.poolFailure("supply", err)
	}

	shares, err := vault.DepositShares(bTokens)
	if err != nil {
		return math.ZeroInt(), err
	}

	k.SetReserveVault(cacheCtx, vault)
	k.SetShares(cacheCtx, reserveID, user, k.GetShares(cacheCtx, reserveID, user).Add(shares))

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDeposit,
			sdk.NewAttribute(types.AttributeKeyReserveID, reserveID),
			sdk.NewAttribute(types.AttributeKeyUser, user),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyBTokens, bTokens.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)
	write()

	k.metrics.RecordDeposit(reserveID, amount, shares)
	k.recordReserve(vault)
	k.logger.Info("vault deposit",
		"reserve", reserveID,
		"user", user,
		"amount", amount.String(),
		"b_tokens", bTokens.String(),
		"shares", shares.String(),
	)

	return shares, nil
}

// Withdraw burns the user's shares worth amount of underlying and has the pool
// send amount to the user. A position left worth less than the dust threshold
// is cleared too. Returns every share removed from the user.
func (k *Keeper) Withdraw(ctx context.Context, user, reserveID string, amount math.Int) (math.Int, error) {
	timer := metrics.NewTimer()
	removed, err := k.withdraw(sdk.UnwrapSDKContext(ctx), user, reserveID, amount)
	k.metrics.RecordOperation(types.TypeMsgWithdraw, err, timer.ElapsedMs())
	return removed, err
}

func (k *Keeper) withdraw(ctx sdk.Context, user, reserveID string, amount math.Int) (math.Int, error) {
	if err := types.ValidateAmount(amount); err != nil {
		return math.ZeroInt(), errors.Wrap(err, "withdraw amount")
	}
	userAddr, err := sdk.AccAddressFromBech32(user)
	if err != nil {
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidAddress, "withdrawer %q: %s", user, err)
	}
	config, vault, err := k.loadReserve(ctx, reserveID)
	if err != nil {
		return math.ZeroInt(), err
	}

	cacheCtx, write := ctx.CacheContext()

	bRate, err := k.fetchBRate(cacheCtx, config, reserveID)
	if err != nil {
		return math.ZeroInt(), err
	}
	k.accrue(cacheCtx, vault, bRate, config.TakeRate)

	userShares := k.GetShares(cacheCtx, reserveID, user)
	if !userShares.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(types.ErrInsufficientShares, "%s holds no shares of %s", user, reserveID)
	}

	shares := vault.SharesForUnderlying(amount, bRate)
	if shares.GT(userShares) {
		// rounding can ask for a share more than a closing withdrawal owns
		if value := vault.UnderlyingValue(userShares, bRate); value.LT(amount) {
			return math.ZeroInt(), errors.Wrapf(types.ErrInsufficientShares,
				"position worth %s, requested %s", value, amount)
		}
		shares = userShares
	}

	result, err := vault.WithdrawShares(userShares, shares, bRate)
	if err != nil {
		return math.ZeroInt(), err
	}

	burned, err := k.poolKeeper.Withdraw(cacheCtx, config.Pool, reserveID, k.moduleAddr, userAddr, amount)
	if err != nil {
		return math.ZeroInt(), k.poolFailure("withdraw", err)
	}
	if burned.GT(result.BTokens) {
		return math.ZeroInt(), errors.Wrapf(types.ErrPoolCallFailed,
			"pool burned %s b-tokens, vault released %s", burned, result.BTokens)
	}
	// the pool rounds its burn up from amount, which can leave part of the
	// released b-tokens in the vault's position
	vault.Refund(result.BTokens.Sub(burned))
	result.BTokens = burned

	k.SetReserveVault(cacheCtx, vault)
	k.SetShares(cacheCtx, reserveID, user, result.RemainingShares)

	if result.DustShares.IsPositive() {
		cacheCtx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeDustCleared,
				sdk.NewAttribute(types.AttributeKeyReserveID, reserveID),
				sdk.NewAttribute(types.AttributeKeyUser, user),
				sdk.NewAttribute(types.AttributeKeyShares, result.DustShares.String()),
				sdk.NewAttribute(types.AttributeKeyDustToAdmin, fmt.Sprintf("%t", result.DustToAdmin)),
			),
		)
	}
	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdraw,
			sdk.NewAttribute(types.AttributeKeyReserveID, reserveID),
			sdk.NewAttribute(types.AttributeKeyUser, user),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyBTokens, result.BTokens.String()),
			sdk.NewAttribute(types.AttributeKeyShares, result.SharesRemoved().String()),
		),
	)
	write()

	removed := result.SharesRemoved()
	k.metrics.RecordWithdraw(reserveID, amount, removed)
	if result.DustShares.IsPositive() {
		k.metrics.RecordDust(reserveID, result.DustShares, result.DustToAdmin)
	}
	k.recordReserve(vault)
	k.logger.Info("vault withdraw",
		"reserve", reserveID,
		"user", user,
		"amount", amount.String(),
		"shares", removed.String(),
		"dust", result.DustShares.String(),
	)

	return removed, nil
}

// ClaimFees burns the admin's accrued fee shares for a reserve and has the
// pool pay their underlying value to recipient, the admin when empty.
func (k *Keeper) ClaimFees(ctx context.Context, caller, reserveID, recipient string) (*types.FeeClaimRecord, error) {
	timer := metrics.NewTimer()
	claim, err := k.claimFees(sdk.UnwrapSDKContext(ctx), caller, reserveID, recipient)
	k.metrics.RecordOperation(types.TypeMsgClaimFees, err, timer.ElapsedMs())
	return claim, err
}

func (k *Keeper) claimFees(ctx sdk.Context, caller, reserveID, recipient string) (*types.FeeClaimRecord, error) {
	config, vault, err := k.loadReserve(ctx, reserveID)
	if err != nil {
		return nil, err
	}
	if !config.IsAdmin(caller) {
		return nil, errors.Wrapf(types.ErrUnauthorized, "%s is not the vault admin", caller)
	}
	if recipient == "" {
		recipient = config.Admin
	}
	recipientAddr, err := sdk.AccAddressFromBech32(recipient)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidAddress, "recipient %q: %s", recipient, err)
	}

	cacheCtx, write := ctx.CacheContext()

	bRate, err := k.fetchBRate(cacheCtx, config, reserveID)
	if err != nil {
		return nil, err
	}
	k.accrue(cacheCtx, vault, bRate, config.TakeRate)

	bTokens, shares, err := vault.ClaimFees()
	if err != nil {
		return nil, err
	}
	amount := types.BTokensToUnderlyingDown(bTokens, bRate)
	if !amount.IsPositive() {
		return nil, errors.Wrapf(types.ErrInsufficientAmount, "%s fee shares are worth no underlying", shares)
	}

	burned, err := k.poolKeeper.Withdraw(cacheCtx, config.Pool, reserveID, k.moduleAddr, recipientAddr, amount)
	if err != nil {
		return nil, k.poolFailure("withdraw", err)
	}
	if burned.GT(bTokens) {
		return nil, errors.Wrapf(types.ErrPoolCallFailed,
			"pool burned %s b-tokens, vault released %s", burned, bTokens)
	}
	vault.Refund(bTokens.Sub(burned))
	bTokens = burned

	claims := k.GetFeeClaims(cacheCtx, reserveID)
	claim := &types.FeeClaimRecord{
		ClaimID:     feeClaimID(reserveID, cacheCtx.BlockHeight(), len(claims)),
		ReserveID:   reserveID,
		Recipient:   recipient,
		Shares:      shares,
		BTokens:     bTokens,
		Amount:      amount,
		BRate:       bRate,
		BlockHeight: cacheCtx.BlockHeight(),
		Timestamp:   cacheCtx.BlockTime().Unix(),
	}

	k.SetReserveVault(cacheCtx, vault)
	k.SetFeeClaim(cacheCtx, claim)

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeClaimFees,
			sdk.NewAttribute(types.AttributeKeyClaimID, claim.ClaimID),
			sdk.NewAttribute(types.AttributeKeyReserveID, reserveID),
			sdk.NewAttribute(types.AttributeKeyRecipient, recipient),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
			sdk.NewAttribute(types.AttributeKeyBTokens, bTokens.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
		),
	)
	write()

	k.metrics.RecordFeeClaim(reserveID, amount)
	k.recordReserve(vault)
	k.logger.Info("fees claimed",
		"claim_id", claim.ClaimID,
		"reserve", reserveID,
		"recipient", recipient,
		"shares", shares.String(),
		"amount", amount.String(),
	)

	return claim, nil
}

// feeClaimID derives a claim id from its position in the reserve's history so
// every node assigns the same id.
func feeClaimID(reserveID string, height int64, seq int) string {
	name := fmt.Sprintf("%s/%d/%d", reserveID, height, seq)
	return uuid.NewSHA1(feeClaimNamespace, []byte(name)).String()
}

// ============ Helpers ============

// loadReserve returns the config and the reserve vault, failing when either is missing
func (k *Keeper) loadReserve(ctx sdk.Context, reserveID string) (*types.VaultConfig, *types.ReserveVault, error) {
	config := k.GetConfig(ctx)
	if config == nil {
		return nil, nil, types.ErrNotInitialized
	}
	vault := k.GetReserveVault(ctx, reserveID)
	if vault == nil {
		return nil, nil, errors.Wrap(types.ErrReserveNotFound, reserveID)
	}
	return config, vault, nil
}

// fetchBRate reads the pool's current b_rate for a reserve
func (k *Keeper) fetchBRate(ctx sdk.Context, config *types.VaultConfig, reserveID string) (math.Int, error) {
	bRate, err := k.poolKeeper.BRate(ctx, config.Pool, reserveID)
	if err != nil {
		return math.ZeroInt(), k.poolFailure("b_rate", err)
	}
	if bRate.IsNil() || !bRate.IsPositive() {
		k.metrics.RecordPoolFailure("b_rate")
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidBRate, "pool %s reported %s for %s", config.Pool, bRate, reserveID)
	}
	return bRate, nil
}

// accrue books admin fees on vault at bRate and reports the outcome
func (k *Keeper) accrue(ctx sdk.Context, vault *types.ReserveVault, bRate, takeRate math.Int) types.AccrualResult {
	result := vault.Accrue(bRate, takeRate)
	k.metrics.RecordAccrual(vault.ReserveID, result.FeeShares, result.Regressed)

	if result.Regressed {
		k.logger.Warn("b_rate regressed",
			"reserve", vault.ReserveID,
			"b_rate", bRate.String(),
			"last_b_rate", result.PreviousBRate.String(),
		)
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeRateRegression,
				sdk.NewAttribute(types.AttributeKeyReserveID, vault.ReserveID),
				sdk.NewAttribute(types.AttributeKeyBRate, bRate.String()),
				sdk.NewAttribute(types.AttributeKeyLastBRate, result.PreviousBRate.String()),
			),
		)
	}

	if result.FeeShares.IsPositive() {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeFeesAccrued,
				sdk.NewAttribute(types.AttributeKeyReserveID, vault.ReserveID),
				sdk.NewAttribute(types.AttributeKeyBRate, bRate.String()),
				sdk.NewAttribute(types.AttributeKeyLastBRate, result.PreviousBRate.String()),
				sdk.NewAttribute(types.AttributeKeyFeeBTokens, result.FeeBTokens.String()),
				sdk.NewAttribute(types.AttributeKeyFeeShares, result.FeeShares.String()),
			),
		)
	}
	return result
}

func (k *Keeper) poolFailure(call string, err error) error {
	k.metrics.RecordPoolFailure(call)
	return errors.Wrapf(types.ErrPoolCallFailed, "%s: %s", call, err)
}

func (k *Keeper) recordReserve(vault *types.ReserveVault) {
	k.metrics.RecordReserve(vault.ReserveID, vault.LastBRate, types.BRateScalar, vault.TotalShares, vault.TotalBTokens)
}
