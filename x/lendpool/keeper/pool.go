package keeper

import (
	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

// CreateReserve opens a reserve at the given b_rate
func (k *Keeper) CreateReserve(ctx sdk.Context, authority, poolID, asset string, bRate math.Int) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	if k.GetReserve(ctx, poolID, asset) != nil {
		return errors.Wrapf(types.ErrReserveExists, "%s/%s", poolID, asset)
	}
	reserve := types.NewReserve(poolID, asset, bRate)
	reserve.UpdatedAt = ctx.BlockHeight()
	if err := reserve.Validate(); err != nil {
		return err
	}
	k.SetReserve(ctx, reserve)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreateReserve,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyAsset, asset),
			sdk.NewAttribute(types.AttributeKeyBRate, bRate.String()),
		),
	)
	k.logger.Info("reserve created", "pool", poolID, "asset", asset, "b_rate", bRate.String())
	return nil
}

// SetBRate moves a reserve's exchange rate. Decreases are allowed and model
// a loss event in the pool.
func (k *Keeper) SetBRate(ctx sdk.Context, authority, poolID, asset string, bRate math.Int) (math.Int, error) {
	if err := k.requireAuthority(authority); err != nil {
		return math.ZeroInt(), err
	}
	if bRate.IsNil() || !bRate.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidBRate, "got %s", bRate)
	}
	reserve := k.GetReserve(ctx, poolID, asset)
	if reserve == nil {
		return math.ZeroInt(), errors.Wrapf(types.ErrReserveNotFound, "%s/%s", poolID, asset)
	}
	previous := reserve.BRate
	if bRate.LT(previous) {
		k.logger.Warn("b_rate decreased", "pool", poolID, "asset", asset,
			"previous", previous.String(), "b_rate", bRate.String())
	}
	reserve.BRate = bRate
	reserve.UpdatedAt = ctx.BlockHeight()
	k.SetReserve(ctx, reserve)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetBRate,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyAsset, asset),
			sdk.NewAttribute(types.AttributeKeyPrevBRate, previous.String()),
			sdk.NewAttribute(types.AttributeKeyBRate, bRate.String()),
		),
	)
	return previous, nil
}

// BRate returns the current exchange rate of a reserve
func (k *Keeper) BRate(ctx sdk.Context, poolID, asset string) (math.Int, error) {
	reserve := k.GetReserve(ctx, poolID, asset)
	if reserve == nil {
		return math.ZeroInt(), errors.Wrapf(types.ErrReserveNotFound, "%s/%s", poolID, asset)
	}
	return reserve.BRate, nil
}

// Supply moves amount of asset from the from account into the pool and
// credits owner with floor(amount*1e12/b_rate) b-tokens.
func (k *Keeper) Supply(ctx sdk.Context, poolID, asset string, owner, from sdk.AccAddress, amount math.Int) (math.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidAmount, "supply amount %s", amount)
	}
	reserve := k.GetReserve(ctx, poolID, asset)
	if reserve == nil {
		return math.ZeroInt(), errors.Wrapf(types.ErrReserveNotFound, "%s/%s", poolID, asset)
	}
	bTokens := reserve.ToBTokensDown(amount)
	if !bTokens.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidAmount, "%s %s is worth no b-tokens", amount, asset)
	}

	coins := sdk.NewCoins(sdk.NewCoin(asset, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, from, types.ModuleName, coins); err != nil {
		return math.ZeroInt(), err
	}

	balance := k.Position(ctx, poolID, asset, owner).Add(bTokens)
	k.SetPosition(ctx, types.Position{PoolID: poolID, Asset: asset, Owner: owner.String(), BTokens: balance})
	reserve.TotalBTokens = reserve.TotalBTokens.Add(bTokens)
	reserve.TotalSupplied = reserve.TotalSupplied.Add(amount)
	k.SetReserve(ctx, reserve)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSupply,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyAsset, asset),
			sdk.NewAttribute(types.AttributeKeyOwner, owner.String()),
			sdk.NewAttribute(types.AttributeKeyAccount, from.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyBTokens, bTokens.String()),
		),
	)
	return bTokens, nil
}

// Withdraw burns ceil(amount*1e12/b_rate) of owner's b-tokens and pays
// amount of asset to the to account. Returns the b-tokens burned.
func (k *Keeper) Withdraw(ctx sdk.Context, poolID, asset string, owner, to sdk.AccAddress, amount math.Int) (math.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), errors.Wrapf(types.ErrInvalidAmount, "withdraw amount %s", amount)
	}
	reserve := k.GetReserve(ctx, poolID, asset)
	if reserve == nil {
		return math.ZeroInt(), errors.Wrapf(types.ErrReserveNotFound, "%s/%s", poolID, asset)
	}
	burn := reserve.ToBTokensUp(amount)
	balance := k.Position(ctx, poolID, asset, owner)
	if balance.LT(burn) {
		return math.ZeroInt(), errors.Wrapf(types.ErrInsufficientBTokens, "need %s, have %s", burn, balance)
	}

	coins := sdk.NewCoins(sdk.NewCoin(asset, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, to, coins); err != nil {
		return math.ZeroInt(), err
	}

	k.SetPosition(ctx, types.Position{PoolID: poolID, Asset: asset, Owner: owner.String(), BTokens: balance.Sub(burn)})
	reserve.TotalBTokens = reserve.TotalBTokens.Sub(burn)
	reserve.TotalWithdrawn = reserve.TotalWithdrawn.Add(amount)
	k.SetReserve(ctx, reserve)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdraw,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyAsset, asset),
			sdk.NewAttribute(types.AttributeKeyOwner, owner.String()),
			sdk.NewAttribute(types.AttributeKeyAccount, to.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyBTokens, burn.String()),
		),
	)
	return burn, nil
}

func (k *Keeper) requireAuthority(signer string) error {
	if k.authority != "" && signer != k.authority {
		return errors.Wrapf(types.ErrUnauthorized, "expected %s, got %s", k.authority, signer)
	}
	return nil
}
