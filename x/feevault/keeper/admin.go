package keeper

import (
	"context"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/metrics"
	"github.com/openalpha/fee-vault/x/feevault/types"
)

// Initialize writes the vault config. It can only succeed once.
func (k *Keeper) Initialize(ctx context.Context, signer string, config *types.VaultConfig) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if k.authority != "" && signer != k.authority {
		return errors.Wrapf(types.ErrUnauthorized, "expected %s, got %s", k.authority, signer)
	}
	if k.IsInitialized(sdkCtx) {
		return types.ErrAlreadyInitialized
	}
	if err := config.Validate(); err != nil {
		return err
	}

	k.SetConfig(sdkCtx, config)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInitialize,
			sdk.NewAttribute(types.AttributeKeyAdmin, config.Admin),
			sdk.NewAttribute(types.AttributeKeyPool, config.Pool),
			sdk.NewAttribute(types.AttributeKeyTakeRate, config.TakeRate.String()),
		),
	)

	k.metrics.RecordTakeRate(config.TakeRate, types.TakeRateScalar)
	k.logger.Info("fee vault initialized",
		"admin", config.Admin,
		"pool", config.Pool,
		"take_rate", config.TakeRate.String(),
	)
	return nil
}

// AddReserveVault starts tracking a reserve at the pool's current b_rate
func (k *Keeper) AddReserveVault(ctx context.Context, caller, reserveID string) (*types.ReserveVault, error) {
	timer := metrics.NewTimer()
	vault, err := k.addReserveVault(sdk.UnwrapSDKContext(ctx), caller, reserveID)
	k.metrics.RecordOperation(types.TypeMsgAddReserveVault, err, timer.ElapsedMs())
	return vault, err
}

func (k *Keeper) addReserveVault(ctx sdk.Context, caller, reserveID string) (*types.ReserveVault, error) {
	config, err := k.requireAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := sdk.ValidateDenom(reserveID); err != nil {
		return nil, errors.Wrapf(types.ErrReserveNotFound, "reserve id %q: %s", reserveID, err)
	}
	if k.GetReserveVault(ctx, reserveID) != nil {
		return nil, errors.Wrap(types.ErrReserveAlreadyAdded, reserveID)
	}

	bRate, err := k.fetchBRate(ctx, config, reserveID)
	if err != nil {
		return nil, err
	}

	vault := types.NewReserveVault(reserveID, bRate)
	k.SetReserveVault(ctx, vault)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeAddReserveVault,
			sdk.NewAttribute(types.AttributeKeyReserveID, reserveID),
			sdk.NewAttribute(types.AttributeKeyBRate, bRate.String()),
		),
	)

	k.recordReserve(vault)
	k.logger.Info("reserve vault added", "reserve", reserveID, "b_rate", bRate.String())
	return vault, nil
}

// SetTakeRate changes the take rate. Every reserve is accrued at the old rate
// first so interest already earned is charged at the rate in force.
func (k *Keeper) SetTakeRate(ctx context.Context, caller string, takeRate math.Int) error {
	timer := metrics.NewTimer()
	err := k.setTakeRate(sdk.UnwrapSDKContext(ctx), caller, takeRate)
	k.metrics.RecordOperation(types.TypeMsgSetTakeRate, err, timer.ElapsedMs())
	return err
}

func (k *Keeper) setTakeRate(ctx sdk.Context, caller string, takeRate math.Int) error {
	config, err := k.requireAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if err := types.ValidateTakeRate(takeRate); err != nil {
		return err
	}

	cacheCtx, write := ctx.CacheContext()

	vaults := k.GetAllReserveVaults(cacheCtx)
	for _, vault := range vaults {
		bRate, err := k.fetchBRate(cacheCtx, config, vault.ReserveID)
		if err != nil {
			return err
		}
		k.accrue(cacheCtx, vault, bRate, config.TakeRate)
		k.SetReserveVault(cacheCtx, vault)
	}

	oldTakeRate := config.TakeRate
	config.TakeRate = takeRate
	k.SetConfig(cacheCtx, config)

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetTakeRate,
			sdk.NewAttribute(types.AttributeKeyOldTakeRate, oldTakeRate.String()),
			sdk.NewAttribute(types.AttributeKeyTakeRate, takeRate.String()),
		),
	)
	write()

	for _, vault := range vaults {
		k.recordReserve(vault)
	}
	k.metrics.RecordTakeRate(takeRate, types.TakeRateScalar)
	k.logger.Info("take rate updated",
		"old", oldTakeRate.String(),
		"new", takeRate.String(),
		"reserves_accrued", len(vaults),
	)
	return nil
}

// SetAdmin transfers the admin role. Accrued fee shares are claimable by
// whoever holds the role.
func (k *Keeper) SetAdmin(ctx context.Context, caller, newAdmin string) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	config, err := k.requireAdmin(sdkCtx, caller)
	if err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(newAdmin); err != nil {
		return errors.Wrapf(types.ErrInvalidAddress, "new admin %q: %s", newAdmin, err)
	}

	config.Admin = newAdmin
	k.SetConfig(sdkCtx, config)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetAdmin,
			sdk.NewAttribute(types.AttributeKeyAdmin, caller),
			sdk.NewAttribute(types.AttributeKeyNewAdmin, newAdmin),
		),
	)

	k.logger.Info("admin updated", "old", caller, "new", newAdmin)
	return nil
}

func (k *Keeper) requireAdmin(ctx sdk.Context, caller string) (*types.VaultConfig, error) {
	config := k.GetConfig(ctx)
	if config == nil {
		return nil, types.ErrNotInitialized
	}
	if !config.IsAdmin(caller) {
		return nil, errors.Wrapf(types.ErrUnauthorized, "%s is not the vault admin", caller)
	}
	return config, nil
}
