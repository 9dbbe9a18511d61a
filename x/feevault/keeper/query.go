package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GetUnderlyingTokens returns what user's shares in a reserve are worth in the
// underlying asset at the last observed b_rate. Unknown reserves and users
// without shares are worth zero.
func (k *Keeper) GetUnderlyingTokens(ctx sdk.Context, reserveID, user string) math.Int {
	vault := k.GetReserveVault(ctx, reserveID)
	if vault == nil {
		return math.ZeroInt()
	}
	shares := k.GetShares(ctx, reserveID, user)
	if !shares.IsPositive() {
		return math.ZeroInt()
	}
	return vault.UnderlyingValue(shares, vault.LastBRate)
}

// GetBTokens returns the b-tokens backing user's shares in a reserve
func (k *Keeper) GetBTokens(ctx sdk.Context, reserveID, user string) math.Int {
	vault := k.GetReserveVault(ctx, reserveID)
	if vault == nil {
		return math.ZeroInt()
	}
	return vault.SharesToBTokens(k.GetShares(ctx, reserveID, user))
}

// GetAccruedFees returns the admin's unclaimed fee shares in a reserve and
// their underlying value at the last observed b_rate.
func (k *Keeper) GetAccruedFees(ctx sdk.Context, reserveID string) (shares, underlying math.Int) {
	vault := k.GetReserveVault(ctx, reserveID)
	if vault == nil {
		return math.ZeroInt(), math.ZeroInt()
	}
	return vault.AccruedAdminFeeShares, vault.UnderlyingValue(vault.AccruedAdminFeeShares, vault.LastBRate)
}

// ReservesInvariant checks that every reserve's shares are owned by its
// depositors and the admin, and that every reserve is internally consistent.
// Returns a description of the first violation found.
func (k *Keeper) ReservesInvariant(ctx sdk.Context) (string, bool) {
	for _, vault := range k.GetAllReserveVaults(ctx) {
		if err := vault.Validate(); err != nil {
			return err.Error(), true
		}
		owned := vault.AccruedAdminFeeShares
		for _, position := range k.GetReservePositions(ctx, vault.ReserveID) {
			owned = owned.Add(position.Shares)
		}
		if !owned.Equal(vault.TotalShares) {
			return fmt.Sprintf("reserve %s: owned shares %s != total shares %s",
				vault.ReserveID, owned, vault.TotalShares), true
		}
	}
	return "", false
}
