package app

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	feevaulttypes "github.com/openalpha/fee-vault/x/feevault/types"
	lendpoolkeeper "github.com/openalpha/fee-vault/x/lendpool/keeper"
)

// vaultPoolAdapter exposes the lending pool keeper as the vault's PoolKeeper
type vaultPoolAdapter struct {
	keeper *lendpoolkeeper.Keeper
}

func newVaultPoolAdapter(keeper *lendpoolkeeper.Keeper) feevaulttypes.PoolKeeper {
	return vaultPoolAdapter{keeper: keeper}
}

func (a vaultPoolAdapter) Supply(ctx context.Context, poolID, asset string, owner, from sdk.AccAddress, amount math.Int) (math.Int, error) {
	if a.keeper == nil {
		return math.ZeroInt(), fmt.Errorf("lending pool keeper not set")
	}
	return a.keeper.Supply(sdk.UnwrapSDKContext(ctx), poolID, asset, owner, from, amount)
}

func (a vaultPoolAdapter) Withdraw(ctx context.Context, poolID, asset string, owner, to sdk.AccAddress, amount math.Int) (math.Int, error) {
	if a.keeper == nil {
		return math.ZeroInt(), fmt.Errorf("lending pool keeper not set")
	}
	return a.keeper.Withdraw(sdk.UnwrapSDKContext(ctx), poolID, asset, owner, to, amount)
}

func (a vaultPoolAdapter) BRate(ctx context.Context, poolID, asset string) (math.Int, error) {
	if a.keeper == nil {
		return math.ZeroInt(), fmt.Errorf("lending pool keeper not set")
	}
	return a.keeper.BRate(sdk.UnwrapSDKContext(ctx), poolID, asset)
}
