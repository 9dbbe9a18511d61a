package types

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// PoolKeeper is the lending pool the vault supplies into. Amounts passed in are
// underlying tokens; Supply and Withdraw return the b-tokens minted or burned
// for owner's position. BRate uses 12 decimals.
type PoolKeeper interface {
	Supply(ctx context.Context, poolID, asset string, owner, from sdk.AccAddress, amount math.Int) (math.Int, error)
	Withdraw(ctx context.Context, poolID, asset string, owner, to sdk.AccAddress, amount math.Int) (math.Int, error)
	BRate(ctx context.Context, poolID, asset string) (math.Int, error)
}

