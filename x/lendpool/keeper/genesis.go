package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

// InitGenesis loads the pool state. The state must already be validated.
func (k *Keeper) InitGenesis(ctx sdk.Context, gs *types.GenesisState) {
	for i := range gs.Reserves {
		reserve := gs.Reserves[i]
		k.SetReserve(ctx, &reserve)
	}
	for _, position := range gs.Positions {
		k.SetPosition(ctx, position)
	}
	k.logger.Info("lending pool genesis loaded", "reserves", len(gs.Reserves), "positions", len(gs.Positions))
}

// ExportGenesis exports the pool state
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	for _, reserve := range k.GetAllReserves(ctx) {
		gs.Reserves = append(gs.Reserves, *reserve)
	}
	gs.Positions = append(gs.Positions, k.GetAllPositions(ctx)...)
	return gs
}
