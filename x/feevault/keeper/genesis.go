package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/feevault/types"
)

// InitGenesis loads the vault state. The state must already be validated.
func (k *Keeper) InitGenesis(ctx sdk.Context, gs *types.GenesisState) {
	if gs.Config != nil {
		k.SetConfig(ctx, gs.Config)
		k.metrics.RecordTakeRate(gs.Config.TakeRate, types.TakeRateScalar)
	}
	for i := range gs.Reserves {
		vault := gs.Reserves[i]
		k.SetReserveVault(ctx, &vault)
		k.recordReserve(&vault)
	}
	for _, position := range gs.Positions {
		k.SetShares(ctx, position.ReserveID, position.User, position.Shares)
	}
	for i := range gs.FeeClaims {
		claim := gs.FeeClaims[i]
		k.SetFeeClaim(ctx, &claim)
	}

	k.logger.Info("fee vault genesis loaded",
		"initialized", gs.Config != nil,
		"reserves", len(gs.Reserves),
		"positions", len(gs.Positions),
	)
}

// ExportGenesis exports the vault state
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	gs.Config = k.GetConfig(ctx)
	for _, vault := range k.GetAllReserveVaults(ctx) {
		gs.Reserves = append(gs.Reserves, *vault)
	}
	gs.Positions = append(gs.Positions, k.GetAllPositions(ctx)...)
	for _, claim := range k.GetAllFeeClaims(ctx) {
		gs.FeeClaims = append(gs.FeeClaims, *claim)
	}
	return gs
}
