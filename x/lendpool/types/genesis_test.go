package types_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

func TestGenesisValidate(t *testing.T) {
	owner := sdk.AccAddress([]byte("owner_______________")).String()
	reserve := func(total int64) types.Reserve {
		r := types.NewReserve("main", "uusdc", types.BRateScalar)
		r.TotalBTokens = math.NewInt(total)
		return *r
	}
	position := func(asset string, b int64) types.Position {
		return types.Position{PoolID: "main", Asset: asset, Owner: owner, BTokens: math.NewInt(b)}
	}

	testCases := []struct {
		name    string
		gs      types.GenesisState
		wantErr bool
	}{
		{"default", *types.DefaultGenesis(), false},
		{"balanced", types.GenesisState{Reserves: []types.Reserve{reserve(50)}, Positions: []types.Position{position("uusdc", 50)}}, false},
		{"supply mismatch", types.GenesisState{Reserves: []types.Reserve{reserve(60)}, Positions: []types.Position{position("uusdc", 50)}}, true},
		{"unknown reserve", types.GenesisState{Reserves: []types.Reserve{reserve(0)}, Positions: []types.Position{position("uatom", 5)}}, true},
		{"duplicate reserve", types.GenesisState{Reserves: []types.Reserve{reserve(0), reserve(0)}}, true},
		{"zero rate", types.GenesisState{Reserves: []types.Reserve{{PoolID: "main", Asset: "uusdc", BRate: math.ZeroInt(), TotalBTokens: math.ZeroInt()}}}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.gs.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRateConversions(t *testing.T) {
	r := types.NewReserve("main", "uusdc", types.BRateScalar.MulRaw(11).QuoRaw(10))
	require.Equal(t, math.NewInt(909), r.ToBTokensDown(math.NewInt(1000)))
	require.Equal(t, math.NewInt(910), r.ToBTokensUp(math.NewInt(1000)))
	require.Equal(t, math.NewInt(10), r.ToBTokensUp(math.NewInt(11)))
	require.Equal(t, math.NewInt(999), r.ToUnderlying(math.NewInt(909)))
}
