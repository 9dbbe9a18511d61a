package keeper_test

import (
	"errors"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/stretchr/testify/require"

	apptestutil "github.com/openalpha/fee-vault/testutil"
	"github.com/openalpha/fee-vault/x/feevault/keeper"
	"github.com/openalpha/fee-vault/x/feevault/types"
)

var errPool = errors.New("pool unavailable")

func (s *KeeperTestSuite) TestGenesis_ExportImport() {
	s.runInterestScenario()
	_, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, s.carol)
	require.NoError(s.T(), err)

	exported := s.keeper.ExportGenesis(s.ctx)
	require.NoError(s.T(), exported.Validate())
	require.Len(s.T(), exported.Reserves, 1)
	require.Len(s.T(), exported.Positions, 2)
	require.Len(s.T(), exported.FeeClaims, 1)

	key := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := apptestutil.NewContext(s.T(), key)
	k := keeper.NewKeeper(apptestutil.NewCodec(), key, s.pool, "", log.NewNopLogger())
	k.InitGenesis(ctx, exported)

	require.Equal(s.T(), exported, k.ExportGenesis(ctx))
	require.Equal(s.T(),
		s.keeper.GetUnderlyingTokens(s.ctx, usdc, s.alice),
		k.GetUnderlyingTokens(ctx, usdc, s.alice),
	)

	msg, broken := k.ReservesInvariant(ctx)
	require.False(s.T(), broken, msg)

	err = k.Initialize(ctx, s.admin, exported.Config)
	require.ErrorIs(s.T(), err, types.ErrAlreadyInitialized)
}

func (s *KeeperTestSuite) TestGenesis_Default() {
	key := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := apptestutil.NewContext(s.T(), key)
	k := keeper.NewKeeper(apptestutil.NewCodec(), key, s.pool, "", log.NewNopLogger())

	k.InitGenesis(ctx, types.DefaultGenesis())
	require.False(s.T(), k.IsInitialized(ctx))
	require.Equal(s.T(), types.DefaultGenesis(), k.ExportGenesis(ctx))
}
