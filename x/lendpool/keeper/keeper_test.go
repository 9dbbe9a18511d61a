package keeper_test

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	apptestutil "github.com/openalpha/fee-vault/testutil"
	"github.com/openalpha/fee-vault/x/lendpool/keeper"
	"github.com/openalpha/fee-vault/x/lendpool/testutil"
	"github.com/openalpha/fee-vault/x/lendpool/types"
)

const (
	poolID = "main"
	usdc   = "uusdc"
)

var (
	authorityAddr = sdk.AccAddress([]byte("authority___________"))
	vaultAddr     = sdk.AccAddress([]byte("vault_______________"))
	aliceAddr     = sdk.AccAddress([]byte("alice_______________"))
)

func rate(num, den int64) math.Int {
	return types.BRateScalar.MulRaw(num).QuoRaw(den)
}

type KeeperTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	keeper    *keeper.Keeper
	bank      *testutil.MockBank
	msgServer *keeper.MsgServer
	authority string
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (s *KeeperTestSuite) SetupTest() {
	key := storetypes.NewKVStoreKey(types.StoreKey)
	s.ctx = apptestutil.NewContext(s.T(), key)
	s.bank = testutil.NewMockBank()
	s.bank.Fund(aliceAddr, sdk.NewInt64Coin(usdc, 10_000))
	s.authority = authorityAddr.String()
	s.keeper = keeper.NewKeeper(apptestutil.NewCodec(), key, s.bank, s.authority, log.NewNopLogger())
	s.msgServer = keeper.NewMsgServerImpl(s.keeper)

	require.NoError(s.T(), s.keeper.CreateReserve(s.ctx, s.authority, poolID, usdc, types.BRateScalar))
}

func (s *KeeperTestSuite) TestCreateReserve() {
	err := s.keeper.CreateReserve(s.ctx, s.authority, poolID, usdc, types.BRateScalar)
	require.ErrorIs(s.T(), err, types.ErrReserveExists)

	err = s.keeper.CreateReserve(s.ctx, aliceAddr.String(), poolID, "uatom", types.BRateScalar)
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)

	err = s.keeper.CreateReserve(s.ctx, s.authority, poolID, "uatom", math.ZeroInt())
	require.ErrorIs(s.T(), err, types.ErrInvalidBRate)

	require.NoError(s.T(), s.keeper.CreateReserve(s.ctx, s.authority, "isolated", usdc, rate(11, 10)))
	bRate, err := s.keeper.BRate(s.ctx, "isolated", usdc)
	require.NoError(s.T(), err)
	require.Equal(s.T(), rate(11, 10), bRate)
	require.Len(s.T(), s.keeper.GetAllReserves(s.ctx), 2)
}

func (s *KeeperTestSuite) TestSetBRate() {
	previous, err := s.keeper.SetBRate(s.ctx, s.authority, poolID, usdc, rate(11, 10))
	require.NoError(s.T(), err)
	require.Equal(s.T(), types.BRateScalar, previous)

	// decreases model a pool loss and are accepted
	previous, err = s.keeper.SetBRate(s.ctx, s.authority, poolID, usdc, rate(9, 10))
	require.NoError(s.T(), err)
	require.Equal(s.T(), rate(11, 10), previous)

	_, err = s.keeper.SetBRate(s.ctx, aliceAddr.String(), poolID, usdc, rate(2, 1))
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)
	_, err = s.keeper.SetBRate(s.ctx, s.authority, poolID, "uatom", rate(2, 1))
	require.ErrorIs(s.T(), err, types.ErrReserveNotFound)
	_, err = s.keeper.SetBRate(s.ctx, s.authority, poolID, usdc, math.NewInt(-1))
	require.ErrorIs(s.T(), err, types.ErrInvalidBRate)
}

func (s *KeeperTestSuite) TestSupplyAndWithdraw() {
	_, err := s.keeper.SetBRate(s.ctx, s.authority, poolID, usdc, rate(11, 10))
	require.NoError(s.T(), err)

	// floor(1000 / 1.1) = 909
	bTokens, err := s.keeper.Supply(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(1000))
	require.NoError(s.T(), err)
	require.Equal(s.T(), math.NewInt(909), bTokens)
	require.Equal(s.T(), int64(9_000), s.bank.Balance(aliceAddr, usdc))
	require.Equal(s.T(), int64(1000), s.bank.ModuleBalance(types.ModuleName, usdc))
	require.Equal(s.T(), math.NewInt(909), s.keeper.Position(s.ctx, poolID, usdc, vaultAddr))
	require.True(s.T(), s.keeper.Position(s.ctx, poolID, usdc, aliceAddr).IsZero())

	// ceil(100 / 1.1) = 91
	burned, err := s.keeper.Withdraw(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(100))
	require.NoError(s.T(), err)
	require.Equal(s.T(), math.NewInt(91), burned)
	require.Equal(s.T(), math.NewInt(818), s.keeper.Position(s.ctx, poolID, usdc, vaultAddr))
	require.Equal(s.T(), int64(9_100), s.bank.Balance(aliceAddr, usdc))

	reserve := s.keeper.GetReserve(s.ctx, poolID, usdc)
	require.Equal(s.T(), math.NewInt(818), reserve.TotalBTokens)
	require.Equal(s.T(), math.NewInt(1000), reserve.TotalSupplied)
	require.Equal(s.T(), math.NewInt(100), reserve.TotalWithdrawn)
}

func (s *KeeperTestSuite) TestSupplyErrors() {
	testCases := []struct {
		name   string
		asset  string
		amount int64
		err    error
	}{
		{"zero amount", usdc, 0, types.ErrInvalidAmount},
		{"unknown reserve", "uatom", 10, types.ErrReserveNotFound},
		{"insufficient funds", usdc, 10_001, sdkerrors.ErrInsufficientFunds},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.keeper.Supply(s.ctx, poolID, tc.asset, vaultAddr, aliceAddr, math.NewInt(tc.amount))
			require.ErrorIs(s.T(), err, tc.err)
		})
	}

	// a supply worth less than one b-token is rejected
	_, err := s.keeper.SetBRate(s.ctx, s.authority, poolID, usdc, rate(3, 1))
	require.NoError(s.T(), err)
	_, err = s.keeper.Supply(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(2))
	require.ErrorIs(s.T(), err, types.ErrInvalidAmount)
	require.Empty(s.T(), s.keeper.GetAllPositions(s.ctx))
}

func (s *KeeperTestSuite) TestWithdrawMoreThanPosition() {
	_, err := s.keeper.Supply(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(500))
	require.NoError(s.T(), err)

	_, err = s.keeper.Withdraw(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(501))
	require.ErrorIs(s.T(), err, types.ErrInsufficientBTokens)

	// other owners cannot touch the position
	_, err = s.keeper.Withdraw(s.ctx, poolID, usdc, aliceAddr, aliceAddr, math.NewInt(1))
	require.ErrorIs(s.T(), err, types.ErrInsufficientBTokens)

	burned, err := s.keeper.Withdraw(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(500))
	require.NoError(s.T(), err)
	require.Equal(s.T(), math.NewInt(500), burned)
	require.Empty(s.T(), s.keeper.GetAllPositions(s.ctx))
}

func (s *KeeperTestSuite) TestInterestAccruesToPosition() {
	_, err := s.keeper.Supply(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(1000))
	require.NoError(s.T(), err)
	_, err = s.keeper.SetBRate(s.ctx, s.authority, poolID, usdc, rate(12, 10))
	require.NoError(s.T(), err)
	s.bank.Fund(authorityAddr, sdk.NewInt64Coin(usdc, 200))
	require.NoError(s.T(), s.bank.SendCoinsFromAccountToModule(s.ctx, authorityAddr, types.ModuleName, sdk.NewCoins(sdk.NewInt64Coin(usdc, 200))))

	reserve := s.keeper.GetReserve(s.ctx, poolID, usdc)
	require.Equal(s.T(), math.NewInt(1200), reserve.ToUnderlying(s.keeper.Position(s.ctx, poolID, usdc, vaultAddr)))

	burned, err := s.keeper.Withdraw(s.ctx, poolID, usdc, vaultAddr, vaultAddr, math.NewInt(1200))
	require.NoError(s.T(), err)
	require.Equal(s.T(), math.NewInt(1000), burned)
	require.Equal(s.T(), int64(1200), s.bank.Balance(vaultAddr, usdc))
}

func (s *KeeperTestSuite) TestMsgServer() {
	_, err := s.msgServer.CreateReserve(s.ctx, &types.MsgCreateReserve{
		Authority: s.authority, PoolID: poolID, Asset: "uatom", BRate: "1000000000000",
	})
	require.NoError(s.T(), err)

	resp, err := s.msgServer.SetBRate(s.ctx, &types.MsgSetBRate{
		Authority: s.authority, PoolID: poolID, Asset: "uatom", BRate: "1050000000000",
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "1000000000000", resp.PreviousBRate)

	_, err = s.msgServer.SetBRate(s.ctx, &types.MsgSetBRate{
		Authority: s.authority, PoolID: poolID, Asset: "uatom", BRate: "abc",
	})
	require.ErrorIs(s.T(), err, types.ErrInvalidBRate)
}

func (s *KeeperTestSuite) TestGenesisRoundTrip() {
	_, err := s.keeper.Supply(s.ctx, poolID, usdc, vaultAddr, aliceAddr, math.NewInt(700))
	require.NoError(s.T(), err)
	exported := s.keeper.ExportGenesis(s.ctx)
	require.NoError(s.T(), exported.Validate())

	key := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := apptestutil.NewContext(s.T(), key)
	imported := keeper.NewKeeper(apptestutil.NewCodec(), key, s.bank, s.authority, log.NewNopLogger())
	imported.InitGenesis(ctx, exported)

	require.Equal(s.T(), exported, imported.ExportGenesis(ctx))
	require.Equal(s.T(), math.NewInt(700), imported.Position(ctx, poolID, usdc, vaultAddr))
}
