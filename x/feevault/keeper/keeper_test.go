package keeper_test

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	apptestutil "github.com/openalpha/fee-vault/testutil"
	"github.com/openalpha/fee-vault/x/feevault/keeper"
	"github.com/openalpha/fee-vault/x/feevault/testutil"
	"github.com/openalpha/fee-vault/x/feevault/types"
)

const (
	poolID = "main"
	usdc   = "uusdc"
)

var (
	adminAddr = sdk.AccAddress([]byte("admin_______________"))
	aliceAddr = sdk.AccAddress([]byte("alice_______________"))
	bobAddr   = sdk.AccAddress([]byte("bob_________________"))
	carolAddr = sdk.AccAddress([]byte("carol_______________"))

	tenPercent = math.NewInt(1_000_000)
)

func rate(num, den int64) math.Int {
	return types.BRateScalar.MulRaw(num).QuoRaw(den)
}

// KeeperTestSuite runs the vault keeper against an in-memory store and a mock pool
type KeeperTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	keeper    *keeper.Keeper
	pool      *testutil.MockPool
	msgServer *keeper.MsgServer

	admin, alice, bob, carol string
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

// SetupTest initializes the vault at 10% with a USDC reserve at rate 1.0
func (s *KeeperTestSuite) SetupTest() {
	s.admin, s.alice, s.bob, s.carol = adminAddr.String(), aliceAddr.String(), bobAddr.String(), carolAddr.String()

	key := storetypes.NewKVStoreKey(types.StoreKey)
	s.ctx = apptestutil.NewContext(s.T(), key)
	s.pool = testutil.NewMockPool()
	s.pool.SetBRate(poolID, usdc, types.BRateScalar)
	s.keeper = keeper.NewKeeper(apptestutil.NewCodec(), key, s.pool, "", log.NewNopLogger())
	s.msgServer = keeper.NewMsgServerImpl(s.keeper)

	require.NoError(s.T(), s.keeper.Initialize(s.ctx, s.admin, types.NewVaultConfig(s.admin, poolID, tenPercent)))
	_, err := s.keeper.AddReserveVault(s.ctx, s.admin, usdc)
	require.NoError(s.T(), err)
}

func (s *KeeperTestSuite) deposit(user, reserveID string, amount int64) math.Int {
	shares, err := s.keeper.Deposit(s.ctx, user, reserveID, math.NewInt(amount))
	require.NoError(s.T(), err)
	return shares
}

func (s *KeeperTestSuite) requireInvariant() {
	msg, broken := s.keeper.ReservesInvariant(s.ctx)
	require.False(s.T(), broken, msg)
}

func (s *KeeperTestSuite) hasEvent(eventType string) bool {
	for _, event := range s.ctx.EventManager().Events() {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// runInterestScenario: alice deposits 1000 at 1.0, the rate rises to 1.1 and
// bob deposits 500
func (s *KeeperTestSuite) runInterestScenario() {
	require.Equal(s.T(), int64(1000), s.deposit(s.alice, usdc, 1000).Int64())
	s.pool.SetBRate(poolID, usdc, rate(11, 10))
	require.Equal(s.T(), int64(458), s.deposit(s.bob, usdc, 500).Int64())
}

// ===============================
// Deposit / Withdraw
// ===============================

func (s *KeeperTestSuite) TestDeposit_FirstDepositMintsOneToOne() {
	shares := s.deposit(s.alice, usdc, 1000)

	require.Equal(s.T(), int64(1000), shares.Int64())
	require.Equal(s.T(), int64(1000), s.keeper.GetShares(s.ctx, usdc, s.alice).Int64())
	require.Equal(s.T(), int64(1000), s.pool.Position(poolID, usdc, s.keeper.ModuleAddress()).Int64())
	require.Equal(s.T(), int64(1000), s.pool.PaidIn(poolID, usdc, aliceAddr).Int64())
	require.True(s.T(), s.hasEvent(types.EventTypeDeposit))
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestDeposit_Validation() {
	tests := []struct {
		name      string
		user      string
		reserveID string
		amount    math.Int
		wantErr   error
	}{
		{"zero amount", s.alice, usdc, math.ZeroInt(), types.ErrInvalidAmount},
		{"negative amount", s.alice, usdc, math.NewInt(-5), types.ErrInvalidAmount},
		{"unknown reserve", s.alice, "uatom", math.NewInt(10), types.ErrReserveNotFound},
		{"bad address", "alice", usdc, math.NewInt(10), types.ErrInvalidAddress},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.keeper.Deposit(s.ctx, tt.user, tt.reserveID, tt.amount)
			require.ErrorIs(s.T(), err, tt.wantErr)
		})
	}
}

func (s *KeeperTestSuite) TestInterestScenario() {
	s.runInterestScenario()

	vault := s.keeper.GetReserveVault(s.ctx, usdc)
	require.Equal(s.T(), int64(1454), vault.TotalBTokens.Int64())
	require.Equal(s.T(), int64(1467), vault.TotalShares.Int64())
	require.Equal(s.T(), int64(9), vault.AccruedAdminFeeShares.Int64())
	require.True(s.T(), vault.LastBRate.Equal(rate(11, 10)))

	require.Equal(s.T(), int64(1090), s.keeper.GetUnderlyingTokens(s.ctx, usdc, s.alice).Int64())
	require.Equal(s.T(), int64(991), s.keeper.GetBTokens(s.ctx, usdc, s.alice).Int64())
	require.True(s.T(), s.hasEvent(types.EventTypeFeesAccrued))

	require.True(s.T(), s.pool.Position(poolID, usdc, s.keeper.ModuleAddress()).Equal(vault.TotalBTokens))
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestWithdraw_Partial() {
	s.deposit(s.alice, usdc, 1000)

	removed, err := s.keeper.Withdraw(s.ctx, s.alice, usdc, math.NewInt(400))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(400), removed.Int64())
	require.Equal(s.T(), int64(600), s.keeper.GetShares(s.ctx, usdc, s.alice).Int64())
	require.Equal(s.T(), int64(400), s.pool.PaidOut(poolID, usdc, aliceAddr).Int64())
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestWithdraw_ClosingWithdrawalBurnsWholePosition() {
	s.runInterestScenario()

	removed, err := s.keeper.Withdraw(s.ctx, s.alice, usdc, math.NewInt(1090))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(1000), removed.Int64())
	require.True(s.T(), s.keeper.GetShares(s.ctx, usdc, s.alice).IsZero())
	require.Equal(s.T(), int64(1090), s.pool.PaidOut(poolID, usdc, aliceAddr).Int64())

	vault := s.keeper.GetReserveVault(s.ctx, usdc)
	require.Equal(s.T(), int64(463), vault.TotalBTokens.Int64())
	require.Equal(s.T(), int64(467), vault.TotalShares.Int64())
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestWithdraw_MoreThanPositionFails() {
	s.runInterestScenario()
	before := s.keeper.GetReserveVault(s.ctx, usdc)

	_, err := s.keeper.Withdraw(s.ctx, s.alice, usdc, math.NewInt(1091))
	require.ErrorIs(s.T(), err, types.ErrInsufficientShares)

	_, err = s.keeper.Withdraw(s.ctx, s.carol, usdc, math.NewInt(1))
	require.ErrorIs(s.T(), err, types.ErrInsufficientShares)

	require.Equal(s.T(), before, s.keeper.GetReserveVault(s.ctx, usdc))
	require.Equal(s.T(), int64(1000), s.keeper.GetShares(s.ctx, usdc, s.alice).Int64())
}

func (s *KeeperTestSuite) TestWithdraw_DustGoesToAdminForSoleHolder() {
	s.pool.SetBRate(poolID, "uatom", rate(4, 10))
	_, err := s.keeper.AddReserveVault(s.ctx, s.admin, "uatom")
	require.NoError(s.T(), err)

	require.Equal(s.T(), int64(2500), s.deposit(s.alice, "uatom", 1000).Int64())

	removed, err := s.keeper.Withdraw(s.ctx, s.alice, "uatom", math.NewInt(999))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(2500), removed.Int64())
	require.True(s.T(), s.keeper.GetShares(s.ctx, "uatom", s.alice).IsZero())

	shares, _ := s.keeper.GetAccruedFees(s.ctx, "uatom")
	require.Equal(s.T(), int64(2), shares.Int64())
	require.True(s.T(), s.hasEvent(types.EventTypeDustCleared))
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestWithdraw_DustBurnedWithOtherHolders() {
	s.pool.SetBRate(poolID, "uatom", rate(4, 10))
	_, err := s.keeper.AddReserveVault(s.ctx, s.admin, "uatom")
	require.NoError(s.T(), err)

	s.deposit(s.alice, "uatom", 1000)
	s.deposit(s.bob, "uatom", 400)

	removed, err := s.keeper.Withdraw(s.ctx, s.alice, "uatom", math.NewInt(999))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(2500), removed.Int64())

	vault := s.keeper.GetReserveVault(s.ctx, "uatom")
	require.Equal(s.T(), int64(1000), vault.TotalShares.Int64())
	require.Equal(s.T(), int64(1002), vault.TotalBTokens.Int64())
	require.True(s.T(), vault.AccruedAdminFeeShares.IsZero())
	s.requireInvariant()
}

// skewShares rescales usdc so each of alice's shares is backed by perShare
// b-tokens. Requires alice to be the only holder.
func (s *KeeperTestSuite) skewShares(perShare int64) {
	vault := s.keeper.GetReserveVault(s.ctx, usdc)
	vault.TotalShares = vault.TotalBTokens.QuoRaw(perShare)
	s.keeper.SetReserveVault(s.ctx, vault)
	s.keeper.SetShares(s.ctx, usdc, s.alice, vault.TotalShares)
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestWithdraw_UnburnedBTokensStayWithHolders() {
	s.deposit(s.alice, usdc, 1000)
	s.skewShares(4)

	// one share releases 4 b-tokens; the pool burns 1 for 1 underlying
	removed, err := s.keeper.Withdraw(s.ctx, s.alice, usdc, math.NewInt(1))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(1), removed.Int64())

	vault := s.keeper.GetReserveVault(s.ctx, usdc)
	require.Equal(s.T(), int64(999), vault.TotalBTokens.Int64())
	require.Equal(s.T(), int64(249), vault.TotalShares.Int64())
	require.True(s.T(), s.pool.Position(poolID, usdc, s.keeper.ModuleAddress()).Equal(vault.TotalBTokens))
	require.Equal(s.T(), int64(999), s.keeper.GetUnderlyingTokens(s.ctx, usdc, s.alice).Int64())
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestWithdraw_UnburnedBTokensGoToAdminOnExit() {
	s.deposit(s.alice, usdc, 1000)
	s.skewShares(4)

	removed, err := s.keeper.Withdraw(s.ctx, s.alice, usdc, math.NewInt(998))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(250), removed.Int64())
	require.True(s.T(), s.keeper.GetShares(s.ctx, usdc, s.alice).IsZero())

	vault := s.keeper.GetReserveVault(s.ctx, usdc)
	require.Equal(s.T(), int64(2), vault.TotalBTokens.Int64())
	require.Equal(s.T(), int64(2), vault.AccruedAdminFeeShares.Int64())
	require.True(s.T(), s.pool.Position(poolID, usdc, s.keeper.ModuleAddress()).Equal(vault.TotalBTokens))
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestClaimFees_UnburnedBTokensStayInVault() {
	s.pool.SetBRate(poolID, "uatom", rate(3, 10))
	_, err := s.keeper.AddReserveVault(s.ctx, s.admin, "uatom")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(3333), s.deposit(s.alice, "uatom", 1000).Int64())

	// hand 201 of alice's shares to the admin
	vault := s.keeper.GetReserveVault(s.ctx, "uatom")
	vault.AccruedAdminFeeShares = math.NewInt(201)
	s.keeper.SetReserveVault(s.ctx, vault)
	s.keeper.SetShares(s.ctx, "uatom", s.alice, math.NewInt(3132))
	s.requireInvariant()

	claim, err := s.keeper.ClaimFees(s.ctx, s.admin, "uatom", "")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(60), claim.Amount.Int64())
	require.Equal(s.T(), int64(200), claim.BTokens.Int64())

	vault = s.keeper.GetReserveVault(s.ctx, "uatom")
	require.Equal(s.T(), int64(3133), vault.TotalBTokens.Int64())
	require.Equal(s.T(), int64(3132), vault.TotalShares.Int64())
	require.True(s.T(), s.pool.Position(poolID, "uatom", s.keeper.ModuleAddress()).Equal(vault.TotalBTokens))
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestRoundTripLossIsBounded() {
	tests := []struct {
		reserveID string
		bRate     math.Int
		maxLoss   int64
	}{
		{"urate-one", types.BRateScalar, 0},
		{"urate-high", rate(13, 10), 3},
		{"urate-low", rate(107, 100), 3},
	}

	for _, tt := range tests {
		s.Run(tt.reserveID, func() {
			reserveID := tt.reserveID
			s.pool.SetBRate(poolID, reserveID, tt.bRate)
			_, err := s.keeper.AddReserveVault(s.ctx, s.admin, reserveID)
			require.NoError(s.T(), err)

			s.deposit(s.alice, reserveID, 1000)
			value := s.keeper.GetUnderlyingTokens(s.ctx, reserveID, s.alice)
			require.LessOrEqual(s.T(), 1000-value.Int64(), tt.maxLoss)

			_, err = s.keeper.Withdraw(s.ctx, s.alice, reserveID, value)
			require.NoError(s.T(), err)
			require.True(s.T(), s.keeper.GetShares(s.ctx, reserveID, s.alice).IsZero())
		})
	}
}

// ===============================
// Fee accrual
// ===============================

func (s *KeeperTestSuite) TestAccrual_ZeroTakeRate() {
	require.NoError(s.T(), s.keeper.SetTakeRate(s.ctx, s.admin, math.ZeroInt()))
	s.deposit(s.alice, usdc, 1000)

	s.pool.SetBRate(poolID, usdc, rate(11, 10))
	s.deposit(s.bob, usdc, 110)

	shares, _ := s.keeper.GetAccruedFees(s.ctx, usdc)
	require.True(s.T(), shares.IsZero())
	require.Equal(s.T(), int64(1100), s.keeper.GetUnderlyingTokens(s.ctx, usdc, s.alice).Int64())
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestAccrual_FullTakeRate() {
	require.NoError(s.T(), s.keeper.SetTakeRate(s.ctx, s.admin, types.TakeRateScalar))
	s.deposit(s.alice, usdc, 1000)

	s.pool.SetBRate(poolID, usdc, rate(2, 1))
	require.Equal(s.T(), int64(100), s.deposit(s.bob, usdc, 100).Int64())

	require.Equal(s.T(), int64(1000), s.keeper.GetUnderlyingTokens(s.ctx, usdc, s.alice).Int64())
	shares, underlying := s.keeper.GetAccruedFees(s.ctx, usdc)
	require.Equal(s.T(), int64(1000), shares.Int64())
	require.Equal(s.T(), int64(1000), underlying.Int64())
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestAccrual_FeesMonotoneAndRegressionIgnored() {
	s.deposit(s.alice, usdc, 100_000)

	s.pool.QueueBRates(poolID, usdc,
		rate(101, 100), rate(102, 100), rate(99, 100), rate(102, 100), rate(110, 100),
	)

	prev := math.ZeroInt()
	for i := 0; i < 5; i++ {
		s.deposit(s.bob, usdc, 1000)
		shares, _ := s.keeper.GetAccruedFees(s.ctx, usdc)
		require.True(s.T(), shares.GTE(prev), "step %d: %s < %s", i, shares, prev)
		if i == 3 {
			// recovery to the high-water mark charges nothing
			require.True(s.T(), shares.Equal(prev))
		}
		prev = shares
	}

	require.True(s.T(), prev.IsPositive())
	require.True(s.T(), s.hasEvent(types.EventTypeRateRegression))
	require.True(s.T(), s.keeper.GetReserveVault(s.ctx, usdc).LastBRate.Equal(rate(110, 100)))
	s.requireInvariant()
}

func (s *KeeperTestSuite) TestSetTakeRate_AccruesAtOldRate() {
	s.deposit(s.alice, usdc, 1000)
	s.pool.SetBRate(poolID, usdc, rate(11, 10))

	require.NoError(s.T(), s.keeper.SetTakeRate(s.ctx, s.admin, math.ZeroInt()))

	shares, _ := s.keeper.GetAccruedFees(s.ctx, usdc)
	require.Equal(s.T(), int64(9), shares.Int64())
	require.True(s.T(), s.keeper.GetConfig(s.ctx).TakeRate.IsZero())

	err := s.keeper.SetTakeRate(s.ctx, s.admin, types.TakeRateScalar.AddRaw(1))
	require.ErrorIs(s.T(), err, types.ErrInvalidTakeRate)
}

// ===============================
// Fee claims
// ===============================

func (s *KeeperTestSuite) TestClaimFees() {
	s.runInterestScenario()

	claim, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, s.carol)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), claim.ClaimID)
	require.Equal(s.T(), int64(9), claim.Shares.Int64())
	require.Equal(s.T(), int64(8), claim.BTokens.Int64())
	require.Equal(s.T(), int64(8), claim.Amount.Int64())
	require.Equal(s.T(), int64(8), s.pool.PaidOut(poolID, usdc, carolAddr).Int64())

	shares, _ := s.keeper.GetAccruedFees(s.ctx, usdc)
	require.True(s.T(), shares.IsZero())

	claims := s.keeper.GetFeeClaims(s.ctx, usdc)
	require.Len(s.T(), claims, 1)
	require.Equal(s.T(), claim.ClaimID, claims[0].ClaimID)
	s.requireInvariant()

	_, err = s.keeper.ClaimFees(s.ctx, s.admin, usdc, s.carol)
	require.ErrorIs(s.T(), err, types.ErrInvalidAmount)
}

func (s *KeeperTestSuite) TestClaimFees_DefaultsToAdmin() {
	s.runInterestScenario()

	claim, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, "")
	require.NoError(s.T(), err)
	require.Equal(s.T(), s.admin, claim.Recipient)
	require.Equal(s.T(), int64(8), s.pool.PaidOut(poolID, usdc, adminAddr).Int64())
}

func (s *KeeperTestSuite) TestClaimFees_IDsAreDistinct() {
	s.runInterestScenario()
	first, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, "")
	require.NoError(s.T(), err)

	s.ctx = apptestutil.NextBlock(s.ctx)
	s.pool.SetBRate(poolID, usdc, rate(13, 10))
	second, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, "")
	require.NoError(s.T(), err)

	require.NotEqual(s.T(), first.ClaimID, second.ClaimID)
	claims := s.keeper.GetFeeClaims(s.ctx, usdc)
	require.Len(s.T(), claims, 2)
	require.Equal(s.T(), first.ClaimID, claims[0].ClaimID)
}

// ===============================
// Admin
// ===============================

func (s *KeeperTestSuite) TestAdminOnlyOperations() {
	s.runInterestScenario()

	_, err := s.keeper.AddReserveVault(s.ctx, s.bob, "uatom")
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)

	_, err = s.keeper.ClaimFees(s.ctx, s.bob, usdc, s.bob)
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)

	err = s.keeper.SetTakeRate(s.ctx, s.bob, math.ZeroInt())
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)

	err = s.keeper.SetAdmin(s.ctx, s.bob, s.bob)
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)
}

func (s *KeeperTestSuite) TestSetAdmin_TransfersFeeRights() {
	s.runInterestScenario()

	require.NoError(s.T(), s.keeper.SetAdmin(s.ctx, s.admin, s.bob))
	require.Equal(s.T(), s.bob, s.keeper.GetConfig(s.ctx).Admin)

	_, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, "")
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)

	claim, err := s.keeper.ClaimFees(s.ctx, s.bob, usdc, "")
	require.NoError(s.T(), err)
	require.Equal(s.T(), s.bob, claim.Recipient)

	err = s.keeper.SetAdmin(s.ctx, s.bob, "not-an-address")
	require.ErrorIs(s.T(), err, types.ErrInvalidAddress)
}

func (s *KeeperTestSuite) TestAddReserveVault() {
	_, err := s.keeper.AddReserveVault(s.ctx, s.admin, usdc)
	require.ErrorIs(s.T(), err, types.ErrReserveAlreadyAdded)

	_, err = s.keeper.AddReserveVault(s.ctx, s.admin, "uunknown")
	require.ErrorIs(s.T(), err, types.ErrPoolCallFailed)

	s.pool.SetBRate(poolID, "uatom", rate(3, 2))
	vault, err := s.keeper.AddReserveVault(s.ctx, s.admin, "uatom")
	require.NoError(s.T(), err)
	require.True(s.T(), vault.LastBRate.Equal(rate(3, 2)))
	require.True(s.T(), vault.TotalShares.IsZero())
	require.Len(s.T(), s.keeper.GetAllReserveVaults(s.ctx), 2)
}

func (s *KeeperTestSuite) TestInitialize_OnlyOnce() {
	err := s.keeper.Initialize(s.ctx, s.bob, types.NewVaultConfig(s.bob, poolID, tenPercent))
	require.ErrorIs(s.T(), err, types.ErrAlreadyInitialized)
	require.Equal(s.T(), s.admin, s.keeper.GetConfig(s.ctx).Admin)
}

func (s *KeeperTestSuite) TestUninitializedVault() {
	key := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := apptestutil.NewContext(s.T(), key)
	k := keeper.NewKeeper(apptestutil.NewCodec(), key, s.pool, s.admin, log.NewNopLogger())

	_, err := k.Deposit(ctx, s.alice, usdc, math.NewInt(10))
	require.ErrorIs(s.T(), err, types.ErrNotInitialized)

	_, err = k.AddReserveVault(ctx, s.admin, usdc)
	require.ErrorIs(s.T(), err, types.ErrNotInitialized)

	// only the authority may initialize
	err = k.Initialize(ctx, s.bob, types.NewVaultConfig(s.bob, poolID, tenPercent))
	require.ErrorIs(s.T(), err, types.ErrUnauthorized)

	err = k.Initialize(ctx, s.admin, types.NewVaultConfig(s.admin, poolID, types.TakeRateScalar.AddRaw(1)))
	require.ErrorIs(s.T(), err, types.ErrInvalidTakeRate)
	require.False(s.T(), k.IsInitialized(ctx))

	require.True(s.T(), k.GetUnderlyingTokens(ctx, usdc, s.alice).IsZero())
}

// ===============================
// Pool failures
// ===============================

func (s *KeeperTestSuite) TestPoolFailureLeavesStateUntouched() {
	s.deposit(s.alice, usdc, 1000)
	// a pending rate rise would accrue fees if the call went through
	s.pool.SetBRate(poolID, usdc, rate(12, 10))

	before := s.keeper.GetReserveVault(s.ctx, usdc)
	tests := []struct {
		name  string
		setup func()
		run   func() error
	}{
		{
			name:  "supply",
			setup: func() { s.pool.SupplyErr = errPool },
			run: func() error {
				_, err := s.keeper.Deposit(s.ctx, s.bob, usdc, math.NewInt(100))
				return err
			},
		},
		{
			name:  "withdraw",
			setup: func() { s.pool.WithdrawErr = errPool },
			run: func() error {
				_, err := s.keeper.Withdraw(s.ctx, s.alice, usdc, math.NewInt(100))
				return err
			},
		},
		{
			name:  "b_rate",
			setup: func() { s.pool.BRateErr = errPool },
			run: func() error {
				_, err := s.keeper.Deposit(s.ctx, s.bob, usdc, math.NewInt(100))
				return err
			},
		},
		{
			name:  "claim withdraw",
			setup: func() { s.pool.WithdrawErr = errPool },
			run: func() error {
				_, err := s.keeper.ClaimFees(s.ctx, s.admin, usdc, "")
				return err
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.pool.ClearFailures()
			tt.setup()

			require.ErrorIs(s.T(), tt.run(), types.ErrPoolCallFailed)
			require.Equal(s.T(), before, s.keeper.GetReserveVault(s.ctx, usdc))
			require.Equal(s.T(), int64(1000), s.keeper.GetShares(s.ctx, usdc, s.alice).Int64())
			require.True(s.T(), s.keeper.GetShares(s.ctx, usdc, s.bob).IsZero())
			require.Empty(s.T(), s.keeper.GetFeeClaims(s.ctx, usdc))
		})
	}
	s.pool.ClearFailures()
}

// ===============================
// Msg server
// ===============================

func (s *KeeperTestSuite) TestMsgServer() {
	resp, err := s.msgServer.Deposit(s.ctx, &types.MsgDeposit{Depositor: s.alice, ReserveID: usdc, Amount: "1000"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "1000", resp.SharesMinted)

	_, err = s.msgServer.Deposit(s.ctx, &types.MsgDeposit{Depositor: s.alice, ReserveID: usdc, Amount: "ten"})
	require.ErrorIs(s.T(), err, types.ErrInvalidAmount)

	// one past the signed 128-bit max
	_, err = s.msgServer.Deposit(s.ctx, &types.MsgDeposit{Depositor: s.alice, ReserveID: usdc, Amount: "170141183460469231731687303715884105728"})
	require.ErrorIs(s.T(), err, types.ErrInvalidAmount)

	wResp, err := s.msgServer.Withdraw(s.ctx, &types.MsgWithdraw{Withdrawer: s.alice, ReserveID: usdc, Amount: "250"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "250", wResp.SharesBurned)

	_, err = s.msgServer.SetTakeRate(s.ctx, &types.MsgSetTakeRate{Admin: s.admin, TakeRate: "2000000"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(2_000_000), s.keeper.GetConfig(s.ctx).TakeRate.Int64())

	_, err = s.msgServer.Initialize(s.ctx, &types.MsgInitialize{Admin: s.admin, Pool: poolID, TakeRate: "0"})
	require.ErrorIs(s.T(), err, types.ErrAlreadyInitialized)
}
