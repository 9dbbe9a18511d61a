package keeper

import (
	"context"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/openalpha/fee-vault/x/feevault/types"
)

// MsgServer defines the fee vault MsgServer
type MsgServer struct {
	keeper *Keeper
}

var _ types.MsgServer = (*MsgServer)(nil)

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseAmount(s string) (math.Int, error) {
	amount, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.Wrapf(types.ErrInvalidAmount, "cannot parse %q", s)
	}
	if err := types.ValidateAmount(amount); err != nil {
		return math.Int{}, err
	}
	return amount, nil
}

func parseTakeRate(s string) (math.Int, error) {
	rate, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.Wrapf(types.ErrInvalidTakeRate, "cannot parse %q", s)
	}
	return rate, nil
}

// Initialize handles MsgInitialize
func (m *MsgServer) Initialize(ctx context.Context, msg *types.MsgInitialize) (*types.MsgInitializeResponse, error) {
	takeRate, err := parseTakeRate(msg.TakeRate)
	if err != nil {
		return nil, err
	}
	config := types.NewVaultConfig(msg.Admin, msg.Pool, takeRate)
	if err := m.keeper.Initialize(ctx, msg.Admin, config); err != nil {
		return nil, err
	}
	return &types.MsgInitializeResponse{}, nil
}

// AddReserveVault handles MsgAddReserveVault
func (m *MsgServer) AddReserveVault(ctx context.Context, msg *types.MsgAddReserveVault) (*types.MsgAddReserveVaultResponse, error) {
	vault, err := m.keeper.AddReserveVault(ctx, msg.Admin, msg.ReserveID)
	if err != nil {
		return nil, err
	}
	return &types.MsgAddReserveVaultResponse{BRate: vault.LastBRate.String()}, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}
	shares, err := m.keeper.Deposit(ctx, msg.Depositor, msg.ReserveID, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgDepositResponse{SharesMinted: shares.String()}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}
	shares, err := m.keeper.Withdraw(ctx, msg.Withdrawer, msg.ReserveID, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{SharesBurned: shares.String()}, nil
}

// ClaimFees handles MsgClaimFees
func (m *MsgServer) ClaimFees(ctx context.Context, msg *types.MsgClaimFees) (*types.MsgClaimFeesResponse, error) {
	claim, err := m.keeper.ClaimFees(ctx, msg.Admin, msg.ReserveID, msg.Recipient)
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimFeesResponse{ClaimID: claim.ClaimID, Amount: claim.Amount.String()}, nil
}

// SetTakeRate handles MsgSetTakeRate
func (m *MsgServer) SetTakeRate(ctx context.Context, msg *types.MsgSetTakeRate) (*types.MsgSetTakeRateResponse, error) {
	takeRate, err := parseTakeRate(msg.TakeRate)
	if err != nil {
		return nil, err
	}
	if err := m.keeper.SetTakeRate(ctx, msg.Admin, takeRate); err != nil {
		return nil, err
	}
	return &types.MsgSetTakeRateResponse{}, nil
}

// SetAdmin handles MsgSetAdmin
func (m *MsgServer) SetAdmin(ctx context.Context, msg *types.MsgSetAdmin) (*types.MsgSetAdminResponse, error) {
	if err := m.keeper.SetAdmin(ctx, msg.Admin, msg.NewAdmin); err != nil {
		return nil, err
	}
	return &types.MsgSetAdminResponse{}, nil
}
