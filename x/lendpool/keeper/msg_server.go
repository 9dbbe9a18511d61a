package keeper

import (
	"context"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

// MsgServer defines the lending pool MsgServer
type MsgServer struct {
	keeper *Keeper
}

var _ types.MsgServer = (*MsgServer)(nil)

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseBRate(s string) (math.Int, error) {
	rate, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.Wrapf(types.ErrInvalidBRate, "cannot parse %q", s)
	}
	return rate, nil
}

// CreateReserve handles MsgCreateReserve
func (m *MsgServer) CreateReserve(goCtx context.Context, msg *types.MsgCreateReserve) (*types.MsgCreateReserveResponse, error) {
	rate, err := parseBRate(msg.BRate)
	if err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)
	if err := m.keeper.CreateReserve(ctx, msg.Authority, msg.PoolID, msg.Asset, rate); err != nil {
		return nil, err
	}
	return &types.MsgCreateReserveResponse{}, nil
}

// SetBRate handles MsgSetBRate
func (m *MsgServer) SetBRate(goCtx context.Context, msg *types.MsgSetBRate) (*types.MsgSetBRateResponse, error) {
	rate, err := parseBRate(msg.BRate)
	if err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)
	previous, err := m.keeper.SetBRate(ctx, msg.Authority, msg.PoolID, msg.Asset, rate)
	if err != nil {
		return nil, err
	}
	return &types.MsgSetBRateResponse{PreviousBRate: previous.String()}, nil
}
