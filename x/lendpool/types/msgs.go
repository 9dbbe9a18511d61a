package types

import (
	"context"
	"fmt"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgCreateReserve{},
		&MsgSetBRate{},
	)
}

// MsgServer defines the lendpool module's gRPC message service
type MsgServer interface {
	CreateReserve(context.Context, *MsgCreateReserve) (*MsgCreateReserveResponse, error)
	SetBRate(context.Context, *MsgSetBRate) (*MsgSetBRateResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {}

func validateRateMsg(authority, poolID, asset, bRate string) error {
	if _, err := sdk.AccAddressFromBech32(authority); err != nil {
		return errors.Wrapf(ErrUnauthorized, "authority: %s", err)
	}
	if poolID == "" {
		return errors.Wrap(ErrReserveNotFound, "pool id must be set")
	}
	if err := sdk.ValidateDenom(asset); err != nil {
		return errors.Wrap(ErrReserveNotFound, err.Error())
	}
	rate, ok := math.NewIntFromString(bRate)
	if !ok || !rate.IsPositive() {
		return errors.Wrapf(ErrInvalidBRate, "got %q", bRate)
	}
	return nil
}

// MsgCreateReserve opens a reserve for an asset in a pool
type MsgCreateReserve struct {
	Authority string `json:"authority"`
	PoolID    string `json:"pool_id"`
	Asset     string `json:"asset"`
	BRate     string `json:"b_rate"`
}

func (msg *MsgCreateReserve) Reset()         { *msg = MsgCreateReserve{} }
func (msg *MsgCreateReserve) String() string { return fmt.Sprintf("MsgCreateReserve{%s/%s}", msg.PoolID, msg.Asset) }
func (msg *MsgCreateReserve) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgCreateReserve
func (msg *MsgCreateReserve) XXX_MessageName() string {
	return "lendpool.v1.MsgCreateReserve"
}

// ValidateBasic for MsgCreateReserve
func (msg *MsgCreateReserve) ValidateBasic() error {
	return validateRateMsg(msg.Authority, msg.PoolID, msg.Asset, msg.BRate)
}

// GetSigners returns the signer addresses for MsgCreateReserve
func (msg *MsgCreateReserve) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// MsgSetBRate sets a reserve's exchange rate
type MsgSetBRate struct {
	Authority string `json:"authority"`
	PoolID    string `json:"pool_id"`
	Asset     string `json:"asset"`
	BRate     string `json:"b_rate"`
}

func (msg *MsgSetBRate) Reset()         { *msg = MsgSetBRate{} }
func (msg *MsgSetBRate) String() string { return fmt.Sprintf("MsgSetBRate{%s/%s %s}", msg.PoolID, msg.Asset, msg.BRate) }
func (msg *MsgSetBRate) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetBRate
func (msg *MsgSetBRate) XXX_MessageName() string {
	return "lendpool.v1.MsgSetBRate"
}

// ValidateBasic for MsgSetBRate
func (msg *MsgSetBRate) ValidateBasic() error {
	return validateRateMsg(msg.Authority, msg.PoolID, msg.Asset, msg.BRate)
}

// GetSigners returns the signer addresses for MsgSetBRate
func (msg *MsgSetBRate) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// MsgCreateReserveResponse is the response for MsgCreateReserve
type MsgCreateReserveResponse struct{}

func (msg *MsgCreateReserveResponse) Reset()         { *msg = MsgCreateReserveResponse{} }
func (msg *MsgCreateReserveResponse) String() string { return "MsgCreateReserveResponse" }
func (msg *MsgCreateReserveResponse) ProtoMessage()  {}

// MsgSetBRateResponse is the response for MsgSetBRate
type MsgSetBRateResponse struct {
	PreviousBRate string `json:"previous_b_rate"`
}

func (msg *MsgSetBRateResponse) Reset()         { *msg = MsgSetBRateResponse{} }
func (msg *MsgSetBRateResponse) String() string { return msg.PreviousBRate }
func (msg *MsgSetBRateResponse) ProtoMessage()  {}
