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
		&MsgInitialize{},
		&MsgAddReserveVault{},
		&MsgDeposit{},
		&MsgWithdraw{},
		&MsgClaimFees{},
		&MsgSetTakeRate{},
		&MsgSetAdmin{},
	)
}

// Message types for the fee vault module
const (
	TypeMsgInitialize      = "initialize"
	TypeMsgAddReserveVault = "add_reserve_vault"
	TypeMsgDeposit         = "deposit"
	TypeMsgWithdraw        = "withdraw"
	TypeMsgClaimFees       = "claim_fees"
	TypeMsgSetTakeRate     = "set_take_rate"
	TypeMsgSetAdmin        = "set_admin"
)

// MsgServer defines the fee vault module's gRPC message service
type MsgServer interface {
	Initialize(context.Context, *MsgInitialize) (*MsgInitializeResponse, error)
	AddReserveVault(context.Context, *MsgAddReserveVault) (*MsgAddReserveVaultResponse, error)
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	Withdraw(context.Context, *MsgWithdraw) (*MsgWithdrawResponse, error)
	ClaimFees(context.Context, *MsgClaimFees) (*MsgClaimFeesResponse, error)
	SetTakeRate(context.Context, *MsgSetTakeRate) (*MsgSetTakeRateResponse, error)
	SetAdmin(context.Context, *MsgSetAdmin) (*MsgSetAdminResponse, error)
}

// RegisterMsgServer is a no-op until protobuf service definitions are
// generated; until then the msg router has no route for these messages and
// MsgServer is only reachable in-process.
func RegisterMsgServer(s interface{}, srv MsgServer) {}

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errors.Wrapf(ErrInvalidAddress, "%s %q: %s", field, addr, err)
	}
	return nil
}

func validatePositiveAmount(amount string) error {
	amt, ok := math.NewIntFromString(amount)
	if !ok {
		return errors.Wrapf(ErrInvalidAmount, "cannot parse %q", amount)
	}
	return ValidateAmount(amt)
}

func mustSigner(addr string) []sdk.AccAddress {
	signer, _ := sdk.AccAddressFromBech32(addr)
	return []sdk.AccAddress{signer}
}

// MsgInitialize sets up the vault's admin, backing pool and take rate
type MsgInitialize struct {
	Admin    string `json:"admin"`
	Pool     string `json:"pool"`
	TakeRate string `json:"take_rate"`
}

func (msg *MsgInitialize) Reset()         { *msg = MsgInitialize{} }
func (msg *MsgInitialize) String() string { return fmt.Sprintf("MsgInitialize{%s %s %s}", msg.Admin, msg.Pool, msg.TakeRate) }
func (msg *MsgInitialize) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgInitialize
func (msg *MsgInitialize) XXX_MessageName() string {
	return "feevault.v1.MsgInitialize"
}

// ValidateBasic for MsgInitialize
func (msg *MsgInitialize) ValidateBasic() error {
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	if msg.Pool == "" {
		return errors.Wrap(ErrInvalidAddress, "pool must be set")
	}
	takeRate, ok := math.NewIntFromString(msg.TakeRate)
	if !ok {
		return errors.Wrapf(ErrInvalidTakeRate, "cannot parse %q", msg.TakeRate)
	}
	return ValidateTakeRate(takeRate)
}

// GetSigners returns the signer addresses for MsgInitialize
func (msg *MsgInitialize) GetSigners() []sdk.AccAddress { return mustSigner(msg.Admin) }

// MsgAddReserveVault registers a new reserve with the vault
type MsgAddReserveVault struct {
	Admin     string `json:"admin"`
	ReserveID string `json:"reserve_id"`
}

func (msg *MsgAddReserveVault) Reset()         { *msg = MsgAddReserveVault{} }
func (msg *MsgAddReserveVault) String() string { return msg.ReserveID }
func (msg *MsgAddReserveVault) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgAddReserveVault
func (msg *MsgAddReserveVault) XXX_MessageName() string {
	return "feevault.v1.MsgAddReserveVault"
}

// ValidateBasic for MsgAddReserveVault
func (msg *MsgAddReserveVault) ValidateBasic() error {
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	if msg.ReserveID == "" {
		return errors.Wrap(ErrReserveNotFound, "reserve id must be set")
	}
	return nil
}

// GetSigners returns the signer addresses for MsgAddReserveVault
func (msg *MsgAddReserveVault) GetSigners() []sdk.AccAddress { return mustSigner(msg.Admin) }

// MsgDeposit supplies underlying tokens to the pool through the vault
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	ReserveID string `json:"reserve_id"`
	Amount    string `json:"amount"`
}

func (msg *MsgDeposit) Reset()         { *msg = MsgDeposit{} }
func (msg *MsgDeposit) String() string { return fmt.Sprintf("MsgDeposit{%s %s %s}", msg.Depositor, msg.ReserveID, msg.Amount) }
func (msg *MsgDeposit) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgDeposit
func (msg *MsgDeposit) XXX_MessageName() string {
	return "feevault.v1.MsgDeposit"
}

// ValidateBasic for MsgDeposit
func (msg *MsgDeposit) ValidateBasic() error {
	if err := validateAddress("depositor", msg.Depositor); err != nil {
		return err
	}
	if msg.ReserveID == "" {
		return errors.Wrap(ErrReserveNotFound, "reserve id must be set")
	}
	return validatePositiveAmount(msg.Amount)
}

// GetSigners returns the signer addresses for MsgDeposit
func (msg *MsgDeposit) GetSigners() []sdk.AccAddress { return mustSigner(msg.Depositor) }

// MsgWithdraw withdraws underlying tokens from the pool through the vault
type MsgWithdraw struct {
	Withdrawer string `json:"withdrawer"`
	ReserveID  string `json:"reserve_id"`
	Amount     string `json:"amount"`
}

func (msg *MsgWithdraw) Reset()         { *msg = MsgWithdraw{} }
func (msg *MsgWithdraw) String() string { return fmt.Sprintf("MsgWithdraw{%s %s %s}", msg.Withdrawer, msg.ReserveID, msg.Amount) }
func (msg *MsgWithdraw) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgWithdraw
func (msg *MsgWithdraw) XXX_MessageName() string {
	return "feevault.v1.MsgWithdraw"
}

// ValidateBasic for MsgWithdraw
func (msg *MsgWithdraw) ValidateBasic() error {
	if err := validateAddress("withdrawer", msg.Withdrawer); err != nil {
		return err
	}
	if msg.ReserveID == "" {
		return errors.Wrap(ErrReserveNotFound, "reserve id must be set")
	}
	return validatePositiveAmount(msg.Amount)
}

// GetSigners returns the signer addresses for MsgWithdraw
func (msg *MsgWithdraw) GetSigners() []sdk.AccAddress { return mustSigner(msg.Withdrawer) }

// MsgClaimFees claims the admin's accrued fees for a reserve
type MsgClaimFees struct {
	Admin     string `json:"admin"`
	ReserveID string `json:"reserve_id"`
	Recipient string `json:"recipient"`
}

func (msg *MsgClaimFees) Reset()         { *msg = MsgClaimFees{} }
func (msg *MsgClaimFees) String() string { return fmt.Sprintf("MsgClaimFees{%s %s %s}", msg.Admin, msg.ReserveID, msg.Recipient) }
func (msg *MsgClaimFees) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgClaimFees
func (msg *MsgClaimFees) XXX_MessageName() string {
	return "feevault.v1.MsgClaimFees"
}

// ValidateBasic for MsgClaimFees
func (msg *MsgClaimFees) ValidateBasic() error {
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	if msg.ReserveID == "" {
		return errors.Wrap(ErrReserveNotFound, "reserve id must be set")
	}
	return validateAddress("recipient", msg.Recipient)
}

// GetSigners returns the signer addresses for MsgClaimFees
func (msg *MsgClaimFees) GetSigners() []sdk.AccAddress { return mustSigner(msg.Admin) }

// MsgSetTakeRate changes the fee take rate
type MsgSetTakeRate struct {
	Admin    string `json:"admin"`
	TakeRate string `json:"take_rate"`
}

func (msg *MsgSetTakeRate) Reset()         { *msg = MsgSetTakeRate{} }
func (msg *MsgSetTakeRate) String() string { return msg.TakeRate }
func (msg *MsgSetTakeRate) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetTakeRate
func (msg *MsgSetTakeRate) XXX_MessageName() string {
	return "feevault.v1.MsgSetTakeRate"
}

// ValidateBasic for MsgSetTakeRate
func (msg *MsgSetTakeRate) ValidateBasic() error {
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	takeRate, ok := math.NewIntFromString(msg.TakeRate)
	if !ok {
		return errors.Wrapf(ErrInvalidTakeRate, "cannot parse %q", msg.TakeRate)
	}
	return ValidateTakeRate(takeRate)
}

// GetSigners returns the signer addresses for MsgSetTakeRate
func (msg *MsgSetTakeRate) GetSigners() []sdk.AccAddress { return mustSigner(msg.Admin) }

// MsgSetAdmin hands the admin role to a new address
type MsgSetAdmin struct {
	Admin    string `json:"admin"`
	NewAdmin string `json:"new_admin"`
}

func (msg *MsgSetAdmin) Reset()         { *msg = MsgSetAdmin{} }
func (msg *MsgSetAdmin) String() string { return msg.NewAdmin }
func (msg *MsgSetAdmin) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetAdmin
func (msg *MsgSetAdmin) XXX_MessageName() string {
	return "feevault.v1.MsgSetAdmin"
}

// ValidateBasic for MsgSetAdmin
func (msg *MsgSetAdmin) ValidateBasic() error {
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	return validateAddress("new_admin", msg.NewAdmin)
}

// GetSigners returns the signer addresses for MsgSetAdmin
func (msg *MsgSetAdmin) GetSigners() []sdk.AccAddress { return mustSigner(msg.Admin) }

// MsgInitializeResponse is the response for MsgInitialize
type MsgInitializeResponse struct{}

func (msg *MsgInitializeResponse) Reset()         { *msg = MsgInitializeResponse{} }
func (msg *MsgInitializeResponse) String() string { return "MsgInitializeResponse" }
func (msg *MsgInitializeResponse) ProtoMessage()  {}

// MsgAddReserveVaultResponse is the response for MsgAddReserveVault
type MsgAddReserveVaultResponse struct {
	BRate string `json:"b_rate"`
}

func (msg *MsgAddReserveVaultResponse) Reset()         { *msg = MsgAddReserveVaultResponse{} }
func (msg *MsgAddReserveVaultResponse) String() string { return msg.BRate }
func (msg *MsgAddReserveVaultResponse) ProtoMessage()  {}

// MsgDepositResponse is the response for MsgDeposit
type MsgDepositResponse struct {
	SharesMinted string `json:"shares_minted"`
}

func (msg *MsgDepositResponse) Reset()         { *msg = MsgDepositResponse{} }
func (msg *MsgDepositResponse) String() string { return msg.SharesMinted }
func (msg *MsgDepositResponse) ProtoMessage()  {}

// MsgWithdrawResponse is the response for MsgWithdraw
type MsgWithdrawResponse struct {
	SharesBurned string `json:"shares_burned"`
}

func (msg *MsgWithdrawResponse) Reset()         { *msg = MsgWithdrawResponse{} }
func (msg *MsgWithdrawResponse) String() string { return msg.SharesBurned }
func (msg *MsgWithdrawResponse) ProtoMessage()  {}

// MsgClaimFeesResponse is the response for MsgClaimFees
type MsgClaimFeesResponse struct {
	ClaimID string `json:"claim_id"`
	Amount  string `json:"amount"`
}

func (msg *MsgClaimFeesResponse) Reset()         { *msg = MsgClaimFeesResponse{} }
func (msg *MsgClaimFeesResponse) String() string { return msg.Amount }
func (msg *MsgClaimFeesResponse) ProtoMessage()  {}

// MsgSetTakeRateResponse is the response for MsgSetTakeRate
type MsgSetTakeRateResponse struct{}

func (msg *MsgSetTakeRateResponse) Reset()         { *msg = MsgSetTakeRateResponse{} }
func (msg *MsgSetTakeRateResponse) String() string { return "MsgSetTakeRateResponse" }
func (msg *MsgSetTakeRateResponse) ProtoMessage()  {}

// MsgSetAdminResponse is the response for MsgSetAdmin
type MsgSetAdminResponse struct{}

func (msg *MsgSetAdminResponse) Reset()         { *msg = MsgSetAdminResponse{} }
func (msg *MsgSetAdminResponse) String() string { return "MsgSetAdminResponse" }
func (msg *MsgSetAdminResponse) ProtoMessage()  {}
