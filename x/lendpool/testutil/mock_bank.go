package testutil

import (
	"context"

	"cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

var _ types.BankKeeper = (*MockBank)(nil)

// MockBank keeps account and module balances in memory
type MockBank struct {
	accounts map[string]sdk.Coins
	modules  map[string]sdk.Coins
}

// NewMockBank creates an empty bank
func NewMockBank() *MockBank {
	return &MockBank{
		accounts: make(map[string]sdk.Coins),
		modules:  make(map[string]sdk.Coins),
	}
}

// Fund mints coins into an account
func (b *MockBank) Fund(addr sdk.AccAddress, coins ...sdk.Coin) {
	b.accounts[addr.String()] = b.accounts[addr.String()].Add(coins...)
}

// FundModule credits coins to a module account, standing in for interest
// paid by borrowers.
func (b *MockBank) FundModule(module string, coins ...sdk.Coin) {
	b.modules[module] = b.modules[module].Add(coins...)
}

// Balance returns an account's balance of denom
func (b *MockBank) Balance(addr sdk.AccAddress, denom string) int64 {
	return b.accounts[addr.String()].AmountOf(denom).Int64()
}

// ModuleBalance returns a module account's balance of denom
func (b *MockBank) ModuleBalance(module, denom string) int64 {
	return b.modules[module].AmountOf(denom).Int64()
}

func (b *MockBank) SendCoinsFromAccountToModule(_ context.Context, sender sdk.AccAddress, module string, amt sdk.Coins) error {
	balance, negative := b.accounts[sender.String()].SafeSub(amt...)
	if negative {
		return errors.Wrapf(sdkerrors.ErrInsufficientFunds, "%s has %s", sender, b.accounts[sender.String()])
	}
	b.accounts[sender.String()] = balance
	b.modules[module] = b.modules[module].Add(amt...)
	return nil
}

func (b *MockBank) SendCoinsFromModuleToAccount(_ context.Context, module string, recipient sdk.AccAddress, amt sdk.Coins) error {
	balance, negative := b.modules[module].SafeSub(amt...)
	if negative {
		return errors.Wrapf(sdkerrors.ErrInsufficientFunds, "module %s has %s", module, b.modules[module])
	}
	b.modules[module] = balance
	b.accounts[recipient.String()] = b.accounts[recipient.String()].Add(amt...)
	return nil
}
