package types

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BRateScalar is a b_rate of 1.0 (12 decimals)
var BRateScalar = math.NewInt(1_000_000_000_000)

// Reserve is one asset's market in a pool. BRate is the underlying value of
// one b-token.
type Reserve struct {
	PoolID         string   `json:"pool_id"`
	Asset          string   `json:"asset"`
	BRate          math.Int `json:"b_rate"`
	TotalBTokens   math.Int `json:"total_b_tokens"`
	TotalSupplied  math.Int `json:"total_supplied"`
	TotalWithdrawn math.Int `json:"total_withdrawn"`
	UpdatedAt      int64    `json:"updated_at"`
}

// NewReserve creates an empty reserve
func NewReserve(poolID, asset string, bRate math.Int) *Reserve {
	return &Reserve{
		PoolID:         poolID,
		Asset:          asset,
		BRate:          bRate,
		TotalBTokens:   math.ZeroInt(),
		TotalSupplied:  math.ZeroInt(),
		TotalWithdrawn: math.ZeroInt(),
	}
}

// Validate checks the reserve fields
func (r *Reserve) Validate() error {
	if r.PoolID == "" {
		return fmt.Errorf("reserve without pool id")
	}
	if err := sdk.ValidateDenom(r.Asset); err != nil {
		return fmt.Errorf("reserve %s/%s: %w", r.PoolID, r.Asset, err)
	}
	if r.BRate.IsNil() || !r.BRate.IsPositive() {
		return ErrInvalidBRate
	}
	if r.TotalBTokens.IsNil() || r.TotalBTokens.IsNegative() {
		return fmt.Errorf("reserve %s/%s: negative b-token supply", r.PoolID, r.Asset)
	}
	return nil
}

// ToBTokensDown converts underlying to b-tokens, rounding down
func (r *Reserve) ToBTokensDown(amount math.Int) math.Int {
	return amount.Mul(BRateScalar).Quo(r.BRate)
}

// ToBTokensUp converts underlying to b-tokens, rounding up
func (r *Reserve) ToBTokensUp(amount math.Int) math.Int {
	product := amount.Mul(BRateScalar)
	bTokens := product.Quo(r.BRate)
	if !product.Mod(r.BRate).IsZero() {
		bTokens = bTokens.AddRaw(1)
	}
	return bTokens
}

// ToUnderlying converts b-tokens to underlying, rounding down
func (r *Reserve) ToUnderlying(bTokens math.Int) math.Int {
	return bTokens.Mul(r.BRate).Quo(BRateScalar)
}

// Position is an owner's b-token balance in a reserve
type Position struct {
	PoolID  string   `json:"pool_id"`
	Asset   string   `json:"asset"`
	Owner   string   `json:"owner"`
	BTokens math.Int `json:"b_tokens"`
}

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// GenesisState is the pool's exported state
type GenesisState struct {
	Reserves  []Reserve  `json:"reserves"`
	Positions []Position `json:"positions"`
}

// DefaultGenesis returns a pool without reserves
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Reserves:  []Reserve{},
		Positions: []Position{},
	}
}

// Validate checks that positions belong to known reserves and add up to
// each reserve's b-token supply.
func (gs *GenesisState) Validate() error {
	supply := make(map[string]math.Int, len(gs.Reserves))
	for i := range gs.Reserves {
		r := &gs.Reserves[i]
		if err := r.Validate(); err != nil {
			return err
		}
		key := r.PoolID + "/" + r.Asset
		if _, dup := supply[key]; dup {
			return fmt.Errorf("duplicate reserve %s", key)
		}
		supply[key] = math.ZeroInt()
	}
	for _, p := range gs.Positions {
		key := p.PoolID + "/" + p.Asset
		total, ok := supply[key]
		if !ok {
			return fmt.Errorf("position of %s in unknown reserve %s", p.Owner, key)
		}
		if p.BTokens.IsNil() || p.BTokens.IsNegative() {
			return fmt.Errorf("position of %s in %s is negative", p.Owner, key)
		}
		supply[key] = total.Add(p.BTokens)
	}
	for _, r := range gs.Reserves {
		key := r.PoolID + "/" + r.Asset
		if !supply[key].Equal(r.TotalBTokens) {
			return fmt.Errorf("reserve %s: positions hold %s of %s b-tokens", key, supply[key], r.TotalBTokens)
		}
	}
	return nil
}
