package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// GenesisState is the fee vault's exported state
type GenesisState struct {
	Config    *VaultConfig     `json:"config,omitempty"`
	Reserves  []ReserveVault   `json:"reserves"`
	Positions []UserPosition   `json:"positions"`
	FeeClaims []FeeClaimRecord `json:"fee_claims"`
}

// DefaultGenesis returns an uninitialized vault
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Reserves:  []ReserveVault{},
		Positions: []UserPosition{},
		FeeClaims: []FeeClaimRecord{},
	}
}

// Validate checks that the genesis state is consistent: every position belongs
// to a known reserve, and each reserve's shares are fully owned by its
// positions plus the admin's accrued fee shares.
func (gs *GenesisState) Validate() error {
	if gs.Config == nil {
		if len(gs.Reserves) > 0 {
			return fmt.Errorf("reserves present without vault config")
		}
	} else if err := gs.Config.Validate(); err != nil {
		return err
	}

	owned := make(map[string]math.Int, len(gs.Reserves))
	for i := range gs.Reserves {
		r := &gs.Reserves[i]
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := owned[r.ReserveID]; dup {
			return fmt.Errorf("duplicate reserve %s", r.ReserveID)
		}
		owned[r.ReserveID] = r.AccruedAdminFeeShares
	}

	seen := make(map[string]bool, len(gs.Positions))
	for _, p := range gs.Positions {
		total, ok := owned[p.ReserveID]
		if !ok {
			return fmt.Errorf("position of %s in unknown reserve %s", p.User, p.ReserveID)
		}
		if p.Shares.IsNil() || !p.Shares.IsPositive() {
			return fmt.Errorf("position of %s in reserve %s has no shares", p.User, p.ReserveID)
		}
		key := p.ReserveID + "/" + p.User
		if seen[key] {
			return fmt.Errorf("duplicate position of %s in reserve %s", p.User, p.ReserveID)
		}
		seen[key] = true
		owned[p.ReserveID] = total.Add(p.Shares)
	}

	for _, r := range gs.Reserves {
		if !owned[r.ReserveID].Equal(r.TotalShares) {
			return fmt.Errorf("reserve %s: owned shares %s != total shares %s",
				r.ReserveID, owned[r.ReserveID], r.TotalShares)
		}
	}

	for _, c := range gs.FeeClaims {
		if c.ClaimID == "" {
			return fmt.Errorf("fee claim without id in reserve %s", c.ReserveID)
		}
		if _, ok := owned[c.ReserveID]; !ok {
			return fmt.Errorf("fee claim %s in unknown reserve %s", c.ClaimID, c.ReserveID)
		}
	}
	return nil
}
