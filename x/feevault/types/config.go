package types

import (
	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// VaultConfig is the process-wide fee vault configuration. It is written once by
// Initialize; the admin and take rate can later be changed by the admin.
type VaultConfig struct {
	Admin    string   `json:"admin"`
	Pool     string   `json:"pool"`
	TakeRate math.Int `json:"take_rate"` // 7 decimals, 10_000_000 = 100%
}

// NewVaultConfig creates a new vault config
func NewVaultConfig(admin, pool string, takeRate math.Int) *VaultConfig {
	return &VaultConfig{
		Admin:    admin,
		Pool:     pool,
		TakeRate: takeRate,
	}
}

// Validate checks the config fields
func (c *VaultConfig) Validate() error {
	if _, err := sdk.AccAddressFromBech32(c.Admin); err != nil {
		return errors.Wrapf(ErrInvalidAddress, "admin %q: %s", c.Admin, err)
	}
	if c.Pool == "" {
		return errors.Wrap(ErrInvalidAddress, "pool must be set")
	}
	return ValidateTakeRate(c.TakeRate)
}

// IsAdmin reports whether addr is the configured admin
func (c *VaultConfig) IsAdmin(addr string) bool {
	return addr != "" && addr == c.Admin
}

// ValidateTakeRate checks that rate is within [0, 100%]
func ValidateTakeRate(rate math.Int) error {
	if rate.IsNil() || rate.IsNegative() || rate.GT(TakeRateScalar) {
		return errors.Wrapf(ErrInvalidTakeRate, "got %s", rate)
	}
	return nil
}
