package app

import (
	"github.com/spf13/cast"

	servertypes "github.com/cosmos/cosmos-sdk/server/types"

	"github.com/openalpha/fee-vault/api"
)

// VaultConfig is the [feevault] section of app.toml
type VaultConfig struct {
	// PoolAuthority may create lending pool reserves and move their b_rate.
	// Empty means the gov module account.
	PoolAuthority string `mapstructure:"pool-authority"`

	// InvariantCheckPeriod runs the share accounting invariant every N
	// blocks; 0 disables it.
	InvariantCheckPeriod int64 `mapstructure:"invariant-check-period"`

	APIEnable        bool    `mapstructure:"api-enable"`
	EventBufferSize  int     `mapstructure:"event-buffer-size"`
	RateLimit        float64 `mapstructure:"rate-limit"`
	RateLimitBurst   int     `mapstructure:"rate-limit-burst"`
	EnableMetrics    bool    `mapstructure:"enable-metrics"`
	EnableWebsockets bool    `mapstructure:"enable-websockets"`
}

// DefaultVaultConfig returns the defaults written by init
func DefaultVaultConfig() VaultConfig {
	apiConfig := api.DefaultConfig()
	return VaultConfig{
		InvariantCheckPeriod: 100,
		APIEnable:            apiConfig.Enabled,
		EventBufferSize:      apiConfig.EventBufferSize,
		RateLimit:            apiConfig.RateLimit,
		RateLimitBurst:       apiConfig.RateLimitBurst,
		EnableMetrics:        apiConfig.EnableMetrics,
		EnableWebsockets:     apiConfig.EnableWebsockets,
	}
}

// VaultConfigTemplate is appended to the server's app.toml template
const VaultConfigTemplate = `
###############################################################################
###                           Fee Vault Configuration                       ###
###############################################################################

[feevault]

# Address allowed to create lending pool reserves and set their b_rate.
# Empty means the gov module account.
pool-authority = "{{ .FeeVault.PoolAuthority }}"

# Check the share accounting invariant every N blocks (0 disables).
invariant-check-period = {{ .FeeVault.InvariantCheckPeriod }}

# Serve the vault routes under /feevault/v1 on the API server.
api-enable = {{ .FeeVault.APIEnable }}

# Number of recent vault events kept for /feevault/v1/events.
event-buffer-size = {{ .FeeVault.EventBufferSize }}

# Per-IP request limit (requests per second) and burst for the vault routes.
rate-limit = {{ .FeeVault.RateLimit }}
rate-limit-burst = {{ .FeeVault.RateLimitBurst }}

enable-metrics = {{ .FeeVault.EnableMetrics }}
enable-websockets = {{ .FeeVault.EnableWebsockets }}
`

// ReadVaultConfig reads the [feevault] section, falling back to defaults for
// unset keys.
func ReadVaultConfig(appOpts servertypes.AppOptions) VaultConfig {
	cfg := DefaultVaultConfig()
	if appOpts == nil {
		return cfg
	}
	if v := appOpts.Get("feevault.pool-authority"); v != nil {
		cfg.PoolAuthority = cast.ToString(v)
	}
	if v := appOpts.Get("feevault.invariant-check-period"); v != nil {
		cfg.InvariantCheckPeriod = cast.ToInt64(v)
	}
	if v := appOpts.Get("feevault.api-enable"); v != nil {
		cfg.APIEnable = cast.ToBool(v)
	}
	if v := appOpts.Get("feevault.event-buffer-size"); v != nil {
		cfg.EventBufferSize = cast.ToInt(v)
	}
	if v := appOpts.Get("feevault.rate-limit"); v != nil {
		cfg.RateLimit = cast.ToFloat64(v)
	}
	if v := appOpts.Get("feevault.rate-limit-burst"); v != nil {
		cfg.RateLimitBurst = cast.ToInt(v)
	}
	if v := appOpts.Get("feevault.enable-metrics"); v != nil {
		cfg.EnableMetrics = cast.ToBool(v)
	}
	if v := appOpts.Get("feevault.enable-websockets"); v != nil {
		cfg.EnableWebsockets = cast.ToBool(v)
	}
	return cfg
}

// APIConfig converts the section into the vault API's config
func (c VaultConfig) APIConfig() api.Config {
	return api.Config{
		Enabled:          c.APIEnable,
		EventBufferSize:  c.EventBufferSize,
		RateLimit:        c.RateLimit,
		RateLimitBurst:   c.RateLimitBurst,
		EnableMetrics:    c.EnableMetrics,
		EnableWebsockets: c.EnableWebsockets,
	}
}
