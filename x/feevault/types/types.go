package types

import (
	"cosmossdk.io/math"
)

// ReserveVault is the fee vault's accounting record for one underlying asset.
// Depositors and the admin hold shares of TotalBTokens, the b-tokens the vault
// owns in the lending pool for that asset.
type ReserveVault struct {
	ReserveID string `json:"reserve_id"`

	TotalBTokens          math.Int `json:"total_b_tokens"`
	TotalShares           math.Int `json:"total_shares"`
	LastBRate             math.Int `json:"last_b_rate"`
	AccruedAdminFeeShares math.Int `json:"accrued_admin_fee_shares"`
}

// NewReserveVault creates an empty reserve vault observing bRate
func NewReserveVault(reserveID string, bRate math.Int) *ReserveVault {
	return &ReserveVault{
		ReserveID:             reserveID,
		TotalBTokens:          math.ZeroInt(),
		TotalShares:           math.ZeroInt(),
		LastBRate:             bRate,
		AccruedAdminFeeShares: math.ZeroInt(),
	}
}

// UserPosition is a depositor's share balance in one reserve vault
type UserPosition struct {
	ReserveID string   `json:"reserve_id"`
	User      string   `json:"user"`
	Shares    math.Int `json:"shares"`
}

// FeeClaimRecord tracks an admin fee claim
type FeeClaimRecord struct {
	ClaimID     string   `json:"claim_id"`
	ReserveID   string   `json:"reserve_id"`
	Recipient   string   `json:"recipient"`
	Shares      math.Int `json:"shares"`
	BTokens     math.Int `json:"b_tokens"`
	Amount      math.Int `json:"amount"`
	BRate       math.Int `json:"b_rate"`
	BlockHeight int64    `json:"block_height"`
	Timestamp   int64    `json:"timestamp"`
}

// AccrualResult describes a single fee accrual
type AccrualResult struct {
	PreviousBRate   math.Int
	BRate           math.Int
	InterestBTokens math.Int
	FeeBTokens      math.Int
	FeeShares       math.Int
	// Regressed is set when the observed rate was below the last observed rate
	Regressed bool
}

// WithdrawResult describes the effect of burning shares on a reserve vault
type WithdrawResult struct {
	BTokens         math.Int
	SharesBurned    math.Int
	DustShares      math.Int
	RemainingShares math.Int
	// DustToAdmin is set when cleared dust was credited to the admin instead of burned
	DustToAdmin bool
}

// SharesRemoved returns every share taken from the user's position
func (r WithdrawResult) SharesRemoved() math.Int {
	return r.SharesBurned.Add(r.DustShares)
}

// PositionView is a depositor's position valued at the vault's last observed b_rate
type PositionView struct {
	ReserveID  string `json:"reserve_id"`
	User       string `json:"user"`
	Shares     string `json:"shares"`
	BTokens    string `json:"b_tokens"`
	Underlying string `json:"underlying"`
	LastBRate  string `json:"last_b_rate"`
}

// NewPositionView values shares of vault for user
func NewPositionView(vault *ReserveVault, user string, shares math.Int) PositionView {
	return PositionView{
		ReserveID:  vault.ReserveID,
		User:       user,
		Shares:     shares.String(),
		BTokens:    vault.SharesToBTokens(shares).String(),
		Underlying: vault.UnderlyingValue(shares, vault.LastBRate).String(),
		LastBRate:  vault.LastBRate.String(),
	}
}
