package types

// Fee vault event types
const (
	EventTypeInitialize      = "vault_initialize"
	EventTypeAddReserveVault = "new_reserve_vault"
	EventTypeDeposit         = "vault_deposit"
	EventTypeWithdraw        = "vault_withdraw"
	EventTypeFeesAccrued     = "vault_fee_accrual"
	EventTypeRateRegression  = "vault_rate_regression"
	EventTypeDustCleared     = "vault_dust_cleared"
	EventTypeClaimFees       = "vault_fee_claim"
	EventTypeSetTakeRate     = "set_take_rate"
	EventTypeSetAdmin        = "set_admin"
)

// Event attribute keys
const (
	AttributeKeyAdmin       = "admin"
	AttributeKeyNewAdmin    = "new_admin"
	AttributeKeyPool        = "pool"
	AttributeKeyReserveID   = "reserve_id"
	AttributeKeyUser        = "user"
	AttributeKeyRecipient   = "recipient"
	AttributeKeyAmount      = "amount"
	AttributeKeyBTokens     = "b_tokens"
	AttributeKeyShares      = "shares"
	AttributeKeyBRate       = "b_rate"
	AttributeKeyLastBRate   = "last_b_rate"
	AttributeKeyTakeRate    = "take_rate"
	AttributeKeyOldTakeRate = "old_take_rate"
	AttributeKeyFeeShares   = "fee_shares"
	AttributeKeyFeeBTokens  = "fee_b_tokens"
	AttributeKeyDustToAdmin = "dust_to_admin"
	AttributeKeyClaimID     = "claim_id"
)
