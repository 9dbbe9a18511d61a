package types

const (
	EventTypeCreateReserve = "lendpool_create_reserve"
	EventTypeSetBRate      = "lendpool_set_b_rate"
	EventTypeSupply        = "lendpool_supply"
	EventTypeWithdraw      = "lendpool_withdraw"

	AttributeKeyPoolID    = "pool_id"
	AttributeKeyAsset     = "asset"
	AttributeKeyOwner     = "owner"
	AttributeKeyAccount   = "account"
	AttributeKeyAmount    = "amount"
	AttributeKeyBTokens   = "b_tokens"
	AttributeKeyBRate     = "b_rate"
	AttributeKeyPrevBRate = "previous_b_rate"
)
