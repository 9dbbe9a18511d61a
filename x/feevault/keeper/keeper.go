package keeper

import (
	"encoding/json"
	"sort"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/fee-vault/metrics"
	"github.com/openalpha/fee-vault/x/feevault/types"
)

// Keeper manages the fee vault module state
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	poolKeeper types.PoolKeeper
	logger     log.Logger
	authority  string // may initialize the vault; empty allows any signer
	metrics    *metrics.Collector

	// vault's position owner in the lending pool
	moduleAddr sdk.AccAddress
}

// NewKeeper creates a new fee vault keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	poolKeeper types.PoolKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		poolKeeper: poolKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/feevault"),
		metrics:    metrics.GetCollector(),
		moduleAddr: authtypes.NewModuleAddress(types.ModuleName),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the address allowed to initialize the vault
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// ModuleAddress returns the account that owns the vault's pool position
func (k *Keeper) ModuleAddress() sdk.AccAddress {
	return k.moduleAddr
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Config ============

// SetConfig saves the vault config
func (k *Keeper) SetConfig(ctx sdk.Context, config *types.VaultConfig) {
	bz, _ := json.Marshal(config)
	k.GetStore(ctx).Set(types.ConfigKey, bz)
}

// GetConfig returns the vault config, or nil before initialization
func (k *Keeper) GetConfig(ctx sdk.Context) *types.VaultConfig {
	bz := k.GetStore(ctx).Get(types.ConfigKey)
	if bz == nil {
		return nil
	}
	var config types.VaultConfig
	if err := json.Unmarshal(bz, &config); err != nil {
		return nil
	}
	return &config
}

// IsInitialized reports whether the vault config has been written
func (k *Keeper) IsInitialized(ctx sdk.Context) bool {
	return k.GetStore(ctx).Has(types.ConfigKey)
}

// ============ Reserve Vaults ============

// SetReserveVault saves a reserve vault
func (k *Keeper) SetReserveVault(ctx sdk.Context, vault *types.ReserveVault) {
	bz, _ := json.Marshal(vault)
	k.GetStore(ctx).Set(types.ReserveVaultKey(vault.ReserveID), bz)
}

// GetReserveVault retrieves a reserve vault
func (k *Keeper) GetReserveVault(ctx sdk.Context, reserveID string) *types.ReserveVault {
	bz := k.GetStore(ctx).Get(types.ReserveVaultKey(reserveID))
	if bz == nil {
		return nil
	}
	var vault types.ReserveVault
	if err := json.Unmarshal(bz, &vault); err != nil {
		return nil
	}
	return &vault
}

// GetAllReserveVaults returns every reserve vault ordered by reserve id
func (k *Keeper) GetAllReserveVaults(ctx sdk.Context) []*types.ReserveVault {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.ReserveVaultKeyPrefix)
	defer iterator.Close()

	var vaults []*types.ReserveVault
	for ; iterator.Valid(); iterator.Next() {
		var vault types.ReserveVault
		if err := json.Unmarshal(iterator.Value(), &vault); err != nil {
			continue
		}
		vaults = append(vaults, &vault)
	}
	return vaults
}

// ============ Share Balances ============

// SetShares saves a user's share balance; a zero balance removes the entry
func (k *Keeper) SetShares(ctx sdk.Context, reserveID, user string, shares math.Int) {
	store := k.GetStore(ctx)
	key := types.SharesKey(reserveID, user)
	if shares.IsNil() || !shares.IsPositive() {
		store.Delete(key)
		return
	}
	bz, _ := json.Marshal(types.UserPosition{ReserveID: reserveID, User: user, Shares: shares})
	store.Set(key, bz)
}

// GetShares returns a user's share balance in a reserve
func (k *Keeper) GetShares(ctx sdk.Context, reserveID, user string) math.Int {
	bz := k.GetStore(ctx).Get(types.SharesKey(reserveID, user))
	if bz == nil {
		return math.ZeroInt()
	}
	var position types.UserPosition
	if err := json.Unmarshal(bz, &position); err != nil {
		return math.ZeroInt()
	}
	return position.Shares
}

// GetReservePositions returns every position in a reserve
func (k *Keeper) GetReservePositions(ctx sdk.Context, reserveID string) []types.UserPosition {
	return k.collectPositions(ctx, types.ReserveSharesPrefix(reserveID))
}

// GetAllPositions returns every position in every reserve
func (k *Keeper) GetAllPositions(ctx sdk.Context) []types.UserPosition {
	return k.collectPositions(ctx, types.SharesKeyPrefix)
}

func (k *Keeper) collectPositions(ctx sdk.Context, prefix []byte) []types.UserPosition {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
	defer iterator.Close()

	var positions []types.UserPosition
	for ; iterator.Valid(); iterator.Next() {
		var position types.UserPosition
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		positions = append(positions, position)
	}
	return positions
}

// ============ Fee Claims ============

// SetFeeClaim saves a fee claim record
func (k *Keeper) SetFeeClaim(ctx sdk.Context, claim *types.FeeClaimRecord) {
	bz, _ := json.Marshal(claim)
	k.GetStore(ctx).Set(types.FeeClaimKey(claim.ReserveID, claim.ClaimID), bz)
}

// GetFeeClaims returns the fee claim history of a reserve, oldest first
func (k *Keeper) GetFeeClaims(ctx sdk.Context, reserveID string) []*types.FeeClaimRecord {
	return k.collectFeeClaims(ctx, types.ReserveFeeClaimsPrefix(reserveID))
}

// GetAllFeeClaims returns the fee claim history of every reserve
func (k *Keeper) GetAllFeeClaims(ctx sdk.Context) []*types.FeeClaimRecord {
	return k.collectFeeClaims(ctx, types.FeeClaimKeyPrefix)
}

func (k *Keeper) collectFeeClaims(ctx sdk.Context, prefix []byte) []*types.FeeClaimRecord {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
	defer iterator.Close()

	var claims []*types.FeeClaimRecord
	for ; iterator.Valid(); iterator.Next() {
		var claim types.FeeClaimRecord
		if err := json.Unmarshal(iterator.Value(), &claim); err != nil {
			continue
		}
		claims = append(claims, &claim)
	}
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].BlockHeight < claims[j].BlockHeight
	})
	return claims
}
