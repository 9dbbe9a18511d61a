package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

// Keeper manages the lending pool reserves and b-token balances
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper types.BankKeeper
	logger     log.Logger
	authority  string // creates reserves and sets b_rates
}

// NewKeeper creates a new lending pool keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/lendpool"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the rate authority
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// SetReserve saves a reserve
func (k *Keeper) SetReserve(ctx sdk.Context, reserve *types.Reserve) {
	bz, _ := json.Marshal(reserve)
	k.GetStore(ctx).Set(types.ReserveKey(reserve.PoolID, reserve.Asset), bz)
}

// GetReserve retrieves a reserve
func (k *Keeper) GetReserve(ctx sdk.Context, poolID, asset string) *types.Reserve {
	bz := k.GetStore(ctx).Get(types.ReserveKey(poolID, asset))
	if bz == nil {
		return nil
	}
	var reserve types.Reserve
	if err := json.Unmarshal(bz, &reserve); err != nil {
		return nil
	}
	return &reserve
}

// GetAllReserves returns every reserve
func (k *Keeper) GetAllReserves(ctx sdk.Context) []*types.Reserve {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.ReserveKeyPrefix)
	defer iterator.Close()

	var reserves []*types.Reserve
	for ; iterator.Valid(); iterator.Next() {
		var reserve types.Reserve
		if err := json.Unmarshal(iterator.Value(), &reserve); err != nil {
			continue
		}
		reserves = append(reserves, &reserve)
	}
	return reserves
}

// SetPosition saves an owner's b-token balance; zero removes it
func (k *Keeper) SetPosition(ctx sdk.Context, position types.Position) {
	owner, err := sdk.AccAddressFromBech32(position.Owner)
	if err != nil {
		return
	}
	store := k.GetStore(ctx)
	key := types.PositionKey(position.PoolID, position.Asset, owner)
	if position.BTokens.IsNil() || !position.BTokens.IsPositive() {
		store.Delete(key)
		return
	}
	bz, _ := json.Marshal(position)
	store.Set(key, bz)
}

// Position returns the b-tokens owner holds in a reserve
func (k *Keeper) Position(ctx sdk.Context, poolID, asset string, owner sdk.AccAddress) math.Int {
	bz := k.GetStore(ctx).Get(types.PositionKey(poolID, asset, owner))
	if bz == nil {
		return math.ZeroInt()
	}
	var position types.Position
	if err := json.Unmarshal(bz, &position); err != nil {
		return math.ZeroInt()
	}
	return position.BTokens
}

// GetAllPositions returns every b-token balance
func (k *Keeper) GetAllPositions(ctx sdk.Context) []types.Position {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.PositionKeyPrefix)
	defer iterator.Close()

	var positions []types.Position
	for ; iterator.Valid(); iterator.Next() {
		var position types.Position
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		positions = append(positions, position)
	}
	return positions
}
