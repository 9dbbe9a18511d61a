// Package testutil provides in-memory chain state for keeper tests
package testutil

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GenesisTime is the block time of contexts built by NewContext
var GenesisTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// NewContext mounts keys on a fresh in-memory multistore and returns a
// context at height 1.
func NewContext(tb testing.TB, keys ...storetypes.StoreKey) sdk.Context {
	tb.Helper()

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	for _, key := range keys {
		stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	header := cmtproto.Header{Height: 1, Time: GenesisTime}
	return sdk.NewContext(stateStore, header, false, log.NewNopLogger())
}

// NewCodec returns a proto codec over an empty interface registry
func NewCodec() codec.Codec {
	return codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
}

// NextBlock advances ctx by one block and a fixed interval
func NextBlock(ctx sdk.Context) sdk.Context {
	return ctx.WithBlockHeight(ctx.BlockHeight() + 1).WithBlockTime(ctx.BlockTime().Add(5 * time.Second))
}
