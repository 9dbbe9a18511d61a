package types

import (
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	ModuleName = "lendpool"
	StoreKey   = ModuleName
)

var (
	ReserveKeyPrefix  = []byte{0x01}
	PositionKeyPrefix = []byte{0x02}
)

func reserveSuffix(poolID, asset string) []byte {
	bz := address.MustLengthPrefix([]byte(poolID))
	return append(bz, address.MustLengthPrefix([]byte(asset))...)
}

// ReserveKey returns the store key of a pool reserve
func ReserveKey(poolID, asset string) []byte {
	return append(append([]byte{}, ReserveKeyPrefix...), reserveSuffix(poolID, asset)...)
}

// PositionKey returns the store key of an owner's b-token balance
func PositionKey(poolID, asset string, owner []byte) []byte {
	key := append(append([]byte{}, PositionKeyPrefix...), reserveSuffix(poolID, asset)...)
	return append(key, owner...)
}
