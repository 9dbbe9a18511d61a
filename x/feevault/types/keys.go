package types

import (
	"github.com/cosmos/cosmos-sdk/types/address"
)

// Module name and store key
const (
	ModuleName = "feevault"
	StoreKey   = ModuleName
)

// Store key prefixes
var (
	ConfigKey             = []byte{0x01}
	ReserveVaultKeyPrefix = []byte{0x02}
	SharesKeyPrefix       = []byte{0x03}
	FeeClaimKeyPrefix     = []byte{0x04}
)

// ReserveVaultKey returns the store key of a reserve vault
func ReserveVaultKey(reserveID string) []byte {
	return append(append([]byte{}, ReserveVaultKeyPrefix...), []byte(reserveID)...)
}

// ReserveSharesPrefix returns the prefix under which every share balance of a
// reserve is stored.
func ReserveSharesPrefix(reserveID string) []byte {
	return append(append([]byte{}, SharesKeyPrefix...), address.MustLengthPrefix([]byte(reserveID))...)
}

// SharesKey returns the store key of a user's share balance in a reserve
func SharesKey(reserveID, user string) []byte {
	return append(ReserveSharesPrefix(reserveID), []byte(user)...)
}

// ReserveFeeClaimsPrefix returns the prefix of the fee claim history of a reserve
func ReserveFeeClaimsPrefix(reserveID string) []byte {
	return append(append([]byte{}, FeeClaimKeyPrefix...), address.MustLengthPrefix([]byte(reserveID))...)
}

// FeeClaimKey returns the store key of a fee claim record
func FeeClaimKey(reserveID, claimID string) []byte {
	return append(ReserveFeeClaimsPrefix(reserveID), []byte(claimID)...)
}
