package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrAlreadyInitialized  = errors.Register(ModuleName, 2, "fee vault already initialized")
	ErrNotInitialized      = errors.Register(ModuleName, 3, "fee vault not initialized")
	ErrInvalidTakeRate     = errors.Register(ModuleName, 4, "take rate must be within [0, 1_000_0000]")
	ErrReserveNotFound     = errors.Register(ModuleName, 5, "reserve vault not found")
	ErrReserveAlreadyAdded = errors.Register(ModuleName, 6, "reserve vault already added")
	ErrInvalidAmount       = errors.Register(ModuleName, 7, "invalid amount")
	ErrInsufficientAmount  = errors.Register(ModuleName, 8, "insufficient amount")
	ErrInsufficientShares  = errors.Register(ModuleName, 9, "insufficient shares")
	ErrUnauthorized        = errors.Register(ModuleName, 10, "unauthorized")
	ErrPoolCallFailed      = errors.Register(ModuleName, 11, "pool call failed")
	ErrInvalidAddress      = errors.Register(ModuleName, 12, "invalid address")
	ErrInvalidBRate        = errors.Register(ModuleName, 13, "invalid b_rate")
)
