package types

import (
	"cosmossdk.io/errors"
)

var (
	ErrReserveNotFound     = errors.Register(ModuleName, 2, "reserve not found")
	ErrReserveExists       = errors.Register(ModuleName, 3, "reserve already exists")
	ErrInvalidBRate        = errors.Register(ModuleName, 4, "b_rate must be positive")
	ErrInvalidAmount       = errors.Register(ModuleName, 5, "invalid amount")
	ErrInsufficientBTokens = errors.Register(ModuleName, 6, "insufficient b-tokens")
	ErrUnauthorized        = errors.Register(ModuleName, 7, "unauthorized")
)
