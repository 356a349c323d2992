// internal/utils/address.go
package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateAddress derives a fresh registry identity from a new secp256k1
// key. The key itself is discarded: participants act through authenticated
// API calls, not signatures, so only the address matters.
func GenerateAddress() (common.Address, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to generate identity key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// ParseAddress validates and decodes a hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ParseOptionalAddress decodes a hex address, treating the empty string as
// the zero address.
func ParseOptionalAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	return ParseAddress(s)
}

// NormalizeAddress returns the canonical lowercase hex form used for
// database keys.
func NormalizeAddress(a common.Address) string {
	return strings.ToLower(a.Hex())
}
