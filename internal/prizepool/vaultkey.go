// Package prizepool handles vault key parsing and derivation of a prize
// pool's expected prize count from its tier configuration.
package prizepool

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// vaultKeyRegex matches: {chainID}:{0x-prefixed 20-byte address}
// Example: 10:0x29cb69d4780b53c1e5cd4d2b817142d2e9890715
var vaultKeyRegex = regexp.MustCompile(`^([0-9]+):(0x[0-9a-fA-F]{40})$`)

var (
	ErrInvalidVaultKey = errors.New("prizepool: invalid vault key format")
	ErrInvalidChainID  = errors.New("prizepool: chain id must be positive")
)

// VaultKey identifies a vault across chains.
type VaultKey struct {
	ChainID uint64 `json:"chain_id"`
	Address string `json:"address"`
}

// String returns the canonical {chainID}:{address} form, address lowercased.
func (k VaultKey) String() string {
	return fmt.Sprintf("%d:%s", k.ChainID, k.Address)
}

// ParseVaultKey parses and validates a vault key.
// Format: {chainID}:{0xaddress}
func ParseVaultKey(key string) (VaultKey, error) {
	matches := vaultKeyRegex.FindStringSubmatch(strings.TrimSpace(key))
	if matches == nil {
		return VaultKey{}, fmt.Errorf("%w: %q (expected {chainID}:{0xaddress})",
			ErrInvalidVaultKey, key)
	}

	chainID, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return VaultKey{}, fmt.Errorf("%w: %s", ErrInvalidVaultKey, matches[1])
	}
	if chainID == 0 {
		return VaultKey{}, ErrInvalidChainID
	}

	return VaultKey{
		ChainID: chainID,
		Address: strings.ToLower(matches[2]),
	}, nil
}

// NewVaultKey builds a key from its parts, validating both.
func NewVaultKey(chainID uint64, address string) (VaultKey, error) {
	return ParseVaultKey(fmt.Sprintf("%d:%s", chainID, address))
}
