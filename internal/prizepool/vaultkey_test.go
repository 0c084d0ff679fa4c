package prizepool

import (
	"errors"
	"testing"
)

const testAddr = "0x29cb69d4780b53c1e5cd4d2b817142d2e9890715"

func TestParseVaultKey_Valid(t *testing.T) {
	k, err := ParseVaultKey("10:" + testAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.ChainID != 10 {
		t.Errorf("expected chain_id=10, got %d", k.ChainID)
	}
	if k.Address != testAddr {
		t.Errorf("expected address=%s, got %s", testAddr, k.Address)
	}
	if k.String() != "10:"+testAddr {
		t.Errorf("unexpected canonical form %s", k.String())
	}
}

func TestParseVaultKey_NormalizesCase(t *testing.T) {
	k, err := ParseVaultKey("8453:0x29CB69D4780B53C1E5CD4D2B817142D2E9890715")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Address != testAddr {
		t.Errorf("expected lowercased address, got %s", k.Address)
	}
}

func TestParseVaultKey_InvalidFormat(t *testing.T) {
	tests := []string{
		"",
		"INVALID",
		"10",
		"10:",
		":" + testAddr,
		"10-" + testAddr,                          // wrong separator
		"10:29cb69d4780b53c1e5cd4d2b817142d2e9890715", // missing 0x
		"10:0x29cb69d4780b53c1e5cd4d2b817142d2e989071",  // 39 hex chars
		"10:0xZZcb69d4780b53c1e5cd4d2b817142d2e9890715", // non-hex
		"abc:" + testAddr,
		"99999999999999999999999:" + testAddr, // overflows uint64
	}
	for _, key := range tests {
		_, err := ParseVaultKey(key)
		if !errors.Is(err, ErrInvalidVaultKey) {
			t.Errorf("expected ErrInvalidVaultKey for %q, got %v", key, err)
		}
	}
}

func TestParseVaultKey_ZeroChain(t *testing.T) {
	_, err := ParseVaultKey("0:" + testAddr)
	if !errors.Is(err, ErrInvalidChainID) {
		t.Errorf("expected ErrInvalidChainID, got %v", err)
	}
}

func TestNewVaultKey(t *testing.T) {
	k, err := NewVaultKey(1, testAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.String() != "1:"+testAddr {
		t.Errorf("unexpected key %s", k)
	}

	if _, err := NewVaultKey(1, "nope"); err == nil {
		t.Error("expected error for bad address")
	}
}
