// Package store defines the persistence interface for odds inputs.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
//
// Only resolved inputs are stored. Odds are always recomputed from a
// snapshot and never persisted.
package store

import (
	"context"
	"errors"

	"github.com/prizeodds/odds-engine/internal/model"
)

var (
	// ErrNotFound is returned when a prize pool or vault does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidReference is returned when a vault names an unknown
	// prize pool, or a balance names an unknown vault.
	ErrInvalidReference = errors.New("store: reference to unknown record")

	// ErrCorruptValue is returned when a stored amount cannot be parsed.
	ErrCorruptValue = errors.New("store: corrupt stored value")
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Prize pools ---

	// UpsertPrizePool inserts or replaces a prize pool's tier data.
	UpsertPrizePool(ctx context.Context, pool *model.PrizePool) error

	// GetPrizePool retrieves a prize pool by ID.
	GetPrizePool(ctx context.Context, id string) (*model.PrizePool, error)

	// ListPrizePools returns all prize pools ordered by ID.
	ListPrizePools(ctx context.Context) ([]model.PrizePool, error)

	// --- Vaults ---

	// UpsertVault inserts or replaces a vault's supply and contribution.
	UpsertVault(ctx context.Context, vault *model.Vault) error

	// GetVault retrieves a vault by its {chainID}:{address} ID.
	GetVault(ctx context.Context, id string) (*model.Vault, error)

	// ListVaultsByPrizePool returns the vaults contributing to a prize pool.
	ListVaultsByPrizePool(ctx context.Context, prizePoolID string) ([]model.Vault, error)

	// --- User balances ---

	// UpsertUserBalance inserts or replaces a user's shares in a vault.
	UpsertUserBalance(ctx context.Context, balance *model.UserBalance) error

	// GetUserBalances returns every vault position of a user.
	GetUserBalances(ctx context.Context, user string) ([]model.UserBalance, error)

	// --- Snapshots ---

	// LoadSnapshot returns all prize pools, all vaults and the user's
	// balances from one consistent read.
	LoadSnapshot(ctx context.Context, user string) (*model.Snapshot, error)
}
