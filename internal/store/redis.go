package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prizeodds/odds-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
//
// LoadSnapshot is never served from cache: mixing cached and fresh
// records would break snapshot coherence.
type CachedStore struct {
	primary Store
	rdb     redis.Cmdable
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb redis.Cmdable, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) UpsertPrizePool(ctx context.Context, p *model.PrizePool) error {
	if err := s.primary.UpsertPrizePool(ctx, p); err != nil {
		return err
	}
	s.rdb.Del(ctx, prizePoolKey(p.ID))
	return nil
}

func (s *CachedStore) UpsertVault(ctx context.Context, v *model.Vault) error {
	// The vault may move between prize pools; drop the old listing too.
	if old, err := s.primary.GetVault(ctx, v.ID); err == nil && old.PrizePoolID != v.PrizePoolID {
		s.rdb.Del(ctx, poolVaultsKey(old.PrizePoolID))
	}
	if err := s.primary.UpsertVault(ctx, v); err != nil {
		return err
	}
	s.rdb.Del(ctx, vaultKey(v.ID), poolVaultsKey(v.PrizePoolID))
	return nil
}

func (s *CachedStore) UpsertUserBalance(ctx context.Context, b *model.UserBalance) error {
	if err := s.primary.UpsertUserBalance(ctx, b); err != nil {
		return err
	}
	s.rdb.Del(ctx, balancesKey(b.UserAddress))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetPrizePool(ctx context.Context, id string) (*model.PrizePool, error) {
	var p model.PrizePool
	if s.cached(ctx, prizePoolKey(id), &p) {
		return &p, nil
	}

	pool, err := s.primary.GetPrizePool(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, prizePoolKey(id), pool)
	return pool, nil
}

func (s *CachedStore) GetVault(ctx context.Context, id string) (*model.Vault, error) {
	var v model.Vault
	if s.cached(ctx, vaultKey(id), &v) {
		return &v, nil
	}

	vault, err := s.primary.GetVault(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, vaultKey(id), vault)
	return vault, nil
}

func (s *CachedStore) ListVaultsByPrizePool(ctx context.Context, prizePoolID string) ([]model.Vault, error) {
	var vaults []model.Vault
	if s.cached(ctx, poolVaultsKey(prizePoolID), &vaults) {
		return vaults, nil
	}

	vaults, err := s.primary.ListVaultsByPrizePool(ctx, prizePoolID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, poolVaultsKey(prizePoolID), vaults)
	return vaults, nil
}

func (s *CachedStore) GetUserBalances(ctx context.Context, user string) ([]model.UserBalance, error) {
	var balances []model.UserBalance
	if s.cached(ctx, balancesKey(user), &balances) {
		return balances, nil
	}

	balances, err := s.primary.GetUserBalances(ctx, user)
	if err != nil {
		return nil, err
	}
	s.store(ctx, balancesKey(user), balances)
	return balances, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListPrizePools(ctx context.Context) ([]model.PrizePool, error) {
	return s.primary.ListPrizePools(ctx)
}

func (s *CachedStore) LoadSnapshot(ctx context.Context, user string) (*model.Snapshot, error) {
	return s.primary.LoadSnapshot(ctx, user)
}

// --- Cache helpers ---

// cached decodes key into dst and reports whether it was a usable hit.
func (s *CachedStore) cached(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) store(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func prizePoolKey(id string) string  { return fmt.Sprintf("prizepool:%s", id) }
func vaultKey(id string) string      { return fmt.Sprintf("vault:%s", id) }
func poolVaultsKey(id string) string { return fmt.Sprintf("prizepool:%s:vaults", id) }
func balancesKey(user string) string { return fmt.Sprintf("balances:%s", strings.ToLower(user)) }
