package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prizeodds/odds-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	pools    map[string]*model.PrizePool
	vaults   map[string]*model.Vault
	balances map[string]map[string]model.UserBalance // user → vault → balance
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:    make(map[string]*model.PrizePool),
		vaults:   make(map[string]*model.Vault),
		balances: make(map[string]map[string]model.UserBalance),
	}
}

func (s *MemoryStore) UpsertPrizePool(_ context.Context, p *model.PrizePool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external mutation.
	copy := *p
	s.pools[p.ID] = &copy
	return nil
}

func (s *MemoryStore) GetPrizePool(_ context.Context, id string) (*model.PrizePool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[id]
	if !ok {
		return nil, fmt.Errorf("prize pool %s: %w", id, ErrNotFound)
	}
	copy := *p
	return &copy, nil
}

func (s *MemoryStore) ListPrizePools(_ context.Context) ([]model.PrizePool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listPoolsLocked(), nil
}

func (s *MemoryStore) listPoolsLocked() []model.PrizePool {
	pools := make([]model.PrizePool, 0, len(s.pools))
	for _, p := range s.pools {
		pools = append(pools, *p)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].ID < pools[j].ID })
	return pools
}

func (s *MemoryStore) UpsertVault(_ context.Context, v *model.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[v.PrizePoolID]; !ok {
		return fmt.Errorf("vault %s → prize pool %s: %w", v.ID, v.PrizePoolID, ErrInvalidReference)
	}
	copy := *v
	s.vaults[v.ID] = &copy
	return nil
}

func (s *MemoryStore) GetVault(_ context.Context, id string) (*model.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vaults[id]
	if !ok {
		return nil, fmt.Errorf("vault %s: %w", id, ErrNotFound)
	}
	copy := *v
	return &copy, nil
}

func (s *MemoryStore) ListVaultsByPrizePool(_ context.Context, prizePoolID string) ([]model.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var vaults []model.Vault
	for _, v := range s.listVaultsLocked() {
		if v.PrizePoolID == prizePoolID {
			vaults = append(vaults, v)
		}
	}
	return vaults, nil
}

func (s *MemoryStore) listVaultsLocked() []model.Vault {
	vaults := make([]model.Vault, 0, len(s.vaults))
	for _, v := range s.vaults {
		vaults = append(vaults, *v)
	}
	sort.Slice(vaults, func(i, j int) bool { return vaults[i].ID < vaults[j].ID })
	return vaults
}

func (s *MemoryStore) UpsertUserBalance(_ context.Context, b *model.UserBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vaults[b.VaultID]; !ok {
		return fmt.Errorf("balance → vault %s: %w", b.VaultID, ErrInvalidReference)
	}
	user := strings.ToLower(b.UserAddress)
	byVault, ok := s.balances[user]
	if !ok {
		byVault = make(map[string]model.UserBalance)
		s.balances[user] = byVault
	}
	copy := *b
	copy.UserAddress = user
	byVault[b.VaultID] = copy
	return nil
}

func (s *MemoryStore) GetUserBalances(_ context.Context, user string) ([]model.UserBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userBalancesLocked(user), nil
}

func (s *MemoryStore) userBalancesLocked(user string) []model.UserBalance {
	byVault := s.balances[strings.ToLower(user)]
	balances := make([]model.UserBalance, 0, len(byVault))
	for _, b := range byVault {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].VaultID < balances[j].VaultID })
	return balances
}

// LoadSnapshot reads everything under a single read lock.
func (s *MemoryStore) LoadSnapshot(_ context.Context, user string) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &model.Snapshot{
		User:       strings.ToLower(user),
		PrizePools: s.listPoolsLocked(),
		Vaults:     s.listVaultsLocked(),
		Balances:   s.userBalancesLocked(user),
		TakenAt:    time.Now().UTC(),
	}, nil
}
