// Package model defines the domain types shared across the odds service.
// Share balances and supplies are integers in each vault's base unit,
// carried as shopspring/decimal so they never overflow.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PrizePool is the prize-tier structure of one chain's prize pool at the
// time it was last refreshed.
type PrizePool struct {
	ID      string `json:"id" db:"id"`
	ChainID uint64 `json:"chain_id" db:"chain_id"`
	Address string `json:"address" db:"address"`

	NumberOfTiers int `json:"number_of_tiers" db:"number_of_tiers"`
	// EstimatedPrizeCount must be at least what the live tier
	// configuration implies.
	EstimatedPrizeCount   int   `json:"estimated_prize_count" db:"estimated_prize_count"`
	GrandPrizePeriodDraws int   `json:"grand_prize_period_draws" db:"grand_prize_period_draws"`
	DrawPeriodSeconds     int64 `json:"draw_period_seconds" db:"draw_period_seconds"`

	TiersFetched bool      `json:"tiers_fetched" db:"tiers_fetched"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DrawPeriod returns the draw length as a duration.
func (p PrizePool) DrawPeriod() time.Duration {
	return time.Duration(p.DrawPeriodSeconds) * time.Second
}

// Vault is a yield-bearing deposit pool contributing to one prize pool.
type Vault struct {
	ID          string          `json:"id" db:"id"` // {chainID}:{address}
	ChainID     uint64          `json:"chain_id" db:"chain_id"`
	Address     string          `json:"address" db:"address"`
	PrizePoolID string          `json:"prize_pool_id" db:"prize_pool_id"`
	Decimals    int32           `json:"decimals" db:"decimals"`
	TotalSupply decimal.Decimal `json:"total_supply" db:"total_supply"`
	// ContributionFraction is the vault's share of the prize pool's
	// prize yield over a trailing window of draws, in [0, 1].
	ContributionFraction float64 `json:"contribution_fraction" db:"contribution_fraction"`

	SupplyFetched       bool      `json:"supply_fetched" db:"supply_fetched"`
	ContributionFetched bool      `json:"contribution_fetched" db:"contribution_fetched"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// UserBalance is one user's position in one vault.
type UserBalance struct {
	UserAddress string          `json:"user_address" db:"user_address"`
	VaultID     string          `json:"vault_id" db:"vault_id"`
	Shares      decimal.Decimal `json:"shares" db:"shares"`
	Delegated   decimal.Decimal `json:"delegated" db:"delegated"` // delegated to the user
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Snapshot is every input needed for one user's odds, drawn from one
// consistent read.
type Snapshot struct {
	User       string        `json:"user"`
	PrizePools []PrizePool   `json:"prize_pools"`
	Vaults     []Vault       `json:"vaults"`
	Balances   []UserBalance `json:"balances"`
	TakenAt    time.Time     `json:"taken_at"`
}
