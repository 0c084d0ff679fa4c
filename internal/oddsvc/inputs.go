package oddsvc

import (
	"time"

	"github.com/prizeodds/odds-engine/internal/model"
	"github.com/prizeodds/odds-engine/internal/odds"
)

// BuildInputs turns a stored snapshot into engine inputs.
//
// Every prize pool is included. A vault is included only when the user
// holds a balance row for it; the row's presence means the user's shares
// were fetched. Supply and contribution readiness come from the vault.
func BuildInputs(snap *model.Snapshot) []odds.PrizePoolInput {
	vaultsByPool := make(map[string][]model.Vault, len(snap.PrizePools))
	for _, v := range snap.Vaults {
		vaultsByPool[v.PrizePoolID] = append(vaultsByPool[v.PrizePoolID], v)
	}
	balanceByVault := make(map[string]model.UserBalance, len(snap.Balances))
	for _, b := range snap.Balances {
		balanceByVault[b.VaultID] = b
	}

	inputs := make([]odds.PrizePoolInput, 0, len(snap.PrizePools))
	for _, p := range snap.PrizePools {
		in := odds.PrizePoolInput{
			PrizePoolID:           p.ID,
			EstimatedPrizeCount:   p.EstimatedPrizeCount,
			GrandPrizePeriodDraws: p.GrandPrizePeriodDraws,
			Fetched:               odds.PoolReadiness{Tiers: p.TiersFetched},
		}
		for _, v := range vaultsByPool[p.ID] {
			b, ok := balanceByVault[v.ID]
			if !ok {
				continue
			}
			in.Vaults = append(in.Vaults, odds.VaultInput{
				VaultID:      v.ID,
				UserAmount:   b.Shares,
				Delegated:    b.Delegated,
				TotalSupply:  v.TotalSupply,
				Decimals:     v.Decimals,
				Contribution: v.ContributionFraction,
				Fetched: odds.VaultReadiness{
					Shares:       true,
					TotalSupply:  v.SupplyFetched,
					Contribution: v.ContributionFetched,
				},
			})
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// WindowDraws converts a time window into a draw count per prize pool
// using each pool's draw period. Pools with an unknown draw period get 0.
func WindowDraws(pools []model.PrizePool, window time.Duration) map[string]int {
	draws := make(map[string]int, len(pools))
	for _, p := range pools {
		draws[p.ID] = odds.DrawsInWindow(p.DrawPeriod(), window)
	}
	return draws
}
