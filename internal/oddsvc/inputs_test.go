package oddsvc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prizeodds/odds-engine/internal/model"
)

func TestBuildInputs(t *testing.T) {
	snap := &model.Snapshot{
		User: "0xabc",
		PrizePools: []model.PrizePool{
			{ID: "base", EstimatedPrizeCount: 4, GrandPrizePeriodDraws: 91, TiersFetched: true},
			{ID: "optimism", EstimatedPrizeCount: 8, GrandPrizePeriodDraws: 365},
		},
		Vaults: []model.Vault{
			{ID: "8453:a", PrizePoolID: "base", Decimals: 6, TotalSupply: decimal.NewFromInt(1000), SupplyFetched: true},
			{ID: "8453:b", PrizePoolID: "base", TotalSupply: decimal.NewFromInt(50), SupplyFetched: true, ContributionFetched: true},
			{ID: "10:c", PrizePoolID: "optimism", ContributionFraction: 0.3, ContributionFetched: true},
		},
		Balances: []model.UserBalance{
			{VaultID: "8453:a", Shares: decimal.NewFromInt(7), Delegated: decimal.NewFromInt(3)},
			{VaultID: "10:c", Shares: decimal.NewFromInt(1)},
		},
	}

	inputs := BuildInputs(snap)
	require.Len(t, inputs, 2)

	base := inputs[0]
	assert.Equal(t, "base", base.PrizePoolID)
	assert.True(t, base.Fetched.Tiers)
	require.Len(t, base.Vaults, 1, "vault without a balance row is excluded")

	v := base.Vaults[0]
	assert.Equal(t, "8453:a", v.VaultID)
	assert.Equal(t, int32(6), v.Decimals)
	assert.True(t, v.EffectiveAmount().Equal(decimal.NewFromInt(10)))
	assert.True(t, v.Fetched.Shares)
	assert.True(t, v.Fetched.TotalSupply)
	assert.False(t, v.Fetched.Contribution)

	opt := inputs[1]
	assert.False(t, opt.Fetched.Tiers)
	require.Len(t, opt.Vaults, 1)
	assert.Equal(t, 0.3, opt.Vaults[0].Contribution)
	assert.False(t, opt.Vaults[0].Fetched.TotalSupply)
}

func TestWindowDraws(t *testing.T) {
	pools := []model.PrizePool{
		{ID: "daily", DrawPeriodSeconds: 86400},
		{ID: "hourly", DrawPeriodSeconds: 3600},
		{ID: "unknown"},
	}

	draws := WindowDraws(pools, 7*24*time.Hour)

	assert.Equal(t, map[string]int{"daily": 7, "hourly": 168, "unknown": 0}, draws)
}
