package odds

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vault(id string, user, total int64, contribution float64) VaultInput {
	return VaultInput{
		VaultID:      id,
		UserAmount:   amt(user, 18),
		TotalSupply:  amt(total, 18),
		Decimals:     18,
		Contribution: contribution,
		Fetched:      FetchedVault,
	}
}

func pool(id string, prizes, period int, vaults ...VaultInput) PrizePoolInput {
	return PrizePoolInput{
		PrizePoolID:           id,
		EstimatedPrizeCount:   prizes,
		GrandPrizePeriodDraws: period,
		Fetched:               PoolReadiness{Tiers: true},
		Vaults:                vaults,
	}
}

func TestAggregate_TwoVaultsOnePool(t *testing.T) {
	// Vault B: 10% share, full contribution, one prize → 0.10.
	report := Aggregate([]PrizePoolInput{
		pool("optimism", 4, 365,
			vault("A", 200, 1000, 0.5),
			vault("B", 100, 1000, 1),
		),
	}, VariantDraw)

	require.Len(t, report.Pools, 1)
	p := report.Pools[0]
	require.Len(t, p.Vaults, 2)

	assert.InDelta(t, 0.3439, p.Vaults[0].Result.Percent, 1e-9)
	assert.True(t, report.Ready)
	assert.True(t, p.Ready)

	vaultB := 1 - math.Pow(0.9, 4)
	want := 1 - (1-0.3439)*(1-vaultB)
	assert.InDelta(t, want, p.Result.Percent, 1e-9)
	assert.InDelta(t, want, report.Global.Percent, 1e-9)
}

func TestAggregate_PoolScenarioWithFixedSecondVault(t *testing.T) {
	// Second vault tuned to exactly 0.10 with a single prize slot.
	report := Aggregate([]PrizePoolInput{
		pool("p", 4, 1, vault("A", 200, 1000, 0.5)),
		pool("q", 1, 1, vault("B", 100, 1000, 1)),
	}, VariantDraw)

	require.Len(t, report.Pools, 2)
	assert.InDelta(t, 0.3439, report.Pools[0].Result.Percent, 1e-9)
	assert.InDelta(t, 0.10, report.Pools[1].Result.Percent, 1e-9)
	assert.InDelta(t, 0.40951, report.Global.Percent, 1e-9)
	assert.InDelta(t, 2.44, report.Global.OneInX, 0.01)
}

func TestAggregate_GlobalIsUnionOfPools(t *testing.T) {
	report := Aggregate([]PrizePoolInput{
		pool("ethereum", 10, 365, vault("A", 5, 1000, 0.2)),
		pool("base", 20, 365, vault("B", 40, 1000, 0.7), vault("C", 1, 10, 0.1)),
	}, VariantDraw)

	var ps []float64
	for _, p := range report.Pools {
		ps = append(ps, p.Result.Percent)
	}
	assert.InDelta(t, CalculateUnionProbability(ps), report.Global.Percent, 1e-12)
}

func TestAggregate_GrandPrizeVariantUsesPeriod(t *testing.T) {
	v := vault("A", 10, 1000, 0.5)
	report := Aggregate([]PrizePoolInput{pool("p", 4, 365, v)}, VariantGrandPrize)

	want := CalculateGpOdds(v.UserAmount, v.TotalSupply, 18, 0.5, 365)
	assert.Equal(t, VariantGrandPrize, report.Variant)
	assert.InDelta(t, want, report.Global.Percent, 1e-12)
}

func TestAggregate_DelegationIsAdditive(t *testing.T) {
	own := vault("A", 100, 1000, 1)
	own.Delegated = amt(100, 18)

	combined := vault("A", 200, 1000, 1)

	withDelegation := Aggregate([]PrizePoolInput{pool("p", 3, 1, own)}, VariantDraw)
	asOwnShares := Aggregate([]PrizePoolInput{pool("p", 3, 1, combined)}, VariantDraw)

	assert.InDelta(t, asOwnShares.Global.Percent, withDelegation.Global.Percent, 1e-12)
}

func TestAggregate_NotReadyVaultContributesZero(t *testing.T) {
	ready := vault("A", 200, 1000, 0.5)
	pending := vault("B", 500, 1000, 1)
	pending.Fetched.Contribution = false

	report := Aggregate([]PrizePoolInput{pool("p", 4, 365, ready, pending)}, VariantDraw)

	require.Len(t, report.Pools[0].Vaults, 2)
	assert.False(t, report.Ready)
	assert.False(t, report.Pools[0].Ready)
	assert.Equal(t, 1, report.NotReady)
	assert.False(t, report.Pools[0].Vaults[1].Ready)
	assert.Equal(t, 0.0, report.Pools[0].Vaults[1].Result.Percent)
	assert.InDelta(t, 0.3439, report.Global.Percent, 1e-9)
}

func TestAggregate_PoolWithoutTiersContributesZero(t *testing.T) {
	p := pool("p", 4, 365, vault("A", 200, 1000, 0.5))
	p.Fetched.Tiers = false

	report := Aggregate([]PrizePoolInput{p}, VariantDraw)

	assert.False(t, report.Ready)
	assert.Equal(t, 0.0, report.Global.Percent)
	assert.False(t, report.Global.HasOdds())
}

func TestAggregate_ZeroReadyIsDistinctFromNotReady(t *testing.T) {
	// Fetched but zero shares: ready, with no odds.
	report := Aggregate([]PrizePoolInput{pool("p", 4, 365, vault("A", 0, 1000, 0.5))}, VariantDraw)

	assert.True(t, report.Ready)
	assert.Equal(t, 0.0, report.Global.Percent)
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil, VariantDraw)
	assert.True(t, report.Ready)
	assert.Empty(t, report.Pools)
	assert.Equal(t, 0.0, report.Global.Percent)
}

func TestAggregate_ZeroSupplyVault(t *testing.T) {
	v := vault("A", 0, 0, 0.5)
	v.UserAmount = decimal.Zero
	report := Aggregate([]PrizePoolInput{pool("p", 4, 365, v)}, VariantDraw)
	assert.Equal(t, 0.0, report.Global.Percent)
	assert.False(t, math.IsNaN(report.Global.Percent))
}

func TestReport_WindowProjectsDailyOntoWeek(t *testing.T) {
	report := Report{
		Pools: []PoolOdds{
			{PrizePoolID: "p", Result: NewResult(0.01)},
		},
		Global: NewResult(0.01),
	}

	w := report.Window(7)

	assert.Equal(t, 7, w.Draws["p"])
	assert.InDelta(t, 0.0679, w.Pools["p"].Percent, 1e-4)
	assert.InDelta(t, w.Pools["p"].Percent, w.Global.Percent, 1e-12)
}

func TestReport_GrandPrizeWindowUsesSingleDrawOdds(t *testing.T) {
	v := vault("A", 1, 1000, 0.5)
	report := Aggregate([]PrizePoolInput{pool("p", 4, 365, v)}, VariantGrandPrize)

	w := report.Window(7)

	perDraw := CalculateGpOdds(v.UserAmount, v.TotalSupply, 18, 0.5, 1)
	assert.InDelta(t, ProjectOverDraws(perDraw, 7), w.Global.Percent, 1e-12)
	assert.Less(t, w.Global.Percent, report.Global.Percent)

	// A window of one full period reproduces the per-period odds.
	full := report.Window(365)
	assert.InDelta(t, report.Global.Percent, full.Global.Percent, 1e-12)
}

func TestReport_WindowPerPool(t *testing.T) {
	report := Report{
		Pools: []PoolOdds{
			{PrizePoolID: "daily", Result: NewResult(0.01)},
			{PrizePoolID: "unknown", Result: NewResult(0.5)},
		},
	}

	w := report.WindowPerPool(map[string]int{"daily": 7})

	assert.InDelta(t, ProjectOverDraws(0.01, 7), w.Pools["daily"].Percent, 1e-12)
	assert.Equal(t, 0, w.Draws["unknown"])
	assert.Equal(t, 0.0, w.Pools["unknown"].Percent)
	assert.InDelta(t, w.Pools["daily"].Percent, w.Global.Percent, 1e-12)
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"grand": VariantGrandPrize, "draw": VariantDraw, "": VariantDraw} {
		got, err := ParseVariant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"weekly", "grnd", "GRAND"} {
		_, err := ParseVariant(in)
		assert.ErrorIs(t, err, ErrUnknownVariant, in)
	}
}
