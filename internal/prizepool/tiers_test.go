package prizepool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierOdds_Endpoints(t *testing.T) {
	grand, err := TierOdds(0, 4, 365)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/365, grand, 1e-12)

	last, err := TierOdds(3, 4, 365)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, last, 1e-12)
}

func TestTierOdds_IncreasesWithTier(t *testing.T) {
	prev := 0.0
	for tier := 0; tier < 6; tier++ {
		o, err := TierOdds(tier, 6, 365)
		require.NoError(t, err)
		assert.Greater(t, o, prev)
		prev = o
	}
}

func TestTierOdds_GeometricMidpoint(t *testing.T) {
	// With 3 tiers the middle tier sits at (1/G)^(1/2).
	mid, err := TierOdds(1, 3, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, mid, 1e-12)
}

func TestTierOdds_PeriodOfOne(t *testing.T) {
	for tier := 0; tier < 4; tier++ {
		o, err := TierOdds(tier, 4, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, o, 1e-12)
	}
}

func TestTierOdds_InvalidInputs(t *testing.T) {
	_, err := TierOdds(0, 1, 365)
	assert.ErrorIs(t, err, ErrInvalidTiers)

	_, err = TierOdds(0, 4, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = TierOdds(4, 4, 365)
	assert.ErrorIs(t, err, ErrInvalidTier)

	_, err = TierOdds(-1, 4, 365)
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestEstimatedPrizeCount_FourTiers(t *testing.T) {
	// 1/365 + 4·(1/365)^(2/3) + 16·(1/365)^(1/3) + 64 ≈ 66.32
	want := 1.0/365 + 4*math.Pow(1.0/365, 2.0/3) + 16*math.Pow(1.0/365, 1.0/3) + 64

	got, err := EstimatedPrizeCount(4, 365)
	require.NoError(t, err)
	assert.Equal(t, int(math.Round(want)), got)
	assert.Equal(t, 66, got)
}

func TestEstimatedPrizeCount_EveryTierEveryDraw(t *testing.T) {
	// Period of 1: every tier awarded, 1 + 4 + 16 = 21 prizes.
	got, err := EstimatedPrizeCount(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 21, got)
}

func TestEstimatedPrizeCount_GrowsWithTiers(t *testing.T) {
	prev := 0
	for n := 2; n <= 8; n++ {
		got, err := EstimatedPrizeCount(n, 365)
		require.NoError(t, err)
		assert.Greater(t, got, prev, "tiers=%d", n)
		prev = got
	}
}

func TestEstimatedPrizeCount_InvalidInputs(t *testing.T) {
	_, err := EstimatedPrizeCount(1, 365)
	assert.ErrorIs(t, err, ErrInvalidTiers)

	_, err = EstimatedPrizeCount(4, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestEstimatedPrizeCount_TooManyTiers(t *testing.T) {
	for _, n := range []int{MaxTiers + 1, 33, 40, 600} {
		got, err := EstimatedPrizeCount(n, 365)
		assert.ErrorIs(t, err, ErrInvalidTiers, "tiers=%d", n)
		assert.Zero(t, got, "tiers=%d", n)
	}

	_, err := TierOdds(0, 33, 365)
	assert.ErrorIs(t, err, ErrInvalidTiers)
}

func TestEstimatedPrizeCount_MaxTiersIsPositive(t *testing.T) {
	got, err := EstimatedPrizeCount(MaxTiers, 365)
	require.NoError(t, err)
	assert.Greater(t, got, 0)
}
