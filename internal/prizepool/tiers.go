package prizepool

import (
	"errors"
	"math"
)

// Prize counts grow by a factor of 4 per tier: tier t holds 4^t prizes.
const prizesPerTierGrowth = 4

// MaxTiers bounds the tier count so 4^t stays far inside int range.
const MaxTiers = 16

var (
	ErrInvalidTiers  = errors.New("prizepool: a prize pool needs between 2 and 16 tiers")
	ErrInvalidPeriod = errors.New("prizepool: grand prize period must be at least 1 draw")
	ErrInvalidTier   = errors.New("prizepool: tier out of range")
)

// TierOdds returns the chance that tier's prizes are awarded in a draw.
//
// Tier 0 is the grand prize with odds 1/grandPrizePeriodDraws; the last
// tier is awarded every draw. Tiers in between are interpolated
// geometrically:
//
//	odds(t) = (1/G)^((n-1-t)/(n-1))
func TierOdds(tier, numberOfTiers, grandPrizePeriodDraws int) (float64, error) {
	if numberOfTiers < 2 || numberOfTiers > MaxTiers {
		return 0, ErrInvalidTiers
	}
	if grandPrizePeriodDraws < 1 {
		return 0, ErrInvalidPeriod
	}
	if tier < 0 || tier >= numberOfTiers {
		return 0, ErrInvalidTier
	}

	last := float64(numberOfTiers - 1)
	exponent := (last - float64(tier)) / last
	// Computed in log space; G^-x is exp(-x ln G).
	return math.Exp(-exponent * math.Log(float64(grandPrizePeriodDraws))), nil
}

// EstimatedPrizeCount returns the expected number of prizes awarded per
// draw for a tier configuration: Σ 4^t · odds(t), rounded to the nearest
// whole prize.
func EstimatedPrizeCount(numberOfTiers, grandPrizePeriodDraws int) (int, error) {
	if numberOfTiers < 2 || numberOfTiers > MaxTiers {
		return 0, ErrInvalidTiers
	}
	if grandPrizePeriodDraws < 1 {
		return 0, ErrInvalidPeriod
	}

	var expected float64
	prizes := 1.0
	for t := 0; t < numberOfTiers; t++ {
		o, err := TierOdds(t, numberOfTiers, grandPrizePeriodDraws)
		if err != nil {
			return 0, err
		}
		expected += prizes * o
		prizes *= prizesPerTierGrowth
	}
	expected = math.Round(expected)
	if expected > math.MaxInt32 {
		return 0, ErrInvalidTiers
	}
	return int(expected), nil
}
