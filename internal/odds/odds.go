// Package odds computes a depositor's probability of winning prizes from
// vault deposits spread across independent prize pools.
//
// Every function here is pure: inputs are supplied per call, nothing is
// cached, nothing blocks. Degenerate inputs (no shares, no supply, no
// prizes) collapse to a probability of 0 instead of an error, so a
// caller can always combine results without checking them first.
//
// Share balances are integers in the vault's base unit and are carried
// as shopspring/decimal values. They are converted to float64 only for
// the share ratio, which then feeds a further approximation.
package odds

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// NoOddsSentinel is the largest integer a float64 represents exactly.
// Presentation code that needs a number for "no odds" uses it instead
// of +Inf.
const NoOddsSentinel float64 = 1<<53 - 1

// shareOf returns userAmount / totalSupply after scaling both by
// 10^decimals. Non-positive amounts yield 0.
func shareOf(userAmount, totalSupply decimal.Decimal, decimals int32) float64 {
	if !userAmount.IsPositive() || !totalSupply.IsPositive() {
		return 0
	}
	u := userAmount.Shift(-decimals).InexactFloat64()
	t := totalSupply.Shift(-decimals).InexactFloat64()
	if t <= 0 {
		return 0
	}
	return u / t
}

// atLeastOnce returns 1 - (1 - p)^n: the chance that n independent
// trials of probability p produce at least one win.
func atLeastOnce(p float64, n int) float64 {
	if n <= 0 || p <= 0 || math.IsNaN(p) {
		return 0
	}
	result := 1 - math.Pow(1-p, float64(n))
	if math.IsNaN(result) {
		return 0
	}
	return result
}

// CalculateOdds returns the probability that at least one of the pool's
// numberOfPrizes prize slots in a single draw goes to the user.
//
// Each slot is an independent trial won with probability
// share * contribution, where share is the user's fraction of the
// vault's total supply and contribution is the vault's fraction of the
// pool's prize yield. contribution must be within [0, 1]; it is not
// clamped.
func CalculateOdds(userAmount, totalSupply decimal.Decimal, decimals int32, contribution float64, numberOfPrizes int) float64 {
	share := shareOf(userAmount, totalSupply, decimals)
	if share == 0 {
		return 0
	}
	return atLeastOnce(share*contribution, numberOfPrizes)
}

// CalculateGpOdds returns the probability of winning the grand prize
// within one grand prize period. The single grand prize slot is treated
// as grandPrizePeriodInDraws independent trials of share * contribution.
func CalculateGpOdds(userAmount, totalSupply decimal.Decimal, decimals int32, contribution float64, grandPrizePeriodInDraws int) float64 {
	share := shareOf(userAmount, totalSupply, decimals)
	if share == 0 {
		return 0
	}
	return atLeastOnce(share*contribution, grandPrizePeriodInDraws)
}

// DepositOdds returns the single-draw odds the user would have after
// depositing deposit more into the vault. Both the user's shares and the
// vault's supply grow by the deposit.
func DepositOdds(deposit, currentShares, totalSupply decimal.Decimal, decimals int32, contribution float64, numberOfPrizes int) float64 {
	if deposit.IsNegative() {
		deposit = decimal.Zero
	}
	return CalculateOdds(currentShares.Add(deposit), totalSupply.Add(deposit), decimals, contribution, numberOfPrizes)
}

// CalculateUnionProbability returns the probability that at least one
// of a set of independent events occurs: 1 - Π(1 - p_i).
//
// An empty set yields 0. NaN terms count as 0. A term of exactly 1
// makes the result 1.
func CalculateUnionProbability(probabilities []float64) float64 {
	union := 0.0
	for _, p := range probabilities {
		if math.IsNaN(p) {
			continue
		}
		// Incremental form of 1 - Π(1 - p_i); keeps a single term exact.
		union += p * (1 - union)
		if p >= 1 {
			union = 1
		}
	}
	return union
}

// ProjectOverDraws returns the odds of winning at least once over draws
// repeated independent draws, each won with probability p. It is the
// union of draws copies of p, and saturates at 1 the same way.
func ProjectOverDraws(p float64, draws int) float64 {
	if draws <= 0 || p <= 0 || math.IsNaN(p) {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return 1 - math.Pow(1-p, float64(draws))
}

// DrawsInWindow returns how many whole draws of length drawPeriod fit in
// window. Non-positive durations yield 0.
func DrawsInWindow(drawPeriod, window time.Duration) int {
	if drawPeriod <= 0 || window <= 0 {
		return 0
	}
	return int(window / drawPeriod)
}

// ToOneInX converts a probability to its "1 in X" ratio. Zero or
// negative probabilities return +Inf; use Result.DisplayOneInX before
// showing or combining the value.
func ToOneInX(p float64) float64 {
	if p > 0 {
		return 1 / p
	}
	return math.Inf(1)
}
