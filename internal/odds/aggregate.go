package odds

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Variant selects which prize structure the aggregation evaluates.
type Variant string

const (
	// VariantDraw evaluates every prize slot of a single draw.
	VariantDraw Variant = "draw"
	// VariantGrandPrize evaluates the grand prize over one grand prize period.
	VariantGrandPrize Variant = "grand"
)

// ErrUnknownVariant is returned by ParseVariant for unrecognised names.
var ErrUnknownVariant = errors.New("odds: unknown variant")

// ParseVariant maps a query value to a Variant. An empty value selects
// VariantDraw.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantDraw:
		return VariantDraw, nil
	case VariantGrandPrize:
		return VariantGrandPrize, nil
	}
	return "", ErrUnknownVariant
}

// VaultReadiness records which of a vault's inputs have been fetched.
// It travels next to the numbers so that "not fetched yet" and
// "computed as zero" stay distinguishable.
type VaultReadiness struct {
	Shares       bool
	TotalSupply  bool
	Contribution bool
}

// AllFetched reports whether every input of the vault is available.
func (r VaultReadiness) AllFetched() bool {
	return r.Shares && r.TotalSupply && r.Contribution
}

// FetchedVault is a VaultReadiness with every input marked fetched.
var FetchedVault = VaultReadiness{Shares: true, TotalSupply: true, Contribution: true}

// PoolReadiness records whether a prize pool's tier data has been fetched.
type PoolReadiness struct {
	Tiers bool
}

// VaultInput is one user's position in one vault.
type VaultInput struct {
	VaultID string
	// UserAmount is the user's own share balance.
	UserAmount decimal.Decimal
	// Delegated is balance delegated to the user. It adds to UserAmount.
	Delegated    decimal.Decimal
	TotalSupply  decimal.Decimal
	Decimals     int32
	Contribution float64
	Fetched      VaultReadiness
}

// EffectiveAmount returns own shares plus delegated balance.
func (v VaultInput) EffectiveAmount() decimal.Decimal {
	return v.UserAmount.Add(v.Delegated)
}

// PrizePoolInput is the tier structure of one prize pool plus the user's
// positions in the vaults that contribute to it.
type PrizePoolInput struct {
	PrizePoolID           string
	EstimatedPrizeCount   int
	GrandPrizePeriodDraws int
	Fetched               PoolReadiness
	Vaults                []VaultInput
}

// VaultOdds is the computed chance for one vault.
type VaultOdds struct {
	VaultID string `json:"vault_id"`
	Result  Result `json:"odds"`
	Ready   bool   `json:"ready"`
}

// PoolOdds is the combined chance across every vault of one prize pool.
type PoolOdds struct {
	PrizePoolID string      `json:"prize_pool_id"`
	Result      Result      `json:"odds"`
	Ready       bool        `json:"ready"`
	Vaults      []VaultOdds `json:"vaults"`

	// perDraw is the single-draw chance behind Result. It equals
	// Result.Percent for VariantDraw; for VariantGrandPrize Result spans
	// a whole grand prize period.
	perDraw float64
}

// Report is the outcome of one aggregation.
type Report struct {
	Variant Variant    `json:"variant"`
	Pools   []PoolOdds `json:"prize_pools"`
	Global  Result     `json:"global"`
	// Ready is true only when every vault and pool input was fetched.
	Ready bool `json:"ready"`
	// NotReady counts vaults that contributed 0 for lack of inputs.
	NotReady int `json:"not_ready"`
}

// vaultProbability evaluates one vault for the variant and for a single
// draw of that variant, or returns ok=false when its inputs are
// incomplete.
func vaultProbability(pool PrizePoolInput, v VaultInput, variant Variant) (p, perDraw float64, ok bool) {
	if !pool.Fetched.Tiers || !v.Fetched.AllFetched() {
		return 0, 0, false
	}
	amount := v.EffectiveAmount()
	if variant == VariantGrandPrize {
		p = CalculateGpOdds(amount, v.TotalSupply, v.Decimals, v.Contribution, pool.GrandPrizePeriodDraws)
		perDraw = CalculateGpOdds(amount, v.TotalSupply, v.Decimals, v.Contribution, 1)
		return p, perDraw, true
	}
	p = CalculateOdds(amount, v.TotalSupply, v.Decimals, v.Contribution, pool.EstimatedPrizeCount)
	return p, p, true
}

// Aggregate computes per-vault, per-pool and global odds for one
// coherent snapshot of inputs.
//
// Vaults with missing inputs contribute 0 and clear the Ready flags up
// the tree; they never block the rest of the computation.
func Aggregate(pools []PrizePoolInput, variant Variant) Report {
	report := Report{
		Variant: variant,
		Pools:   make([]PoolOdds, 0, len(pools)),
		Ready:   true,
	}

	poolProbs := make([]float64, 0, len(pools))
	for _, pool := range pools {
		po := PoolOdds{
			PrizePoolID: pool.PrizePoolID,
			Ready:       pool.Fetched.Tiers,
			Vaults:      make([]VaultOdds, 0, len(pool.Vaults)),
		}

		vaultProbs := make([]float64, 0, len(pool.Vaults))
		perDraws := make([]float64, 0, len(pool.Vaults))
		for _, v := range pool.Vaults {
			p, perDraw, ok := vaultProbability(pool, v, variant)
			if !ok {
				po.Ready = false
				report.NotReady++
			}
			vaultProbs = append(vaultProbs, p)
			perDraws = append(perDraws, perDraw)
			po.Vaults = append(po.Vaults, VaultOdds{
				VaultID: v.VaultID,
				Result:  NewResult(p),
				Ready:   ok,
			})
		}

		pp := CalculateUnionProbability(vaultProbs)
		po.Result = NewResult(pp)
		po.perDraw = CalculateUnionProbability(perDraws)
		poolProbs = append(poolProbs, pp)

		if !po.Ready {
			report.Ready = false
		}
		report.Pools = append(report.Pools, po)
	}

	report.Global = NewResult(CalculateUnionProbability(poolProbs))
	return report
}

// WindowedOdds is a Report projected over several draws.
type WindowedOdds struct {
	Draws  map[string]int    `json:"draws"`
	Pools  map[string]Result `json:"prize_pools"`
	Global Result            `json:"global"`
}

// Window projects every per-pool result over the same number of draws.
func (r Report) Window(draws int) WindowedOdds {
	perPool := make(map[string]int, len(r.Pools))
	for _, p := range r.Pools {
		perPool[p.PrizePoolID] = draws
	}
	return r.WindowPerPool(perPool)
}

// WindowPerPool projects each pool's single-draw chance over its own
// number of draws and recombines them into a global figure. Pools
// missing from draws are projected over 0 draws.
func (r Report) WindowPerPool(draws map[string]int) WindowedOdds {
	w := WindowedOdds{
		Draws: make(map[string]int, len(r.Pools)),
		Pools: make(map[string]Result, len(r.Pools)),
	}
	projected := make([]float64, 0, len(r.Pools))
	for _, p := range r.Pools {
		n := draws[p.PrizePoolID]
		pp := ProjectOverDraws(p.singleDraw(r.Variant), n)
		w.Draws[p.PrizePoolID] = n
		w.Pools[p.PrizePoolID] = NewResult(pp)
		projected = append(projected, pp)
	}
	w.Global = NewResult(CalculateUnionProbability(projected))
	return w
}

// singleDraw returns the chance one draw contributes to a window.
func (p PoolOdds) singleDraw(variant Variant) float64 {
	if variant == VariantGrandPrize {
		return p.perDraw
	}
	return p.Result.Percent
}
