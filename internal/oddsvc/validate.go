package oddsvc

import (
	"errors"
	"fmt"
	"math"

	"github.com/prizeodds/odds-engine/internal/model"
)

// ErrInvalidInput is wrapped by every validation failure; handlers map it
// to 400.
var ErrInvalidInput = errors.New("invalid input")

// maxDecimals is the largest base-unit exponent an ERC-20 style token
// can use within uint256.
const maxDecimals = 77

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func validatePrizePool(p *model.PrizePool) error {
	if p.ID == "" {
		return invalid("id is required")
	}
	if p.EstimatedPrizeCount < 0 || p.GrandPrizePeriodDraws < 0 || p.DrawPeriodSeconds < 0 {
		return invalid("prize pool %s: prize counts and periods must be non-negative", p.ID)
	}
	return nil
}

func validateVault(v *model.Vault) error {
	if v.PrizePoolID == "" {
		return invalid("vault %s: prize_pool_id is required", v.ID)
	}
	if v.Decimals < 0 || v.Decimals > maxDecimals {
		return invalid("vault %s: decimals must be between 0 and %d", v.ID, maxDecimals)
	}
	if v.TotalSupply.IsNegative() {
		return invalid("vault %s: total_supply must be non-negative", v.ID)
	}
	if c := v.ContributionFraction; math.IsNaN(c) || c < 0 || c > 1 {
		return invalid("vault %s: contribution_fraction must be within [0, 1]", v.ID)
	}
	return nil
}

func validateBalance(b *model.UserBalance) error {
	if b.UserAddress == "" {
		return invalid("user_address is required")
	}
	if b.Shares.IsNegative() || b.Delegated.IsNegative() {
		return invalid("vault %s: shares and delegated must be non-negative", b.VaultID)
	}
	return nil
}

// validateSnapshot applies the same rules the input endpoints enforce to
// a caller-supplied snapshot.
func validateSnapshot(snap *model.Snapshot) error {
	for i := range snap.PrizePools {
		if err := validatePrizePool(&snap.PrizePools[i]); err != nil {
			return err
		}
	}
	for i := range snap.Vaults {
		if err := validateVault(&snap.Vaults[i]); err != nil {
			return err
		}
	}
	for i := range snap.Balances {
		b := snap.Balances[i]
		if b.UserAddress == "" {
			// Balances in a snapshot belong to its user.
			b.UserAddress = snap.User
		}
		if err := validateBalance(&b); err != nil {
			return err
		}
	}
	return nil
}
