package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/prizeodds/odds-engine/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// foreignKeyViolation is the PostgreSQL SQLSTATE for a broken reference.
const foreignKeyViolation = "23503"

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Share amounts are stored as NUMERIC for exact integer precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const prizePoolColumns = `id, chain_id, address, number_of_tiers, estimated_prize_count,
	grand_prize_period_draws, draw_period_seconds, tiers_fetched, updated_at`

const vaultColumns = `id, chain_id, address, prize_pool_id, decimals,
	total_supply::TEXT, contribution_fraction, supply_fetched, contribution_fetched, updated_at`

const balanceColumns = `user_address, vault_id, shares::TEXT, delegated::TEXT, updated_at`

func (s *PostgresStore) UpsertPrizePool(ctx context.Context, p *model.PrizePool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prize_pools (`+prizePoolColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     chain_id = EXCLUDED.chain_id,
		     address = EXCLUDED.address,
		     number_of_tiers = EXCLUDED.number_of_tiers,
		     estimated_prize_count = EXCLUDED.estimated_prize_count,
		     grand_prize_period_draws = EXCLUDED.grand_prize_period_draws,
		     draw_period_seconds = EXCLUDED.draw_period_seconds,
		     tiers_fetched = EXCLUDED.tiers_fetched,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, int64(p.ChainID), p.Address, p.NumberOfTiers, p.EstimatedPrizeCount,
		p.GrandPrizePeriodDraws, p.DrawPeriodSeconds, p.TiersFetched, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert prize pool %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetPrizePool(ctx context.Context, id string) (*model.PrizePool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+prizePoolColumns+` FROM prize_pools WHERE id = $1`, id)
	p, err := scanPrizePool(row)
	if err != nil {
		return nil, fmt.Errorf("get prize pool %s: %w", id, notFound(err))
	}
	return p, nil
}

func (s *PostgresStore) ListPrizePools(ctx context.Context) ([]model.PrizePool, error) {
	return listPrizePools(ctx, s.pool)
}

func listPrizePools(ctx context.Context, q querier) ([]model.PrizePool, error) {
	rows, err := q.Query(ctx, `SELECT `+prizePoolColumns+` FROM prize_pools ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []model.PrizePool
	for rows.Next() {
		p, err := scanPrizePool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, *p)
	}
	return pools, rows.Err()
}

func (s *PostgresStore) UpsertVault(ctx context.Context, v *model.Vault) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vaults (id, chain_id, address, prize_pool_id, decimals,
		                     total_supply, contribution_fraction, supply_fetched, contribution_fetched, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     prize_pool_id = EXCLUDED.prize_pool_id,
		     decimals = EXCLUDED.decimals,
		     total_supply = EXCLUDED.total_supply,
		     contribution_fraction = EXCLUDED.contribution_fraction,
		     supply_fetched = EXCLUDED.supply_fetched,
		     contribution_fetched = EXCLUDED.contribution_fetched,
		     updated_at = EXCLUDED.updated_at`,
		v.ID, int64(v.ChainID), v.Address, v.PrizePoolID, v.Decimals,
		v.TotalSupply.String(), v.ContributionFraction, v.SupplyFetched, v.ContributionFetched, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert vault %s: %w", v.ID, badReference(err))
	}
	return nil
}

func (s *PostgresStore) GetVault(ctx context.Context, id string) (*model.Vault, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+vaultColumns+` FROM vaults WHERE id = $1`, id)
	v, err := scanVault(row)
	if err != nil {
		return nil, fmt.Errorf("get vault %s: %w", id, notFound(err))
	}
	return v, nil
}

func (s *PostgresStore) ListVaultsByPrizePool(ctx context.Context, prizePoolID string) ([]model.Vault, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE prize_pool_id = $1 ORDER BY id`, prizePoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVaults(rows)
}

func listVaults(ctx context.Context, q querier) ([]model.Vault, error) {
	rows, err := q.Query(ctx, `SELECT `+vaultColumns+` FROM vaults ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVaults(rows)
}

func (s *PostgresStore) UpsertUserBalance(ctx context.Context, b *model.UserBalance) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_balances (user_address, vault_id, shares, delegated, updated_at)
		 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5)
		 ON CONFLICT (user_address, vault_id) DO UPDATE SET
		     shares = EXCLUDED.shares,
		     delegated = EXCLUDED.delegated,
		     updated_at = EXCLUDED.updated_at`,
		strings.ToLower(b.UserAddress), b.VaultID,
		b.Shares.String(), b.Delegated.String(), b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert balance %s/%s: %w", b.UserAddress, b.VaultID, badReference(err))
	}
	return nil
}

func (s *PostgresStore) GetUserBalances(ctx context.Context, user string) ([]model.UserBalance, error) {
	return userBalances(ctx, s.pool, user)
}

func userBalances(ctx context.Context, q querier, user string) ([]model.UserBalance, error) {
	rows, err := q.Query(ctx,
		`SELECT `+balanceColumns+` FROM user_balances WHERE user_address = $1 ORDER BY vault_id`,
		strings.ToLower(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []model.UserBalance
	for rows.Next() {
		var b model.UserBalance
		var sharesS, delegatedS string
		if err := rows.Scan(&b.UserAddress, &b.VaultID, &sharesS, &delegatedS, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if b.Shares, err = parseNumeric("shares", sharesS); err != nil {
			return nil, err
		}
		if b.Delegated, err = parseNumeric("delegated", delegatedS); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// LoadSnapshot reads pools, vaults and balances inside one read-only
// REPEATABLE READ transaction so they come from the same point in time.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, user string) (*model.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	pools, err := listPrizePools(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("snapshot prize pools: %w", err)
	}
	vaults, err := listVaults(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("snapshot vaults: %w", err)
	}
	balances, err := userBalances(ctx, tx, user)
	if err != nil {
		return nil, fmt.Errorf("snapshot balances: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	return &model.Snapshot{
		User:       strings.ToLower(user),
		PrizePools: pools,
		Vaults:     vaults,
		Balances:   balances,
		TakenAt:    time.Now().UTC(),
	}, nil
}

// --- Scan helpers ---

func scanPrizePool(row pgx.Row) (*model.PrizePool, error) {
	var p model.PrizePool
	var chainID int64
	if err := row.Scan(&p.ID, &chainID, &p.Address, &p.NumberOfTiers, &p.EstimatedPrizeCount,
		&p.GrandPrizePeriodDraws, &p.DrawPeriodSeconds, &p.TiersFetched, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ChainID = uint64(chainID)
	return &p, nil
}

func scanVault(row pgx.Row) (*model.Vault, error) {
	var v model.Vault
	var chainID int64
	var supplyS string
	if err := row.Scan(&v.ID, &chainID, &v.Address, &v.PrizePoolID, &v.Decimals,
		&supplyS, &v.ContributionFraction, &v.SupplyFetched, &v.ContributionFetched, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.ChainID = uint64(chainID)
	supply, err := parseNumeric("total_supply", supplyS)
	if err != nil {
		return nil, fmt.Errorf("vault %s: %w", v.ID, err)
	}
	v.TotalSupply = supply
	return &v, nil
}

func collectVaults(rows pgx.Rows) ([]model.Vault, error) {
	var vaults []model.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, *v)
	}
	return vaults, rows.Err()
}

// parseNumeric converts a NUMERIC column read as text.
func parseNumeric(column, text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q: %v", ErrCorruptValue, column, text, err)
	}
	return d, nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// badReference maps foreign key violations to ErrInvalidReference.
func badReference(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
	}
	return err
}
