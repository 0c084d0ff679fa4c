// Package oddsvc provides the HTTP handlers that accept resolved odds
// inputs (prize pool tiers, vault supplies and contributions, user
// balances) and serve prize odds computed from them.
//
// Odds are never stored: every read loads one coherent snapshot and runs
// the pure aggregation in package odds over it.
package oddsvc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prizeodds/odds-engine/internal/metrics"
	"github.com/prizeodds/odds-engine/internal/model"
	"github.com/prizeodds/odds-engine/internal/odds"
	"github.com/prizeodds/odds-engine/internal/prizepool"
	"github.com/prizeodds/odds-engine/internal/store"
)

// Service handles odds input writes and odds queries. Writes are
// serialized with a mutex so a snapshot never observes half of one
// update (single-instance; the Postgres snapshot transaction covers
// concurrent readers).
type Service struct {
	store         store.Store
	defaultWindow time.Duration
	mu            sync.Mutex
	wsHub         *WSHub // optional WebSocket hub for change notifications
}

// NewService creates a new odds service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, defaultWindow time.Duration, hub *WSHub) *Service {
	if defaultWindow <= 0 {
		defaultWindow = 7 * 24 * time.Hour
	}
	return &Service{
		store:         st,
		defaultWindow: defaultWindow,
		wsHub:         hub,
	}
}

// --- Request/Response types ---

// PrizePoolRequest is the JSON body for PUT /prize-pools.
type PrizePoolRequest struct {
	ID                    string `json:"id"`
	ChainID               uint64 `json:"chain_id"`
	Address               string `json:"address"`
	NumberOfTiers         int    `json:"number_of_tiers"`
	EstimatedPrizeCount   int    `json:"estimated_prize_count"` // 0 → derived from tiers
	GrandPrizePeriodDraws int    `json:"grand_prize_period_draws"`
	DrawPeriodSeconds     int64  `json:"draw_period_seconds"`
	TiersFetched          *bool  `json:"tiers_fetched"` // nil → true
}

// VaultRequest is the JSON body for PUT /vaults.
type VaultRequest struct {
	VaultID     string `json:"vault_id"` // {chainID}:{0xaddress}
	PrizePoolID string `json:"prize_pool_id"`
	Decimals    int32  `json:"decimals"`
	// Null or absent fields mark the input as not fetched yet.
	TotalSupply          decimal.NullDecimal `json:"total_supply"`
	ContributionFraction *float64            `json:"contribution_fraction"`
}

// BalanceRequest is the JSON body for PUT /balances.
type BalanceRequest struct {
	UserAddress string          `json:"user_address"`
	VaultID     string          `json:"vault_id"`
	Shares      decimal.Decimal `json:"shares"`
	Delegated   decimal.Decimal `json:"delegated"`
}

// ComputeRequest is the JSON body for POST /odds/compute: a full
// snapshot supplied by the caller instead of loaded from the store.
type ComputeRequest struct {
	Snapshot    model.Snapshot `json:"snapshot"`
	Variant     string         `json:"variant"`
	WindowDraws int            `json:"window_draws"`
	Window      string         `json:"window"`
}

// DepositRequest is the JSON body for POST /odds/deposit.
type DepositRequest struct {
	VaultID     string          `json:"vault_id"`
	UserAddress string          `json:"user_address"` // optional; existing shares count
	Amount      decimal.Decimal `json:"amount"`
}

// OddsResponse is returned from odds queries.
type OddsResponse struct {
	ComputationID string            `json:"computation_id"`
	User          string            `json:"user"`
	TakenAt       time.Time         `json:"taken_at"`
	Report        odds.Report       `json:"report"`
	Windowed      odds.WindowedOdds `json:"windowed"`
}

// DepositResponse compares a vault's odds before and after a deposit.
type DepositResponse struct {
	VaultID      string      `json:"vault_id"`
	PrizePoolID  string      `json:"prize_pool_id"`
	Current      odds.Result `json:"current"`
	AfterDeposit odds.Result `json:"after_deposit"`
	Ready        bool        `json:"ready"`
}

// --- Input handlers ---

// UpsertPrizePool handles PUT /api/v1/prize-pools
func (s *Service) UpsertPrizePool(w http.ResponseWriter, r *http.Request) {
	var req PrizePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pool := &model.PrizePool{
		ID:                    req.ID,
		ChainID:               req.ChainID,
		Address:               strings.ToLower(req.Address),
		NumberOfTiers:         req.NumberOfTiers,
		EstimatedPrizeCount:   req.EstimatedPrizeCount,
		GrandPrizePeriodDraws: req.GrandPrizePeriodDraws,
		DrawPeriodSeconds:     req.DrawPeriodSeconds,
		TiersFetched:          req.TiersFetched == nil || *req.TiersFetched,
		UpdatedAt:             time.Now().UTC(),
	}
	if err := validatePrizePool(pool); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The estimate may never fall below what the tiers imply.
	if pool.TiersFetched && pool.NumberOfTiers > 0 {
		derived, err := prizepool.EstimatedPrizeCount(pool.NumberOfTiers, pool.GrandPrizePeriodDraws)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if derived > pool.EstimatedPrizeCount {
			pool.EstimatedPrizeCount = derived
		}
	}

	s.mu.Lock()
	err := s.store.UpsertPrizePool(r.Context(), pool)
	s.mu.Unlock()
	if err != nil {
		slog.Error("prize pool upsert failed", "prize_pool", pool.ID, "err", err)
		writeError(w, "failed to store prize pool", http.StatusInternalServerError)
		return
	}

	metrics.InputUpdates.WithLabelValues("prize_pool").Inc()
	if pools, err := s.store.ListPrizePools(r.Context()); err == nil {
		metrics.PrizePools.Set(float64(len(pools)))
	}

	slog.Info("prize pool updated",
		"prize_pool", pool.ID,
		"chain_id", pool.ChainID,
		"tiers", pool.NumberOfTiers,
		"estimated_prizes", pool.EstimatedPrizeCount,
		"grand_prize_period", pool.GrandPrizePeriodDraws,
	)

	s.notify(WSMessage{Kind: "prize_pool", PrizePoolID: pool.ID, UpdatedAt: pool.UpdatedAt})

	writeJSON(w, http.StatusOK, pool)
}

// GetPrizePool handles GET /api/v1/prize-pools/{prizePoolID}
func (s *Service) GetPrizePool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prizePoolID")

	pool, err := s.store.GetPrizePool(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "prize pool not found")
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// ListPrizePools handles GET /api/v1/prize-pools
// Optionally filtered by ?chain_id=<id>.
func (s *Service) ListPrizePools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.store.ListPrizePools(r.Context())
	if err != nil {
		writeError(w, "failed to list prize pools", http.StatusInternalServerError)
		return
	}

	if chain := r.URL.Query().Get("chain_id"); chain != "" {
		chainID, err := strconv.ParseUint(chain, 10, 64)
		if err != nil {
			writeError(w, "chain_id must be an integer", http.StatusBadRequest)
			return
		}
		var filtered []model.PrizePool
		for _, p := range pools {
			if p.ChainID == chainID {
				filtered = append(filtered, p)
			}
		}
		pools = filtered
	}
	if pools == nil {
		pools = []model.PrizePool{}
	}

	writeJSON(w, http.StatusOK, pools)
}

// ListVaults handles GET /api/v1/prize-pools/{prizePoolID}/vaults
func (s *Service) ListVaults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prizePoolID")

	vaults, err := s.store.ListVaultsByPrizePool(r.Context(), id)
	if err != nil {
		writeError(w, "failed to list vaults", http.StatusInternalServerError)
		return
	}
	if vaults == nil {
		vaults = []model.Vault{}
	}
	writeJSON(w, http.StatusOK, vaults)
}

// UpsertVault handles PUT /api/v1/vaults
func (s *Service) UpsertVault(w http.ResponseWriter, r *http.Request) {
	var req VaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	key, err := prizepool.ParseVaultKey(req.VaultID)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	vault := &model.Vault{
		ID:            key.String(),
		ChainID:       key.ChainID,
		Address:       key.Address,
		PrizePoolID:   req.PrizePoolID,
		Decimals:      req.Decimals,
		SupplyFetched: req.TotalSupply.Valid,
		UpdatedAt:     time.Now().UTC(),
	}
	if req.TotalSupply.Valid {
		vault.TotalSupply = req.TotalSupply.Decimal
	}
	if req.ContributionFraction != nil {
		vault.ContributionFraction = *req.ContributionFraction
		vault.ContributionFetched = true
	}
	if err := validateVault(vault); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err = s.store.UpsertVault(r.Context(), vault)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			writeError(w, "unknown prize pool: "+req.PrizePoolID, http.StatusUnprocessableEntity)
			return
		}
		slog.Error("vault upsert failed", "vault", vault.ID, "err", err)
		writeError(w, "failed to store vault", http.StatusInternalServerError)
		return
	}

	metrics.InputUpdates.WithLabelValues("vault").Inc()
	slog.Info("vault updated",
		"vault", vault.ID,
		"prize_pool", vault.PrizePoolID,
		"total_supply", vault.TotalSupply.String(),
		"contribution", vault.ContributionFraction,
	)

	s.notify(WSMessage{Kind: "vault", PrizePoolID: vault.PrizePoolID, VaultID: vault.ID, UpdatedAt: vault.UpdatedAt})

	writeJSON(w, http.StatusOK, vault)
}

// UpsertBalance handles PUT /api/v1/balances
func (s *Service) UpsertBalance(w http.ResponseWriter, r *http.Request) {
	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	key, err := prizepool.ParseVaultKey(req.VaultID)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	balance := &model.UserBalance{
		UserAddress: strings.ToLower(req.UserAddress),
		VaultID:     key.String(),
		Shares:      req.Shares,
		Delegated:   req.Delegated,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := validateBalance(balance); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err = s.store.UpsertUserBalance(r.Context(), balance)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			writeError(w, "unknown vault: "+balance.VaultID, http.StatusUnprocessableEntity)
			return
		}
		slog.Error("balance upsert failed", "user", balance.UserAddress, "vault", balance.VaultID, "err", err)
		writeError(w, "failed to store balance", http.StatusInternalServerError)
		return
	}

	metrics.InputUpdates.WithLabelValues("balance").Inc()
	s.notify(WSMessage{Kind: "balance", VaultID: balance.VaultID, UserAddress: balance.UserAddress, UpdatedAt: balance.UpdatedAt})

	writeJSON(w, http.StatusOK, balance)
}

// --- Odds handlers ---

// GetOdds handles GET /api/v1/odds/{userAddress}
// Query: variant=draw|grand, window_draws=N or window=<duration>.
func (s *Service) GetOdds(w http.ResponseWriter, r *http.Request) {
	user := strings.ToLower(chi.URLParam(r, "userAddress"))
	variant, err := odds.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, "variant must be draw or grand", http.StatusBadRequest)
		return
	}

	windowDraws, window, err := s.parseWindow(r.URL.Query().Get("window_draws"), r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	snap, err := s.store.LoadSnapshot(r.Context(), user)
	if err != nil {
		slog.Error("snapshot load failed", "user", user, "err", err)
		writeError(w, "failed to load odds inputs", http.StatusInternalServerError)
		return
	}

	resp := s.compute(snap, variant, windowDraws, window)
	metrics.OddsComputations.WithLabelValues(string(variant), "store").Inc()
	metrics.AggregationLatency.WithLabelValues(string(variant)).Observe(time.Since(start).Seconds())

	slog.Debug("odds computed",
		"computation_id", resp.ComputationID,
		"user", user,
		"variant", variant,
		"global", resp.Report.Global.Percent,
		"ready", resp.Report.Ready,
	)

	writeJSON(w, http.StatusOK, resp)
}

// ComputeOdds handles POST /api/v1/odds/compute
// Stateless: the snapshot comes from the request body.
func (s *Service) ComputeOdds(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	variant, err := odds.ParseVariant(req.Variant)
	if err != nil {
		writeError(w, "variant must be draw or grand", http.StatusBadRequest)
		return
	}
	windowDraws, window, err := s.parseWindow(strconv.Itoa(req.WindowDraws), req.Window)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateSnapshot(&req.Snapshot); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Snapshot.TakenAt.IsZero() {
		req.Snapshot.TakenAt = time.Now().UTC()
	}

	resp := s.compute(&req.Snapshot, variant, windowDraws, window)
	metrics.OddsComputations.WithLabelValues(string(variant), "request").Inc()

	writeJSON(w, http.StatusOK, resp)
}

// DepositOdds handles POST /api/v1/odds/deposit
// Returns a vault's single-draw odds now and after a hypothetical deposit.
func (s *Service) DepositOdds(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	key, err := prizepool.ParseVaultKey(req.VaultID)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	vault, err := s.store.GetVault(ctx, key.String())
	if err != nil {
		writeStoreError(w, err, "vault not found")
		return
	}
	pool, err := s.store.GetPrizePool(ctx, vault.PrizePoolID)
	if err != nil {
		writeStoreError(w, err, "prize pool not found")
		return
	}

	current := decimal.Zero
	if req.UserAddress != "" {
		balances, err := s.store.GetUserBalances(ctx, req.UserAddress)
		if err != nil {
			writeError(w, "failed to load balances", http.StatusInternalServerError)
			return
		}
		for _, b := range balances {
			if b.VaultID == vault.ID {
				current = b.Shares.Add(b.Delegated)
				break
			}
		}
	}

	resp := DepositResponse{
		VaultID:     vault.ID,
		PrizePoolID: pool.ID,
		Ready:       pool.TiersFetched && vault.SupplyFetched && vault.ContributionFetched,
	}
	if resp.Ready {
		resp.Current = odds.NewResult(odds.CalculateOdds(current, vault.TotalSupply, vault.Decimals,
			vault.ContributionFraction, pool.EstimatedPrizeCount))
		resp.AfterDeposit = odds.NewResult(odds.DepositOdds(req.Amount, current, vault.TotalSupply, vault.Decimals,
			vault.ContributionFraction, pool.EstimatedPrizeCount))
	} else {
		resp.Current = odds.NewResult(0)
		resp.AfterDeposit = odds.NewResult(0)
	}

	writeJSON(w, http.StatusOK, resp)
}

// compute runs the aggregation over one snapshot and projects it over
// the requested window.
func (s *Service) compute(snap *model.Snapshot, variant odds.Variant, windowDraws int, window time.Duration) OddsResponse {
	report := odds.Aggregate(BuildInputs(snap), variant)
	if report.NotReady > 0 {
		metrics.VaultsNotReady.Add(float64(report.NotReady))
	}

	var windowed odds.WindowedOdds
	if windowDraws > 0 {
		windowed = report.Window(windowDraws)
	} else {
		windowed = report.WindowPerPool(WindowDraws(snap.PrizePools, window))
	}

	return OddsResponse{
		ComputationID: uuid.New().String(),
		User:          snap.User,
		TakenAt:       snap.TakenAt,
		Report:        report,
		Windowed:      windowed,
	}
}

// parseWindow reads an explicit draw count, or else a duration, falling
// back to the configured default window.
func (s *Service) parseWindow(drawsParam, windowParam string) (int, time.Duration, error) {
	if drawsParam != "" && drawsParam != "0" {
		n, err := strconv.Atoi(drawsParam)
		if err != nil || n < 0 {
			return 0, 0, errors.New("window_draws must be a non-negative integer")
		}
		return n, 0, nil
	}
	if windowParam != "" {
		d, err := time.ParseDuration(windowParam)
		if err != nil || d <= 0 {
			return 0, 0, errors.New("window must be a positive duration such as 168h")
		}
		return 0, d, nil
	}
	return 0, s.defaultWindow, nil
}

// notify broadcasts an input change when a hub is attached.
func (s *Service) notify(msg WSMessage) {
	if s.wsHub == nil {
		return
	}
	msg.Type = "inputs_updated"
	s.wsHub.Broadcast(msg)
}

// writeStoreError maps store errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, notFoundMsg, http.StatusNotFound)
		return
	}
	slog.Error("store read failed", "err", err)
	writeError(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
