// Package valuation provides the HTTP handlers and business logic for
// listing contracts, running pricing models, solving implied volatility,
// and booking positions.
//
// All monetary values use shopspring/decimal — never float64 for money.
// Model inputs cross into float64 only at the pricing-core boundary.
package valuation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/metrics"
	"github.com/optx/options-engine/internal/model"
	"github.com/optx/options-engine/internal/option"
	"github.com/optx/options-engine/internal/pricing"
	"github.com/optx/options-engine/internal/risk"
	"github.com/optx/options-engine/internal/store"
)

// Default lattice resolutions when a request leaves steps unset.
const (
	defaultBinomialSteps  = 1000
	defaultTrinomialSteps = 80
)

// Service handles valuation operations. Uses a mutex to serialize position
// booking (single-instance). For horizontal scaling, replace with
// distributed locking or database-level optimistic concurrency.
type Service struct {
	store   store.Store
	limiter *risk.ExposureLimiter
	mu      sync.Mutex
	wsHub   *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new valuation service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *risk.ExposureLimiter, hub *WSHub) *Service {
	return &Service{
		store:   st,
		limiter: limiter,
		wsHub:   hub,
	}
}

// --- Request/Response types ---

// CreateListingRequest is the JSON body for contract listing.
type CreateListingRequest struct {
	Ticker string `json:"ticker"` // OPT-{underlying}-{C|P}-{E|A}-{strike}-{date}
}

// ValuationRequest is the JSON body for POST /valuations.
type ValuationRequest struct {
	Ticker     string          `json:"ticker"`
	Model      string          `json:"model"` // BlackScholes, BinomialTree, TrinomialTree
	Spot       decimal.Decimal `json:"spot"`
	Rate       decimal.Decimal `json:"rate"`
	Volatility decimal.Decimal `json:"volatility"`
	Steps      int             `json:"steps,omitempty"` // 0 → model default
}

// ImpliedVolRequest is the JSON body for POST /implied-vol.
type ImpliedVolRequest struct {
	Ticker      string          `json:"ticker"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Spot        decimal.Decimal `json:"spot"`
	Rate        decimal.Decimal `json:"rate"`
}

// ImpliedVolResponse is the JSON body returned from POST /implied-vol.
type ImpliedVolResponse struct {
	Ticker            string          `json:"ticker"`
	TargetPrice       decimal.Decimal `json:"target_price"`
	ImpliedVolatility float64         `json:"implied_volatility"`
}

// PositionRequest is the JSON body for POST /positions.
type PositionRequest struct {
	UserID   string          `json:"user_id"`
	Ticker   string          `json:"ticker"`
	Quantity decimal.Decimal `json:"quantity"` // positive = long, negative = short
}

// PositionResponse is the JSON body returned from POST /positions.
type PositionResponse struct {
	PositionID string          `json:"position_id"`
	UserID     string          `json:"user_id"`
	Ticker     string          `json:"ticker"`
	Quantity   decimal.Decimal `json:"quantity"`
	Premium    decimal.Decimal `json:"premium"`
	Cost       decimal.Decimal `json:"cost"`
}

// --- HTTP Handlers ---

// CreateListing handles POST /api/v1/contracts
func (s *Service) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	parsed, err := option.ParseTicker(req.Ticker)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	listing := &model.Listing{
		Ticker:     parsed.Ticker,
		Underlying: parsed.Underlying,
		Kind:       string(parsed.Kind),
		Style:      string(parsed.Style),
		Strike:     parsed.Strike,
		ExpiryDate: parsed.ExpiryDate,
		Status:     "listed",
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.CreateListing(r.Context(), listing); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	metrics.ActiveListings.Inc()
	slog.Info("contract listed",
		"ticker", listing.Ticker,
		"underlying", listing.Underlying,
		"kind", listing.Kind,
		"style", listing.Style,
		"strike", listing.Strike.String(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(listing)
}

// GetListing handles GET /api/v1/contracts/{ticker}
func (s *Service) GetListing(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	listing, err := s.store.GetListing(r.Context(), ticker)
	if err != nil {
		writeError(w, "contract not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listing)
}

// ListListings handles GET /api/v1/contracts
// Returns all listings, optionally filtered by ?underlying=<symbol>.
func (s *Service) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.ListListings(r.Context())
	if err != nil {
		writeError(w, "failed to list contracts", http.StatusInternalServerError)
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	if underlying := r.URL.Query().Get("underlying"); underlying != "" {
		var filtered []model.Listing
		for _, l := range listings {
			if l.Underlying == underlying {
				filtered = append(filtered, l)
			}
		}
		if filtered == nil {
			filtered = []model.Listing{}
		}
		listings = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

// CreateValuation handles POST /api/v1/valuations
// Runs the requested pricing model and appends an immutable valuation record.
func (s *Service) CreateValuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	mdl, err := pricing.ParseModel(req.Model)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	listing, err := s.store.GetListing(ctx, req.Ticker)
	if err != nil {
		writeError(w, "contract not found: "+req.Ticker, http.StatusNotFound)
		return
	}

	opt, err := option.ParseTicker(listing.Ticker)
	if err != nil {
		writeError(w, "internal error: stored ticker is invalid", http.StatusInternalServerError)
		return
	}

	tau, err := opt.TimeToMaturity(time.Now().UTC())
	if err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	steps := req.Steps
	if steps == 0 {
		switch mdl {
		case pricing.ModelBinomialTree:
			steps = defaultBinomialSteps
		case pricing.ModelTrinomialTree:
			steps = defaultTrinomialSteps
		}
	}

	spot, _ := req.Spot.Float64()
	rate, _ := req.Rate.Float64()
	vol, _ := req.Volatility.Float64()

	contract, err := pricing.NewContract(spot, opt.StrikeFloat(), rate, vol, tau, opt.Kind, opt.Style)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pricer, err := pricing.NewPricer(mdl, contract, steps)
	if err != nil {
		writeError(w, err.Error(), pricerErrorStatus(err))
		return
	}

	start := time.Now()
	price, err := pricer.Price()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	greeks, err := pricer.Greeks()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ValuationLatency.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
	metrics.ValuationsTotal.WithLabelValues(req.Model).Inc()

	v := &model.Valuation{
		ID:         uuid.New().String(),
		Ticker:     listing.Ticker,
		Model:      mdl.String(),
		Spot:       req.Spot,
		Rate:       req.Rate,
		Volatility: req.Volatility,
		Steps:      pricer.Steps(),
		Price:      decimal.NewFromFloat(price).Round(6),
		Delta:      greeks.Delta,
		Gamma:      greeks.Gamma,
		Theta:      greeks.Theta,
		Vega:       greeks.Vega,
		Rho:        greeks.Rho,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.InsertValuation(ctx, v); err != nil {
		writeError(w, "failed to record valuation", http.StatusInternalServerError)
		return
	}

	slog.Info("valuation completed",
		"id", v.ID,
		"ticker", v.Ticker,
		"model", v.Model,
		"price", v.Price.String(),
		"delta", v.Delta,
	)

	// Broadcast the new mark via WebSocket.
	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:        "valuation_completed",
			ValuationID: v.ID,
			Ticker:      v.Ticker,
			Model:       v.Model,
			Price:       v.Price.String(),
			Delta:       v.Delta,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(v)
}

// GetValuation handles GET /api/v1/valuations/{valuationID}
func (s *Service) GetValuation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "valuationID")

	v, err := s.store.GetValuation(r.Context(), id)
	if err != nil {
		writeError(w, "valuation not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// GetValuationHistory handles GET /api/v1/contracts/{ticker}/valuations
// Returns the immutable valuation log for a listing, newest first.
func (s *Service) GetValuationHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	valuations, err := s.store.GetValuationsByTicker(r.Context(), ticker)
	if err != nil {
		writeError(w, "failed to get valuation history", http.StatusInternalServerError)
		return
	}
	if valuations == nil {
		valuations = []model.Valuation{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(valuations)
}

// SolveImpliedVol handles POST /api/v1/implied-vol
// Inverts the Black-Scholes price for the volatility that reproduces a
// quoted premium. Out-of-bounds targets map to 409, solver exhaustion to 422.
func (s *Service) SolveImpliedVol(w http.ResponseWriter, r *http.Request) {
	var req ImpliedVolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := s.store.GetListing(r.Context(), req.Ticker)
	if err != nil {
		writeError(w, "contract not found: "+req.Ticker, http.StatusNotFound)
		return
	}

	opt, err := option.ParseTicker(listing.Ticker)
	if err != nil {
		writeError(w, "internal error: stored ticker is invalid", http.StatusInternalServerError)
		return
	}

	tau, err := opt.TimeToMaturity(time.Now().UTC())
	if err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	target, _ := req.TargetPrice.Float64()
	spot, _ := req.Spot.Float64()
	rate, _ := req.Rate.Float64()

	vol, err := pricing.ImpliedVolatility(target, spot, opt.StrikeFloat(), rate, tau, opt.Kind)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrTargetOutOfBounds):
			metrics.ImpliedVolSolves.WithLabelValues("out_of_bounds").Inc()
			writeError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, pricing.ErrNoConvergence):
			metrics.ImpliedVolSolves.WithLabelValues("no_convergence").Inc()
			writeError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			metrics.ImpliedVolSolves.WithLabelValues("invalid").Inc()
			writeError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	metrics.ImpliedVolSolves.WithLabelValues("ok").Inc()

	slog.Info("implied vol solved",
		"ticker", req.Ticker,
		"target", req.TargetPrice.String(),
		"vol", vol,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ImpliedVolResponse{
		Ticker:            req.Ticker,
		TargetPrice:       req.TargetPrice,
		ImpliedVolatility: vol,
	})
}

// BookPosition handles POST /api/v1/positions
// Books a fill against the latest valuation, subject to exposure limits.
func (s *Service) BookPosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// --- Input validation ---
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Quantity.IsZero() {
		writeError(w, "quantity must be non-zero", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize position booking.
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.store.GetListing(ctx, req.Ticker)
	if err != nil {
		writeError(w, "contract not found: "+req.Ticker, http.StatusNotFound)
		return
	}

	// The latest valuation is the fill mark. A listing that has never
	// been valued cannot be traded against.
	marks, err := s.store.GetValuationsByTicker(ctx, listing.Ticker)
	if err != nil || len(marks) == 0 {
		writeError(w, "no valuation available for "+req.Ticker, http.StatusConflict)
		return
	}
	mark := marks[0]

	// --- Exposure limit check ---
	entryDelta := decimal.NewFromFloat(mark.Delta)
	exposureDelta := req.Quantity.Mul(entryDelta)

	exposures, err := s.store.GetUserUnderlyingExposures(ctx, req.UserID)
	if err != nil {
		writeError(w, "failed to check exposure limits", http.StatusInternalServerError)
		return
	}

	if err := s.limiter.CheckLimit(listing.Underlying, exposureDelta, exposures); err != nil {
		metrics.ExposureLimitRejections.Inc()
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	cost := mark.Price.Mul(req.Quantity)

	position := &model.Position{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Ticker:       listing.Ticker,
		Underlying:   listing.Underlying,
		Quantity:     req.Quantity,
		Premium:      mark.Price,
		Cost:         cost,
		DeltaAtEntry: entryDelta,
		Timestamp:    time.Now().UTC(),
	}

	if err := s.store.InsertPosition(ctx, position); err != nil {
		writeError(w, "failed to record position", http.StatusInternalServerError)
		return
	}

	slog.Info("position booked",
		"position_id", position.ID,
		"user", req.UserID,
		"ticker", req.Ticker,
		"qty", req.Quantity.String(),
		"premium", mark.Price.String(),
		"cost", cost.String(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(PositionResponse{
		PositionID: position.ID,
		UserID:     req.UserID,
		Ticker:     req.Ticker,
		Quantity:   req.Quantity,
		Premium:    mark.Price,
		Cost:       cost,
	})
}

// GetPortfolio handles GET /api/v1/portfolio/{userID}
// Returns holdings, P&L, and net delta exposure per underlying.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx := r.Context()

	holdings, err := s.store.GetUserHoldings(ctx, userID)
	if err != nil {
		writeError(w, "failed to load holdings", http.StatusInternalServerError)
		return
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}

	exposures, err := s.store.GetUserUnderlyingExposures(ctx, userID)
	if err != nil {
		writeError(w, "failed to load exposures", http.StatusInternalServerError)
		return
	}

	totalValue := decimal.Zero
	totalPnL := decimal.Zero
	netDelta := decimal.Zero

	for _, h := range holdings {
		totalValue = totalValue.Add(h.CurrentValue)
		totalPnL = totalPnL.Add(h.UnrealizedPnL)
	}
	for _, exp := range exposures {
		netDelta = netDelta.Add(exp)
	}

	portfolio := model.Portfolio{
		UserID:               userID,
		Holdings:             holdings,
		TotalValue:           totalValue,
		TotalPnL:             totalPnL,
		NetDelta:             netDelta,
		ExposureByUnderlying: exposures,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolio)
}

// pricerErrorStatus maps pricer construction failures to HTTP statuses.
// Bad caller input is 400; parameter combinations the lattice cannot
// represent are 422.
func pricerErrorStatus(err error) int {
	if errors.Is(err, pricing.ErrUnstableParameters) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
