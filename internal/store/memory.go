package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu         sync.RWMutex
	listings   map[string]*model.Listing
	valuations []model.Valuation
	positions  []model.Position
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]*model.Listing),
	}
}

func (s *MemoryStore) CreateListing(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[l.Ticker]; exists {
		return fmt.Errorf("listing %s already exists", l.Ticker)
	}

	// Store a copy to avoid external mutation.
	copy := *l
	s.listings[l.Ticker] = &copy
	return nil
}

func (s *MemoryStore) GetListing(_ context.Context, ticker string) (*model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[ticker]
	if !ok {
		return nil, fmt.Errorf("listing %s not found", ticker)
	}
	copy := *l
	return &copy, nil
}

func (s *MemoryStore) ListListings(_ context.Context) ([]model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listings := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		listings = append(listings, *l)
	}
	return listings, nil
}

func (s *MemoryStore) InsertValuation(_ context.Context, v *model.Valuation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valuations = append(s.valuations, *v)
	return nil
}

func (s *MemoryStore) GetValuation(_ context.Context, id string) (*model.Valuation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.valuations {
		if s.valuations[i].ID == id {
			copy := s.valuations[i]
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("valuation %s not found", id)
}

func (s *MemoryStore) GetValuationsByTicker(_ context.Context, ticker string) ([]model.Valuation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Valuation
	// Newest first: the slice is append-ordered, walk it backwards.
	for i := len(s.valuations) - 1; i >= 0; i-- {
		if s.valuations[i].Ticker == ticker {
			result = append(result, s.valuations[i])
		}
	}
	return result, nil
}

func (s *MemoryStore) InsertPosition(_ context.Context, p *model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = append(s.positions, *p)
	return nil
}

// GetUserHoldings aggregates fill records into holdings per listing.
// Marks against the latest valuation price, falling back to cost basis
// for listings never valued.
func (s *MemoryStore) GetUserHoldings(_ context.Context, userID string) ([]model.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type holdAgg struct {
		ticker     string
		underlying string
		netQty     decimal.Decimal
		costBasis  decimal.Decimal
	}

	agg := make(map[string]*holdAgg)

	// Aggregate from fills (single lock, no re-entrant calls).
	for _, p := range s.positions {
		if p.UserID != userID {
			continue
		}
		ha, ok := agg[p.Ticker]
		if !ok {
			ha = &holdAgg{
				ticker:     p.Ticker,
				underlying: p.Underlying,
			}
			agg[p.Ticker] = ha
		}
		ha.netQty = ha.netQty.Add(p.Quantity)
		ha.costBasis = ha.costBasis.Add(p.Cost)
	}

	var holdings []model.Holding
	for _, ha := range agg {
		mark, ok := s.latestPrice(ha.ticker) // direct access, already under RLock
		currentValue := ha.costBasis
		if ok {
			currentValue = mark.Mul(ha.netQty)
		}
		holdings = append(holdings, model.Holding{
			UserID:        userID,
			Ticker:        ha.ticker,
			Underlying:    ha.underlying,
			NetQuantity:   ha.netQty,
			CostBasis:     ha.costBasis,
			CurrentValue:  currentValue,
			UnrealizedPnL: currentValue.Sub(ha.costBasis),
		})
	}

	return holdings, nil
}

// GetUserUnderlyingExposures returns net delta exposure per underlying,
// Σ quantity · entry delta across the user's fills.
func (s *MemoryStore) GetUserUnderlyingExposures(_ context.Context, userID string) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exposures := make(map[string]decimal.Decimal)
	for _, p := range s.positions {
		if p.UserID != userID || p.Underlying == "" {
			continue
		}
		exposures[p.Underlying] = exposures[p.Underlying].Add(p.Quantity.Mul(p.DeltaAtEntry))
	}
	return exposures, nil
}

// latestPrice returns the most recent valuation price for a ticker.
// Caller must hold at least a read lock.
func (s *MemoryStore) latestPrice(ticker string) (decimal.Decimal, bool) {
	for i := len(s.valuations) - 1; i >= 0; i-- {
		if s.valuations[i].Ticker == ticker {
			return s.valuations[i].Price, true
		}
	}
	return decimal.Decimal{}, false
}
