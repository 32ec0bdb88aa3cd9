package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateListing(ctx context.Context, l *model.Listing) error {
	if err := s.primary.CreateListing(ctx, l); err != nil {
		return err
	}
	s.cacheListing(ctx, l)
	return nil
}

func (s *CachedStore) InsertValuation(ctx context.Context, v *model.Valuation) error {
	if err := s.primary.InsertValuation(ctx, v); err != nil {
		return err
	}
	// The latest valuation is the mark price, so cached holdings for any
	// user may be stale. Holdings are cached per user and invalidated on
	// position writes; valuation writes just cache the new record.
	s.cacheValuation(ctx, v)
	return nil
}

func (s *CachedStore) InsertPosition(ctx context.Context, p *model.Position) error {
	if err := s.primary.InsertPosition(ctx, p); err != nil {
		return err
	}
	// Invalidate holdings cache for this user.
	s.rdb.Del(ctx, holdingsKey(p.UserID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetListing(ctx context.Context, ticker string) (*model.Listing, error) {
	data, err := s.rdb.Get(ctx, listingKey(ticker)).Bytes()
	if err == nil {
		var l model.Listing
		if json.Unmarshal(data, &l) == nil {
			return &l, nil
		}
	}

	// Cache miss: read from primary.
	l, err := s.primary.GetListing(ctx, ticker)
	if err != nil {
		return nil, err
	}

	s.cacheListing(ctx, l)
	return l, nil
}

func (s *CachedStore) GetValuation(ctx context.Context, id string) (*model.Valuation, error) {
	data, err := s.rdb.Get(ctx, valuationKey(id)).Bytes()
	if err == nil {
		var v model.Valuation
		if json.Unmarshal(data, &v) == nil {
			return &v, nil
		}
	}

	// Cache miss. Valuations are immutable, so the cached copy never
	// goes stale.
	v, err := s.primary.GetValuation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheValuation(ctx, v)
	return v, nil
}

func (s *CachedStore) GetUserHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	data, err := s.rdb.Get(ctx, holdingsKey(userID)).Bytes()
	if err == nil {
		var holdings []model.Holding
		if json.Unmarshal(data, &holdings) == nil {
			return holdings, nil
		}
	}

	// Cache miss.
	holdings, err := s.primary.GetUserHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(holdings); err == nil {
		s.rdb.Set(ctx, holdingsKey(userID), data, s.ttl)
	}
	return holdings, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListListings(ctx context.Context) ([]model.Listing, error) {
	return s.primary.ListListings(ctx)
}

func (s *CachedStore) GetValuationsByTicker(ctx context.Context, ticker string) ([]model.Valuation, error) {
	return s.primary.GetValuationsByTicker(ctx, ticker)
}

func (s *CachedStore) GetUserUnderlyingExposures(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	return s.primary.GetUserUnderlyingExposures(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheListing(ctx context.Context, l *model.Listing) {
	if data, err := json.Marshal(l); err == nil {
		s.rdb.Set(ctx, listingKey(l.Ticker), data, s.ttl)
	}
}

func (s *CachedStore) cacheValuation(ctx context.Context, v *model.Valuation) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, valuationKey(v.ID), data, s.ttl)
	}
}

func listingKey(ticker string) string { return fmt.Sprintf("listing:%s", ticker) }
func valuationKey(id string) string   { return fmt.Sprintf("valuation:%s", id) }
func holdingsKey(uid string) string   { return fmt.Sprintf("holdings:%s", uid) }
