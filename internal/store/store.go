// Package store defines the persistence interface for the options engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Listing operations ---

	// CreateListing persists a new option listing.
	CreateListing(ctx context.Context, listing *model.Listing) error

	// GetListing retrieves a listing by its ticker.
	GetListing(ctx context.Context, ticker string) (*model.Listing, error)

	// ListListings returns all listings.
	ListListings(ctx context.Context) ([]model.Listing, error)

	// --- Immutable valuation log ---

	// InsertValuation appends an immutable pricing record.
	InsertValuation(ctx context.Context, v *model.Valuation) error

	// GetValuation retrieves a valuation by its ID.
	GetValuation(ctx context.Context, id string) (*model.Valuation, error)

	// GetValuationsByTicker returns all valuations for a listing,
	// newest first.
	GetValuationsByTicker(ctx context.Context, ticker string) ([]model.Valuation, error)

	// --- Positions ---

	// InsertPosition appends an immutable fill record.
	InsertPosition(ctx context.Context, p *model.Position) error

	// GetUserHoldings aggregates fills into per-listing holdings,
	// marked against the latest valuation.
	GetUserHoldings(ctx context.Context, userID string) ([]model.Holding, error)

	// GetUserUnderlyingExposures returns net delta exposure per underlying.
	GetUserUnderlyingExposures(ctx context.Context, userID string) (map[string]decimal.Decimal, error)
}
