// Package model defines the core domain types shared across the options engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing represents a listed option contract available for valuation.
type Listing struct {
	Ticker     string          `json:"ticker" db:"ticker"`
	Underlying string          `json:"underlying" db:"underlying"`
	Kind       string          `json:"kind" db:"kind"`   // "CALL" or "PUT"
	Style      string          `json:"style" db:"style"` // "EUROPEAN" or "AMERICAN"
	Strike     decimal.Decimal `json:"strike" db:"strike"`
	ExpiryDate time.Time       `json:"expiry_date" db:"expiry_date"`
	Status     string          `json:"status" db:"status"` // "listed", "expired"
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Valuation is an immutable record of one pricing run against a listing.
// Once created, these are never modified or deleted.
type Valuation struct {
	ID         string          `json:"id" db:"id"`
	Ticker     string          `json:"ticker" db:"ticker"`
	Model      string          `json:"model" db:"model"` // pricing model name
	Spot       decimal.Decimal `json:"spot" db:"spot"`
	Rate       decimal.Decimal `json:"rate" db:"rate"`
	Volatility decimal.Decimal `json:"volatility" db:"volatility"`
	Steps      int             `json:"steps,omitempty" db:"steps"` // 0 for closed-form
	Price      decimal.Decimal `json:"price" db:"price"`
	Delta      float64         `json:"delta" db:"delta"`
	Gamma      float64         `json:"gamma" db:"gamma"`
	Theta      float64         `json:"theta" db:"theta"`
	Vega       float64         `json:"vega" db:"vega"`
	Rho        float64         `json:"rho" db:"rho"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Position is an immutable record of a booked fill against a listing.
// Schema: {user, ticker, quantity, premium, timestamp}
type Position struct {
	ID           string          `json:"id" db:"id"`
	UserID       string          `json:"user_id" db:"user_id"`
	Ticker       string          `json:"ticker" db:"ticker"`
	Underlying   string          `json:"underlying" db:"underlying"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"` // signed: +long, -short
	Premium      decimal.Decimal `json:"premium" db:"premium"`   // per-contract fill price
	Cost         decimal.Decimal `json:"cost" db:"cost"`         // total cost (signed)
	DeltaAtEntry decimal.Decimal `json:"delta_at_entry" db:"delta_at_entry"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// Holding is a trader's aggregate position in one listing, marked against
// the most recent valuation when one exists.
type Holding struct {
	UserID        string          `json:"user_id"`
	Ticker        string          `json:"ticker"`
	Underlying    string          `json:"underlying"`
	NetQuantity   decimal.Decimal `json:"net_quantity"`
	CostBasis     decimal.Decimal `json:"cost_basis"`     // net cash outflow
	CurrentValue  decimal.Decimal `json:"current_value"`  // mark-to-market
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"` // currentValue - costBasis
}

// Portfolio aggregates all holdings for a user with P&L and risk metrics.
type Portfolio struct {
	UserID               string                     `json:"user_id"`
	Holdings             []Holding                  `json:"holdings"`
	TotalValue           decimal.Decimal            `json:"total_value"`
	TotalPnL             decimal.Decimal            `json:"total_pnl"`
	NetDelta             decimal.Decimal            `json:"net_delta"`             // Σ qty·δ
	ExposureByUnderlying map[string]decimal.Decimal `json:"exposure_by_underlying"` // underlying → net delta
}
