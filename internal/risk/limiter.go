// Package risk implements delta-exposure limits on booked positions.
//
// A user short 500 deltas of one underlying across ten different strikes
// carries the same directional risk as one concentrated position. This
// package tracks net delta exposure per underlying and enforces both
// per-underlying and aggregate caps.
package risk

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnderlyingLimitExceeded is returned when a fill would push the
	// net delta exposure on a single underlying beyond the per-underlying
	// maximum.
	ErrUnderlyingLimitExceeded = errors.New("risk: per-underlying exposure limit exceeded")

	// ErrAggregateLimitExceeded is returned when a fill would push the
	// user's total absolute delta exposure across all underlyings beyond
	// the aggregate maximum.
	ErrAggregateLimitExceeded = errors.New("risk: aggregate exposure limit exceeded")
)

// ExposureLimiter enforces delta-exposure limits on a user's book.
//
// Exposure is measured in underlying-equivalent units: quantity times the
// option's delta at entry. Long calls and short puts both add positive
// exposure; the limits bound the absolute net figure so concentrated
// directional books are rejected regardless of sign.
type ExposureLimiter struct {
	// MaxPerUnderlying is the maximum absolute net delta exposure on any
	// single underlying.
	MaxPerUnderlying decimal.Decimal

	// MaxAggregate is the maximum sum of absolute net delta exposures
	// across all underlyings.
	MaxAggregate decimal.Decimal
}

// NewExposureLimiter creates a limiter with the given per-underlying and
// aggregate exposure caps.
func NewExposureLimiter(maxPerUnderlying, maxAggregate decimal.Decimal) *ExposureLimiter {
	return &ExposureLimiter{
		MaxPerUnderlying: maxPerUnderlying,
		MaxAggregate:     maxAggregate,
	}
}

// CheckLimit validates whether a fill respects exposure limits.
//
// Parameters:
//   - underlying: ticker symbol of the option's underlying
//   - exposureDelta: signed change in delta exposure (quantity × entry delta)
//   - existingExposures: map of underlying → current net delta exposure for this user
//
// Returns nil if the fill is within limits, or an error describing the violation.
func (l *ExposureLimiter) CheckLimit(
	underlying string,
	exposureDelta decimal.Decimal,
	existingExposures map[string]decimal.Decimal,
) error {
	// 1. Per-underlying limit.
	current := existingExposures[underlying]
	newExposure := current.Add(exposureDelta)

	if newExposure.Abs().GreaterThan(l.MaxPerUnderlying) {
		return ErrUnderlyingLimitExceeded
	}

	// 2. Aggregate limit: sum |exposure| across the whole book.
	total := newExposure.Abs()
	for sym, exposure := range existingExposures {
		if sym == underlying {
			continue // already counted via newExposure above
		}
		total = total.Add(exposure.Abs())
	}

	if total.GreaterThan(l.MaxAggregate) {
		return ErrAggregateLimitExceeded
	}

	return nil
}
