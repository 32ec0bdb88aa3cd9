package pricing

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidTarget is returned when the observed price is not positive.
	ErrInvalidTarget = errors.New("pricing: target price must be positive")

	// ErrInvalidSolverParams is returned for a malformed search bracket,
	// tolerance or iteration budget.
	ErrInvalidSolverParams = errors.New("pricing: invalid implied-volatility solver parameters")

	// ErrTargetOutOfBounds is returned before any iteration when the target
	// price does not lie strictly between the prices at the bracket ends.
	// It signals an unachievable price, not a convergence failure.
	ErrTargetOutOfBounds = errors.New("pricing: target price outside achievable price bounds")

	// ErrNoConvergence is returned when the iteration budget is exhausted
	// without meeting tolerance. It signals a too-tight tolerance or
	// too-small budget, not a bad input.
	ErrNoConvergence = errors.New("pricing: implied volatility did not converge")
)

// SolverParams configures the bisection implied-volatility search.
type SolverParams struct {
	VolLow        float64
	VolHigh       float64
	Tolerance     float64
	MaxIterations int
}

// DefaultSolverParams returns the standard search configuration: bracket
// [0.001, 2.0] (0.1%–200% volatility), price tolerance 1e-6, and a budget
// of 1000 iterations.
func DefaultSolverParams() SolverParams {
	return SolverParams{
		VolLow:        0.001,
		VolHigh:       2.0,
		Tolerance:     1e-6,
		MaxIterations: 1000,
	}
}

// ImpliedVolatility inverts the Black-Scholes price for volatility with the
// default solver parameters.
func ImpliedVolatility(targetPrice, spot, strike, rate, tau float64, kind Kind) (float64, error) {
	return ImpliedVolatilityWithParams(targetPrice, spot, strike, rate, tau, kind, DefaultSolverParams())
}

// ImpliedVolatilityWithParams searches [VolLow, VolHigh] by bisection for
// the volatility whose Black-Scholes price matches targetPrice within
// Tolerance. The Black-Scholes price is strictly increasing in volatility
// for both calls and puts, so a target strictly inside the bracket's price
// range is always reachable. A target at or beyond either bound fails
// immediately with ErrTargetOutOfBounds; equality with a bound price counts
// as out of bounds.
func ImpliedVolatilityWithParams(targetPrice, spot, strike, rate, tau float64, kind Kind, params SolverParams) (float64, error) {
	if targetPrice <= 0 || math.IsNaN(targetPrice) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTarget, targetPrice)
	}
	if params.VolLow <= 0 || params.VolHigh <= params.VolLow {
		return 0, fmt.Errorf("%w: bracket [%g, %g]", ErrInvalidSolverParams, params.VolLow, params.VolHigh)
	}
	if params.Tolerance <= 0 || params.MaxIterations < 1 {
		return 0, fmt.Errorf("%w: tolerance %g, max iterations %d",
			ErrInvalidSolverParams, params.Tolerance, params.MaxIterations)
	}

	// The oracle is analytic-only, so the probe contract is European
	// regardless of the contract being quoted.
	probe, err := NewContract(spot, strike, rate, params.VolLow, tau, kind, StyleEuropean)
	if err != nil {
		return 0, err
	}

	volLow, volHigh := params.VolLow, params.VolHigh
	priceLow := blackScholesPrice(probe)
	priceHigh := blackScholesPrice(probe.withVol(volHigh))

	if targetPrice <= priceLow || targetPrice >= priceHigh {
		return 0, fmt.Errorf("%w: target %g not strictly inside (%g, %g)",
			ErrTargetOutOfBounds, targetPrice, priceLow, priceHigh)
	}

	vol := (volLow + volHigh) / 2
	for i := 0; i < params.MaxIterations; i++ {
		price := blackScholesPrice(probe.withVol(vol))
		if math.Abs(price-targetPrice) < params.Tolerance {
			return vol, nil
		}
		if price < targetPrice {
			volLow = vol
		} else {
			volHigh = vol
		}
		vol = (volLow + volHigh) / 2
	}
	return 0, fmt.Errorf("%w: %d iterations at tolerance %g",
		ErrNoConvergence, params.MaxIterations, params.Tolerance)
}
