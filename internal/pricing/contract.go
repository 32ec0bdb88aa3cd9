package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Payoff kinds.
const (
	KindCall Kind = "CALL"
	KindPut  Kind = "PUT"
)

// Kind identifies the payoff direction of a contract.
type Kind string

// Exercise styles.
const (
	StyleEuropean Style = "EUROPEAN"
	StyleAmerican Style = "AMERICAN"
)

// Style identifies when a contract may be exercised.
type Style string

var (
	// ErrInvalidContract is returned when spot, strike, volatility or
	// time-to-maturity is not strictly positive.
	ErrInvalidContract = errors.New("pricing: contract parameter must be strictly positive")

	// ErrInvalidKind is returned for a payoff kind other than CALL or PUT.
	ErrInvalidKind = errors.New("pricing: unsupported payoff kind")

	// ErrInvalidStyle is returned for an exercise style other than
	// EUROPEAN or AMERICAN.
	ErrInvalidStyle = errors.New("pricing: unsupported exercise style")
)

// Contract is a frozen snapshot of the six valuation parameters. It is
// immutable once constructed: every valuation runs against the same fields,
// and Greek bumps operate on copies, never on the original.
type Contract struct {
	spot   float64
	strike float64
	rate   float64
	vol    float64
	tau    float64 // time to maturity in years
	kind   Kind
	style  Style
}

// NewContract validates and freezes a contract. Spot, strike, volatility and
// time-to-maturity must be strictly positive; the risk-free rate may carry
// any sign. Validation happens here and only here — no partial construction.
func NewContract(spot, strike, rate, vol, tau float64, kind Kind, style Style) (Contract, error) {
	switch {
	case spot <= 0 || math.IsNaN(spot):
		return Contract{}, fmt.Errorf("%w: spot %v", ErrInvalidContract, spot)
	case strike <= 0 || math.IsNaN(strike):
		return Contract{}, fmt.Errorf("%w: strike %v", ErrInvalidContract, strike)
	case vol <= 0 || math.IsNaN(vol):
		return Contract{}, fmt.Errorf("%w: volatility %v", ErrInvalidContract, vol)
	case tau <= 0 || math.IsNaN(tau):
		return Contract{}, fmt.Errorf("%w: time to maturity %v", ErrInvalidContract, tau)
	}
	switch kind {
	case KindCall, KindPut:
	default:
		return Contract{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	switch style {
	case StyleEuropean, StyleAmerican:
	default:
		return Contract{}, fmt.Errorf("%w: %q", ErrInvalidStyle, style)
	}
	return Contract{
		spot:   spot,
		strike: strike,
		rate:   rate,
		vol:    vol,
		tau:    tau,
		kind:   kind,
		style:  style,
	}, nil
}

// Spot returns the underlying price.
func (c Contract) Spot() float64 { return c.spot }

// Strike returns the exercise price.
func (c Contract) Strike() float64 { return c.strike }

// Rate returns the continuously compounded risk-free rate.
func (c Contract) Rate() float64 { return c.rate }

// Volatility returns the annualized volatility.
func (c Contract) Volatility() float64 { return c.vol }

// TimeToMaturity returns the remaining maturity in years.
func (c Contract) TimeToMaturity() float64 { return c.tau }

// Kind returns the payoff kind.
func (c Contract) Kind() Kind { return c.kind }

// Style returns the exercise style.
func (c Contract) Style() Style { return c.style }

// payoff returns the immediate-exercise value at underlying price s.
func (c Contract) payoff(s float64) float64 {
	if c.kind == KindCall {
		return math.Max(0, s-c.strike)
	}
	return math.Max(0, c.strike-s)
}

// Bumped copies for finite differences. The bumps are sized so the copy
// stays within NewContract's invariants; validation is not repeated.

func (c Contract) withSpot(spot float64) Contract {
	c.spot = spot
	return c
}

func (c Contract) withVol(vol float64) Contract {
	c.vol = vol
	return c
}

func (c Contract) withTau(tau float64) Contract {
	c.tau = tau
	return c
}
