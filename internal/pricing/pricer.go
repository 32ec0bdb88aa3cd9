// Package pricing implements valuation of vanilla options: the closed-form
// Black-Scholes formula for European contracts, Cox-Ross-Rubinstein binomial
// and trinomial lattices for European and American exercise, finite-difference
// Greeks, and a bisection implied-volatility solver.
//
// Everything in this package is pure float64 computation with no I/O, no
// logging and no shared mutable state — each valuation builds and discards
// its own lattice, so independent calls are safe to run concurrently.
// Monetary values elsewhere in the service use shopspring/decimal; callers
// convert at the boundary.
package pricing

import (
	"errors"
	"fmt"
)

// Model names accepted by ParseModel. The strings live only at the parsing
// edge; everything inside the package dispatches on the Model tag.
const (
	modelNameBlackScholes  = "BlackScholes"
	modelNameBinomialTree  = "BinomialTree"
	modelNameTrinomialTree = "TrinomialTree"
)

// Model is the enumerated pricing-model tag.
type Model int

const (
	ModelBlackScholes Model = iota
	ModelBinomialTree
	ModelTrinomialTree
)

var (
	// ErrUnknownModel is returned for a model name or tag outside the
	// supported set.
	ErrUnknownModel = errors.New("pricing: unknown pricing model")

	// ErrEuropeanOnly is returned when American exercise is requested
	// against the analytic Black-Scholes model.
	ErrEuropeanOnly = errors.New("pricing: Black-Scholes prices European exercise only")

	// ErrInvalidSteps is returned when a lattice is requested with fewer
	// than one time step.
	ErrInvalidSteps = errors.New("pricing: lattice requires at least one step")

	// ErrUnstableParameters is returned when the derived risk-neutral
	// probabilities fall outside [0,1].
	ErrUnstableParameters = errors.New("pricing: risk-neutral probability outside [0,1]")
)

// String returns the model's canonical name.
func (m Model) String() string {
	switch m {
	case ModelBlackScholes:
		return modelNameBlackScholes
	case ModelBinomialTree:
		return modelNameBinomialTree
	case ModelTrinomialTree:
		return modelNameTrinomialTree
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// ParseModel maps a model name to its tag. Intended for the outermost
// request-parsing edge only.
func ParseModel(name string) (Model, error) {
	switch name {
	case modelNameBlackScholes:
		return ModelBlackScholes, nil
	case modelNameBinomialTree:
		return ModelBinomialTree, nil
	case modelNameTrinomialTree:
		return ModelTrinomialTree, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// IsLattice reports whether the model is tree-based (and therefore takes a
// step count).
func (m Model) IsLattice() bool {
	return m == ModelBinomialTree || m == ModelTrinomialTree
}

// Pricer values one frozen contract under one model. It is a tagged union
// over the three supported models rather than an open hierarchy, so callers
// aggregating heterogeneous pricers can switch exhaustively on Model().
type Pricer struct {
	model    Model
	contract Contract
	steps    int
}

// NewPricer validates the model/contract pairing and, for lattice models,
// the step count and derived probabilities. Every failure surfaces here, at
// construction — Price never fails on inputs that passed NewPricer, except
// through Greek bumps re-deriving lattice parameters.
//
// steps is ignored for ModelBlackScholes.
func NewPricer(model Model, c Contract, steps int) (*Pricer, error) {
	switch model {
	case ModelBlackScholes:
		if c.style == StyleAmerican {
			return nil, ErrEuropeanOnly
		}
		steps = 0
	case ModelBinomialTree:
		if _, _, _, _, err := binomialParams(c, steps); err != nil {
			return nil, err
		}
	case ModelTrinomialTree:
		if _, _, _, _, _, err := trinomialParams(c, steps); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, int(model))
	}
	return &Pricer{model: model, contract: c, steps: steps}, nil
}

// Model returns the pricing-model tag.
func (p *Pricer) Model() Model { return p.model }

// Contract returns the frozen contract snapshot.
func (p *Pricer) Contract() Contract { return p.contract }

// Steps returns the lattice resolution (0 for the analytic model).
func (p *Pricer) Steps() int { return p.steps }

// Price values the contract. Lattice models allocate a fresh tree per call
// and discard it on return; nothing is cached across calls.
func (p *Pricer) Price() (float64, error) {
	return p.priceContract(p.contract)
}

// priceContract dispatches a valuation of c under this pricer's model and
// resolution. Greek bumps call it with perturbed copies of the contract.
func (p *Pricer) priceContract(c Contract) (float64, error) {
	switch p.model {
	case ModelBlackScholes:
		return blackScholesPrice(c), nil
	case ModelBinomialTree:
		return binomialPrice(c, p.steps)
	case ModelTrinomialTree:
		return trinomialPrice(c, p.steps)
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownModel, int(p.model))
}
