package pricing

import (
	"fmt"
	"math"
)

// trinomialParams derives the trinomial lattice parameters. The log-space
// step is dx = σ√(3dt); up/down factors are e^{±dx} with a unit middle
// factor. The branch probabilities come from matching the mean and variance
// of the risk-neutral log-price increment, ν·dt and σ²·dt with drift
// ν = r − σ²/2:
//
//	pu = ((σ²dt + ν²dt²)/dx² + ν·dt/dx) / 2
//	pd = ((σ²dt + ν²dt²)/dx² − ν·dt/dx) / 2
//	pm = 1 − pu − pd
//
// At dx = σ√(3dt) this puts pu ≈ pd ≈ 1/6 and pm ≈ 2/3. All three are
// validated against [0,1]; large drift·dt relative to dx makes pd negative,
// and that must fail fast rather than price anyway.
func trinomialParams(c Contract, steps int) (dt, dx, pu, pm, pd float64, err error) {
	if steps < 1 {
		err = fmt.Errorf("%w: %d", ErrInvalidSteps, steps)
		return
	}
	dt = c.tau / float64(steps)
	dx = c.vol * math.Sqrt(3*dt)

	nu := c.rate - 0.5*c.vol*c.vol
	m2 := (c.vol*c.vol*dt + nu*nu*dt*dt) / (dx * dx)
	drift := nu * dt / dx

	pu = (m2 + drift) / 2
	pd = (m2 - drift) / 2
	pm = 1 - pu - pd

	for _, prob := range []float64{pu, pm, pd} {
		if prob < 0 || prob > 1 || math.IsNaN(prob) {
			err = fmt.Errorf("%w: trinomial probabilities (%g, %g, %g)",
				ErrUnstableParameters, pu, pm, pd)
			return
		}
	}
	return
}

// trinomialPrice values a contract on a fresh trinomial lattice. States at
// step i are j = −i..+i with underlying S·e^{j·dx}; terminal payoffs fill
// the widest layer, then each backward sweep discounts the three-way
// probability-weighted successors. Layers are double-buffered because node
// (i, j) reads successors j−1, j and j+1 of the layer being replaced.
func trinomialPrice(c Contract, steps int) (float64, error) {
	dt, dx, pu, pm, pd, err := trinomialParams(c, steps)
	if err != nil {
		return 0, err
	}
	u := math.Exp(dx)
	disc := math.Exp(-c.rate * dt)

	// Terminal payoffs, indexed j+steps for j = -steps..steps.
	values := make([]float64, 2*steps+1)
	for j := -steps; j <= steps; j++ {
		values[j+steps] = c.payoff(c.spot * math.Pow(u, float64(j)))
	}

	american := c.style == StyleAmerican
	next := make([]float64, 2*steps+1)
	for i := steps - 1; i >= 0; i-- {
		for j := -i; j <= i; j++ {
			cont := disc * (pu*values[j+1+steps] + pm*values[j+steps] + pd*values[j-1+steps])
			if american {
				if ex := c.payoff(c.spot * math.Pow(u, float64(j))); ex > cont {
					cont = ex
				}
			}
			next[j+steps] = cont
		}
		values, next = next, values
	}
	return values[steps], nil
}
