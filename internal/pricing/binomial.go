package pricing

import (
	"fmt"
	"math"
)

// binomialParams derives the Cox-Ross-Rubinstein lattice parameters:
// up factor u = e^{σ√dt}, down factor d = 1/u, and risk-neutral up
// probability p = (e^{r·dt} − d) / (u − d). The probability is validated
// against [0,1] so extreme rate/volatility combinations fail fast instead
// of propagating nonsensical weights.
func binomialParams(c Contract, steps int) (dt, u, d, p float64, err error) {
	if steps < 1 {
		err = fmt.Errorf("%w: %d", ErrInvalidSteps, steps)
		return
	}
	dt = c.tau / float64(steps)
	u = math.Exp(c.vol * math.Sqrt(dt))
	d = 1 / u
	p = (math.Exp(c.rate*dt) - d) / (u - d)
	if p < 0 || p > 1 || math.IsNaN(p) {
		err = fmt.Errorf("%w: binomial up probability %g", ErrUnstableParameters, p)
	}
	return
}

// binomialPrice values a contract on a fresh CRR lattice: terminal payoffs
// at step N, then backward induction discounting the probability-weighted
// successor pair at each node. American exercise replaces the continuation
// value whenever immediate payoff strictly exceeds it (ties keep the
// continuation value). The lattice is discarded on return.
func binomialPrice(c Contract, steps int) (float64, error) {
	dt, u, d, p, err := binomialParams(c, steps)
	if err != nil {
		return 0, err
	}
	disc := math.Exp(-c.rate * dt)

	// Terminal payoffs. Index i counts down-moves, so i=0 is the top node.
	values := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		sT := c.spot * math.Pow(u, float64(steps-i)) * math.Pow(d, float64(i))
		values[i] = c.payoff(sT)
	}

	// Backward induction, overwriting the value layer in place.
	american := c.style == StyleAmerican
	for j := steps - 1; j >= 0; j-- {
		for i := 0; i <= j; i++ {
			cont := disc * (p*values[i] + (1-p)*values[i+1])
			if american {
				s := c.spot * math.Pow(u, float64(j-i)) * math.Pow(d, float64(i))
				if ex := c.payoff(s); ex > cont {
					cont = ex
				}
			}
			values[i] = cont
		}
	}
	return values[0], nil
}
