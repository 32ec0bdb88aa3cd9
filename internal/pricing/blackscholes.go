package pricing

import "math"

// d1d2 computes the two-term log-moneyness decomposition used by every
// closed-form expression in this file:
//
//	d1 = (ln(S/K) + (r + σ²/2)τ) / (σ√τ)
//	d2 = d1 − σ√τ
func d1d2(c Contract) (float64, float64) {
	sqrtTau := math.Sqrt(c.tau)
	d1 := (math.Log(c.spot/c.strike) + (c.rate+0.5*c.vol*c.vol)*c.tau) / (c.vol * sqrtTau)
	return d1, d1 - c.vol*sqrtTau
}

// blackScholesPrice returns the closed-form European price. The put price
// uses the symmetric formula with negated arguments, so put-call parity
// holds to floating-point tolerance.
func blackScholesPrice(c Contract) float64 {
	d1, d2 := d1d2(c)
	disc := math.Exp(-c.rate * c.tau)
	if c.kind == KindCall {
		return c.spot*normCDF(d1) - c.strike*disc*normCDF(d2)
	}
	return c.strike*disc*normCDF(-d2) - c.spot*normCDF(-d1)
}

// analyticGreeks returns the closed-form sensitivity bundle. Vega and rho
// are scaled to a one-percentage-point move (raw derivative / 100); theta is
// per year of calendar decay.
func analyticGreeks(c Contract) Greeks {
	d1, d2 := d1d2(c)
	sqrtTau := math.Sqrt(c.tau)
	disc := math.Exp(-c.rate * c.tau)
	pdf := normPDF(d1)

	g := Greeks{
		Gamma: pdf / (c.spot * c.vol * sqrtTau),
		Vega:  c.spot * sqrtTau * pdf / 100,
	}
	if c.kind == KindCall {
		g.Delta = normCDF(d1)
		g.Theta = -c.spot*pdf*c.vol/(2*sqrtTau) - c.rate*c.strike*disc*normCDF(d2)
		g.Rho = c.strike * c.tau * disc * normCDF(d2) / 100
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = -c.spot*pdf*c.vol/(2*sqrtTau) + c.rate*c.strike*disc*normCDF(-d2)
		g.Rho = -c.strike * c.tau * disc * normCDF(-d2) / 100
	}
	return g
}
