package pricing

import "math"

// Greeks is a read-only bundle of price sensitivities, computed from one or
// more independent valuations of perturbed contracts. Vega and Rho are
// scaled to a one-percentage-point move. Rho is closed-form only: lattice
// models report it as zero.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// treeSpotBumpRatio sizes the proportional spot bump for lattice Greeks.
// Trees carry discretization noise, so the bump must stay well above it.
const treeSpotBumpRatio = 0.01

// spotBumpFloor keeps the bump from degenerating near zero spot.
const spotBumpFloor = 1e-4

// Greeks computes the sensitivity bundle: closed-form for Black-Scholes,
// finite differences over full lattice reruns otherwise. Each lattice Greek
// re-runs the entire tree two to three times on perturbed contracts — Greek
// evaluation is a multiple of a Price call, never O(1).
func (p *Pricer) Greeks() (Greeks, error) {
	if p.model == ModelBlackScholes {
		return analyticGreeks(p.contract), nil
	}
	return p.finiteDifferenceGreeks()
}

// finiteDifferenceGreeks estimates delta/gamma/theta/vega by re-pricing
// bumped copies of the frozen contract. Delta and gamma share one pair of
// spot-bumped reruns plus the base price; theta is one-sided in maturity so
// the shortened contract stays alive; vega is central in volatility.
func (p *Pricer) finiteDifferenceGreeks() (Greeks, error) {
	c := p.contract

	base, err := p.priceContract(c)
	if err != nil {
		return Greeks{}, err
	}

	hs := spotBump(c.spot)
	spotUp, err := p.priceContract(c.withSpot(c.spot + hs))
	if err != nil {
		return Greeks{}, err
	}
	spotDown, err := p.priceContract(c.withSpot(c.spot - hs))
	if err != nil {
		return Greeks{}, err
	}

	ht := math.Min(c.tau*0.01, c.tau/10)
	shorter, err := p.priceContract(c.withTau(c.tau - ht))
	if err != nil {
		return Greeks{}, err
	}

	hv := c.vol * 0.01
	volUp, err := p.priceContract(c.withVol(c.vol + hv))
	if err != nil {
		return Greeks{}, err
	}
	volDown, err := p.priceContract(c.withVol(c.vol - hv))
	if err != nil {
		return Greeks{}, err
	}

	return Greeks{
		Delta: (spotUp - spotDown) / (2 * hs),
		Gamma: (spotUp - 2*base + spotDown) / (hs * hs),
		Theta: (shorter - base) / ht,
		Vega:  (volUp - volDown) / (2 * hv * 100), // per 1% vol move
	}, nil
}

// spotBump returns max(spot·ratio, floor), clamped so the downward bump
// cannot push the spot through zero.
func spotBump(spot float64) float64 {
	h := math.Max(spot*treeSpotBumpRatio, spotBumpFloor)
	if h >= spot {
		h = spot / 2
	}
	return h
}
