package pricing

// Holding pairs a pricer with a signed position quantity.
type Holding struct {
	Pricer   *Pricer
	Quantity float64
}

// Portfolio aggregates quantity-weighted values and sensitivities across
// heterogeneous pricers. Because Price and Greeks are total over the model
// tag, aggregation needs no per-model type inspection.
type Portfolio struct {
	holdings []Holding
}

// Add appends a holding. A negative quantity is a short position.
func (pf *Portfolio) Add(p *Pricer, quantity float64) {
	pf.holdings = append(pf.holdings, Holding{Pricer: p, Quantity: quantity})
}

// Holdings returns a copy of the holdings.
func (pf *Portfolio) Holdings() []Holding {
	out := make([]Holding, len(pf.holdings))
	copy(out, pf.holdings)
	return out
}

// TotalValue returns the quantity-weighted sum of holding prices.
func (pf *Portfolio) TotalValue() (float64, error) {
	var total float64
	for _, h := range pf.holdings {
		price, err := h.Pricer.Price()
		if err != nil {
			return 0, err
		}
		total += price * h.Quantity
	}
	return total, nil
}

// Delta returns the quantity-weighted net delta.
func (pf *Portfolio) Delta() (float64, error) {
	return pf.sumGreek(func(g Greeks) float64 { return g.Delta })
}

// Gamma returns the quantity-weighted net gamma.
func (pf *Portfolio) Gamma() (float64, error) {
	return pf.sumGreek(func(g Greeks) float64 { return g.Gamma })
}

func (pf *Portfolio) sumGreek(pick func(Greeks) float64) (float64, error) {
	var total float64
	for _, h := range pf.holdings {
		g, err := h.Pricer.Greeks()
		if err != nil {
			return 0, err
		}
		total += pick(g) * h.Quantity
	}
	return total, nil
}
