package pricing

import (
	"math"
	"testing"
)

func mustPricer(t *testing.T, model Model, c Contract, steps int) *Pricer {
	t.Helper()
	p, err := NewPricer(model, c, steps)
	if err != nil {
		t.Fatalf("unexpected error building pricer: %v", err)
	}
	return p
}

func TestPortfolio_Empty(t *testing.T) {
	var pf Portfolio

	v, err := pf.TotalValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("empty portfolio value should be 0, got %v", v)
	}
	d, err := pf.Delta()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Errorf("empty portfolio delta should be 0, got %v", d)
	}
}

func TestPortfolio_WeightedValue(t *testing.T) {
	call := atmCall(t, StyleEuropean)
	put := mustContract(t, 100, 100, 0.05, 0.2, 1, KindPut, StyleEuropean)

	pc := mustPricer(t, ModelBlackScholes, call, 0)
	pp := mustPricer(t, ModelBlackScholes, put, 0)

	var pf Portfolio
	pf.Add(pc, 10)
	pf.Add(pp, 4)

	callPrice, err := pc.Price()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	putPrice, err := pp.Price()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := pf.TotalValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 10*callPrice + 4*putPrice
	approx(t, "portfolio value", got, want, 1e-12)
}

func TestPortfolio_ShortPositionsOffset(t *testing.T) {
	// A long and an equal short of the same pricer net to zero.
	c := atmCall(t, StyleEuropean)
	p := mustPricer(t, ModelBlackScholes, c, 0)

	var pf Portfolio
	pf.Add(p, 25)
	pf.Add(p, -25)

	v, err := pf.TotalValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(v) > 1e-12 {
		t.Errorf("offsetting positions should net to 0, got %v", v)
	}
	d, err := pf.Delta()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d) > 1e-12 {
		t.Errorf("offsetting positions should have zero delta, got %v", d)
	}
}

func TestPortfolio_MixedModelGreeks(t *testing.T) {
	// Aggregation works across analytic and lattice pricers without
	// knowing which is which.
	call := atmCall(t, StyleEuropean)
	americanPut := mustContract(t, 100, 100, 0.05, 0.2, 1, KindPut, StyleAmerican)

	bs := mustPricer(t, ModelBlackScholes, call, 0)
	bin := mustPricer(t, ModelBinomialTree, americanPut, 500)
	tri := mustPricer(t, ModelTrinomialTree, call, 200)

	var pf Portfolio
	pf.Add(bs, 2)
	pf.Add(bin, -3)
	pf.Add(tri, 1)

	var wantDelta, wantGamma float64
	for _, h := range pf.Holdings() {
		g, err := h.Pricer.Greeks()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wantDelta += g.Delta * h.Quantity
		wantGamma += g.Gamma * h.Quantity
	}

	d, err := pf.Delta()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "net delta", d, wantDelta, 1e-12)

	g, err := pf.Gamma()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "net gamma", g, wantGamma, 1e-12)

	// A short ATM put carries positive delta, so the book should lean long.
	if d <= 0 {
		t.Errorf("expected net positive delta for this book, got %v", d)
	}
}

func TestPortfolio_HoldingsCopy(t *testing.T) {
	c := atmCall(t, StyleEuropean)
	p := mustPricer(t, ModelBlackScholes, c, 0)

	var pf Portfolio
	pf.Add(p, 1)

	snap := pf.Holdings()
	snap[0].Quantity = 999

	v, err := pf.TotalValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	price, err := p.Price()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "value after mutating snapshot", v, price, 1e-12)
}
