package pricing

import (
	"errors"
	"math"
	"testing"
)

// approx fails the test when got is not within tol of want.
func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

func TestBlackScholes_CallReferencePrice(t *testing.T) {
	p, err := NewPricer(ModelBlackScholes, atmCall(t, StyleEuropean), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	price, err := p.Price()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "ATM call price", price, 10.4506, 1e-4)
}

func TestBlackScholes_PutCallParity(t *testing.T) {
	// C − P = S − K·e^{−rτ}, to floating-point tolerance.
	tests := []struct {
		spot, strike, rate, vol, tau float64
	}{
		{100, 100, 0.05, 0.2, 1.0},
		{100, 90, 0.05, 0.2, 1.0},
		{50, 60, 0.01, 0.45, 0.25},
		{120, 100, -0.005, 0.1, 2.0},
	}
	for _, tt := range tests {
		call := mustContract(t, tt.spot, tt.strike, tt.rate, tt.vol, tt.tau, KindCall, StyleEuropean)
		put := mustContract(t, tt.spot, tt.strike, tt.rate, tt.vol, tt.tau, KindPut, StyleEuropean)

		lhs := blackScholesPrice(call) - blackScholesPrice(put)
		rhs := tt.spot - tt.strike*math.Exp(-tt.rate*tt.tau)
		if math.Abs(lhs-rhs) > 1e-9 {
			t.Errorf("parity violated for S=%v K=%v: C−P=%v, S−K·e^{−rτ}=%v",
				tt.spot, tt.strike, lhs, rhs)
		}
	}
}

func TestBlackScholes_ReferenceGreeks(t *testing.T) {
	p, err := NewPricer(ModelBlackScholes, atmCall(t, StyleEuropean), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := p.Greeks()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approx(t, "delta", g.Delta, 0.6368, 1e-4)
	approx(t, "gamma", g.Gamma, 0.0188, 1e-4)
	approx(t, "vega", g.Vega, 0.3752, 1e-4)
	approx(t, "theta", g.Theta, -6.4140, 1e-3)
	approx(t, "rho", g.Rho, 0.5323, 1e-3)
}

func TestBlackScholes_PutDelta(t *testing.T) {
	call := atmCall(t, StyleEuropean)
	put := mustContract(t, 100, 100, 0.05, 0.2, 1, KindPut, StyleEuropean)

	// Put delta = call delta − 1.
	gc := analyticGreeks(call)
	gp := analyticGreeks(put)
	approx(t, "put delta", gp.Delta, gc.Delta-1, 1e-12)
	approx(t, "gamma symmetry", gp.Gamma, gc.Gamma, 1e-12)
	approx(t, "vega symmetry", gp.Vega, gc.Vega, 1e-12)
}

func TestBlackScholes_RejectsAmerican(t *testing.T) {
	c := mustContract(t, 100, 100, 0.05, 0.2, 1, KindPut, StyleAmerican)
	if _, err := NewPricer(ModelBlackScholes, c, 0); !errors.Is(err, ErrEuropeanOnly) {
		t.Errorf("expected ErrEuropeanOnly, got %v", err)
	}
}

func TestBlackScholes_PriceIncreasingInVol(t *testing.T) {
	base := atmCall(t, StyleEuropean)
	prev := blackScholesPrice(base.withVol(0.05))
	for _, vol := range []float64{0.1, 0.2, 0.4, 0.8, 1.6} {
		price := blackScholesPrice(base.withVol(vol))
		if price <= prev {
			t.Fatalf("price should be strictly increasing in vol: p(%v)=%v, previous %v",
				vol, price, prev)
		}
		prev = price
	}
}

func TestNormCDF_KnownValues(t *testing.T) {
	approx(t, "Φ(0)", normCDF(0), 0.5, 1e-12)
	approx(t, "Φ(1.96)", normCDF(1.96), 0.9750, 1e-4)
	approx(t, "Φ(−1.96)", normCDF(-1.96), 0.0250, 1e-4)

	// Symmetry: Φ(x) + Φ(−x) = 1.
	for _, x := range []float64{0.1, 0.5, 1, 2, 5} {
		if s := normCDF(x) + normCDF(-x); math.Abs(s-1) > 1e-12 {
			t.Errorf("Φ(%v)+Φ(−%v) = %v, want 1", x, x, s)
		}
	}
}

func TestNormPDF_KnownValues(t *testing.T) {
	approx(t, "φ(0)", normPDF(0), 1/math.Sqrt(2*math.Pi), 1e-12)
	approx(t, "φ(0.35)", normPDF(0.35), 0.3752, 1e-4)
	if normPDF(3) != normPDF(-3) {
		t.Error("φ should be symmetric")
	}
}
