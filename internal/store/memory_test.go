package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testListing(ticker, underlying string) *model.Listing {
	return &model.Listing{
		Ticker:     ticker,
		Underlying: underlying,
		Kind:       "CALL",
		Style:      "EUROPEAN",
		Strike:     d("100"),
		ExpiryDate: time.Date(2035, 12, 21, 0, 0, 0, 0, time.UTC),
		Status:     "listed",
		CreatedAt:  time.Now().UTC(),
	}
}

func testValuation(id, ticker, price string) *model.Valuation {
	return &model.Valuation{
		ID:         id,
		Ticker:     ticker,
		Model:      "black_scholes",
		Spot:       d("100"),
		Rate:       d("0.05"),
		Volatility: d("0.2"),
		Price:      d(price),
		Delta:      0.6368,
		Gamma:      0.0188,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestMemoryStore_ListingRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	l := testListing("OPT-ACME-C-E-100-20351221", "ACME")
	if err := s.CreateListing(ctx, l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetListing(ctx, l.Ticker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Underlying != "ACME" || got.Kind != "CALL" || !got.Strike.Equal(d("100")) {
		t.Errorf("listing round trip mismatch: %+v", got)
	}

	// The store holds copies: mutating what we get back (or what we put
	// in) must not leak into stored state.
	got.Underlying = "MUTATED"
	l.Underlying = "MUTATED"
	again, err := s.GetListing(ctx, l.Ticker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Underlying != "ACME" {
		t.Errorf("stored listing mutated through a returned copy: %s", again.Underlying)
	}
}

func TestMemoryStore_DuplicateListingRejected(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	l := testListing("OPT-ACME-C-E-100-20351221", "ACME")
	if err := s.CreateListing(ctx, l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateListing(ctx, l); err == nil {
		t.Error("expected duplicate listing error, got nil")
	}
}

func TestMemoryStore_GetListingNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetListing(context.Background(), "OPT-NONE-C-E-1-20351221"); err == nil {
		t.Error("expected not-found error, got nil")
	}
}

func TestMemoryStore_ListListings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tickers := []string{
		"OPT-ACME-C-E-100-20351221",
		"OPT-ACME-P-E-95-20351221",
		"OPT-GLOBEX-C-A-50-20351221",
	}
	for _, tk := range tickers {
		if err := s.CreateListing(ctx, testListing(tk, "ACME")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := s.ListListings(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(tickers) {
		t.Errorf("expected %d listings, got %d", len(tickers), len(all))
	}
}

func TestMemoryStore_ValuationRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v := testValuation("v-1", "OPT-ACME-C-E-100-20351221", "10.4506")
	if err := s.InsertValuation(ctx, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetValuation(ctx, "v-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Ticker != v.Ticker || !got.Price.Equal(d("10.4506")) || got.Delta != 0.6368 {
		t.Errorf("valuation round trip mismatch: %+v", got)
	}

	if _, err := s.GetValuation(ctx, "v-missing"); err == nil {
		t.Error("expected not-found error, got nil")
	}
}

func TestMemoryStore_ValuationHistoryNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ticker := "OPT-ACME-C-E-100-20351221"

	for i, price := range []string{"10.1", "10.2", "10.3"} {
		v := testValuation("v-"+price, ticker, price)
		v.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := s.InsertValuation(ctx, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Another ticker's valuation must not appear in the history.
	if err := s.InsertValuation(ctx, testValuation("v-other", "OPT-GLOBEX-C-E-50-20351221", "3.5")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := s.GetValuationsByTicker(ctx, ticker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 valuations, got %d", len(history))
	}
	if !history[0].Price.Equal(d("10.3")) || !history[2].Price.Equal(d("10.1")) {
		t.Errorf("history not newest first: %s, %s, %s",
			history[0].Price, history[1].Price, history[2].Price)
	}
}

func TestMemoryStore_HoldingsAggregateFills(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ticker := "OPT-ACME-C-E-100-20351221"

	fills := []*model.Position{
		{ID: "p-1", UserID: "alice", Ticker: ticker, Underlying: "ACME",
			Quantity: d("10"), Premium: d("10.00"), Cost: d("100.00"), DeltaAtEntry: d("0.6")},
		{ID: "p-2", UserID: "alice", Ticker: ticker, Underlying: "ACME",
			Quantity: d("-4"), Premium: d("11.00"), Cost: d("-44.00"), DeltaAtEntry: d("0.6")},
		{ID: "p-3", UserID: "bob", Ticker: ticker, Underlying: "ACME",
			Quantity: d("7"), Premium: d("10.00"), Cost: d("70.00"), DeltaAtEntry: d("0.6")},
	}
	for _, p := range fills {
		if err := s.InsertPosition(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// No valuation yet: current value falls back to cost basis.
	holdings, err := s.GetUserHoldings(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	h := holdings[0]
	if !h.NetQuantity.Equal(d("6")) {
		t.Errorf("net quantity = %s, want 6", h.NetQuantity)
	}
	if !h.CostBasis.Equal(d("56")) {
		t.Errorf("cost basis = %s, want 56", h.CostBasis)
	}
	if !h.CurrentValue.Equal(h.CostBasis) || !h.UnrealizedPnL.IsZero() {
		t.Errorf("unvalued holding should mark at cost: value=%s pnl=%s",
			h.CurrentValue, h.UnrealizedPnL)
	}

	// After a valuation lands, holdings mark against the latest price.
	if err := s.InsertValuation(ctx, testValuation("v-1", ticker, "12.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	holdings, err = s.GetUserHoldings(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h = holdings[0]
	if !h.CurrentValue.Equal(d("72")) { // 6 × 12.00
		t.Errorf("current value = %s, want 72", h.CurrentValue)
	}
	if !h.UnrealizedPnL.Equal(d("16")) { // 72 − 56
		t.Errorf("unrealized pnl = %s, want 16", h.UnrealizedPnL)
	}
}

func TestMemoryStore_UnderlyingExposures(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	fills := []*model.Position{
		{ID: "p-1", UserID: "alice", Ticker: "OPT-ACME-C-E-100-20351221", Underlying: "ACME",
			Quantity: d("10"), DeltaAtEntry: d("0.6")},
		{ID: "p-2", UserID: "alice", Ticker: "OPT-ACME-P-E-95-20351221", Underlying: "ACME",
			Quantity: d("5"), DeltaAtEntry: d("-0.4")},
		{ID: "p-3", UserID: "alice", Ticker: "OPT-GLOBEX-C-E-50-20351221", Underlying: "GLOBEX",
			Quantity: d("-3"), DeltaAtEntry: d("0.5")},
		{ID: "p-4", UserID: "bob", Ticker: "OPT-ACME-C-E-100-20351221", Underlying: "ACME",
			Quantity: d("99"), DeltaAtEntry: d("0.6")},
	}
	for _, p := range fills {
		if err := s.InsertPosition(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	exposures, err := s.GetUserUnderlyingExposures(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 2 {
		t.Fatalf("expected 2 underlyings, got %d", len(exposures))
	}
	if !exposures["ACME"].Equal(d("4")) { // 10·0.6 + 5·(−0.4)
		t.Errorf("ACME exposure = %s, want 4", exposures["ACME"])
	}
	if !exposures["GLOBEX"].Equal(d("-1.5")) { // −3·0.5
		t.Errorf("GLOBEX exposure = %s, want -1.5", exposures["GLOBEX"])
	}

	empty, err := s.GetUserUnderlyingExposures(ctx, "carol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no exposures for carol, got %v", empty)
	}
}
