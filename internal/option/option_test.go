package option

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/optx/options-engine/internal/pricing"
)

func TestParseTicker_Valid(t *testing.T) {
	o, err := ParseTicker("OPT-ACME-C-E-105-20261218")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Underlying != "ACME" {
		t.Errorf("expected underlying=ACME, got %s", o.Underlying)
	}
	if o.Kind != pricing.KindCall {
		t.Errorf("expected kind=CALL, got %s", o.Kind)
	}
	if o.Style != pricing.StyleEuropean {
		t.Errorf("expected style=EUROPEAN, got %s", o.Style)
	}
	if o.Strike.String() != "105" {
		t.Errorf("expected strike=105, got %s", o.Strike)
	}
	expected := time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC)
	if !o.ExpiryDate.Equal(expected) {
		t.Errorf("expected expiry=%v, got %v", expected, o.ExpiryDate)
	}
}

func TestParseTicker_FractionalStrike(t *testing.T) {
	o, err := ParseTicker("OPT-ACME-P-A-97.50-20261218")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Kind != pricing.KindPut {
		t.Errorf("expected kind=PUT, got %s", o.Kind)
	}
	if o.Style != pricing.StyleAmerican {
		t.Errorf("expected style=AMERICAN, got %s", o.Style)
	}
	if got := o.StrikeFloat(); got != 97.5 {
		t.Errorf("expected strike=97.5, got %v", got)
	}
}

func TestParseTicker_InvalidFormat(t *testing.T) {
	tests := []string{
		"",
		"INVALID",
		"OPT-ACME",
		"OPT-ACME-C-E-105",
		"OPT-ACME-C-E-105-notadate",
		"FUT-ACME-C-E-105-20261218",     // wrong prefix
		"OPT-acme-C-E-105-20261218",     // lowercase underlying
		"OPT-ACME-X-E-105-20261218",     // unknown kind code
		"OPT-ACME-C-B-105-20261218",     // unknown style code
		"OPT-ACME-C-E--105-20261218",    // negative strike
		"OPT-ACME-C-E-105-2026121",      // short date
	}
	for _, ticker := range tests {
		if _, err := ParseTicker(ticker); !errors.Is(err, ErrInvalidTicker) {
			t.Errorf("ticker %q: expected ErrInvalidTicker, got %v", ticker, err)
		}
	}
}

func TestParseTicker_InvalidCalendarDate(t *testing.T) {
	if _, err := ParseTicker("OPT-ACME-C-E-105-20261340"); !errors.Is(err, ErrInvalidTicker) {
		t.Errorf("expected ErrInvalidTicker for month 13, got %v", err)
	}
}

func TestTimeToMaturity(t *testing.T) {
	o, err := ParseTicker("OPT-ACME-C-E-100-20270101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tau, err := o.TimeToMaturity(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Exactly 365 days on ACT/365.
	if math.Abs(tau-1.0) > 1e-9 {
		t.Errorf("expected τ=1.0, got %v", tau)
	}
}

func TestTimeToMaturity_Expired(t *testing.T) {
	o, err := ParseTicker("OPT-ACME-C-E-100-20200101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := o.TimeToMaturity(now); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}

	// Exactly at expiry counts as expired too.
	if _, err := o.TimeToMaturity(o.ExpiryDate); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired at the expiry instant, got %v", err)
	}
}
