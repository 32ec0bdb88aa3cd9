// Package option handles option contract ticker parsing, validation, and
// conversion of calendar expiry dates into year-fraction maturities.
package option

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/pricing"
)

// tickerRegex matches: OPT-{underlying}-{C|P}-{E|A}-{strike}-{YYYYMMDD}
// Example: OPT-ACME-C-E-105-20261218
var tickerRegex = regexp.MustCompile(
	`^OPT-([A-Z0-9]+)-(C|P)-(E|A)-([0-9]+(?:\.[0-9]+)?)-(\d{8})$`,
)

var (
	ErrInvalidTicker = errors.New("option: invalid ticker format")
	ErrExpired       = errors.New("option: contract has expired")
)

// daysPerYear is the ACT/365 day-count convention.
const daysPerYear = 365.0

// Option represents a parsed listed option contract.
type Option struct {
	Ticker     string          `json:"ticker"`
	Underlying string          `json:"underlying"`
	Kind       pricing.Kind    `json:"kind"`
	Style      pricing.Style   `json:"style"`
	Strike     decimal.Decimal `json:"strike"`
	ExpiryDate time.Time       `json:"expiry_date"`
}

// ParseTicker parses and validates an option ticker string.
// Format: OPT-{underlying}-{C|P}-{E|A}-{strike}-{YYYYMMDD}
func ParseTicker(ticker string) (*Option, error) {
	matches := tickerRegex.FindStringSubmatch(ticker)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected OPT-{underlying}-{C|P}-{E|A}-{strike}-{YYYYMMDD})",
			ErrInvalidTicker, ticker)
	}

	underlying := matches[1]
	kindCode := matches[2]
	styleCode := matches[3]
	strikeStr := matches[4]
	dateStr := matches[5]

	strike, err := decimal.NewFromString(strikeStr)
	if err != nil || strike.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: invalid strike %s", ErrInvalidTicker, strikeStr)
	}

	expiry, err := time.Parse("20060102", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %s", ErrInvalidTicker, dateStr)
	}

	kind := pricing.KindCall
	if kindCode == "P" {
		kind = pricing.KindPut
	}
	style := pricing.StyleEuropean
	if styleCode == "A" {
		style = pricing.StyleAmerican
	}

	return &Option{
		Ticker:     ticker,
		Underlying: underlying,
		Kind:       kind,
		Style:      style,
		Strike:     strike,
		ExpiryDate: expiry,
	}, nil
}

// TimeToMaturity returns the ACT/365 year fraction between now and the
// expiry date. Contracts at or past expiry cannot be valued.
func (o *Option) TimeToMaturity(now time.Time) (float64, error) {
	remaining := o.ExpiryDate.Sub(now)
	if remaining <= 0 {
		return 0, fmt.Errorf("%w: %s expired %s", ErrExpired, o.Ticker,
			o.ExpiryDate.Format("2006-01-02"))
	}
	return remaining.Hours() / 24 / daysPerYear, nil
}

// StrikeFloat returns the strike as a float64 for use in the pricing core.
// Decimal is the wire and storage representation; the solvers work in floats.
func (o *Option) StrikeFloat() float64 {
	f, _ := o.Strike.Float64()
	return f
}
