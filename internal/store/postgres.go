package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/optx/options-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision;
// sensitivities are DOUBLE PRECISION.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateListing(ctx context.Context, l *model.Listing) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO listings (ticker, underlying, kind, style, strike, expiry_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7, $8)`,
		l.Ticker, l.Underlying, l.Kind, l.Style,
		l.Strike.String(), l.ExpiryDate, l.Status, l.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetListing(ctx context.Context, ticker string) (*model.Listing, error) {
	var l model.Listing
	var strike string

	err := s.pool.QueryRow(ctx,
		`SELECT ticker, underlying, kind, style, strike::TEXT, expiry_date, status, created_at
		 FROM listings WHERE ticker = $1`, ticker).
		Scan(&l.Ticker, &l.Underlying, &l.Kind, &l.Style,
			&strike, &l.ExpiryDate, &l.Status, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", ticker, err)
	}

	l.Strike, _ = decimal.NewFromString(strike)
	return &l, nil
}

func (s *PostgresStore) ListListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ticker, underlying, kind, style, strike::TEXT, expiry_date, status, created_at
		 FROM listings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var strike string
		if err := rows.Scan(&l.Ticker, &l.Underlying, &l.Kind, &l.Style,
			&strike, &l.ExpiryDate, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Strike, _ = decimal.NewFromString(strike)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *PostgresStore) InsertValuation(ctx context.Context, v *model.Valuation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO valuations (id, ticker, model, spot, rate, volatility, steps, price,
		                         delta, gamma, theta, vega, rho, created_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7, $8::NUMERIC,
		         $9, $10, $11, $12, $13, $14)`,
		v.ID, v.Ticker, v.Model,
		v.Spot.String(), v.Rate.String(), v.Volatility.String(),
		v.Steps, v.Price.String(),
		v.Delta, v.Gamma, v.Theta, v.Vega, v.Rho,
		v.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetValuation(ctx context.Context, id string) (*model.Valuation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ticker, model, spot::TEXT, rate::TEXT, volatility::TEXT, steps, price::TEXT,
		        delta, gamma, theta, vega, rho, created_at
		 FROM valuations WHERE id = $1`, id)

	v, err := scanValuation(row)
	if err != nil {
		return nil, fmt.Errorf("get valuation %s: %w", id, err)
	}
	return v, nil
}

func (s *PostgresStore) GetValuationsByTicker(ctx context.Context, ticker string) ([]model.Valuation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ticker, model, spot::TEXT, rate::TEXT, volatility::TEXT, steps, price::TEXT,
		        delta, gamma, theta, vega, rho, created_at
		 FROM valuations WHERE ticker = $1 ORDER BY created_at DESC`, ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var valuations []model.Valuation
	for rows.Next() {
		v, err := scanValuation(rows)
		if err != nil {
			return nil, err
		}
		valuations = append(valuations, *v)
	}
	return valuations, rows.Err()
}

func (s *PostgresStore) InsertPosition(ctx context.Context, p *model.Position) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO positions (id, user_id, ticker, underlying, quantity, premium, cost, delta_at_entry, timestamp)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9)`,
		p.ID, p.UserID, p.Ticker, p.Underlying,
		p.Quantity.String(), p.Premium.String(), p.Cost.String(), p.DeltaAtEntry.String(),
		p.Timestamp,
	)
	return err
}

// GetUserHoldings aggregates fills into holdings per listing, marking
// against the most recent valuation when one exists.
func (s *PostgresStore) GetUserHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT
			p.ticker,
			p.underlying,
			COALESCE(SUM(p.quantity), 0)::TEXT AS net_qty,
			COALESCE(SUM(p.cost), 0)::TEXT AS cost_basis,
			(SELECT v.price::TEXT FROM valuations v
			 WHERE v.ticker = p.ticker
			 ORDER BY v.created_at DESC LIMIT 1) AS mark_price
		 FROM positions p
		 WHERE p.user_id = $1
		 GROUP BY p.ticker, p.underlying`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []model.Holding
	for rows.Next() {
		var h model.Holding
		var netQtyS, costBasisS string
		var markS *string

		if err := rows.Scan(&h.Ticker, &h.Underlying, &netQtyS, &costBasisS, &markS); err != nil {
			return nil, err
		}

		h.UserID = userID
		h.NetQuantity, _ = decimal.NewFromString(netQtyS)
		h.CostBasis, _ = decimal.NewFromString(costBasisS)

		h.CurrentValue = h.CostBasis
		if markS != nil {
			mark, _ := decimal.NewFromString(*markS)
			h.CurrentValue = mark.Mul(h.NetQuantity)
		}
		h.UnrealizedPnL = h.CurrentValue.Sub(h.CostBasis)

		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

func (s *PostgresStore) GetUserUnderlyingExposures(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT underlying,
		        COALESCE(SUM(quantity * delta_at_entry), 0)::TEXT AS net_exposure
		 FROM positions
		 WHERE user_id = $1
		 GROUP BY underlying`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exposures := make(map[string]decimal.Decimal)
	for rows.Next() {
		var underlying, expStr string
		if err := rows.Scan(&underlying, &expStr); err != nil {
			return nil, err
		}
		exp, _ := decimal.NewFromString(expStr)
		exposures[underlying] = exp
	}

	return exposures, rows.Err()
}

// pgxRow is the single-row subset shared by pgx.Row and pgx.Rows.
type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanValuation(row pgxRow) (*model.Valuation, error) {
	var v model.Valuation
	var spotS, rateS, volS, priceS string

	if err := row.Scan(&v.ID, &v.Ticker, &v.Model,
		&spotS, &rateS, &volS, &v.Steps, &priceS,
		&v.Delta, &v.Gamma, &v.Theta, &v.Vega, &v.Rho,
		&v.CreatedAt); err != nil {
		return nil, err
	}

	v.Spot, _ = decimal.NewFromString(spotS)
	v.Rate, _ = decimal.NewFromString(rateS)
	v.Volatility, _ = decimal.NewFromString(volS)
	v.Price, _ = decimal.NewFromString(priceS)

	return &v, nil
}
