package pgsql

import (
	"errors"
	"time"

	"context"

	"github.com/finbeat/marketdata/internal/apperrors"
	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/finbeat/marketdata/internal/models"
	"github.com/finbeat/marketdata/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxExchangeRateRepository implements the exchange rate repository ports
// using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// NewPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func NewPgxExchangeRateRepository(db *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const exchangeRateColumns = `exchange_rate_id, from_currency_code, to_currency_code, rate, rate_date, source, created_at`

// FindExchangeRate retrieves the rate for one (from, to, date) identity.
func (r *PgxExchangeRateRepository) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, rateDate time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND rate_date = $3;
	`

	var m models.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, fromCurrencyCode, toCurrencyCode, rateDate).Scan(
		&m.ExchangeRateID, &m.FromCurrencyCode, &m.ToCurrencyCode,
		&m.Rate, &m.RateDate, &m.Source, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exchange rate not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find exchange rate", err)
	}

	rate := mapping.ToDomainExchangeRate(m)
	return &rate, nil
}

// FindOrCreateExchangeRate upserts a rate by its (from, to, date) identity
// and returns the surviving row. The ON CONFLICT clause makes concurrent
// identical calls converge on one record.
func (r *PgxExchangeRateRepository) FindOrCreateExchangeRate(ctx context.Context, rate domain.ExchangeRate) (*domain.ExchangeRate, error) {
	m := mapping.ToModelExchangeRate(rate)

	query := `
		INSERT INTO exchange_rates (` + exchangeRateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (from_currency_code, to_currency_code, rate_date)
		DO UPDATE SET rate = EXCLUDED.rate, source = EXCLUDED.source
		RETURNING ` + exchangeRateColumns + `;
	`

	var saved models.ExchangeRate
	err := r.Pool.QueryRow(ctx, query,
		m.ExchangeRateID, m.FromCurrencyCode, m.ToCurrencyCode,
		m.Rate, m.RateDate, m.Source, m.CreatedAt,
	).Scan(
		&saved.ExchangeRateID, &saved.FromCurrencyCode, &saved.ToCurrencyCode,
		&saved.Rate, &saved.RateDate, &saved.Source, &saved.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to upsert exchange rate", err)
	}

	out := mapping.ToDomainExchangeRate(saved)
	return &out, nil
}

// ListExchangeRatesBefore lists stored rates for a pair with rate_date
// strictly before the cursor, newest first.
func (r *PgxExchangeRateRepository) ListExchangeRatesBefore(ctx context.Context, fromCurrencyCode, toCurrencyCode string, before time.Time, limit int) ([]domain.ExchangeRate, error) {
	query := `
		SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND rate_date < $3
		ORDER BY rate_date DESC
		LIMIT $4;
	`

	rows, err := r.Pool.Query(ctx, query, fromCurrencyCode, toCurrencyCode, before, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list exchange rates", err)
	}
	defer rows.Close()

	var rates []domain.ExchangeRate
	for rows.Next() {
		var m models.ExchangeRate
		err := rows.Scan(
			&m.ExchangeRateID, &m.FromCurrencyCode, &m.ToCurrencyCode,
			&m.Rate, &m.RateDate, &m.Source, &m.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan exchange rate", err)
		}
		rates = append(rates, mapping.ToDomainExchangeRate(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating exchange rates", err)
	}

	return rates, nil
}

// CountExchangeRates reports the number of stored rate rows.
func (r *PgxExchangeRateRepository) CountExchangeRates(ctx context.Context) (int64, error) {
	var count int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM exchange_rates`).Scan(&count); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count exchange rates", err)
	}
	return count, nil
}
