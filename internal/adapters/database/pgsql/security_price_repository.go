package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/finbeat/marketdata/internal/models"
	"github.com/finbeat/marketdata/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSecurityPriceRepository implements the security price repository ports
// using pgxpool. The exchange column is NULL for exchange-less identities;
// the empty string is the domain-side encoding of that.
type PgxSecurityPriceRepository struct {
	BaseRepository
}

// NewPgxSecurityPriceRepository creates a new PgxSecurityPriceRepository.
func NewPgxSecurityPriceRepository(db *pgxpool.Pool) *PgxSecurityPriceRepository {
	return &PgxSecurityPriceRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const securityPriceColumns = `security_price_id, symbol, COALESCE(exchange, ''), price, currency, price_date, source, created_at`

// FindSecurityPrice retrieves the price for one (symbol, exchange, date) identity.
func (r *PgxSecurityPriceRepository) FindSecurityPrice(ctx context.Context, symbol, exchange string, priceDate time.Time) (*domain.SecurityPrice, error) {
	query := `
		SELECT ` + securityPriceColumns + `
		FROM security_prices
		WHERE symbol = $1 AND COALESCE(exchange, '') = $2 AND price_date = $3;
	`

	var m models.SecurityPrice
	err := r.Pool.QueryRow(ctx, query, symbol, exchange, priceDate).Scan(
		&m.SecurityPriceID, &m.Symbol, &m.Exchange, &m.Price,
		&m.Currency, &m.PriceDate, &m.Source, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("security price not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find security price", err)
	}

	price := mapping.ToDomainSecurityPrice(m)
	return &price, nil
}

// FindOrCreateSecurityPrice upserts a price by its (symbol, exchange, date)
// identity and returns the surviving row. The conflict target is the
// expression index over COALESCE(exchange, '') so NULL exchanges dedupe too.
func (r *PgxSecurityPriceRepository) FindOrCreateSecurityPrice(ctx context.Context, price domain.SecurityPrice) (*domain.SecurityPrice, error) {
	m := mapping.ToModelSecurityPrice(price)

	query := `
		INSERT INTO security_prices (security_price_id, symbol, exchange, price, currency, price_date, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, COALESCE(exchange, ''), price_date)
		DO UPDATE SET price = EXCLUDED.price, currency = EXCLUDED.currency, source = EXCLUDED.source
		RETURNING ` + securityPriceColumns + `;
	`

	var saved models.SecurityPrice
	err := r.Pool.QueryRow(ctx, query,
		m.SecurityPriceID, m.Symbol, nullableString(m.Exchange),
		m.Price, m.Currency, m.PriceDate, m.Source, m.CreatedAt,
	).Scan(
		&saved.SecurityPriceID, &saved.Symbol, &saved.Exchange, &saved.Price,
		&saved.Currency, &saved.PriceDate, &saved.Source, &saved.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to upsert security price", err)
	}

	out := mapping.ToDomainSecurityPrice(saved)
	return &out, nil
}

// ListSecurityPricesBefore lists stored prices for a security with
// price_date strictly before the cursor, newest first.
func (r *PgxSecurityPriceRepository) ListSecurityPricesBefore(ctx context.Context, symbol, exchange string, before time.Time, limit int) ([]domain.SecurityPrice, error) {
	query := `
		SELECT ` + securityPriceColumns + `
		FROM security_prices
		WHERE symbol = $1 AND COALESCE(exchange, '') = $2 AND price_date < $3
		ORDER BY price_date DESC
		LIMIT $4;
	`

	rows, err := r.Pool.Query(ctx, query, symbol, exchange, before, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list security prices", err)
	}
	defer rows.Close()

	var prices []domain.SecurityPrice
	for rows.Next() {
		var m models.SecurityPrice
		err := rows.Scan(
			&m.SecurityPriceID, &m.Symbol, &m.Exchange, &m.Price,
			&m.Currency, &m.PriceDate, &m.Source, &m.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan security price", err)
		}
		prices = append(prices, mapping.ToDomainSecurityPrice(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating security prices", err)
	}

	return prices, nil
}

// CountSecurityPrices reports the number of stored price rows.
func (r *PgxSecurityPriceRepository) CountSecurityPrices(ctx context.Context) (int64, error) {
	var count int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM security_prices`).Scan(&count); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count security prices", err)
	}
	return count, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
