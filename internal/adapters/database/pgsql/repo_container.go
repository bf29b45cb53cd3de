package pgsql

import (
	portsrepo "github.com/finbeat/marketdata/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every pgx repository over one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ExchangeRateRepo:  NewPgxExchangeRateRepository(pool),
		SecurityPriceRepo: NewPgxSecurityPriceRepository(pool),
	}
}

// Compile-time interface checks
var (
	_ portsrepo.ExchangeRateRepository  = (*PgxExchangeRateRepository)(nil)
	_ portsrepo.SecurityPriceRepository = (*PgxSecurityPriceRepository)(nil)
)
