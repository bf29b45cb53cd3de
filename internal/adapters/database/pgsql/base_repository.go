package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository holds the connection pool shared by all repositories. Every
// repository operation is a single statement, so there is no transaction
// plumbing here.
type BaseRepository struct {
	Pool *pgxpool.Pool
}
