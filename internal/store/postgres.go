package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var postgresDialect = dialect{
	name:        "postgres",
	realType:    "DOUBLE PRECISION",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// Postgres is a Store backed by a Postgres database.
type Postgres struct {
	*sqlStore
}

// NewPostgres connects to dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Postgres{sqlStore: &sqlStore{db: db, d: postgresDialect}}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
