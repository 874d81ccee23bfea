// Package storage implements the persistence side of the catalog on
// uptrace/bun: the specification evaluator, the base product
// repository, and the transactional unit of work.
package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/shopfabrik/catalog/product"
	apperrors "github.com/shopfabrik/catalog/pkg/errors"
)

// OpenSQLite opens a SQLite-backed bun database. Use
// "file::memory:?cache=shared" for an in-process database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperrors.NewInternal("open sqlite database", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenPostgres opens a PostgreSQL-backed bun database.
func OpenPostgres(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.NewInternal("open postgres database", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// EnsureSchema creates the catalog tables when they do not exist yet.
// Schema migration proper is owned by the surrounding infrastructure;
// this exists for examples and embedded deployments.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*product.Product)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return apperrors.NewInternal("create products table", err)
	}
	return nil
}
