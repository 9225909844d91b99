// Package repotest provides in-memory repositories and a transaction-only
// database for tests of code built on the repository package.
package repotest

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

var errNoSQL = errors.New("repotest: sql is not supported")

// DB runs WithTx callbacks on itself. It counts transactions and has no SQL
// support. Work done inside a failed callback is not rolled back.
type DB struct {
	Txs int
}

var _ db.DB = (*DB)(nil)

func (d *DB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	d.Txs++
	return txFunc(d)
}

func (d *DB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNoSQL
}

func (d *DB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errNoSQL
}

func (d *DB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (d *DB) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errNoSQL
}

func (d *DB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return nil
}

type errRow struct{}

func (errRow) Scan(...any) error { return errNoSQL }
