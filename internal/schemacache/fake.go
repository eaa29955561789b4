// SPDX-License-Identifier: Apache-2.0

package schemacache

import (
	"context"
	"database/sql"
)

// FakeQuerier adapts a *sql.DB (in tests, a go-sqlmock connection) to
// Querier, adapted from the teacher's pkg/db.FakeDB. It forwards every
// query to DB unchanged and returns whatever rows or errors DB produces.
type FakeQuerier struct {
	DB *sql.DB
}

func (f *FakeQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return f.DB.QueryContext(ctx, query, args...)
}

func (f *FakeQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return f.DB.QueryRowContext(ctx, query, args...)
}
