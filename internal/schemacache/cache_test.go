// SPDX-License-Identifier: Apache-2.0

package schemacache

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheStartsWithEmptySnapshot(t *testing.T) {
	t.Parallel()

	c := NewCache(0)
	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Schemas())
}

func TestCacheRefreshRetainsPriorSnapshotOnError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT nspname FROM pg_catalog.pg_namespace").
		WillReturnError(assert.AnError)

	c := NewCache(time.Second)
	prior := c.Snapshot()

	err = c.Refresh(context.Background(), &FakeQuerier{DB: db})
	assert.Error(t, err)
	assert.Same(t, prior, c.Snapshot())
}

func TestCacheRefreshSwapsInNewSnapshot(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT nspname FROM pg_catalog.pg_namespace").
		WillReturnRows(sqlmock.NewRows([]string{"nspname"}).AddRow("public"))
	mock.ExpectQuery("FROM pg_catalog.pg_attribute").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "relname", "attname", "format_type", "nullable", "default", "primary"}))
	mock.ExpectQuery("FROM pg_catalog.pg_proc").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "proname", "args", "rettype"}))
	mock.ExpectQuery("FROM pg_catalog.pg_roles").
		WillReturnRows(sqlmock.NewRows([]string{"rolname"}))
	mock.ExpectQuery("FROM pg_catalog.pg_policy").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "relname", "polname"}))
	mock.ExpectQuery("FROM pg_catalog.pg_trigger").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "relname", "tgname"}))
	mock.ExpectQuery("FROM pg_catalog.pg_type").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "typname"}))
	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("16.2"))

	c := NewCache(time.Second)
	require.NoError(t, c.Refresh(context.Background(), &FakeQuerier{DB: db}))

	assert.True(t, c.Snapshot().HasSchema("public"))
}
