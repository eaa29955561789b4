// SPDX-License-Identifier: Apache-2.0

package schemacache

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAssemblesSnapshotFromRows(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT nspname FROM pg_catalog.pg_namespace").
		WillReturnRows(sqlmock.NewRows([]string{"nspname"}).AddRow("public"))

	mock.ExpectQuery("FROM pg_catalog.pg_attribute").
		WillReturnRows(sqlmock.NewRows(
			[]string{"nspname", "relname", "attname", "format_type", "nullable", "default", "primary"},
		).AddRow("public", "accounts", "id", "integer", false, nil, true).
			AddRow("public", "accounts", "email", "text", true, nil, false))

	mock.ExpectQuery("FROM pg_catalog.pg_proc").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "proname", "args", "rettype"}).
			AddRow("public", "now", "", "timestamp"))

	mock.ExpectQuery("FROM pg_catalog.pg_roles").
		WillReturnRows(sqlmock.NewRows([]string{"rolname"}).AddRow("app_user"))

	mock.ExpectQuery("FROM pg_catalog.pg_policy").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "relname", "polname"}))

	mock.ExpectQuery("FROM pg_catalog.pg_trigger").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "relname", "tgname"}))

	mock.ExpectQuery("FROM pg_catalog.pg_type").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "typname"}))

	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("16.2"))

	q := &FakeQuerier{DB: db}
	snap, err := Build(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, snap.HasSchema("public"))
	tbl, ok := snap.Table("public", "accounts")
	require.True(t, ok)
	assert.Len(t, tbl.Columns, 2)

	col, ok := snap.Column("public", "accounts", "id")
	require.True(t, ok)
	assert.True(t, col.PrimaryKey)

	fns := snap.FunctionsNamed("public", "now")
	require.Len(t, fns, 1)
	assert.Equal(t, "timestamp", fns[0].ReturnType)

	roles := snap.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, "app_user", roles[0].Name)

	assert.Equal(t, "16.2", snap.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildFailsFastOnQueryError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT nspname FROM pg_catalog.pg_namespace").
		WillReturnError(assert.AnError)

	q := &FakeQuerier{DB: db}
	_, err = Build(context.Background(), q)
	assert.Error(t, err)
}

func TestSplitArgsHandlesNestedParens(t *testing.T) {
	t.Parallel()

	got := splitArgs("a integer, b text DEFAULT f(1, 2), c boolean")
	assert.Equal(t, []string{"a integer", " b text DEFAULT f(1, 2)", " c boolean"}, got)
}

func TestSplitArgsEmpty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, splitArgs(""))
}
