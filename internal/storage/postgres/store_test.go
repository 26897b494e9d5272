package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestSelectBuildsWhereClause(t *testing.T) {
	store, mock := setupStore(t)

	rows := sqlmock.NewRows([]string{"id", "contractor_id", "name"}).
		AddRow("cli-1", "con-1", "Novák")
	mock.ExpectQuery(`SELECT \* FROM clients WHERE contractor_id = \$1 ORDER BY created_at ASC`).
		WithArgs("con-1").
		WillReturnRows(rows)

	recs, err := store.Select(context.Background(), "clients",
		remote.NewQuery().Eq("contractor_id", "con-1").Order("created_at", false))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "cli-1", recs[0].ID())
	assert.Equal(t, "Novák", recs[0].String("name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectNormalizesDriverValues(t *testing.T) {
	store, mock := setupStore(t)

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "maturity_days", "items", "created_at"}).
		AddRow([]byte("inv-1"), int64(14), []byte(`[{"name":"Maľovanie"}]`), created)
	mock.ExpectQuery(`SELECT \* FROM invoices`).WillReturnRows(rows)

	recs, err := store.Select(context.Background(), "invoices", remote.NewQuery())
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "inv-1", rec.ID(), "byte slices read as strings")
	assert.Equal(t, 14, rec.Int("maturity_days"), "int64 reads as a number")
	assert.Equal(t, created, rec.Time("created_at"), "timestamps survive as RFC3339")
	assert.NotNil(t, rec.RawJSON("items"))
}

func TestGetByID(t *testing.T) {
	store, mock := setupStore(t)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name"}).AddRow("prj-1", "Byt")
		mock.ExpectQuery(`SELECT \* FROM projects WHERE id = \$1 LIMIT 1`).
			WithArgs("prj-1").
			WillReturnRows(rows)

		rec, err := store.GetByID(context.Background(), "projects", "prj-1")
		require.NoError(t, err)
		assert.Equal(t, "Byt", rec.String("name"))
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM projects WHERE id = \$1 LIMIT 1`).
			WithArgs("prj-404").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.GetByID(context.Background(), "projects", "prj-404")
		assert.ErrorIs(t, err, remote.ErrNotFound)
	})
}
