package state

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/incant/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	require.NoError(t, store.RecordRun(context.Background(), &Run{Kind: RunKindValidate, Status: RunStatusOK}))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(), "migrating twice is a no-op")

	runs, err := reopened.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteStore_MigrationVersion(t *testing.T) {
	store := setupTestStore(t)
	v, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Migrate(), ErrNotOpen)
	assert.ErrorIs(t, store.RecordRun(ctx, &Run{}), ErrNotOpen)
	_, err := store.GetRun(ctx, "x")
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = store.ListRuns(ctx, RunFilter{})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RecordAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	run := &Run{
		Kind:      RunKindDecode,
		Dialect:   "v1",
		Status:    RunStatusFailed,
		Input:     "MAS",
		Units:     1,
		Cost:      1,
		Error:     "truncated word at 2",
		StartedAt: started,
		Duration:  1500 * time.Microsecond,
	}
	require.NoError(t, store.RecordRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunKindDecode, got.Kind)
	assert.Equal(t, "v1", got.Dialect)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "MAS", got.Input)
	assert.Equal(t, 1, got.Units)
	assert.Equal(t, "truncated word at 2", got.Error)
	assert.True(t, started.Truncate(time.Millisecond).Equal(got.StartedAt))
	assert.Equal(t, time.Millisecond, got.Duration)

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_RecordTruncatesInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := &Run{Kind: RunKindDecode, Status: RunStatusOK, Input: strings.Repeat("MA", 500)}
	require.NoError(t, store.RecordRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Input, maxInputLen)
	assert.True(t, strings.HasSuffix(got.Input, "..."))
	assert.Empty(t, got.Error)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []Run{
		{Kind: RunKindValidate, Dialect: "v1", Status: RunStatusOK},
		{Kind: RunKindDecode, Dialect: "v1", Status: RunStatusOK},
		{Kind: RunKindDecode, Dialect: "v2", Status: RunStatusFailed},
		{Kind: RunKindDecode, Dialect: "v1", Status: RunStatusOK},
	}
	for i := range fixtures {
		fixtures[i].StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.RecordRun(ctx, &fixtures[i]))
	}

	tests := []struct {
		name    string
		filter  RunFilter
		wantIDs []string
	}{
		{"all newest first", RunFilter{}, []string{fixtures[3].ID, fixtures[2].ID, fixtures[1].ID, fixtures[0].ID}},
		{"limit", RunFilter{Limit: 2}, []string{fixtures[3].ID, fixtures[2].ID}},
		{"dialect", RunFilter{Dialect: "v2"}, []string{fixtures[2].ID}},
		{"kind and dialect", RunFilter{Dialect: "v1", Kind: RunKindDecode}, []string{fixtures[3].ID, fixtures[1].ID}},
		{"no match", RunFilter{Dialect: "v9"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		run       func(s *SQLiteStore) error
		errMsg    string
		errIs     error
	}{
		{
			name: "insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO runs").WillReturnError(assert.AnError)
			},
			run: func(s *SQLiteStore) error {
				return s.RecordRun(context.Background(), &Run{Kind: RunKindDecode, Status: RunStatusOK})
			},
			errMsg: "failed to record run",
			errIs:  assert.AnError,
		},
		{
			name: "get maps no rows",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM runs WHERE id").WillReturnError(sql.ErrNoRows)
			},
			run: func(s *SQLiteStore) error {
				_, err := s.GetRun(context.Background(), "abc")
				return err
			},
			errIs: ErrRunNotFound,
		},
		{
			name: "list query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM runs").WillReturnError(assert.AnError)
			},
			run: func(s *SQLiteStore) error {
				_, err := s.ListRuns(context.Background(), RunFilter{Limit: 5})
				return err
			},
			errMsg: "failed to list runs",
		},
		{
			name: "list scan fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM runs").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("only-one-column"))
			},
			run: func(s *SQLiteStore) error {
				_, err := s.ListRuns(context.Background(), RunFilter{})
				return err
			},
			errMsg: "failed to scan run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			tt.setupMock(mock)
			mock.ExpectClose()

			store := NewSQLiteStore(testutil.NewTestLogger(t))
			store.OpenDB(db)

			err = tt.run(store)
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}

			require.NoError(t, store.Close())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
