package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/store"
)

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantWrapped error
	}{
		{
			name: "nil_error",
			err:  nil,
		},
		{
			name:        "sql_no_rows",
			err:         sql.ErrNoRows,
			wantWrapped: store.ErrNotFound,
		},
		{
			name: "unique_violation",
			err: &pgconn.PgError{
				Code:           uniqueViolationCode,
				ConstraintName: "users_email_key",
			},
			wantWrapped: store.ErrDuplicate,
		},
		{
			name: "foreign_key_violation",
			err: &pgconn.PgError{
				Code:           foreignKeyViolationCode,
				ConstraintName: "todos_user_id_fkey",
			},
			wantWrapped: store.ErrInvalidEntity,
		},
		{
			name: "check_constraint_violation",
			err: &pgconn.PgError{
				Code:           checkViolationCode,
				ConstraintName: "todos_status_check",
			},
			wantWrapped: store.ErrInvalidEntity,
		},
		{
			name: "not_null_violation",
			err: &pgconn.PgError{
				Code:       notNullViolationCode,
				ColumnName: "title",
			},
			wantWrapped: store.ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)

			if tt.err == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.ErrorIs(t, result, tt.wantWrapped)
		})
	}

	t.Run("generic_error_passes_through", func(t *testing.T) {
		original := errors.New("some other error")
		assert.Equal(t, original, MapError(original))
	})

	t.Run("unknown_pg_code_passes_through", func(t *testing.T) {
		original := &pgconn.PgError{Code: "99999", Message: "unknown error"}
		assert.Equal(t, error(original), MapError(original))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Run("rows_affected", func(t *testing.T) {
		assert.NoError(t, CheckRowsAffected(mockResult{rowsAffected: 1}, "todo"))
	})

	t.Run("no_rows_affected", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{rowsAffected: 0}, "todo")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "todo not found")
	})

	t.Run("no_rows_and_no_entity_name", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{rowsAffected: 0}, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rows_affected_error", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{err: errors.New("driver broke")}, "todo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get rows affected")
	})

	t.Run("nil_result", func(t *testing.T) {
		assert.Error(t, CheckRowsAffected(nil, "todo"))
	})
}

func TestBuildTodoFilter(t *testing.T) {
	t.Run("no_filters", func(t *testing.T) {
		where, args := buildTodoFilter(store.TodoFilter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("title_only", func(t *testing.T) {
		where, args := buildTodoFilter(store.TodoFilter{Title: "groceries"})
		assert.Contains(t, where, "title LIKE")
		assert.Equal(t, []any{"groceries"}, args)
	})

	t.Run("all_filters_numbered_in_order", func(t *testing.T) {
		where, args := buildTodoFilter(store.TodoFilter{
			Title:       "groceries",
			Status:      "pending",
			CreatedDate: "2026-08-30",
		})
		assert.Contains(t, where, "$1")
		assert.Contains(t, where, "status = $2")
		assert.Contains(t, where, "created_at::date = $3::date")
		assert.Equal(t, []any{"groceries", "pending", "2026-08-30"}, args)
	})
}
