package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"checkinflow/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var adminColumnNames = []string{"id", "username", "password_hash", "role", "is_active", "created_at", "updated_at"}

func TestAdminRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`INSERT INTO admins \(username, password_hash, role, is_active, created_at, updated_at\)`).
			WithArgs("root", "hash", "system_admin", true, now, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("adm-1"))

		a := &domain.Admin{Username: "root", PasswordHash: "hash", Role: domain.RoleSystemAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, NewAdminRepository(db).Create(ctx, a))
		require.Equal(t, "adm-1", a.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`INSERT INTO admins`).WillReturnError(&pq.Error{Code: "23505"})

		err = NewAdminRepository(db).Create(ctx, &domain.Admin{Username: "root"})
		require.ErrorIs(t, err, domain.ErrDuplicate)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdminRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		mock     func(mock sqlmock.Sqlmock)
		wantRole domain.Role
		errIs    error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM admins WHERE username = \$1`).
					WithArgs("alice").
					WillReturnRows(sqlmock.NewRows(adminColumnNames).AddRow("adm-2", "alice", "hash", "member", false, now, now))
			},
			wantRole: domain.RoleMember,
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM admins WHERE username = \$1`).
					WithArgs("alice").
					WillReturnError(sql.ErrNoRows)
			},
			errIs: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			got, err := NewAdminRepository(db).GetByUsername(ctx, "alice")
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantRole, got.Role)
				require.False(t, got.IsActive)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdminRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM admins ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows(adminColumnNames).
			AddRow("adm-1", "root", "h1", "system_admin", true, now, now).
			AddRow("adm-2", "alice", "h2", "admin", true, now, now))

	got, err := NewAdminRepository(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, domain.RoleAdmin, got[1].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_Mutations(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE admins SET password_hash = \$2`).
		WithArgs("adm-1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE admins SET is_active = \$2`).
		WithArgs("adm-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM admins WHERE id = \$1`).
		WithArgs("adm-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAdminRepository(db)
	require.NoError(t, repo.UpdatePassword(ctx, "adm-1", "new-hash"))
	require.NoError(t, repo.SetActive(ctx, "adm-1", false))
	require.ErrorIs(t, repo.Delete(ctx, "adm-404"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
