package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"checkinflow/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var attendanceColumnNames = []string{
	"id", "attendee_id", "event_id", "checkin_time", "checkout_time", "status",
	"geolocation", "answers", "is_valid", "created_at", "updated_at",
}

func TestAttendanceRepository_Create(t *testing.T) {
	ctx := context.Background()
	checkin := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO attendance_records`).
					WithArgs("att-1", "ev-1", checkin, "checked_in", "25.0330,121.5654", []byte(`{"q1":"yes"}`), true, checkin, checkin).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-1"))
			},
		},
		{
			name: "unique violation returns ErrDuplicateAttendance",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO attendance_records`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: true,
			errIs:   domain.ErrDuplicateAttendance,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO attendance_records`).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			geo := "25.0330,121.5654"
			rec := domain.NewCheckin("att-1", "ev-1", &geo, map[string]any{"q1": "yes"}, checkin)
			err = NewAttendanceRepository(db).Create(ctx, rec)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, "rec-1", rec.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAttendanceRepository_GetByEventAndAttendee(t *testing.T) {
	ctx := context.Background()
	checkin := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`SELECT .+ FROM attendance_records ar WHERE ar.event_id = \$1 AND ar.attendee_id = \$2$`).
			WithArgs("ev-1", "att-1").
			WillReturnRows(sqlmock.NewRows(attendanceColumnNames).
				AddRow("rec-1", "att-1", "ev-1", checkin, nil, "checked_in", nil, []byte(`{}`), true, checkin, checkin))

		got, err := NewAttendanceRepository(db).GetByEventAndAttendee(ctx, "ev-1", "att-1")
		require.NoError(t, err)
		require.Equal(t, domain.StatusCheckedIn, got.Status)
		require.Nil(t, got.CheckoutTime)
		require.Nil(t, got.Geolocation)
		require.False(t, got.Completed())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`SELECT .+ FROM attendance_records`).WillReturnError(sql.ErrNoRows)

		_, err = NewAttendanceRepository(db).GetByEventAndAttendee(ctx, "ev-1", "att-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locks row inside transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM attendance_records ar .+ FOR UPDATE`).
			WithArgs("ev-1", "att-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		repo := NewAttendanceRepository(db)
		err = NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
			_, err := repo.GetByEventAndAttendee(ctx, "ev-1", "att-1")
			return err
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

var errRowsAffected = errors.New("rows affected unsupported")

func TestAttendanceRepository_MarkCheckedOut(t *testing.T) {
	ctx := context.Background()
	checkout := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE attendance_records .+ WHERE id = \$1 AND checkout_time IS NULL`).
					WithArgs("rec-1", checkout, "checked_out", nil, checkout).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "already checked out",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE attendance_records`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			errIs: domain.ErrAlreadyComplete,
		},
		{
			name: "rows affected unavailable",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE attendance_records`).
					WillReturnResult(sqlmock.NewErrorResult(errRowsAffected))
			},
			errIs: errRowsAffected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			rec := &domain.AttendanceRecord{ID: "rec-1", CheckoutTime: &checkout, Status: domain.StatusCheckedOut, UpdatedAt: checkout}
			err = NewAttendanceRepository(db).MarkCheckedOut(ctx, rec)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAttendanceRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	checkin := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)
	checkout := checkin.Add(2 * time.Hour)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := append(append([]string{}, attendanceColumnNames...), "name", "phone", "company", "department")
	mock.ExpectQuery(`SELECT .+ JOIN attendees a ON a.id = ar.attendee_id WHERE ar.event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("rec-1", "att-1", "ev-1", checkin, checkout, "checked_out", "25.0,121.0", []byte(`{"q1":"yes"}`), true, checkin, checkout,
				"Alice", "0912345678", "Acme", "R&D"))

	got, err := NewAttendanceRepository(db).ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Alice", got[0].Attendee.Name)
	require.Equal(t, "R&D", got[0].Attendee.Department)
	require.True(t, got[0].Completed())
	require.Equal(t, "yes", got[0].Answers["q1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_CountByEventID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "checked_in", "checked_out"}).AddRow(5, 3, 2))

	got, err := NewAttendanceRepository(db).CountByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, &domain.EventStats{Total: 5, CheckedIn: 3, CheckedOut: 2}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
