package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"checkinflow/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var eventColumnNames = []string{
	"id", "name", "description", "start_time", "end_time", "location", "latitude", "longitude",
	"radius", "max_participants", "event_type", "location_validation", "require_checkout",
	"checkout_mode", "checkout_duration", "visibility", "series_id", "qrcode_url",
	"created_by", "created_at", "updated_at", "template_ids",
}

var (
	evStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	evEnd   = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func addEventRow(rows *sqlmock.Rows, id string, extra ...driver.Value) *sqlmock.Rows {
	values := []driver.Value{
		id, "Workshop", nil, evStart, evEnd, "Room 1", 25.033, 121.5654,
		int64(150), nil, "meeting", true, true,
		"after_duration", int64(30), "public", nil, "https://cdn/qr.png",
		"adm-1", evStart, evStart, []byte("{tpl-1,tpl-2}"),
	}
	return rows.AddRow(append(values, extra...)...)
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success with templates",
			event: &domain.Event{
				Name:        "Workshop",
				StartTime:   evStart,
				EndTime:     evEnd,
				Radius:      100,
				EventType:   "meeting",
				Visibility:  domain.VisibilityPublic,
				TemplateIDs: []string{"tpl-1"},
				CreatedBy:   "adm-1",
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
				mock.ExpectExec(`DELETE FROM event_templates WHERE event_id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO event_templates`).
					WithArgs("ev-1", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantID: "ev-1",
		},
		{
			name: "success without templates",
			event: &domain.Event{
				Name:      "Workshop",
				StartTime: evStart,
				EndTime:   evEnd,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-2"))
				mock.ExpectExec(`DELETE FROM event_templates`).
					WithArgs("ev-2").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantID: "ev-2",
		},
		{
			name:  "db error",
			event: &domain.Event{Name: "Workshop"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).WillReturnError(sql.ErrConnDone)
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

			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantID, tt.event.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`SELECT .+ FROM events e WHERE e.id = \$1`).
			WithArgs("ev-1").
			WillReturnRows(addEventRow(sqlmock.NewRows(eventColumnNames), "ev-1"))

		got, err := NewEventRepository(db).GetByID(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "ev-1", got.ID)
		require.Nil(t, got.Description)
		require.NotNil(t, got.Location)
		require.Equal(t, "Room 1", *got.Location)
		require.True(t, got.HasCoordinates())
		require.Equal(t, 150, got.Radius)
		require.Nil(t, got.MaxParticipants)
		require.Equal(t, domain.CheckoutModeAfterDuration, got.CheckoutMode)
		require.NotNil(t, got.CheckoutDuration)
		require.Equal(t, 30, *got.CheckoutDuration)
		require.Equal(t, []string{"tpl-1", "tpl-2"}, got.TemplateIDs)
		require.Equal(t, "adm-1", got.CreatedBy)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`SELECT .+ FROM events e WHERE e.id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := NewEventRepository(db).GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_List(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events e`).
		WithArgs("adm-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	rows := sqlmock.NewRows(append(append([]string{}, eventColumnNames...), "checkins"))
	addEventRow(rows, "ev-1", int64(4))
	addEventRow(rows, "ev-2", int64(0))
	mock.ExpectQuery(`SELECT .+ FROM events e .+ ORDER BY e.start_time DESC`).
		WithArgs("adm-1", 10, 10).
		WillReturnRows(rows)

	got, total, err := NewEventRepository(db).List(ctx, domain.EventFilter{CreatedBy: "adm-1"}, domain.PaginationParams{Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, got, 2)
	require.Equal(t, 4, got[0].Checkins)
	require.Equal(t, "ev-2", got[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListPublic(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ WHERE e.visibility = 'public'`).
		WithArgs(0, 0).
		WillReturnRows(addEventRow(sqlmock.NewRows(eventColumnNames), "ev-1"))

	got, err := NewEventRepository(db).ListPublic(ctx, domain.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events SET`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM event_templates`).WithArgs("ev-1").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO event_templates`).WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found zero rows affected",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events SET`).WillReturnResult(sqlmock.NewResult(0, 0))
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

			err = NewEventRepository(db).Update(ctx, &domain.Event{ID: "ev-1", Name: "Renamed", TemplateIDs: []string{"tpl-9"}})
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_SetQRCodeURLAndDelete(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE events SET qrcode_url = \$2 WHERE id = \$1`).
		WithArgs("ev-1", "https://cdn/qr.png").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	require.NoError(t, repo.SetQRCodeURL(ctx, "ev-1", "https://cdn/qr.png"))
	require.NoError(t, repo.Delete(ctx, "ev-1"))
	require.ErrorIs(t, repo.Delete(ctx, "ev-1"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
