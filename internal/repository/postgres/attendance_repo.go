package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"checkinflow/internal/domain"
)

const attendanceColumns = `ar.id, ar.attendee_id, ar.event_id, ar.checkin_time, ar.checkout_time, ar.status,
	ar.geolocation, ar.answers, ar.is_valid, ar.created_at, ar.updated_at`

type attendanceRepository struct {
	DB *sql.DB
}

func NewAttendanceRepository(db *sql.DB) domain.AttendanceRepository {
	return &attendanceRepository{DB: db}
}

func scanAttendance(row rowScanner, extra ...any) (*domain.AttendanceRecord, error) {
	rec := &domain.AttendanceRecord{}
	var checkoutNull sql.NullTime
	var geoNull sql.NullString
	var status string
	var answers []byte
	dest := []any{
		&rec.ID, &rec.AttendeeID, &rec.EventID, &rec.CheckinTime, &checkoutNull, &status,
		&geoNull, &answers, &rec.IsValid, &rec.CreatedAt, &rec.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	rec.Status = domain.AttendanceStatus(status)
	if checkoutNull.Valid {
		rec.CheckoutTime = &checkoutNull.Time
	}
	if geoNull.Valid {
		rec.Geolocation = &geoNull.String
	}
	rec.Answers = map[string]any{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &rec.Answers); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (r *attendanceRepository) Create(ctx context.Context, rec *domain.AttendanceRecord) error {
	answers, err := marshalObject(rec.Answers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO attendance_records (attendee_id, event_id, checkin_time, status, geolocation, answers, is_valid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err = conn(ctx, r.DB).QueryRowContext(ctx, query,
		rec.AttendeeID, rec.EventID, rec.CheckinTime, string(rec.Status), rec.Geolocation, answers,
		rec.IsValid, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAttendance
		}
		return err
	}
	return nil
}

// GetByEventAndAttendee locks the row when called inside a transaction.
func (r *attendanceRepository) GetByEventAndAttendee(ctx context.Context, eventID, attendeeID string) (*domain.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records ar WHERE ar.event_id = $1 AND ar.attendee_id = $2`
	if _, inTx := ctx.Value(txKey{}).(*sql.Tx); inTx {
		query += ` FOR UPDATE`
	}
	rec, err := scanAttendance(conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, attendeeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// MarkCheckedOut sets the checkout fields once; a record already checked out yields ErrAlreadyComplete.
func (r *attendanceRepository) MarkCheckedOut(ctx context.Context, rec *domain.AttendanceRecord) error {
	query := `
		UPDATE attendance_records
		SET checkout_time = $2, status = $3, geolocation = $4, updated_at = $5
		WHERE id = $1 AND checkout_time IS NULL
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, rec.ID, rec.CheckoutTime, string(rec.Status), rec.Geolocation, rec.UpdatedAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAlreadyComplete
	}
	return nil
}

func (r *attendanceRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.AttendanceWithAttendee, error) {
	query := `SELECT ` + attendanceColumns + `, a.name, a.phone, a.company, a.department
		FROM attendance_records ar
		JOIN attendees a ON a.id = ar.attendee_id
		WHERE ar.event_id = $1
		ORDER BY ar.checkin_time ASC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.AttendanceWithAttendee, 0)
	for rows.Next() {
		var s domain.AttendeeSummary
		rec, err := scanAttendance(rows, &s.Name, &s.Phone, &s.Company, &s.Department)
		if err != nil {
			return nil, err
		}
		out = append(out, &domain.AttendanceWithAttendee{AttendanceRecord: rec, Attendee: s})
	}
	return out, rows.Err()
}

func (r *attendanceRepository) CountByEventID(ctx context.Context, eventID string) (*domain.EventStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'checked_in'),
			COUNT(*) FILTER (WHERE status = 'checked_out')
		FROM attendance_records
		WHERE event_id = $1
	`
	stats := &domain.EventStats{}
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID).Scan(&stats.Total, &stats.CheckedIn, &stats.CheckedOut); err != nil {
		return nil, err
	}
	return stats, nil
}
