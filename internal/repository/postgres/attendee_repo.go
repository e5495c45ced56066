package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"checkinflow/internal/domain"
)

const attendeeColumns = `id, line_user_id, name, phone, company, department, profile_data, created_at, updated_at`

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{DB: db}
}

func scanAttendee(row rowScanner) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var profile []byte
	if err := row.Scan(&a.ID, &a.LineUserID, &a.Name, &a.Phone, &a.Company, &a.Department, &profile, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ProfileData = map[string]any{}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &a.ProfileData); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func marshalObject(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (r *attendeeRepository) Create(ctx context.Context, a *domain.Attendee) error {
	profile, err := marshalObject(a.ProfileData)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO attendees (line_user_id, name, phone, company, department, profile_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = conn(ctx, r.DB).QueryRowContext(ctx, query,
		a.LineUserID, a.Name, a.Phone, a.Company, a.Department, profile, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *attendeeRepository) getOne(ctx context.Context, where string, arg any) (*domain.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE ` + where + ` = $1`
	a, err := scanAttendee(conn(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	return r.getOne(ctx, "id", id)
}

func (r *attendeeRepository) GetByLineUserID(ctx context.Context, lineUserID string) (*domain.Attendee, error) {
	return r.getOne(ctx, "line_user_id", lineUserID)
}

func (r *attendeeRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	db := conn(ctx, r.DB)
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendees`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + attendeeColumns + ` FROM attendees ORDER BY created_at DESC LIMIT NULLIF($1::int, 0) OFFSET $2`
	rows, err := db.QueryContext(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, 0, err
		}
		attendees = append(attendees, a)
	}
	return attendees, total, rows.Err()
}

func (r *attendeeRepository) Update(ctx context.Context, a *domain.Attendee) error {
	profile, err := marshalObject(a.ProfileData)
	if err != nil {
		return err
	}
	query := `
		UPDATE attendees SET name = $2, phone = $3, company = $4, department = $5, profile_data = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, a.ID, a.Name, a.Phone, a.Company, a.Department, profile, a.UpdatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
