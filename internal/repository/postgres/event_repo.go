package postgres

import (
	"context"
	"database/sql"
	"errors"

	"checkinflow/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `
	e.id, e.name, e.description, e.start_time, e.end_time, e.location, e.latitude, e.longitude,
	e.radius, e.max_participants, e.event_type, e.location_validation, e.require_checkout,
	e.checkout_mode, e.checkout_duration, e.visibility, e.series_id, e.qrcode_url,
	COALESCE(e.created_by::text, ''), e.created_at, e.updated_at,
	COALESCE((SELECT array_agg(et.template_id::text ORDER BY et.position)
		FROM event_templates et WHERE et.event_id = e.id), '{}')`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one row selected with eventColumns plus any extra trailing destinations.
func scanEvent(row rowScanner, extra ...any) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, locNull, seriesNull, qrNull sql.NullString
	var latNull, lngNull sql.NullFloat64
	var maxNull, durNull sql.NullInt64
	var mode string
	var templateIDs pq.StringArray
	dest := []any{
		&e.ID, &e.Name, &descNull, &e.StartTime, &e.EndTime, &locNull, &latNull, &lngNull,
		&e.Radius, &maxNull, &e.EventType, &e.LocationValidation, &e.RequireCheckout,
		&mode, &durNull, &e.Visibility, &seriesNull, &qrNull,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &templateIDs,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.CheckoutMode = domain.CheckoutMode(mode)
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if locNull.Valid {
		e.Location = &locNull.String
	}
	if latNull.Valid {
		e.Latitude = &latNull.Float64
	}
	if lngNull.Valid {
		e.Longitude = &lngNull.Float64
	}
	if maxNull.Valid {
		v := int(maxNull.Int64)
		e.MaxParticipants = &v
	}
	if durNull.Valid {
		v := int(durNull.Int64)
		e.CheckoutDuration = &v
	}
	if seriesNull.Valid {
		e.SeriesID = &seriesNull.String
	}
	if qrNull.Valid {
		e.QRCodeURL = &qrNull.String
	}
	e.TemplateIDs = []string(templateIDs)
	if e.TemplateIDs == nil {
		e.TemplateIDs = []string{}
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	db := conn(ctx, r.DB)
	query := `
		INSERT INTO events (name, description, start_time, end_time, location, latitude, longitude,
			radius, max_participants, event_type, location_validation, require_checkout,
			checkout_mode, checkout_duration, visibility, series_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`
	err := db.QueryRowContext(ctx, query,
		e.Name, e.Description, e.StartTime, e.EndTime, e.Location, e.Latitude, e.Longitude,
		e.Radius, e.MaxParticipants, e.EventType, e.LocationValidation, e.RequireCheckout,
		string(e.CheckoutMode), e.CheckoutDuration, e.Visibility, e.SeriesID, nullString(e.CreatedBy),
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return err
	}
	return replaceEventTemplates(ctx, db, e.ID, e.TemplateIDs)
}

// replaceEventTemplates rewrites the ordered template links of an event.
func replaceEventTemplates(ctx context.Context, db DBTX, eventID string, templateIDs []string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM event_templates WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if len(templateIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO event_templates (event_id, template_id, position)
		SELECT $1, t.id::uuid, t.ord
		FROM unnest($2::text[]) WITH ORDINALITY AS t(id, ord)
	`
	_, err := db.ExecContext(ctx, query, eventID, pq.Array(templateIDs))
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	db := conn(ctx, r.DB)
	var total int
	countQuery := `SELECT COUNT(*) FROM events e WHERE ($1 = '' OR e.created_by::text = $1)`
	if err := db.QueryRowContext(ctx, countQuery, filter.CreatedBy).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + `,
		(SELECT COUNT(*) FROM attendance_records ar WHERE ar.event_id = e.id)
		FROM events e
		WHERE ($1 = '' OR e.created_by::text = $1)
		ORDER BY e.start_time DESC
		LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := db.QueryContext(ctx, query, filter.CreatedBy, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.EventWithCount, 0)
	for rows.Next() {
		var count int
		e, err := scanEvent(rows, &count)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, &domain.EventWithCount{Event: e, Checkins: count})
	}
	return events, total, rows.Err()
}

func (r *eventRepository) ListPublic(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events e
		WHERE e.visibility = 'public'
		ORDER BY e.start_time DESC
		LIMIT NULLIF($1::int, 0) OFFSET $2`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	db := conn(ctx, r.DB)
	query := `
		UPDATE events SET name = $2, description = $3, start_time = $4, end_time = $5, location = $6,
			latitude = $7, longitude = $8, radius = $9, max_participants = $10, event_type = $11,
			location_validation = $12, require_checkout = $13, checkout_mode = $14,
			checkout_duration = $15, visibility = $16, updated_at = $17
		WHERE id = $1
	`
	result, err := db.ExecContext(ctx, query,
		e.ID, e.Name, e.Description, e.StartTime, e.EndTime, e.Location,
		e.Latitude, e.Longitude, e.Radius, e.MaxParticipants, e.EventType,
		e.LocationValidation, e.RequireCheckout, string(e.CheckoutMode),
		e.CheckoutDuration, e.Visibility, e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return replaceEventTemplates(ctx, db, e.ID, e.TemplateIDs)
}

func (r *eventRepository) SetQRCodeURL(ctx context.Context, eventID, url string) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, `UPDATE events SET qrcode_url = $2 WHERE id = $1`, eventID, url)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
