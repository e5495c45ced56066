package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"checkinflow/internal/domain"
)

const templateColumns = `id, name, type, survey_trigger, fields_schema, is_public,
	created_by_admin_id::text, created_at, updated_at`

type templateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) domain.TemplateRepository {
	return &templateRepository{DB: db}
}

func scanTemplate(row rowScanner) (*domain.RegistrationTemplate, error) {
	t := &domain.RegistrationTemplate{}
	var typ string
	var triggerNull, ownerNull sql.NullString
	var fields []byte
	if err := row.Scan(&t.ID, &t.Name, &typ, &triggerNull, &fields, &t.IsPublic, &ownerNull, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TemplateType(typ)
	if triggerNull.Valid {
		t.SurveyTrigger = &triggerNull.String
	}
	if ownerNull.Valid {
		t.CreatedByAdminID = &ownerNull.String
	}
	t.FieldsSchema = json.RawMessage(fields)
	return t, nil
}

func (r *templateRepository) Create(ctx context.Context, t *domain.RegistrationTemplate) error {
	query := `
		INSERT INTO registration_templates (name, type, survey_trigger, fields_schema, is_public, created_by_admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		t.Name, string(t.Type), t.SurveyTrigger, []byte(t.FieldsSchema), t.IsPublic, t.CreatedByAdminID,
		t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM registration_templates WHERE id = $1`
	t, err := scanTemplate(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *templateRepository) ListVisible(ctx context.Context, ownerID string, all bool) ([]*domain.RegistrationTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM registration_templates
		WHERE $1 OR is_public OR created_by_admin_id::text = $2
		ORDER BY created_at DESC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, all, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	templates := make([]*domain.RegistrationTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *templateRepository) Update(ctx context.Context, t *domain.RegistrationTemplate) error {
	query := `
		UPDATE registration_templates
		SET name = $2, type = $3, survey_trigger = $4, fields_schema = $5, is_public = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query,
		t.ID, t.Name, string(t.Type), t.SurveyTrigger, []byte(t.FieldsSchema), t.IsPublic, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM registration_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
