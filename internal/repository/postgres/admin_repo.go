package postgres

import (
	"context"
	"database/sql"
	"errors"

	"checkinflow/internal/domain"
)

const adminColumns = `id, username, password_hash, role, is_active, created_at, updated_at`

type adminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(db *sql.DB) domain.AdminRepository {
	return &adminRepository{DB: db}
}

func scanAdmin(row rowScanner) (*domain.Admin, error) {
	a := &domain.Admin{}
	var role string
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return a, nil
}

func (r *adminRepository) Create(ctx context.Context, a *domain.Admin) error {
	query := `
		INSERT INTO admins (username, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		a.Username, a.PasswordHash, string(a.Role), a.IsActive, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *adminRepository) getOne(ctx context.Context, where string, arg any) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE ` + where + ` = $1`
	a, err := scanAdmin(conn(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.getOne(ctx, "id", id)
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return r.getOne(ctx, "username", username)
}

func (r *adminRepository) List(ctx context.Context) ([]*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at ASC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	admins := make([]*domain.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (r *adminRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

func (r *adminRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `UPDATE admins SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

func (r *adminRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
}
