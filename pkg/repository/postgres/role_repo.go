package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewl2/sp-store-users-management/pkg/role"
)

const (
	roleColumns         = `id, name, description, created_at, updated_at, created_by, updated_by`
	roleColumnsPrefixed = `r.id, r.name, r.description, r.created_at, r.updated_at, r.created_by, r.updated_by`

	userRolesUserFK = "user_roles_user_id_fkey"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

var _ role.Repository = (*RoleRepository)(nil)

func (r *RoleRepository) List(ctx context.Context) ([]role.Role, error) {
	return r.query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (role.Role, error) {
	return r.getOne(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (role.Role, error) {
	return r.getOne(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
}

func (r *RoleRepository) Create(ctx context.Context, ro role.Role) (role.Role, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, ro.Name, ro.Description, ro.CreatedAt, ro.UpdatedAt, ro.CreatedBy, ro.UpdatedBy).Scan(&ro.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return role.Role{}, role.ErrAlreadyExists
		}
		return role.Role{}, fmt.Errorf("insert role: %w", err)
	}
	return ro, nil
}

func (r *RoleRepository) Update(ctx context.Context, ro role.Role) (role.Role, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = $4, updated_by = $5
		WHERE id = $1
		RETURNING created_at, created_by
	`, ro.ID, ro.Name, ro.Description, ro.UpdatedAt, ro.UpdatedBy).Scan(&ro.CreatedAt, &ro.CreatedBy)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return role.Role{}, role.ErrNotFound
		case isUniqueViolation(err):
			return role.Role{}, role.ErrAlreadyExists
		default:
			return role.Role{}, fmt.Errorf("update role: %w", err)
		}
	}
	return ro, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return role.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID int64) ([]role.Role, error) {
	return r.query(ctx, `SELECT `+roleColumnsPrefixed+`
		FROM roles r JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 ORDER BY r.id`, userID)
}

func (r *RoleRepository) Assign(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, roleID)
	if err != nil {
		if constraint, ok := isForeignKeyViolation(err); ok {
			if constraint == userRolesUserFK {
				return role.ErrUserNotFound
			}
			return role.ErrNotFound
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Unassign(ctx context.Context, userID, roleID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID); err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) getOne(ctx context.Context, query string, arg any) (role.Role, error) {
	ro, err := scanRole(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role.Role{}, role.ErrNotFound
		}
		return role.Role{}, fmt.Errorf("query role: %w", err)
	}
	return ro, nil
}

func (r *RoleRepository) query(ctx context.Context, query string, args ...any) ([]role.Role, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := []role.Role{}
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, ro)
	}
	return roles, rows.Err()
}

func scanRole(row pgx.Row) (role.Role, error) {
	var ro role.Role
	if err := row.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt, &ro.CreatedBy, &ro.UpdatedBy); err != nil {
		return role.Role{}, err
	}
	ro.CreatedAt = ro.CreatedAt.UTC()
	ro.UpdatedAt = ro.UpdatedAt.UTC()
	return ro, nil
}
