package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

const userColumns = `id, username, password, email, first_name, last_name, birth_date, enabled,
	created_at, updated_at, created_by, updated_by`

// UserRepository implements user.Repository backed by PostgreSQL (pgx).
// Reads load roles, addresses and phones with one query per relation.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`
		FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, strings.ToLower(email))
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = $1)`, strings.ToLower(email))
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, email, first_name, last_name, birth_date, enabled,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, u.Username, u.Password, u.Email, u.FirstName, u.LastName, u.BirthDate, u.Enabled,
		u.CreatedAt, u.UpdatedAt, u.CreatedBy, u.UpdatedBy).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, userConflict(err)
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.Roles, u.Addresses, u.Phones = nil, nil, nil
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET username = $2, password = $3, email = $4, first_name = $5, last_name = $6,
			birth_date = $7, enabled = $8, updated_at = $9, updated_by = $10
		WHERE id = $1
		RETURNING created_at, created_by
	`, u.ID, u.Username, u.Password, u.Email, u.FirstName, u.LastName, u.BirthDate, u.Enabled,
		u.UpdatedAt, u.UpdatedBy).Scan(&u.CreatedAt, &u.CreatedBy)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, userConflict(err)
		default:
			return user.User{}, fmt.Errorf("update user: %w", err)
		}
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string, a audit.Audit) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password = $2, updated_at = $3, updated_by = $4 WHERE id = $1
	`, id, hash, a.UpdatedAt, a.UpdatedBy)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (user.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("query user: %w", err)
	}
	users := []user.User{u}
	if err := r.loadRelations(ctx, users); err != nil {
		return user.User{}, err
	}
	return users[0], nil
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return ok, nil
}

// loadRelations fills roles, addresses and phones of every user in place.
func (r *UserRepository) loadRelations(ctx context.Context, users []user.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	index := make(map[int64]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
		index[users[i].ID] = i
		users[i].Roles = []role.Role{}
		users[i].Addresses = []address.Address{}
		users[i].Phones = []phone.Phone{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ur.user_id, `+roleColumnsPrefixed+`
		FROM user_roles ur JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1) ORDER BY r.id`, ids)
	if err != nil {
		return fmt.Errorf("query user roles: %w", err)
	}
	for rows.Next() {
		var userID int64
		var ro role.Role
		if err := rows.Scan(&userID, &ro.ID, &ro.Name, &ro.Description,
			&ro.CreatedAt, &ro.UpdatedAt, &ro.CreatedBy, &ro.UpdatedBy); err != nil {
			rows.Close()
			return err
		}
		i := index[userID]
		users[i].Roles = append(users[i].Roles, ro)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	addresses, err := queryAddresses(ctx, r.pool, `SELECT `+addressColumns+`
		FROM addresses WHERE user_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	for _, a := range addresses {
		i := index[a.UserID]
		users[i].Addresses = append(users[i].Addresses, a)
	}

	phones, err := queryPhones(ctx, r.pool, `SELECT `+phoneColumns+`
		FROM phones WHERE user_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	for _, p := range phones {
		i := index[p.UserID]
		users[i].Phones = append(users[i].Phones, p)
	}
	return nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.FirstName, &u.LastName,
		&u.BirthDate, &u.Enabled, &u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy)
	if err != nil {
		return user.User{}, err
	}
	u.BirthDate = u.BirthDate.UTC()
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

// userConflict tells which unique index of users rejected the write.
func userConflict(err error) error {
	if _, constraint := pgCode(err); constraint == "uq_users_email" {
		return user.ErrEmailTaken
	}
	return user.ErrUsernameTaken
}
