package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewl2/sp-store-users-management/pkg/phone"
)

const phoneColumns = `id, user_id, number, country_code, type, is_default,
	created_at, updated_at, created_by, updated_by`

type PhoneRepository struct {
	pool *pgxpool.Pool
}

func NewPhoneRepository(pool *pgxpool.Pool) *PhoneRepository {
	return &PhoneRepository{pool: pool}
}

var _ phone.Repository = (*PhoneRepository)(nil)

func (r *PhoneRepository) ListByUser(ctx context.Context, userID int64) ([]phone.Phone, error) {
	return queryPhones(ctx, r.pool, `SELECT `+phoneColumns+`
		FROM phones WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *PhoneRepository) Get(ctx context.Context, id, userID int64) (phone.Phone, error) {
	p, err := scanPhone(r.pool.QueryRow(ctx, `SELECT `+phoneColumns+`
		FROM phones WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return phone.Phone{}, phone.ErrNotFound
		}
		return phone.Phone{}, fmt.Errorf("query phone: %w", err)
	}
	return p, nil
}

// Create inserts p. A default phone replaces the owner's previous default in
// the same transaction.
func (r *PhoneRepository) Create(ctx context.Context, p phone.Phone) (phone.Phone, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if p.IsDefault {
			if err := clearDefault(ctx, tx, "phones", p.UserID, 0); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			INSERT INTO phones (user_id, number, country_code, type, is_default,
				created_at, updated_at, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, p.UserID, p.Number, p.CountryCode, string(p.Type), p.IsDefault,
			p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy).Scan(&p.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return phone.Phone{}, phone.ErrDefaultConflict
		}
		return phone.Phone{}, fmt.Errorf("insert phone: %w", err)
	}
	return p, nil
}

func (r *PhoneRepository) Update(ctx context.Context, p phone.Phone) (phone.Phone, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if p.IsDefault {
			if err := clearDefault(ctx, tx, "phones", p.UserID, p.ID); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			UPDATE phones SET number = $3, country_code = $4, type = $5, is_default = $6,
				updated_at = $7, updated_by = $8
			WHERE id = $1 AND user_id = $2
			RETURNING created_at, created_by
		`, p.ID, p.UserID, p.Number, p.CountryCode, string(p.Type), p.IsDefault,
			p.UpdatedAt, p.UpdatedBy).Scan(&p.CreatedAt, &p.CreatedBy)
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return phone.Phone{}, phone.ErrNotFound
		case isUniqueViolation(err):
			return phone.Phone{}, phone.ErrDefaultConflict
		default:
			return phone.Phone{}, fmt.Errorf("update phone: %w", err)
		}
	}
	return p, nil
}

func (r *PhoneRepository) Delete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM phones WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete phone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return phone.ErrNotFound
	}
	return nil
}

func (r *PhoneRepository) UnsetDefaults(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE phones SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
		return fmt.Errorf("unset default phones: %w", err)
	}
	return nil
}

func queryPhones(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) ([]phone.Phone, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}
	defer rows.Close()

	res := []phone.Phone{}
	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func scanPhone(row pgx.Row) (phone.Phone, error) {
	var p phone.Phone
	var typ string
	err := row.Scan(&p.ID, &p.UserID, &p.Number, &p.CountryCode, &typ, &p.IsDefault,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy)
	if err != nil {
		return phone.Phone{}, err
	}
	p.Type = phone.Type(typ)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
