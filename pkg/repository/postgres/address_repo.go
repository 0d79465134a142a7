package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
)

const addressColumns = `id, user_id, street, city, state, country, zip_code, is_default, label,
	created_at, updated_at, created_by, updated_by`

type AddressRepository struct {
	pool *pgxpool.Pool
}

func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

var _ address.Repository = (*AddressRepository)(nil)

func (r *AddressRepository) ListByUser(ctx context.Context, userID int64) ([]address.Address, error) {
	return queryAddresses(ctx, r.pool, `SELECT `+addressColumns+`
		FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *AddressRepository) Get(ctx context.Context, id, userID int64) (address.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx, `SELECT `+addressColumns+`
		FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return address.Address{}, address.ErrNotFound
		}
		return address.Address{}, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

// Create inserts a. A default address replaces the owner's previous default
// in the same transaction.
func (r *AddressRepository) Create(ctx context.Context, a address.Address) (address.Address, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, "addresses", a.UserID, 0); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			INSERT INTO addresses (user_id, street, city, state, country, zip_code, is_default, label,
				created_at, updated_at, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`, a.UserID, a.Street, a.City, a.State, a.Country, a.ZipCode, a.IsDefault, a.Label,
			a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy).Scan(&a.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return address.Address{}, address.ErrDefaultConflict
		}
		return address.Address{}, fmt.Errorf("insert address: %w", err)
	}
	return a, nil
}

func (r *AddressRepository) Update(ctx context.Context, a address.Address) (address.Address, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, "addresses", a.UserID, a.ID); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			UPDATE addresses SET street = $3, city = $4, state = $5, country = $6, zip_code = $7,
				is_default = $8, label = $9, updated_at = $10, updated_by = $11
			WHERE id = $1 AND user_id = $2
			RETURNING created_at, created_by
		`, a.ID, a.UserID, a.Street, a.City, a.State, a.Country, a.ZipCode, a.IsDefault, a.Label,
			a.UpdatedAt, a.UpdatedBy).Scan(&a.CreatedAt, &a.CreatedBy)
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return address.Address{}, address.ErrNotFound
		case isUniqueViolation(err):
			return address.Address{}, address.ErrDefaultConflict
		default:
			return address.Address{}, fmt.Errorf("update address: %w", err)
		}
	}
	return a, nil
}

func (r *AddressRepository) Delete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

func (r *AddressRepository) UnsetDefaults(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
		return fmt.Errorf("unset default addresses: %w", err)
	}
	return nil
}

func queryAddresses(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) ([]address.Address, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	res := []address.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func scanAddress(row pgx.Row) (address.Address, error) {
	var a address.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.State, &a.Country, &a.ZipCode, &a.IsDefault, &a.Label,
		&a.CreatedAt, &a.UpdatedAt, &a.CreatedBy, &a.UpdatedBy)
	if err != nil {
		return address.Address{}, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}
