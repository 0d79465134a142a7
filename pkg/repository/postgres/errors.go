package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func pgCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == pgerrcode.UniqueViolation
}

// isForeignKeyViolation reports a broken reference and the constraint that
// caught it.
func isForeignKeyViolation(err error) (string, bool) {
	code, constraint := pgCode(err)
	return constraint, code == pgerrcode.ForeignKeyViolation
}

// clearDefault drops the default flag from every row of table owned by
// userID except keepID. The owner row is locked first so concurrent default
// writes for one user run one after another.
func clearDefault(ctx context.Context, tx pgx.Tx, table string, userID, keepID int64) error {
	if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR NO KEY UPDATE`, userID); err != nil {
		return fmt.Errorf("lock owner %d: %w", userID, err)
	}
	query := `UPDATE ` + pgx.Identifier{table}.Sanitize() + ` SET is_default = FALSE
		WHERE user_id = $1 AND is_default AND id <> $2`
	if _, err := tx.Exec(ctx, query, userID, keepID); err != nil {
		return fmt.Errorf("clear default %s: %w", table, err)
	}
	return nil
}
