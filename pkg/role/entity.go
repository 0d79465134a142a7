package role

import (
	"context"
	"errors"

	"github.com/edgewl2/sp-store-users-management/pkg/audit"
)

// DefaultName is the role every newly registered user receives.
const DefaultName = "USER"

// Role groups permissions granted to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	audit.Audit
}

var (
	ErrNotFound      = errors.New("role not found")
	ErrAlreadyExists = errors.New("role already exists")
	// ErrUserNotFound is returned when linking a role to a user that does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Repository abstracts role persistence, including the user-role links.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	GetByID(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, r Role) (Role, error)
	Update(ctx context.Context, r Role) (Role, error)
	Delete(ctx context.Context, id int64) error

	ListByUser(ctx context.Context, userID int64) ([]Role, error)
	// Assign is idempotent: linking an already linked role is not an error.
	Assign(ctx context.Context, userID, roleID int64) error
	Unassign(ctx context.Context, userID, roleID int64) error
}
