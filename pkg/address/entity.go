package address

import (
	"context"
	"errors"

	"github.com/edgewl2/sp-store-users-management/pkg/audit"
)

// Address is a postal address owned by a single user.
type Address struct {
	ID        int64
	UserID    int64
	Street    string
	City      string
	State     string
	Country   string
	ZipCode   string
	IsDefault bool
	Label     string
	audit.Audit
}

var (
	ErrNotFound = errors.New("address not found")
	// ErrDefaultConflict means another default address of the owner was
	// stored concurrently.
	ErrDefaultConflict = errors.New("default address already set")
)

// Repository scopes every lookup by owner so addresses never leak across users.
// Create and Update of a default address clear the owner's other defaults
// atomically.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	Get(ctx context.Context, id, userID int64) (Address, error)
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, id, userID int64) error
	UnsetDefaults(ctx context.Context, userID int64) error
}

// Owners reports whether a user exists.
type Owners interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}
