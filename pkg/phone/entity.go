package phone

import (
	"context"
	"errors"

	"github.com/edgewl2/sp-store-users-management/pkg/audit"
)

// Type classifies a phone number.
type Type string

const (
	TypeMobile Type = "MOBILE"
	TypeHome   Type = "HOME"
	TypeWork   Type = "WORK"
	TypeOther  Type = "OTHER"
)

// Valid reports whether t is one of the known phone types.
func (t Type) Valid() bool {
	switch t {
	case TypeMobile, TypeHome, TypeWork, TypeOther:
		return true
	}
	return false
}

type Phone struct {
	ID          int64
	UserID      int64
	Number      string
	CountryCode string
	Type        Type
	IsDefault   bool
	audit.Audit
}

var (
	ErrNotFound = errors.New("phone not found")
	// ErrDefaultConflict means another default phone of the owner was stored
	// concurrently.
	ErrDefaultConflict = errors.New("default phone already set")
)

// Repository scopes every lookup by owner. Create and Update of a default
// phone clear the owner's other defaults atomically.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Phone, error)
	Get(ctx context.Context, id, userID int64) (Phone, error)
	Create(ctx context.Context, p Phone) (Phone, error)
	Update(ctx context.Context, p Phone) (Phone, error)
	Delete(ctx context.Context, id, userID int64) error
	UnsetDefaults(ctx context.Context, userID int64) error
}

// Owners reports whether a user exists.
type Owners interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}
