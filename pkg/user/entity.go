package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
)

// User is a registered customer of the store. Password always holds a hash.
type User struct {
	ID        int64
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	BirthDate time.Time
	Enabled   bool
	Roles     []role.Role
	Addresses []address.Address
	Phones    []phone.Phone
	audit.Audit
}

// HasRole reports whether roleID is among the loaded roles.
func (u User) HasRole(roleID int64) bool {
	for _, r := range u.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")

	// ErrUsernameTaken and ErrEmailTaken name the unique key a write broke.
	// Both match ErrAlreadyExists.
	ErrUsernameTaken = fmt.Errorf("%w: username", ErrAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("%w: email", ErrAlreadyExists)
)

// Repository abstracts user persistence. Reads return the user together with
// its roles, addresses and phones.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string, a audit.Audit) error
	Delete(ctx context.Context, id int64) error
}

// Hasher specifies an API for generating hashes of an arbitrary textual
// content.
type Hasher interface {
	// Hash generates the hashed string from plain-text.
	Hash(string) (string, error)

	// Compare compares plain-text version to the hashed one. An error should
	// indicate failed comparison.
	Compare(plain, hashed string) error
}
