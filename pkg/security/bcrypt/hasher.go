// Package bcrypt provides a hasher implementation utilising bcrypt.
package bcrypt

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

var _ user.Hasher = (*hasher)(nil)

type hasher struct {
	cost int
}

// New instantiates a bcrypt-based hasher. A cost outside bcrypt's bounds
// falls back to bcrypt.DefaultCost.
func New(cost int) user.Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &hasher{cost: cost}
}

func (h *hasher) Hash(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *hasher) Compare(plain, hashed string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
