package address

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

const resource = "Address"

// UseCase manages the addresses of a user.
type UseCase interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	Get(ctx context.Context, addressID, userID int64) (Address, error)
	Create(ctx context.Context, a Address, userID int64) (Address, error)
	Update(ctx context.Context, addressID, userID int64, details Address) (Address, error)
	Delete(ctx context.Context, addressID, userID int64) error
	UnsetDefaults(ctx context.Context, userID int64) error
}

type service struct {
	repo   Repository
	owners Owners
	log    *zap.Logger
}

func NewService(repo Repository, owners Owners, log *zap.Logger) UseCase {
	return &service{repo: repo, owners: owners, log: log.Named("address")}
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return nil, err
	}
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Database("load", resource, err)
	}
	s.log.Info("listed addresses", zap.Int64("user_id", userID), zap.Int("count", len(addresses)))
	return addresses, nil
}

func (s *service) Get(ctx context.Context, addressID, userID int64) (Address, error) {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return Address{}, err
	}
	return s.find(ctx, addressID, userID)
}

func (s *service) Create(ctx context.Context, a Address, userID int64) (Address, error) {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return Address{}, err
	}
	a.ID = 0
	a.UserID = userID
	trim(&a)
	a.Stamp(ctx, time.Now().UTC())
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		if errors.Is(err, ErrDefaultConflict) {
			return Address{}, defaultConflict(userID)
		}
		return Address{}, apperr.Database("save", resource, err)
	}
	s.log.Info("address created", zap.Int64("user_id", userID), zap.Int64("address_id", created.ID))
	return created, nil
}

func (s *service) Update(ctx context.Context, addressID, userID int64, details Address) (Address, error) {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return Address{}, err
	}
	current, err := s.find(ctx, addressID, userID)
	if err != nil {
		return Address{}, err
	}
	current.Street = details.Street
	current.City = details.City
	current.State = details.State
	current.Country = details.Country
	current.ZipCode = details.ZipCode
	current.Label = details.Label
	current.IsDefault = details.IsDefault
	trim(&current)
	current.Touch(ctx, time.Now().UTC())

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return Address{}, apperr.NotFound(resource, addressID)
		case errors.Is(err, ErrDefaultConflict):
			return Address{}, defaultConflict(userID)
		default:
			return Address{}, apperr.Database("update", resource, err)
		}
	}
	s.log.Info("address updated", zap.Int64("user_id", userID), zap.Int64("address_id", addressID))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, addressID, userID int64) error {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, addressID, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("address not found", zap.Int64("user_id", userID), zap.Int64("address_id", addressID))
			return apperr.NotFound(resource, addressID)
		}
		return apperr.Database("delete", resource, err)
	}
	s.log.Info("address deleted", zap.Int64("user_id", userID), zap.Int64("address_id", addressID))
	return nil
}

func (s *service) UnsetDefaults(ctx context.Context, userID int64) error {
	if err := s.repo.UnsetDefaults(ctx, userID); err != nil {
		return apperr.Database("update", resource, err)
	}
	return nil
}

func defaultConflict(userID int64) *apperr.Error {
	return apperr.Duplicate(resource, "default for user", strconv.FormatInt(userID, 10))
}

func (s *service) find(ctx context.Context, addressID, userID int64) (Address, error) {
	a, err := s.repo.Get(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("address not found", zap.Int64("user_id", userID), zap.Int64("address_id", addressID))
			return Address{}, apperr.NotFound(resource, addressID)
		}
		return Address{}, apperr.Database("load", resource, err)
	}
	return a, nil
}

func (s *service) ensureOwner(ctx context.Context, userID int64) error {
	ok, err := s.owners.Exists(ctx, userID)
	if err != nil {
		return apperr.Database("load", "User", err)
	}
	if !ok {
		s.log.Warn("user not found", zap.Int64("user_id", userID))
		return apperr.NotFound("User", userID)
	}
	return nil
}

func trim(a *Address) {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Country = strings.TrimSpace(a.Country)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Label = strings.TrimSpace(a.Label)
}
