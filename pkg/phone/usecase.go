package phone

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

const resource = "Phone"

// UseCase manages the phone numbers of a user.
type UseCase interface {
	ListByUser(ctx context.Context, userID int64) ([]Phone, error)
	Get(ctx context.Context, phoneID, userID int64) (Phone, error)
	Create(ctx context.Context, p Phone, userID int64) (Phone, error)
	Update(ctx context.Context, phoneID, userID int64, details Phone) (Phone, error)
	Delete(ctx context.Context, phoneID, userID int64) error
	UnsetDefaults(ctx context.Context, userID int64) error
}

type service struct {
	repo   Repository
	owners Owners
	log    *zap.Logger
}

func NewService(repo Repository, owners Owners, log *zap.Logger) UseCase {
	return &service{repo: repo, owners: owners, log: log.Named("phone")}
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]Phone, error) {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return nil, err
	}
	phones, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Database("load", resource, err)
	}
	s.log.Info("listed phones", zap.Int64("user_id", userID), zap.Int("count", len(phones)))
	return phones, nil
}

func (s *service) Get(ctx context.Context, phoneID, userID int64) (Phone, error) {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return Phone{}, err
	}
	return s.find(ctx, phoneID, userID)
}

func (s *service) Create(ctx context.Context, p Phone, userID int64) (Phone, error) {
	if err := validate(&p); err != nil {
		return Phone{}, err
	}
	if err := s.ensureOwner(ctx, userID); err != nil {
		return Phone{}, err
	}
	p.ID = 0
	p.UserID = userID
	p.Stamp(ctx, time.Now().UTC())
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		if errors.Is(err, ErrDefaultConflict) {
			return Phone{}, defaultConflict(userID)
		}
		return Phone{}, apperr.Database("save", resource, err)
	}
	s.log.Info("phone created", zap.Int64("user_id", userID), zap.Int64("phone_id", created.ID))
	return created, nil
}

func (s *service) Update(ctx context.Context, phoneID, userID int64, details Phone) (Phone, error) {
	if err := validate(&details); err != nil {
		return Phone{}, err
	}
	if err := s.ensureOwner(ctx, userID); err != nil {
		return Phone{}, err
	}
	current, err := s.find(ctx, phoneID, userID)
	if err != nil {
		return Phone{}, err
	}
	current.Type = details.Type
	current.CountryCode = details.CountryCode
	current.Number = details.Number
	current.IsDefault = details.IsDefault
	current.Touch(ctx, time.Now().UTC())

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return Phone{}, apperr.NotFound(resource, phoneID)
		case errors.Is(err, ErrDefaultConflict):
			return Phone{}, defaultConflict(userID)
		default:
			return Phone{}, apperr.Database("update", resource, err)
		}
	}
	s.log.Info("phone updated", zap.Int64("user_id", userID), zap.Int64("phone_id", phoneID))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, phoneID, userID int64) error {
	if err := s.ensureOwner(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, phoneID, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(resource, phoneID)
		}
		return apperr.Database("delete", resource, err)
	}
	s.log.Info("phone deleted", zap.Int64("user_id", userID), zap.Int64("phone_id", phoneID))
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

func (s *service) find(ctx context.Context, phoneID, userID int64) (Phone, error) {
	p, err := s.repo.Get(ctx, phoneID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("phone not found", zap.Int64("user_id", userID), zap.Int64("phone_id", phoneID))
			return Phone{}, apperr.NotFound(resource, phoneID)
		}
		return Phone{}, apperr.Database("load", resource, err)
	}
	return p, nil
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

func validate(p *Phone) error {
	p.Number = strings.TrimSpace(p.Number)
	p.CountryCode = strings.TrimSpace(p.CountryCode)
	p.Type = Type(strings.ToUpper(strings.TrimSpace(string(p.Type))))
	if p.Type == "" {
		p.Type = TypeMobile
	}
	if !p.Type.Valid() {
		return apperr.ValidationField("type", "must be one of MOBILE, HOME, WORK, OTHER")
	}
	if p.Number == "" {
		return apperr.ValidationField("number", "is required")
	}
	return nil
}
