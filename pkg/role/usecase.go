package role

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

const resource = "Role"

// UseCase describes role management.
type UseCase interface {
	List(ctx context.Context) ([]Role, error)
	GetByID(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, r Role) (Role, error)
	Update(ctx context.Context, id int64, r Role) (Role, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]Role, error)
	AssignToUser(ctx context.Context, userID, roleID int64) error
	RemoveFromUser(ctx context.Context, userID, roleID int64) error
}

type service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) UseCase {
	return &service{repo: repo, log: log.Named("role")}
}

func (s *service) List(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Database("load", resource, err)
	}
	s.log.Info("listed roles", zap.Int("count", len(roles)))
	return roles, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (Role, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("role not found", zap.Int64("role_id", id))
			return Role{}, apperr.NotFound(resource, id)
		}
		return Role{}, apperr.Database("load", resource, err)
	}
	return r, nil
}

func (s *service) GetByName(ctx context.Context, name string) (Role, error) {
	r, err := s.repo.GetByName(ctx, normalizeName(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Role{}, apperr.NotFoundBy(resource, "name", name)
		}
		return Role{}, apperr.Database("load", resource, err)
	}
	return r, nil
}

func (s *service) Create(ctx context.Context, r Role) (Role, error) {
	r.Name = normalizeName(r.Name)
	if r.Name == "" {
		return Role{}, apperr.ValidationField("name", "is required")
	}
	if _, err := s.repo.GetByName(ctx, r.Name); err == nil {
		return Role{}, apperr.Duplicate(resource, "name", r.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return Role{}, apperr.Database("load", resource, err)
	}

	r.Stamp(ctx, time.Now().UTC())
	created, err := s.repo.Create(ctx, r)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return Role{}, apperr.Duplicate(resource, "name", r.Name)
		}
		return Role{}, apperr.Database("save", resource, err)
	}
	s.log.Info("role created", zap.Int64("role_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *service) Update(ctx context.Context, id int64, r Role) (Role, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Role{}, err
	}
	current.Name = normalizeName(r.Name)
	if current.Name == "" {
		return Role{}, apperr.ValidationField("name", "is required")
	}
	current.Description = r.Description
	current.Touch(ctx, time.Now().UTC())

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return Role{}, apperr.NotFound(resource, id)
		case errors.Is(err, ErrAlreadyExists):
			return Role{}, apperr.Duplicate(resource, "name", current.Name)
		default:
			return Role{}, apperr.Database("update", resource, err)
		}
	}
	s.log.Info("role updated", zap.Int64("role_id", id), zap.String("name", updated.Name))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("cannot delete missing role", zap.Int64("role_id", id))
			return apperr.NotFound(resource, id)
		}
		return apperr.Database("delete", resource, err)
	}
	s.log.Info("role deleted", zap.Int64("role_id", id))
	return nil
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]Role, error) {
	roles, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Database("load", resource, err)
	}
	return roles, nil
}

func (s *service) AssignToUser(ctx context.Context, userID, roleID int64) error {
	r, err := s.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.repo.Assign(ctx, userID, r.ID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound("User", userID)
		}
		return apperr.Database("save", resource, err)
	}
	s.log.Info("role assigned", zap.Int64("user_id", userID), zap.String("role", r.Name))
	return nil
}

func (s *service) RemoveFromUser(ctx context.Context, userID, roleID int64) error {
	r, err := s.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.repo.Unassign(ctx, userID, r.ID); err != nil {
		return apperr.Database("delete", resource, err)
	}
	s.log.Info("role removed", zap.Int64("user_id", userID), zap.String("role", r.Name))
	return nil
}

// Role names are stored upper-case so lookups are case-insensitive.
func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
