package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
)

const (
	resource = "User"

	// MinimumAge is the youngest age allowed to hold an account.
	MinimumAge = 18

	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72

	CodeAgeRestriction = "AGE_RESTRICTION"
)

// UseCase describes user management.
type UseCase interface {
	List(ctx context.Context, limit, offset int) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	// CreateComplete registers a user together with its addresses, phones
	// and extra roles.
	CreateComplete(ctx context.Context, u User, addresses []address.Address, phones []phone.Phone, roleIDs []int64) (User, error)
	Update(ctx context.Context, id int64, details User) (User, error)
	Delete(ctx context.Context, id int64) error
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error
	AddAddress(ctx context.Context, userID int64, a address.Address) (address.Address, error)
	AddPhone(ctx context.Context, userID int64, p phone.Phone) (phone.Phone, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

type service struct {
	repo      Repository
	roles     role.UseCase
	addresses address.UseCase
	phones    phone.UseCase
	hasher    Hasher
	log       *zap.Logger
	now       func() time.Time
}

// NewService returns the default implementation of UseCase.
func NewService(repo Repository, roles role.UseCase, addresses address.UseCase, phones phone.UseCase, hasher Hasher, log *zap.Logger) UseCase {
	return &service{
		repo:      repo,
		roles:     roles,
		addresses: addresses,
		phones:    phones,
		hasher:    hasher,
		log:       log.Named("user"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) List(ctx context.Context, limit, offset int) ([]User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Database("load", resource, err)
	}
	s.log.Info("listed users", zap.Int("count", len(users)))
	return users, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("user not found", zap.Int64("user_id", id))
			return User{}, apperr.NotFound(resource, id)
		}
		return User{}, apperr.Database("load", resource, err)
	}
	return u, nil
}

func (s *service) GetByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("user not found", zap.String("username", username))
			return User{}, apperr.NotFoundBy(resource, "username", username)
		}
		return User{}, apperr.Database("load", resource, err)
	}
	return u, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("user not found", zap.String("email", email))
			return User{}, apperr.NotFoundBy(resource, "email", email)
		}
		return User{}, apperr.Database("load", resource, err)
	}
	return u, nil
}

func (s *service) Create(ctx context.Context, u User) (User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = normalizeEmail(u.Email)
	s.log.Info("creating user", zap.String("username", u.Username))

	if err := s.checkUnique(ctx, "", u.Username, "", u.Email); err != nil {
		return User{}, err
	}
	if err := s.checkAge(u.BirthDate); err != nil {
		return User{}, err
	}
	hash, err := s.hashPassword(u.Password)
	if err != nil {
		return User{}, err
	}

	toSave := User{
		Username:  u.Username,
		Password:  hash,
		Email:     u.Email,
		FirstName: strings.TrimSpace(u.FirstName),
		LastName:  strings.TrimSpace(u.LastName),
		BirthDate: u.BirthDate,
		Enabled:   true,
	}
	toSave.Stamp(ctx, s.now())

	saved, err := s.repo.Create(ctx, toSave)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, duplicate(err, u)
		}
		return User{}, apperr.Database("save", resource, err)
	}

	s.assignDefaultRole(ctx, saved.ID)
	s.log.Info("user created", zap.Int64("user_id", saved.ID))
	return s.GetByID(ctx, saved.ID)
}

func (s *service) CreateComplete(ctx context.Context, u User, addresses []address.Address, phones []phone.Phone, roleIDs []int64) (User, error) {
	// Resolve roles first so an unknown id does not leave a half-created user.
	for _, id := range roleIDs {
		if _, err := s.roles.GetByID(ctx, id); err != nil {
			return User{}, err
		}
	}

	created, err := s.Create(ctx, u)
	if err != nil {
		return User{}, err
	}
	if err := s.attach(ctx, created.ID, addresses, phones, roleIDs); err != nil {
		s.rollbackCreate(ctx, created.ID, err)
		return User{}, err
	}
	return s.GetByID(ctx, created.ID)
}

func (s *service) attach(ctx context.Context, userID int64, addresses []address.Address, phones []phone.Phone, roleIDs []int64) error {
	for _, a := range addresses {
		if _, err := s.addresses.Create(ctx, a, userID); err != nil {
			return fmt.Errorf("add address to user %d: %w", userID, err)
		}
	}
	for _, p := range phones {
		if _, err := s.phones.Create(ctx, p, userID); err != nil {
			return fmt.Errorf("add phone to user %d: %w", userID, err)
		}
	}
	for _, id := range roleIDs {
		if err := s.roles.AssignToUser(ctx, userID, id); err != nil {
			return fmt.Errorf("assign role %d to user %d: %w", id, userID, err)
		}
	}
	return nil
}

// rollbackCreate removes a user whose nested data could not be stored.
// Addresses, phones and role links go with it through the cascade.
func (s *service) rollbackCreate(ctx context.Context, userID int64, cause error) {
	s.log.Warn("complete registration failed, removing user", zap.Int64("user_id", userID), zap.Error(cause))
	if err := s.repo.Delete(context.WithoutCancel(ctx), userID); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Error("remove partially created user", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *service) Update(ctx context.Context, id int64, details User) (User, error) {
	s.log.Info("updating user", zap.Int64("user_id", id))
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	details.Username = strings.TrimSpace(details.Username)
	details.Email = normalizeEmail(details.Email)
	if err := s.checkUnique(ctx, current.Username, details.Username, current.Email, details.Email); err != nil {
		return User{}, err
	}
	if err := s.checkAge(details.BirthDate); err != nil {
		return User{}, err
	}
	if details.Password != "" {
		hash, err := s.hashPassword(details.Password)
		if err != nil {
			return User{}, err
		}
		current.Password = hash
	}

	current.Username = details.Username
	current.Email = details.Email
	current.FirstName = strings.TrimSpace(details.FirstName)
	current.LastName = strings.TrimSpace(details.LastName)
	current.BirthDate = details.BirthDate
	current.Enabled = true
	current.Touch(ctx, s.now())

	if _, err := s.repo.Update(ctx, current); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return User{}, apperr.NotFound(resource, id)
		case errors.Is(err, ErrAlreadyExists):
			return User{}, duplicate(err, details)
		default:
			return User{}, apperr.Database("update", resource, err)
		}
	}
	s.log.Info("user updated", zap.Int64("user_id", id))
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("user not found", zap.Int64("user_id", id))
			return apperr.NotFound(resource, id)
		}
		return apperr.Database("delete", resource, err)
	}
	s.log.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

func (s *service) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(currentPassword, u.Password); err != nil {
		s.log.Warn("current password mismatch", zap.Int64("user_id", id))
		return apperr.CurrentPasswordIncorrect()
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Touch(ctx, s.now())
	if err := s.repo.UpdatePassword(ctx, id, hash, u.Audit); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(resource, id)
		}
		return apperr.Database("update", resource, err)
	}
	s.log.Info("password changed", zap.Int64("user_id", id))
	return nil
}

func (s *service) AddAddress(ctx context.Context, userID int64, a address.Address) (address.Address, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return address.Address{}, err
	}
	return s.addresses.Create(ctx, a, userID)
}

func (s *service) AddPhone(ctx context.Context, userID int64, p phone.Phone) (phone.Phone, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return phone.Phone{}, err
	}
	return s.phones.Create(ctx, p, userID)
}

func (s *service) AssignRole(ctx context.Context, userID, roleID int64) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	r, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if u.HasRole(r.ID) {
		s.log.Warn("role already assigned", zap.Int64("user_id", userID), zap.String("role", r.Name))
		return apperr.Duplicate(resource, "role", r.Name)
	}
	return s.roles.AssignToUser(ctx, userID, r.ID)
}

func (s *service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	r, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if !u.HasRole(r.ID) {
		s.log.Warn("role not assigned", zap.Int64("user_id", userID), zap.String("role", r.Name))
		return apperr.NotFoundBy(resource, "role", r.Name)
	}
	return s.roles.RemoveFromUser(ctx, userID, r.ID)
}

// checkUnique rejects a username or email already held by another user. An
// empty current value means the user is new.
func (s *service) checkUnique(ctx context.Context, currentUsername, username, currentEmail, email string) error {
	if username != currentUsername {
		exists, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return apperr.Database("load", resource, err)
		}
		if exists {
			s.log.Warn("username already taken", zap.String("username", username))
			return apperr.Duplicate(resource, "username", username)
		}
	}
	if email != currentEmail {
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return apperr.Database("load", resource, err)
		}
		if exists {
			s.log.Warn("email already taken", zap.String("email", email))
			return apperr.Duplicate(resource, "email", email)
		}
	}
	return nil
}

func (s *service) checkAge(birthDate time.Time) error {
	if birthDate.IsZero() {
		return apperr.ValidationField("birthDate", "is required")
	}
	if Age(birthDate, s.now()) < MinimumAge {
		s.log.Warn("user below minimum age")
		return apperr.Business(CodeAgeRestriction, "user", fmt.Sprintf("user must be at least %d years old", MinimumAge))
	}
	return nil
}

func (s *service) hashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLen || len(plain) > maxPasswordLen {
		return "", apperr.PasswordTooWeak()
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *service) assignDefaultRole(ctx context.Context, userID int64) {
	r, err := s.roles.GetByName(ctx, role.DefaultName)
	if err != nil {
		s.log.Warn("default role unavailable", zap.String("role", role.DefaultName), zap.Error(err))
		return
	}
	if err := s.roles.AssignToUser(ctx, userID, r.ID); err != nil {
		s.log.Error("assign default role", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Age returns the number of whole years between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// duplicate names the field whose unique key the repository rejected.
func duplicate(err error, u User) *apperr.Error {
	if errors.Is(err, ErrEmailTaken) {
		return apperr.Duplicate(resource, "email", u.Email)
	}
	return apperr.Duplicate(resource, "username", u.Username)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
