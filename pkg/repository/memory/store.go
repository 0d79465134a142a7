// Package memory implements the domain repositories on top of maps guarded by
// a single mutex. It mirrors the PostgreSQL semantics (unique keys, cascades,
// owner-scoped lookups) closely enough to back tests and local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

// Store is the shared state of all in-memory repositories.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	users     map[int64]user.User
	roles     map[int64]role.Role
	links     map[int64]map[int64]struct{}
	addresses map[int64]address.Address
	phones    map[int64]phone.Phone
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]user.User),
		roles:     make(map[int64]role.Role),
		links:     make(map[int64]map[int64]struct{}),
		addresses: make(map[int64]address.Address),
		phones:    make(map[int64]phone.Phone),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

var (
	_ user.Repository    = (*UserRepository)(nil)
	_ role.Repository    = (*RoleRepository)(nil)
	_ address.Repository = (*AddressRepository)(nil)
	_ phone.Repository   = (*PhoneRepository)(nil)
)

type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) List(_ context.Context, limit, offset int) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]int64, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	res := make([]user.User, 0, len(ids))
	for _, id := range ids {
		res = append(res, r.s.loadUser(id))
	}
	return res, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.users[id]; !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.loadUser(id), nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, error) {
	return r.find(func(u user.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.users[id]
	return ok, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *UserRepository) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.clashes(0, u); err != nil {
		return user.User{}, err
	}
	u.ID = r.s.nextID()
	u.Roles, u.Addresses, u.Phones = nil, nil, nil
	r.s.users[u.ID] = u
	return u, nil
}

func (r *UserRepository) Update(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.users[u.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := r.s.clashes(u.ID, u); err != nil {
		return user.User{}, err
	}
	u.Roles, u.Addresses, u.Phones = nil, nil, nil
	u.CreatedAt, u.CreatedBy = current.CreatedAt, current.CreatedBy
	r.s.users[u.ID] = u
	return u, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, hash string, a audit.Audit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt, u.UpdatedBy = a.UpdatedAt, a.UpdatedBy
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.links, id)
	for aid, a := range r.s.addresses {
		if a.UserID == id {
			delete(r.s.addresses, aid)
		}
	}
	for pid, p := range r.s.phones {
		if p.UserID == id {
			delete(r.s.phones, pid)
		}
	}
	return nil
}

func (r *UserRepository) find(match func(user.User) bool) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for id, u := range r.s.users {
		if match(u) {
			return r.s.loadUser(id), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// clashes returns the unique key u would break, if any. Caller holds the
// lock.
func (s *Store) clashes(selfID int64, u user.User) error {
	for id, other := range s.users {
		if id == selfID {
			continue
		}
		if other.Username == u.Username {
			return user.ErrUsernameTaken
		}
		if strings.EqualFold(other.Email, u.Email) {
			return user.ErrEmailTaken
		}
	}
	return nil
}

// loadUser assembles a user with its relations. Caller holds the lock.
func (s *Store) loadUser(id int64) user.User {
	u := s.users[id]
	u.Roles = s.rolesOf(id)
	u.Addresses = s.addressesOf(id)
	u.Phones = s.phonesOf(id)
	return u
}

func (s *Store) rolesOf(userID int64) []role.Role {
	res := []role.Role{}
	for rid := range s.links[userID] {
		res = append(res, s.roles[rid])
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *Store) addressesOf(userID int64) []address.Address {
	res := []address.Address{}
	for _, a := range s.addresses {
		if a.UserID == userID {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *Store) phonesOf(userID int64) []phone.Phone {
	res := []phone.Phone{}
	for _, p := range s.phones {
		if p.UserID == userID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
