package memory

import (
	"context"
	"sort"

	"github.com/edgewl2/sp-store-users-management/pkg/role"
)

type RoleRepository struct{ s *Store }

func NewRoleRepository(s *Store) *RoleRepository { return &RoleRepository{s: s} }

func (r *RoleRepository) List(_ context.Context) ([]role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := make([]role.Role, 0, len(r.s.roles))
	for _, ro := range r.s.roles {
		res = append(res, ro)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *RoleRepository) GetByID(_ context.Context, id int64) (role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ro, ok := r.s.roles[id]
	if !ok {
		return role.Role{}, role.ErrNotFound
	}
	return ro, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ro := range r.s.roles {
		if ro.Name == name {
			return ro, nil
		}
	}
	return role.Role{}, role.ErrNotFound
}

func (r *RoleRepository) Create(_ context.Context, ro role.Role) (role.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(0, ro.Name) {
		return role.Role{}, role.ErrAlreadyExists
	}
	ro.ID = r.s.nextID()
	r.s.roles[ro.ID] = ro
	return ro, nil
}

func (r *RoleRepository) Update(_ context.Context, ro role.Role) (role.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.roles[ro.ID]
	if !ok {
		return role.Role{}, role.ErrNotFound
	}
	if r.nameTaken(ro.ID, ro.Name) {
		return role.Role{}, role.ErrAlreadyExists
	}
	ro.CreatedAt, ro.CreatedBy = current.CreatedAt, current.CreatedBy
	r.s.roles[ro.ID] = ro
	return ro, nil
}

func (r *RoleRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return role.ErrNotFound
	}
	delete(r.s.roles, id)
	for _, set := range r.s.links {
		delete(set, id)
	}
	return nil
}

func (r *RoleRepository) ListByUser(_ context.Context, userID int64) ([]role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.rolesOf(userID), nil
}

func (r *RoleRepository) Assign(_ context.Context, userID, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return role.ErrUserNotFound
	}
	if _, ok := r.s.roles[roleID]; !ok {
		return role.ErrNotFound
	}
	set, ok := r.s.links[userID]
	if !ok {
		set = make(map[int64]struct{})
		r.s.links[userID] = set
	}
	set[roleID] = struct{}{}
	return nil
}

func (r *RoleRepository) Unassign(_ context.Context, userID, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.links[userID], roleID)
	return nil
}

func (r *RoleRepository) nameTaken(selfID int64, name string) bool {
	for id, ro := range r.s.roles {
		if id != selfID && ro.Name == name {
			return true
		}
	}
	return false
}
