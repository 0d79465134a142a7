package memory

import (
	"context"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
)

type AddressRepository struct{ s *Store }

func NewAddressRepository(s *Store) *AddressRepository { return &AddressRepository{s: s} }

func (r *AddressRepository) ListByUser(_ context.Context, userID int64) ([]address.Address, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.addressesOf(userID), nil
}

func (r *AddressRepository) Get(_ context.Context, id, userID int64) (address.Address, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.addresses[id]
	if !ok || a.UserID != userID {
		return address.Address{}, address.ErrNotFound
	}
	return a, nil
}

func (r *AddressRepository) Create(_ context.Context, a address.Address) (address.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.IsDefault {
		r.clearDefault(a.UserID, 0)
	}
	if r.defaultTaken(a) {
		return address.Address{}, address.ErrDefaultConflict
	}
	a.ID = r.s.nextID()
	r.s.addresses[a.ID] = a
	return a, nil
}

func (r *AddressRepository) Update(_ context.Context, a address.Address) (address.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.addresses[a.ID]
	if !ok || current.UserID != a.UserID {
		return address.Address{}, address.ErrNotFound
	}
	if a.IsDefault {
		r.clearDefault(a.UserID, a.ID)
	}
	if r.defaultTaken(a) {
		return address.Address{}, address.ErrDefaultConflict
	}
	a.CreatedAt, a.CreatedBy = current.CreatedAt, current.CreatedBy
	r.s.addresses[a.ID] = a
	return a, nil
}

func (r *AddressRepository) Delete(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[id]
	if !ok || a.UserID != userID {
		return address.ErrNotFound
	}
	delete(r.s.addresses, id)
	return nil
}

func (r *AddressRepository) UnsetDefaults(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.clearDefault(userID, 0)
	return nil
}

// clearDefault unsets the defaults of userID except keepID. Caller holds the
// lock.
func (r *AddressRepository) clearDefault(userID, keepID int64) {
	for id, a := range r.s.addresses {
		if a.UserID == userID && a.IsDefault && id != keepID {
			a.IsDefault = false
			r.s.addresses[id] = a
		}
	}
}

// defaultTaken mirrors the partial unique index on (user_id) WHERE
// is_default. Caller holds the lock.
func (r *AddressRepository) defaultTaken(a address.Address) bool {
	if !a.IsDefault {
		return false
	}
	for id, other := range r.s.addresses {
		if id != a.ID && other.UserID == a.UserID && other.IsDefault {
			return true
		}
	}
	return false
}

type PhoneRepository struct{ s *Store }

func NewPhoneRepository(s *Store) *PhoneRepository { return &PhoneRepository{s: s} }

func (r *PhoneRepository) ListByUser(_ context.Context, userID int64) ([]phone.Phone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.phonesOf(userID), nil
}

func (r *PhoneRepository) Get(_ context.Context, id, userID int64) (phone.Phone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.phones[id]
	if !ok || p.UserID != userID {
		return phone.Phone{}, phone.ErrNotFound
	}
	return p, nil
}

func (r *PhoneRepository) Create(_ context.Context, p phone.Phone) (phone.Phone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.IsDefault {
		r.clearDefault(p.UserID, 0)
	}
	if r.defaultTaken(p) {
		return phone.Phone{}, phone.ErrDefaultConflict
	}
	p.ID = r.s.nextID()
	r.s.phones[p.ID] = p
	return p, nil
}

func (r *PhoneRepository) Update(_ context.Context, p phone.Phone) (phone.Phone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.phones[p.ID]
	if !ok || current.UserID != p.UserID {
		return phone.Phone{}, phone.ErrNotFound
	}
	if p.IsDefault {
		r.clearDefault(p.UserID, p.ID)
	}
	if r.defaultTaken(p) {
		return phone.Phone{}, phone.ErrDefaultConflict
	}
	p.CreatedAt, p.CreatedBy = current.CreatedAt, current.CreatedBy
	r.s.phones[p.ID] = p
	return p, nil
}

func (r *PhoneRepository) Delete(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.phones[id]
	if !ok || p.UserID != userID {
		return phone.ErrNotFound
	}
	delete(r.s.phones, id)
	return nil
}

func (r *PhoneRepository) UnsetDefaults(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.clearDefault(userID, 0)
	return nil
}

func (r *PhoneRepository) clearDefault(userID, keepID int64) {
	for id, p := range r.s.phones {
		if p.UserID == userID && p.IsDefault && id != keepID {
			p.IsDefault = false
			r.s.phones[id] = p
		}
	}
}

func (r *PhoneRepository) defaultTaken(p phone.Phone) bool {
	if !p.IsDefault {
		return false
	}
	for id, other := range r.s.phones {
		if id != p.ID && other.UserID == p.UserID && other.IsDefault {
			return true
		}
	}
	return false
}
