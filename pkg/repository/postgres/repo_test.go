package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/repository/postgres"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

func stamped(username, email string) user.User {
	u := user.User{
		Username:  username,
		Password:  "$2a$10$hash",
		Email:     email,
		FirstName: "Ana",
		LastName:  "Lopez",
		BirthDate: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Enabled:   true,
	}
	u.Stamp(context.Background(), time.Now().UTC().Truncate(time.Microsecond))
	return u
}

func TestUserRepository(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := postgres.NewUserRepository(db)

	saved, err := repo.Create(ctx, stamped("ana", "ana@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	cases := []struct {
		desc string
		user user.User
		err  error
	}{
		{desc: "duplicate username", user: stamped("ana", "other@example.com"), err: user.ErrUsernameTaken},
		{desc: "duplicate email ignoring case", user: stamped("ana2", "ANA@example.com"), err: user.ErrEmailTaken},
		{desc: "new user", user: stamped("bob", "bob@example.com"), err: nil},
	}
	for _, tc := range cases {
		_, err := repo.Create(ctx, tc.user)
		assert.ErrorIs(t, err, tc.err, tc.desc)
	}

	got, err := repo.GetByEmail(ctx, "ANA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.BirthDate, got.BirthDate)
	assert.Empty(t, got.Roles)

	ok, err := repo.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)

	got.FirstName = "Anita"
	got.Touch(audit.WithActor(ctx, "admin"), time.Now().UTC())
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.UpdatedBy)
	assert.Equal(t, saved.CreatedBy, updated.CreatedBy)

	got.Username = "bob"
	_, err = repo.Update(ctx, got)
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
	got.Username = "ana"
	got.Email = "bob@example.com"
	_, err = repo.Update(ctx, got)
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	require.NoError(t, repo.UpdatePassword(ctx, saved.ID, "$2a$10$other", got.Audit))
	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "x", got.Audit), user.ErrNotFound)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bob", page[0].Username)

	require.NoError(t, repo.Delete(ctx, saved.ID))
	assert.ErrorIs(t, repo.Delete(ctx, saved.ID), user.ErrNotFound)
	_, err = repo.GetByID(ctx, saved.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestRoleRepository(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	roles := postgres.NewRoleRepository(db)
	users := postgres.NewUserRepository(db)

	admin, err := roles.Create(ctx, role.Role{Name: "ADMIN", Description: "administrators"})
	require.NoError(t, err)
	_, err = roles.Create(ctx, role.Role{Name: "ADMIN"})
	assert.ErrorIs(t, err, role.ErrAlreadyExists)

	u, err := users.Create(ctx, stamped("carl", "carl@example.com"))
	require.NoError(t, err)

	require.NoError(t, roles.Assign(ctx, u.ID, admin.ID))
	require.NoError(t, roles.Assign(ctx, u.ID, admin.ID))
	assert.ErrorIs(t, roles.Assign(ctx, 9999, admin.ID), role.ErrUserNotFound)
	assert.ErrorIs(t, roles.Assign(ctx, u.ID, 9999), role.ErrNotFound)

	loaded, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Roles, 1)
	assert.Equal(t, "ADMIN", loaded.Roles[0].Name)

	require.NoError(t, roles.Unassign(ctx, u.ID, admin.ID))
	list, err := roles.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	admin.Name = "ROOT"
	renamed, err := roles.Update(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "ROOT", renamed.Name)
	_, err = roles.Update(ctx, role.Role{ID: 9999, Name: "X"})
	assert.ErrorIs(t, err, role.ErrNotFound)

	require.NoError(t, roles.Delete(ctx, admin.ID))
	_, err = roles.GetByName(ctx, "ROOT")
	assert.ErrorIs(t, err, role.ErrNotFound)
}

func TestContactsCascade(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	users := postgres.NewUserRepository(db)
	addresses := postgres.NewAddressRepository(db)
	phones := postgres.NewPhoneRepository(db)

	owner, err := users.Create(ctx, stamped("dana", "dana@example.com"))
	require.NoError(t, err)
	stranger, err := users.Create(ctx, stamped("eve", "eve@example.com"))
	require.NoError(t, err)

	a, err := addresses.Create(ctx, address.Address{UserID: owner.ID, Street: "Main 1", City: "Quito", IsDefault: true})
	require.NoError(t, err)
	_, err = addresses.Get(ctx, a.ID, stranger.ID)
	assert.ErrorIs(t, err, address.ErrNotFound)

	second, err := addresses.Create(ctx, address.Address{UserID: owner.ID, Street: "Main 2", IsDefault: true})
	require.NoError(t, err, "a new default replaces the previous one")
	a, err = addresses.Get(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, a.IsDefault)

	a.IsDefault = true
	_, err = addresses.Update(ctx, a)
	require.NoError(t, err)
	second, err = addresses.Get(ctx, second.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	require.NoError(t, addresses.UnsetDefaults(ctx, owner.ID))

	p, err := phones.Create(ctx, phone.Phone{UserID: owner.ID, Number: "0991112222", Type: phone.TypeWork})
	require.NoError(t, err)
	p.Number = "0993334444"
	p, err = phones.Update(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, phone.TypeWork, p.Type)

	p.UserID = stranger.ID
	_, err = phones.Update(ctx, p)
	assert.ErrorIs(t, err, phone.ErrNotFound)

	loaded, err := users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Addresses, 2)
	assert.Len(t, loaded.Phones, 1)

	require.NoError(t, users.Delete(ctx, owner.ID))
	left, err := addresses.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	leftPhones, err := phones.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, leftPhones)
}

func TestConcurrentDefaultAddresses(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	users := postgres.NewUserRepository(db)
	addresses := postgres.NewAddressRepository(db)

	owner, err := users.Create(ctx, stamped("fay", "fay@example.com"))
	require.NoError(t, err)

	const writers = 20
	start := make(chan struct{})
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := addresses.Create(ctx, address.Address{UserID: owner.ID, Street: "Main 1", IsDefault: true})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	list, err := addresses.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, writers)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}
