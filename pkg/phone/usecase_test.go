package phone_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/repository/memory"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

func setup(t *testing.T) (phone.UseCase, int64) {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	owner, err := users.Create(context.Background(), user.User{Username: "owner", Email: "owner@example.com", BirthDate: time.Now()})
	require.NoError(t, err)
	return phone.NewService(memory.NewPhoneRepository(store), users, zap.NewNop()), owner.ID
}

func TestCreatePhone(t *testing.T) {
	svc, owner := setup(t)
	ctx := context.Background()

	cases := []struct {
		desc   string
		phone  phone.Phone
		userID int64
		kind   apperr.Kind
		want   phone.Type
	}{
		{desc: "mobile", phone: phone.Phone{Number: "0991112222", CountryCode: "+593", Type: phone.TypeMobile}, userID: owner, kind: -1, want: phone.TypeMobile},
		{desc: "lower case type", phone: phone.Phone{Number: "022223333", CountryCode: "+593", Type: "work"}, userID: owner, kind: -1, want: phone.TypeWork},
		{desc: "missing type defaults to mobile", phone: phone.Phone{Number: "0993334444"}, userID: owner, kind: -1, want: phone.TypeMobile},
		{desc: "unknown type", phone: phone.Phone{Number: "1", Type: "FAX"}, userID: owner, kind: apperr.KindValidation},
		{desc: "missing number", phone: phone.Phone{Type: phone.TypeHome}, userID: owner, kind: apperr.KindValidation},
		{desc: "unknown user", phone: phone.Phone{Number: "1"}, userID: 404, kind: apperr.KindNotFound},
	}
	for _, tc := range cases {
		p, err := svc.Create(ctx, tc.phone, tc.userID)
		if tc.kind == -1 {
			require.NoError(t, err, tc.desc)
			assert.Equal(t, tc.want, p.Type, tc.desc)
			continue
		}
		assert.True(t, apperr.IsKind(err, tc.kind), "%s: got %v", tc.desc, err)
	}
}

func TestPhoneDefaults(t *testing.T) {
	svc, owner := setup(t)
	ctx := context.Background()

	p1, err := svc.Create(ctx, phone.Phone{Number: "1", IsDefault: true}, owner)
	require.NoError(t, err)
	p2, err := svc.Create(ctx, phone.Phone{Number: "2", IsDefault: true}, owner)
	require.NoError(t, err)

	p1, err = svc.Get(ctx, p1.ID, owner)
	require.NoError(t, err)
	assert.False(t, p1.IsDefault)
	assert.True(t, p2.IsDefault)

	p1, err = svc.Update(ctx, p1.ID, owner, phone.Phone{Number: "11", Type: phone.TypeHome, IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "11", p1.Number)
	assert.Equal(t, phone.TypeHome, p1.Type)

	p2, err = svc.Get(ctx, p2.ID, owner)
	require.NoError(t, err)
	assert.False(t, p2.IsDefault)

	require.NoError(t, svc.UnsetDefaults(ctx, owner))
	list, err := svc.ListByUser(ctx, owner)
	require.NoError(t, err)
	for _, p := range list {
		assert.False(t, p.IsDefault)
	}

	require.NoError(t, svc.Delete(ctx, p1.ID, owner))
	_, err = svc.Get(ctx, p1.ID, owner)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

type slowRepo struct {
	phone.Repository
}

func (r slowRepo) Create(ctx context.Context, p phone.Phone) (phone.Phone, error) {
	time.Sleep(time.Millisecond)
	return r.Repository.Create(ctx, p)
}

func TestConcurrentDefaultPhones(t *testing.T) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	owner, err := users.Create(context.Background(), user.User{Username: "owner", Email: "owner@example.com", BirthDate: time.Now()})
	require.NoError(t, err)
	svc := phone.NewService(slowRepo{memory.NewPhoneRepository(store)}, users, zap.NewNop())

	const writers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Create(context.Background(), phone.Phone{Number: "0991112222", IsDefault: true}, owner.ID)
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	list, err := svc.ListByUser(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, writers)
	defaults := 0
	for _, p := range list {
		if p.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}
