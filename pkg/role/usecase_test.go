package role_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
	"github.com/edgewl2/sp-store-users-management/pkg/repository/memory"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

func setup() (role.UseCase, *memory.UserRepository) {
	store := memory.NewStore()
	return role.NewService(memory.NewRoleRepository(store), zap.NewNop()), memory.NewUserRepository(store)
}

func TestCreateRole(t *testing.T) {
	svc, _ := setup()
	ctx := audit.WithActor(context.Background(), "admin-subject")

	created, err := svc.Create(ctx, role.Role{Name: " admin ", Description: "administrators"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", created.Name)
	assert.Equal(t, "admin-subject", created.CreatedBy)
	assert.False(t, created.CreatedAt.IsZero())

	cases := []struct {
		desc string
		role role.Role
		kind apperr.Kind
	}{
		{desc: "duplicate name in other case", role: role.Role{Name: "Admin"}, kind: apperr.KindDuplicate},
		{desc: "blank name", role: role.Role{Name: "  "}, kind: apperr.KindValidation},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.role)
		assert.True(t, apperr.IsKind(err, tc.kind), "%s: got %v", tc.desc, err)
	}
}

func TestGetUpdateDeleteRole(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	admin, err := svc.Create(ctx, role.Role{Name: "admin"})
	require.NoError(t, err)
	support, err := svc.Create(ctx, role.Role{Name: "support"})
	require.NoError(t, err)

	got, err := svc.GetByName(ctx, "Admin")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	updated, err := svc.Update(ctx, admin.ID, role.Role{Name: "root", Description: "all access"})
	require.NoError(t, err)
	assert.Equal(t, "ROOT", updated.Name)
	assert.Equal(t, "all access", updated.Description)

	_, err = svc.Update(ctx, admin.ID, role.Role{Name: "support"})
	assert.True(t, apperr.IsKind(err, apperr.KindDuplicate))
	_, err = svc.Update(ctx, 999, role.Role{Name: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, support.ID))
	assert.True(t, apperr.IsKind(svc.Delete(ctx, support.ID), apperr.KindNotFound))
	_, err = svc.GetByID(ctx, support.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	roles, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestAssignToUser(t *testing.T) {
	svc, users := setup()
	ctx := context.Background()
	r, err := svc.Create(ctx, role.Role{Name: "auditor"})
	require.NoError(t, err)
	u, err := users.Create(ctx, user.User{Username: "u1", Email: "u1@example.com", BirthDate: time.Now()})
	require.NoError(t, err)

	require.NoError(t, svc.AssignToUser(ctx, u.ID, r.ID))
	require.NoError(t, svc.AssignToUser(ctx, u.ID, r.ID), "assignment is idempotent")

	roles, err := svc.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "AUDITOR", roles[0].Name)

	assert.True(t, apperr.IsKind(svc.AssignToUser(ctx, 404, r.ID), apperr.KindNotFound))
	assert.True(t, apperr.IsKind(svc.AssignToUser(ctx, u.ID, 404), apperr.KindNotFound))

	require.NoError(t, svc.RemoveFromUser(ctx, u.ID, r.ID))
	roles, err = svc.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}
