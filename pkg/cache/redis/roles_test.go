package redis_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cache "github.com/edgewl2/sp-store-users-management/pkg/cache/redis"
	"github.com/edgewl2/sp-store-users-management/pkg/repository/memory"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/storage/redis"
)

var client *goredis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("docker unavailable, redis cache tests will be skipped: %s", err)
		os.Exit(m.Run())
	}

	container, err := pool.Run("redis", "7-alpine", nil)
	if err != nil {
		log.Fatalf("Could not start container: %s", err)
	}
	_ = container.Expire(300)

	url := fmt.Sprintf("redis://localhost:%s/0", container.GetPort("6379/tcp"))
	if err := pool.Retry(func() error {
		client, err = redis.Connect(context.Background(), url)
		return err
	}); err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	code := m.Run()

	_ = client.Close()
	if err := pool.Purge(container); err != nil {
		log.Fatalf("Could not purge container: %s", err)
	}
	os.Exit(code)
}

// countingRepo records how many reads reach the wrapped repository.
type countingRepo struct {
	role.Repository
	reads int
}

func (r *countingRepo) GetByID(ctx context.Context, id int64) (role.Role, error) {
	r.reads++
	return r.Repository.GetByID(ctx, id)
}

func (r *countingRepo) GetByName(ctx context.Context, name string) (role.Role, error) {
	r.reads++
	return r.Repository.GetByName(ctx, name)
}

func (r *countingRepo) List(ctx context.Context) ([]role.Role, error) {
	r.reads++
	return r.Repository.List(ctx)
}

func setup(t *testing.T) (*cache.RoleCache, *countingRepo) {
	t.Helper()
	if client == nil {
		t.Skip("redis container not available")
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())
	next := &countingRepo{Repository: memory.NewRoleRepository(memory.NewStore())}
	return cache.NewRoleCache(next, client, time.Minute, zap.NewNop()), next
}

func TestReadThrough(t *testing.T) {
	c, next := setup(t)
	ctx := context.Background()

	created, err := c.Create(ctx, role.Role{Name: "ADMIN", Description: "administrators"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r, err := c.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ADMIN", r.Name)
	}
	assert.Equal(t, 1, next.reads)

	_, err = c.GetByName(ctx, "ADMIN")
	require.NoError(t, err)
	_, err = c.GetByName(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, 2, next.reads)

	_, err = c.GetByID(ctx, 404)
	assert.ErrorIs(t, err, role.ErrNotFound)
}

func TestWritesInvalidate(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	admin, err := c.Create(ctx, role.Role{Name: "ADMIN"})
	require.NoError(t, err)
	roles, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	_, err = c.GetByName(ctx, "ADMIN")
	require.NoError(t, err)

	_, err = c.Create(ctx, role.Role{Name: "USER"})
	require.NoError(t, err)
	roles, err = c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	admin.Name = "ROOT"
	_, err = c.Update(ctx, admin)
	require.NoError(t, err)
	_, err = c.GetByName(ctx, "ADMIN")
	assert.ErrorIs(t, err, role.ErrNotFound)
	got, err := c.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ROOT", got.Name)

	require.NoError(t, c.Delete(ctx, admin.ID))
	_, err = c.GetByID(ctx, admin.ID)
	assert.ErrorIs(t, err, role.ErrNotFound)
}
