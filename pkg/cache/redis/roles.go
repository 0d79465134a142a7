// Package redis caches role lookups in Redis. Roles change rarely and are read
// on every registration and role assignment.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/role"
)

const keyAll = "roles:all"

// RoleCache is a read-through role.Repository. Reads of single roles and the
// full list are served from Redis; every write goes to the wrapped repository
// first and then drops the affected keys. Cache failures degrade to the
// wrapped repository.
type RoleCache struct {
	next   role.Repository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ role.Repository = (*RoleCache)(nil)

func NewRoleCache(next role.Repository, client *redis.Client, ttl time.Duration, log *zap.Logger) *RoleCache {
	return &RoleCache{next: next, client: client, ttl: ttl, log: log.Named("role_cache")}
}

func idKey(id int64) string      { return fmt.Sprintf("roles:id:%d", id) }
func nameKey(name string) string { return "roles:name:" + name }

func (c *RoleCache) List(ctx context.Context) ([]role.Role, error) {
	var roles []role.Role
	if c.get(ctx, keyAll, &roles) {
		return roles, nil
	}
	roles, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keyAll, roles)
	return roles, nil
}

func (c *RoleCache) GetByID(ctx context.Context, id int64) (role.Role, error) {
	var r role.Role
	if c.get(ctx, idKey(id), &r) {
		return r, nil
	}
	r, err := c.next.GetByID(ctx, id)
	if err != nil {
		return role.Role{}, err
	}
	c.set(ctx, idKey(id), r)
	return r, nil
}

func (c *RoleCache) GetByName(ctx context.Context, name string) (role.Role, error) {
	var r role.Role
	if c.get(ctx, nameKey(name), &r) {
		return r, nil
	}
	r, err := c.next.GetByName(ctx, name)
	if err != nil {
		return role.Role{}, err
	}
	c.set(ctx, nameKey(name), r)
	return r, nil
}

func (c *RoleCache) Create(ctx context.Context, r role.Role) (role.Role, error) {
	created, err := c.next.Create(ctx, r)
	if err != nil {
		return role.Role{}, err
	}
	c.drop(ctx, keyAll, nameKey(created.Name))
	return created, nil
}

func (c *RoleCache) Update(ctx context.Context, r role.Role) (role.Role, error) {
	keys := []string{keyAll, idKey(r.ID), nameKey(r.Name)}
	if old, err := c.next.GetByID(ctx, r.ID); err == nil {
		keys = append(keys, nameKey(old.Name))
	}
	updated, err := c.next.Update(ctx, r)
	if err != nil {
		return role.Role{}, err
	}
	c.drop(ctx, keys...)
	return updated, nil
}

func (c *RoleCache) Delete(ctx context.Context, id int64) error {
	keys := []string{keyAll, idKey(id)}
	if old, err := c.next.GetByID(ctx, id); err == nil {
		keys = append(keys, nameKey(old.Name))
	}
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.drop(ctx, keys...)
	return nil
}

// User-role links are not cached.

func (c *RoleCache) ListByUser(ctx context.Context, userID int64) ([]role.Role, error) {
	return c.next.ListByUser(ctx, userID)
}

func (c *RoleCache) Assign(ctx context.Context, userID, roleID int64) error {
	return c.next.Assign(ctx, userID, roleID)
}

func (c *RoleCache) Unassign(ctx context.Context, userID, roleID int64) error {
	return c.next.Unassign(ctx, userID, roleID)
}

func (c *RoleCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RoleCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RoleCache) drop(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
