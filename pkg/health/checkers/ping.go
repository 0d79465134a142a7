// Package checkers adapts backing stores to health.Checker.
package checkers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/edgewl2/sp-store-users-management/pkg/health"
)

const defaultTimeout = time.Second

// PingChecker reports a dependency as healthy when its ping succeeds within
// the timeout.
type PingChecker struct {
	name    string
	timeout time.Duration
	ping    func(ctx context.Context) error
}

var _ health.Checker = (*PingChecker)(nil)

func NewPingChecker(name string, timeout time.Duration, ping func(ctx context.Context) error) *PingChecker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PingChecker{name: name, timeout: timeout, ping: ping}
}

func NewPostgresChecker(pool *pgxpool.Pool) *PingChecker {
	return NewPingChecker("postgres", defaultTimeout, pool.Ping)
}

func NewRedisChecker(client *redis.Client) *PingChecker {
	return NewPingChecker("redis", defaultTimeout, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.ping(ctx)
}
