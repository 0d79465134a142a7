package checkers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edgewl2/sp-store-users-management/pkg/health/checkers"
)

func TestPingChecker(t *testing.T) {
	down := errors.New("connection refused")
	cases := []struct {
		desc string
		ping func(ctx context.Context) error
		err  error
	}{
		{desc: "healthy", ping: func(context.Context) error { return nil }},
		{desc: "ping error", ping: func(context.Context) error { return down }, err: down},
		{
			desc: "slow dependency",
			ping: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			err: context.DeadlineExceeded,
		},
	}
	for _, tc := range cases {
		c := checkers.NewPingChecker("postgres", 20*time.Millisecond, tc.ping)
		assert.Equal(t, "postgres", c.Name(), tc.desc)
		err := c.Check(context.Background())
		if tc.err == nil {
			assert.NoError(t, err, tc.desc)
			continue
		}
		assert.ErrorIs(t, err, tc.err, tc.desc)
	}
}
