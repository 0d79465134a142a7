package audit

import (
	"context"
	"time"
)

// Audit holds bookkeeping columns shared by every persisted entity.
type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

// Stamp fills creation and update fields for a new entity.
func (a *Audit) Stamp(ctx context.Context, now time.Time) {
	actor := Actor(ctx)
	a.CreatedAt, a.UpdatedAt = now, now
	a.CreatedBy, a.UpdatedBy = actor, actor
}

// Touch refreshes update fields.
func (a *Audit) Touch(ctx context.Context, now time.Time) {
	a.UpdatedAt = now
	a.UpdatedBy = Actor(ctx)
}

type actorKey struct{}

// WithActor stores the authenticated subject in ctx.
func WithActor(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, actorKey{}, subject)
}

// Actor returns the subject set by WithActor, or "" for anonymous calls.
func Actor(ctx context.Context) string {
	s, _ := ctx.Value(actorKey{}).(string)
	return s
}
