package jwt

import (
	"context"
	"strings"
)

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the token granted scope.
func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier validates a raw bearer token. Errors are *apperr.Error of kind
// invalid token.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

func splitScopes(scope string) []string {
	return strings.Fields(scope)
}
