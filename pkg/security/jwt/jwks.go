package jwt

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

type scopeClaims struct {
	Scope string `json:"scope"`
}

func (c *scopeClaims) Validate(context.Context) error { return nil }

// JWKSVerifier validates RS256 tokens issued by an external OAuth2
// authorization server. Signing keys are discovered through the issuer's
// OpenID configuration and cached for cacheTTL.
type JWKSVerifier struct {
	validator *validator.Validator
}

func NewJWKSVerifier(issuer string, audience []string, cacheTTL time.Duration) (*JWKSVerifier, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("parse issuer url: %w", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, cacheTTL)

	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		audience,
		validator.WithAllowedClockSkew(30*time.Second),
		validator.WithCustomClaims(func() validator.CustomClaims { return &scopeClaims{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("set up jwt validator: %w", err)
	}
	return &JWKSVerifier{validator: v}, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	res, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return Principal{}, apperr.InvalidToken("invalid token: " + err.Error())
	}
	claims, ok := res.(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return Principal{}, apperr.InvalidToken("token has no subject")
	}
	p := Principal{Subject: claims.RegisteredClaims.Subject}
	if custom, ok := claims.CustomClaims.(*scopeClaims); ok {
		p.Scopes = splitScopes(custom.Scope)
	}
	return p, nil
}
