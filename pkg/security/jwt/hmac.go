package jwt

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

// Claims are the registered claims plus the OAuth2 space separated scope.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Signer issues HS256 tokens for local development and tests.
type Signer struct {
	secret   []byte
	issuer   string
	audience []string
	ttl      time.Duration
}

func NewSigner(secret, issuer string, audience []string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer, audience: audience, ttl: ttl}
}

func (s *Signer) Sign(subject string, scopes ...string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  s.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Scope: strings.Join(scopes, " "),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// HMACVerifier validates HS256 tokens signed with a shared secret. Like the
// JWKS verifier it accepts a token naming any one of the configured audiences.
type HMACVerifier struct {
	secret   []byte
	audience []string
	opts     []jwt.ParserOption
}

func NewHMACVerifier(secret, issuer string, audience []string) *HMACVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &HMACVerifier{secret: []byte(secret), audience: audience, opts: opts}
}

func (v *HMACVerifier) Verify(_ context.Context, tokenStr string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, apperr.TokenExpired()
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Principal{}, apperr.TokenMalformed()
		default:
			return Principal{}, apperr.InvalidToken("invalid token: " + err.Error())
		}
	}
	if !v.audienceAllowed(claims.Audience) {
		return Principal{}, apperr.InvalidToken("token audience not accepted")
	}
	if claims.Subject == "" {
		return Principal{}, apperr.InvalidToken("token has no subject")
	}
	return Principal{Subject: claims.Subject, Scopes: splitScopes(claims.Scope)}, nil
}

func (v *HMACVerifier) audienceAllowed(got jwt.ClaimStrings) bool {
	if len(v.audience) == 0 {
		return true
	}
	for _, want := range v.audience {
		if slices.Contains(got, want) {
			return true
		}
	}
	return false
}
