package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

const keyID = "test-key"

// authServer serves the OpenID discovery document and the JWKS of key.
func authServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   srv.URL + "/",
			"jwks_uri": srv.URL + "/.well-known/jwks.json",
		})
	})
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		enc := base64.RawURLEncoding
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": keyID,
				"use": "sig",
				"alg": "RS256",
				"n":   enc.EncodeToString(key.N.Bytes()),
				"e":   enc.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})
	return srv
}

func rsaToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	intruder, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := authServer(t, key)
	iss := srv.URL + "/"
	verifier, err := NewJWKSVerifier(iss, []string{"users-api"}, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	claims := func(overrides jwt.MapClaims) jwt.MapClaims {
		c := jwt.MapClaims{
			"iss":   iss,
			"sub":   "auth0|123",
			"aud":   []string{"users-api"},
			"iat":   now.Unix(),
			"exp":   now.Add(time.Hour).Unix(),
			"scope": "read:users write:users",
		}
		for k, v := range overrides {
			c[k] = v
		}
		return c
	}

	p, err := verifier.Verify(context.Background(), rsaToken(t, key, claims(nil)))
	require.NoError(t, err)
	assert.Equal(t, "auth0|123", p.Subject)
	assert.Equal(t, []string{"read:users", "write:users"}, p.Scopes)

	cases := []struct {
		desc  string
		token string
	}{
		{desc: "expired", token: rsaToken(t, key, claims(jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()}))},
		{desc: "wrong audience", token: rsaToken(t, key, claims(jwt.MapClaims{"aud": []string{"billing"}}))},
		{desc: "wrong issuer", token: rsaToken(t, key, claims(jwt.MapClaims{"iss": "https://evil.example.com/"}))},
		{desc: "unknown signing key", token: rsaToken(t, intruder, claims(nil))},
		{desc: "hmac token", token: func() string {
			s, err := NewSigner(secret, iss, []string{"users-api"}, time.Hour).Sign("alice")
			require.NoError(t, err)
			return s
		}()},
		{desc: "garbage", token: "abc"},
	}
	for _, tc := range cases {
		_, err := verifier.Verify(context.Background(), tc.token)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidToken), "%s: got %v", tc.desc, err)
	}
}
