package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	api "github.com/edgewl2/sp-store-users-management/api/http"
	"github.com/edgewl2/sp-store-users-management/api/http/handlers"
	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/health"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/repository/memory"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/security/bcrypt"
	"github.com/edgewl2/sp-store-users-management/pkg/security/jwt"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

const (
	secret     = "router-test-secret"
	issuer     = "users-service"
	adminScope = "roles:admin"
)

type env struct {
	app    *fiber.App
	token  string
	reader string
}

func newEnv(t *testing.T) env {
	t.Helper()
	log := zap.NewNop()
	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	roleRepo := memory.NewRoleRepository(store)

	roles := role.NewService(roleRepo, log)
	addresses := address.NewService(memory.NewAddressRepository(store), userRepo, log)
	phones := phone.NewService(memory.NewPhoneRepository(store), userRepo, log)
	users := user.NewService(userRepo, roles, addresses, phones, bcrypt.New(4), log)

	_, err := roles.Create(context.Background(), role.Role{Name: role.DefaultName})
	require.NoError(t, err)

	v := validation.New()
	app := api.NewApp(log, prometheus.NewRegistry())
	api.Register(app, api.Handlers{
		Users:     handlers.NewUserHandler(users, roles, v),
		Roles:     handlers.NewRoleHandler(roles, v),
		Addresses: handlers.NewAddressHandler(users, addresses, v),
		Phones:    handlers.NewPhoneHandler(users, phones, v),
		Health:    handlers.NewHealthHandler(health.NewService(), log),
	}, jwt.NewAuthMiddleware(jwt.NewHMACVerifier(secret, issuer, nil)), jwt.RequireScope(adminScope))

	signer := jwt.NewSigner(secret, issuer, nil, time.Hour)
	token, err := signer.Sign("admin-subject", adminScope)
	require.NoError(t, err)
	reader, err := signer.Sign("reader-subject")
	require.NoError(t, err)
	return env{app: app, token: token, reader: reader}
}

// do sends a request and decodes the JSON body into a generic value. auth
// attaches the admin token.
func (e env) do(t *testing.T, method, path string, body any, auth bool) (int, any) {
	t.Helper()
	token := ""
	if auth {
		token = e.token
	}
	return e.doAs(t, token, method, path, body)
}

func (e env) doAs(t *testing.T, token, method, path string, body any) (int, any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func field(v any, key string) any {
	m, _ := v.(map[string]any)
	return m[key]
}

func id(v any) int64 {
	n, _ := field(v, "id").(float64)
	return int64(n)
}

func registration(username string) map[string]any {
	return map[string]any{
		"username":  username,
		"password":  "s3cret-pass",
		"email":     username + "@example.com",
		"firstName": "Ana",
		"lastName":  "Lopez",
		"birthDate": "1990-05-17",
	}
}

func TestRegisterAndFetch(t *testing.T) {
	e := newEnv(t)

	status, created := e.do(t, http.MethodPost, "/api/v1/users", registration("ana"), false)
	require.Equal(t, http.StatusCreated, status, created)
	assert.Equal(t, "ana", field(created, "username"))
	assert.Equal(t, "1990-05-17", field(created, "birthDate"))
	assert.Equal(t, true, field(created, "enabled"))
	assert.Nil(t, field(created, "password"))
	roles, _ := field(created, "roles").([]any)
	require.Len(t, roles, 1)
	assert.Equal(t, role.DefaultName, field(roles[0], "name"))

	userID := id(created)
	cases := []struct {
		desc   string
		path   string
		auth   bool
		status int
		code   string
	}{
		{desc: "by id", path: fmt.Sprintf("/api/v1/users/%d", userID), auth: true, status: http.StatusOK},
		{desc: "by username", path: "/api/v1/users/username/ana", auth: true, status: http.StatusOK},
		{desc: "by email", path: "/api/v1/users/email/ana@example.com", auth: true, status: http.StatusOK},
		{desc: "list", path: "/api/v1/users?limit=10", auth: true, status: http.StatusOK},
		{desc: "no token", path: fmt.Sprintf("/api/v1/users/%d", userID), auth: false, status: http.StatusUnauthorized, code: "AUTHENTICATION_ERROR"},
		{desc: "missing user", path: "/api/v1/users/999", auth: true, status: http.StatusNotFound, code: "RESOURCE_NOT_FOUND"},
		{desc: "missing username", path: "/api/v1/users/username/ghost", auth: true, status: http.StatusNotFound, code: "RESOURCE_NOT_FOUND"},
		{desc: "bad id", path: "/api/v1/users/abc", auth: true, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		status, body := e.do(t, http.MethodGet, tc.path, nil, tc.auth)
		assert.Equal(t, tc.status, status, tc.desc)
		if tc.code != "" {
			assert.Equal(t, tc.code, field(body, "error"), tc.desc)
			assert.EqualValues(t, tc.status, field(body, "status"), tc.desc)
			assert.NotEmpty(t, field(body, "timestamp"), tc.desc)
		}
	}
}

func TestRegisterErrors(t *testing.T) {
	e := newEnv(t)
	status, _ := e.do(t, http.MethodPost, "/api/v1/users", registration("ana"), false)
	require.Equal(t, http.StatusCreated, status)

	young := registration("kid")
	young["birthDate"] = time.Now().AddDate(-10, 0, 0).Format("2006-01-02")
	invalid := registration("x")
	invalid["email"] = "nope"
	badRole := registration("carl")
	badRole["roleIds"] = []int{999}

	cases := []struct {
		desc   string
		body   map[string]any
		status int
		code   string
	}{
		{desc: "duplicate username", body: registration("ana"), status: http.StatusConflict, code: "DUPLICATE_RESOURCE"},
		{desc: "under age", body: young, status: http.StatusBadRequest, code: "AGE_RESTRICTION"},
		{desc: "invalid fields", body: invalid, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{desc: "unknown role", body: badRole, status: http.StatusNotFound, code: "RESOURCE_NOT_FOUND"},
	}
	for _, tc := range cases {
		status, body := e.do(t, http.MethodPost, "/api/v1/users", tc.body, false)
		assert.Equal(t, tc.status, status, tc.desc)
		assert.Equal(t, tc.code, field(body, "error"), tc.desc)
	}

	_, body := e.do(t, http.MethodPost, "/api/v1/users", invalid, false)
	assert.ElementsMatch(t, []any{"username: size must be at least 3", "email: must be a well-formed email address"}, field(body, "details"))
}

func TestCompleteRegistration(t *testing.T) {
	e := newEnv(t)
	status, admin := e.do(t, http.MethodPost, "/api/v1/roles", map[string]any{"name": "admin"}, true)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "ADMIN", field(admin, "name"))
	assert.Equal(t, "admin-subject", field(admin, "createdBy"))

	body := registration("dana")
	body["addresses"] = []map[string]any{{"street": "Main 1", "city": "Quito", "country": "EC", "isDefault": true}}
	body["phones"] = []map[string]any{{"number": "0991112222", "type": "work"}}
	body["roleIds"] = []int64{id(admin)}

	status, created := e.do(t, http.MethodPost, "/api/v1/users", body, false)
	require.Equal(t, http.StatusCreated, status, created)
	assert.Len(t, field(created, "addresses"), 1)
	assert.Len(t, field(created, "phones"), 1)
	assert.Len(t, field(created, "roles"), 2)
	phones, _ := field(created, "phones").([]any)
	assert.Equal(t, "WORK", field(phones[0], "type"))
}

func TestUserLifecycle(t *testing.T) {
	e := newEnv(t)
	_, created := e.do(t, http.MethodPost, "/api/v1/users", registration("erin"), false)
	base := fmt.Sprintf("/api/v1/users/%d", id(created))

	update := registration("erin2")
	delete(update, "password")
	status, updated := e.do(t, http.MethodPut, base, update, true)
	require.Equal(t, http.StatusOK, status, updated)
	assert.Equal(t, "erin2", field(updated, "username"))
	assert.Equal(t, "admin-subject", field(updated, "updatedBy"))

	status, body := e.do(t, http.MethodPut, base+"/password", map[string]any{"currentPassword": "wrong-pass", "newPassword": "n3w-password"}, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PASSWORD_MISMATCH", field(body, "error"))
	status, _ = e.do(t, http.MethodPut, base+"/password", map[string]any{"currentPassword": "s3cret-pass", "newPassword": "n3w-password"}, true)
	assert.Equal(t, http.StatusNoContent, status)

	status, a := e.do(t, http.MethodPost, base+"/addresses", map[string]any{"street": "Main 1", "city": "Quito", "country": "EC", "isDefault": true}, true)
	require.Equal(t, http.StatusCreated, status, a)
	status, _ = e.do(t, http.MethodPost, base+"/addresses", map[string]any{"street": "Main 2", "city": "Quito", "country": "EC", "isDefault": true}, true)
	require.Equal(t, http.StatusCreated, status)
	_, first := e.do(t, http.MethodGet, fmt.Sprintf("%s/addresses/%d", base, id(a)), nil, true)
	assert.Equal(t, false, field(first, "isDefault"))

	status, p := e.do(t, http.MethodPost, base+"/phones", map[string]any{"number": "0991112222"}, true)
	require.Equal(t, http.StatusCreated, status, p)
	assert.Equal(t, "MOBILE", field(p, "type"))
	status, _ = e.do(t, http.MethodPut, fmt.Sprintf("%s/phones/%d", base, id(p)), map[string]any{"number": "1", "type": "FAX"}, true)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = e.do(t, http.MethodDelete, fmt.Sprintf("%s/phones/%d", base, id(p)), nil, true)
	assert.Equal(t, http.StatusNoContent, status)

	status, r := e.do(t, http.MethodPost, "/api/v1/roles", map[string]any{"name": "support"}, true)
	require.Equal(t, http.StatusCreated, status)
	rolePath := fmt.Sprintf("%s/roles/%d", base, id(r))
	status, _ = e.do(t, http.MethodPost, rolePath, nil, true)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = e.do(t, http.MethodPost, rolePath, nil, true)
	assert.Equal(t, http.StatusConflict, status)
	_, list := e.do(t, http.MethodGet, base+"/roles", nil, true)
	assert.Len(t, list, 2)
	status, _ = e.do(t, http.MethodDelete, rolePath, nil, true)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = e.do(t, http.MethodDelete, rolePath, nil, true)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.do(t, http.MethodDelete, base, nil, true)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = e.do(t, http.MethodGet, base+"/addresses", nil, true)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRoleEndpoints(t *testing.T) {
	e := newEnv(t)
	status, r := e.do(t, http.MethodPost, "/api/v1/roles", map[string]any{"name": "auditor", "description": "read only"}, true)
	require.Equal(t, http.StatusCreated, status)
	path := fmt.Sprintf("/api/v1/roles/%d", id(r))

	cases := []struct {
		desc   string
		method string
		path   string
		body   any
		status int
	}{
		{desc: "list", method: http.MethodGet, path: "/api/v1/roles", status: http.StatusOK},
		{desc: "get", method: http.MethodGet, path: path, status: http.StatusOK},
		{desc: "duplicate", method: http.MethodPost, path: "/api/v1/roles", body: map[string]any{"name": "Auditor"}, status: http.StatusConflict},
		{desc: "missing name", method: http.MethodPost, path: "/api/v1/roles", body: map[string]any{}, status: http.StatusBadRequest},
		{desc: "rename", method: http.MethodPut, path: path, body: map[string]any{"name": "reviewer"}, status: http.StatusOK},
		{desc: "delete", method: http.MethodDelete, path: path, status: http.StatusNoContent},
		{desc: "get deleted", method: http.MethodGet, path: path, status: http.StatusNotFound},
		{desc: "zero id", method: http.MethodGet, path: "/api/v1/roles/0", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		status, _ := e.do(t, tc.method, tc.path, tc.body, true)
		assert.Equal(t, tc.status, status, tc.desc)
	}
}

func TestRoleAdminScope(t *testing.T) {
	e := newEnv(t)
	status, u := e.do(t, http.MethodPost, "/api/v1/users", registration("rui"), false)
	require.Equal(t, http.StatusCreated, status)
	status, r := e.do(t, http.MethodPost, "/api/v1/roles", map[string]any{"name": "auditor"}, true)
	require.Equal(t, http.StatusCreated, status)
	rolePath := fmt.Sprintf("/api/v1/roles/%d", id(r))
	assignPath := fmt.Sprintf("/api/v1/users/%d/roles/%d", id(u), id(r))

	cases := []struct {
		desc   string
		method string
		path   string
		body   any
		status int
	}{
		{desc: "list roles", method: http.MethodGet, path: "/api/v1/roles", status: http.StatusOK},
		{desc: "get role", method: http.MethodGet, path: rolePath, status: http.StatusOK},
		{desc: "create role", method: http.MethodPost, path: "/api/v1/roles", body: map[string]any{"name": "ops"}, status: http.StatusForbidden},
		{desc: "rename role", method: http.MethodPut, path: rolePath, body: map[string]any{"name": "ops"}, status: http.StatusForbidden},
		{desc: "delete role", method: http.MethodDelete, path: rolePath, status: http.StatusForbidden},
		{desc: "assign role", method: http.MethodPost, path: assignPath, status: http.StatusForbidden},
		{desc: "remove role", method: http.MethodDelete, path: assignPath, status: http.StatusForbidden},
	}
	for _, tc := range cases {
		status, _ := e.doAs(t, e.reader, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.status, status, tc.desc)
	}

	status, _ = e.do(t, http.MethodPost, assignPath, nil, true)
	assert.Less(t, status, http.StatusBadRequest)
}

func TestPublicEndpoints(t *testing.T) {
	e := newEnv(t)

	status, body := e.do(t, http.MethodGet, "/api/v1/health", nil, false)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, health.StatusUp, field(body, "status"))

	status, _ = e.do(t, http.MethodGet, "/api/v1/ready", nil, false)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}
