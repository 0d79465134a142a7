package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		desc    string
		err     *apperr.Error
		kind    apperr.Kind
		code    string
		domain  string
		message string
	}{
		{
			desc:    "not found by id",
			err:     apperr.NotFound("User", 7),
			kind:    apperr.KindNotFound,
			code:    apperr.CodeNotFound,
			domain:  "User",
			message: "User not found with id: 7",
		},
		{
			desc:    "not found by field",
			err:     apperr.NotFoundBy("User", "email", "a@b.c"),
			kind:    apperr.KindNotFound,
			code:    apperr.CodeNotFound,
			domain:  "User",
			message: "User not found with email: a@b.c",
		},
		{
			desc:    "duplicate",
			err:     apperr.Duplicate("Role", "name", "ADMIN"),
			kind:    apperr.KindDuplicate,
			code:    apperr.CodeDuplicate,
			domain:  "Role",
			message: "Role already exists with name: ADMIN",
		},
		{
			desc:    "business",
			err:     apperr.Business("AGE_RESTRICTION", "user", "too young"),
			kind:    apperr.KindBusiness,
			code:    "AGE_RESTRICTION",
			domain:  "user",
			message: "too young",
		},
		{
			desc:    "expired token",
			err:     apperr.TokenExpired(),
			kind:    apperr.KindInvalidToken,
			code:    apperr.CodeInvalidToken,
			domain:  "security",
			message: "token has expired",
		},
		{
			desc:    "wrong current password",
			err:     apperr.CurrentPasswordIncorrect(),
			kind:    apperr.KindPasswordMismatch,
			code:    apperr.CodePasswordMismatch,
			domain:  "user",
			message: "current password is incorrect",
		},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind, tc.desc)
		assert.Equal(t, tc.code, tc.err.Code, tc.desc)
		assert.Equal(t, tc.domain, tc.err.Domain, tc.desc)
		assert.Equal(t, tc.message, tc.err.Error(), tc.desc)
	}
}

func TestValidationDetails(t *testing.T) {
	err := apperr.Validation(
		apperr.FieldError{Field: "email", Message: "must be a valid email"},
		apperr.FieldError{Field: "username", Message: "is required"},
	)
	assert.Equal(t, []string{"email: must be a valid email", "username: is required"}, err.Details)
	assert.Equal(t, "validation", err.Domain)
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("create user: %w", apperr.Database("save", "User", cause))

	appErr, ok := apperr.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperr.KindDatabase, appErr.Kind)
	assert.Equal(t, "user", appErr.Domain)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, apperr.IsKind(wrapped, apperr.KindDatabase))
	assert.False(t, apperr.IsKind(cause, apperr.KindDatabase))
}
