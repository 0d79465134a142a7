// Package apperr defines the typed errors returned by the use cases. Every
// error carries a stable code and the domain it belongs to, so the HTTP layer
// can render a uniform envelope without knowing about individual use cases.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindDuplicate
	KindValidation
	KindAuthentication
	KindAuthorization
	KindInvalidToken
	KindPasswordMismatch
	KindBusiness
	KindDatabase
)

// Error codes shared with API clients.
const (
	CodeNotFound         = "RESOURCE_NOT_FOUND"
	CodeDuplicate        = "DUPLICATE_RESOURCE"
	CodeValidation       = "VALIDATION_ERROR"
	CodeAuthentication   = "AUTHENTICATION_ERROR"
	CodeAuthorization    = "AUTHORIZATION_ERROR"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodePasswordMismatch = "PASSWORD_MISMATCH"
	CodeDatabase         = "DATABASE_OPERATION_ERROR"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Domain  string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func NotFound(resource string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Domain:  resource,
		Message: fmt.Sprintf("%s not found with id: %d", resource, id),
	}
}

func NotFoundBy(resource, field, value string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Domain:  resource,
		Message: fmt.Sprintf("%s not found with %s: %s", resource, field, value),
	}
}

func Duplicate(resource, field, value string) *Error {
	return &Error{
		Kind:    KindDuplicate,
		Code:    CodeDuplicate,
		Domain:  resource,
		Message: fmt.Sprintf("%s already exists with %s: %s", resource, field, value),
	}
}

// FieldError is a single failed constraint.
type FieldError struct {
	Field   string
	Message string
}

func Validation(fields ...FieldError) *Error {
	details := make([]string, 0, len(fields))
	for _, f := range fields {
		details = append(details, f.Field+": "+f.Message)
	}
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidation,
		Domain:  "validation",
		Message: "validation failed",
		Details: details,
	}
}

func ValidationField(field, message string) *Error {
	return Validation(FieldError{Field: field, Message: message})
}

func Business(code, domain, message string) *Error {
	return &Error{Kind: KindBusiness, Code: code, Domain: domain, Message: message}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeAuthentication, Domain: "security", Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeAuthorization, Domain: "security", Message: message}
}

func InsufficientPermissions() *Error {
	return Authorization("insufficient permissions to perform this operation")
}

func InvalidToken(message string) *Error {
	return &Error{Kind: KindInvalidToken, Code: CodeInvalidToken, Domain: "security", Message: message}
}

func TokenExpired() *Error   { return InvalidToken("token has expired") }
func TokenMalformed() *Error { return InvalidToken("malformed token") }

func PasswordMismatch(message string) *Error {
	return &Error{Kind: KindPasswordMismatch, Code: CodePasswordMismatch, Domain: "user", Message: message}
}

func CurrentPasswordIncorrect() *Error {
	return PasswordMismatch("current password is incorrect")
}

func PasswordTooWeak() *Error {
	return PasswordMismatch("password does not meet the security requirements")
}

// Database wraps a persistence failure. op is one of save, update, delete or
// load.
func Database(op, resource string, err error) *Error {
	return &Error{
		Kind:    KindDatabase,
		Code:    CodeDatabase,
		Domain:  strings.ToLower(resource),
		Message: fmt.Sprintf("could not %s %s", op, resource),
		Err:     err,
	}
}
