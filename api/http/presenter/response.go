package presenter

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
)

const codeHTTP = "HTTP_ERROR"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message   string    `json:"message"`
	Details   []string  `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Domain    string    `json:"domain"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDuplicate:
		return http.StatusConflict
	case apperr.KindValidation, apperr.KindPasswordMismatch, apperr.KindBusiness:
		return http.StatusBadRequest
	case apperr.KindAuthentication, apperr.KindInvalidToken:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Render converts any error into the envelope. Unknown errors never leak
// their text to the client.
func Render(err error) ErrorResponse {
	res := ErrorResponse{Details: []string{}, Timestamp: time.Now().UTC()}

	if e, ok := apperr.As(err); ok {
		res.Status = StatusOf(e.Kind)
		res.Error = e.Code
		res.Domain = e.Domain
		res.Message = e.Message
		if e.Details != nil {
			res.Details = e.Details
		}
		return res
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		res.Status = fe.Code
		res.Error = codeHTTP
		res.Domain = "http"
		res.Message = fe.Message
		return res
	}

	res.Status = http.StatusInternalServerError
	res.Error = apperr.CodeInternal
	res.Domain = "system"
	res.Message = "an unexpected error occurred"
	return res
}

// ErrorHandler renders every error returned by a handler or middleware.
// Server-side failures are logged with their cause.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		res := Render(err)
		if res.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return JSON(c, res.Status, res)
	}
}
