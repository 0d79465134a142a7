package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/edgewl2/sp-store-users-management/pkg/apperr"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

// pathID parses a positive integer path parameter.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ValidationField(name, "must be a positive integer")
	}
	return id, nil
}

// bind decodes the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.ValidationField("body", "malformed JSON payload")
	}
	return v.Struct(dst)
}
