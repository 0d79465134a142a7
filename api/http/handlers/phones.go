package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgewl2/sp-store-users-management/api/http/presenter"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

// PhoneHandler serves /users/{id}/phones.
type PhoneHandler struct {
	users    user.UseCase
	phones   phone.UseCase
	validate *validation.Validator
}

func NewPhoneHandler(users user.UseCase, phones phone.UseCase, v *validation.Validator) *PhoneHandler {
	return &PhoneHandler{users: users, phones: phones, validate: v}
}

// @Summary List phones of a user
// @Tags    phones
// @Produce json
// @Param   id path int true "user id"
// @Security BearerAuth
// @Success 200 {array}  phoneResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/phones [get]
func (h *PhoneHandler) List(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.phones.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toPhoneResponses(list))
}

// @Summary Add phone
// @Tags    phones
// @Accept  json
// @Produce json
// @Param   id    path int          true "user id"
// @Param   input body phoneRequest true "phone"
// @Security BearerAuth
// @Success 201 {object} phoneResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/phones [post]
func (h *PhoneHandler) Create(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req phoneRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	p, err := h.users.AddPhone(c.UserContext(), userID, req.toPhone())
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, toPhoneResponse(p))
}

// @Summary Get phone
// @Tags    phones
// @Produce json
// @Param   id      path int true "user id"
// @Param   phoneId path int true "phone id"
// @Security BearerAuth
// @Success 200 {object} phoneResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/phones/{phoneId} [get]
func (h *PhoneHandler) Get(c *fiber.Ctx) error {
	userID, phoneID, err := ownedIDs(c, "phoneId")
	if err != nil {
		return err
	}
	p, err := h.phones.Get(c.UserContext(), phoneID, userID)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toPhoneResponse(p))
}

// @Summary Update phone
// @Tags    phones
// @Accept  json
// @Produce json
// @Param   id      path int          true "user id"
// @Param   phoneId path int          true "phone id"
// @Param   input   body phoneRequest true "phone"
// @Security BearerAuth
// @Success 200 {object} phoneResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/phones/{phoneId} [put]
func (h *PhoneHandler) Update(c *fiber.Ctx) error {
	userID, phoneID, err := ownedIDs(c, "phoneId")
	if err != nil {
		return err
	}
	var req phoneRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	p, err := h.phones.Update(c.UserContext(), phoneID, userID, req.toPhone())
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toPhoneResponse(p))
}

// @Summary Delete phone
// @Tags    phones
// @Param   id      path int true "user id"
// @Param   phoneId path int true "phone id"
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/phones/{phoneId} [delete]
func (h *PhoneHandler) Delete(c *fiber.Ctx) error {
	userID, phoneID, err := ownedIDs(c, "phoneId")
	if err != nil {
		return err
	}
	if err := h.phones.Delete(c.UserContext(), phoneID, userID); err != nil {
		return err
	}
	return presenter.NoContent(c)
}
