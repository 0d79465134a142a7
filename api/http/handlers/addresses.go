package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgewl2/sp-store-users-management/api/http/presenter"
	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

// AddressHandler serves /users/{id}/addresses.
type AddressHandler struct {
	users     user.UseCase
	addresses address.UseCase
	validate  *validation.Validator
}

func NewAddressHandler(users user.UseCase, addresses address.UseCase, v *validation.Validator) *AddressHandler {
	return &AddressHandler{users: users, addresses: addresses, validate: v}
}

// @Summary List addresses of a user
// @Tags    addresses
// @Produce json
// @Param   id path int true "user id"
// @Security BearerAuth
// @Success 200 {array}  addressResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/addresses [get]
func (h *AddressHandler) List(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.addresses.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toAddressResponses(list))
}

// @Summary Add address
// @Tags    addresses
// @Accept  json
// @Produce json
// @Param   id    path int            true "user id"
// @Param   input body addressRequest true "address"
// @Security BearerAuth
// @Success 201 {object} addressResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/addresses [post]
func (h *AddressHandler) Create(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req addressRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	a, err := h.users.AddAddress(c.UserContext(), userID, req.toAddress())
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, toAddressResponse(a))
}

// @Summary Get address
// @Tags    addresses
// @Produce json
// @Param   id        path int true "user id"
// @Param   addressId path int true "address id"
// @Security BearerAuth
// @Success 200 {object} addressResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/addresses/{addressId} [get]
func (h *AddressHandler) Get(c *fiber.Ctx) error {
	userID, addressID, err := ownedIDs(c, "addressId")
	if err != nil {
		return err
	}
	a, err := h.addresses.Get(c.UserContext(), addressID, userID)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toAddressResponse(a))
}

// @Summary Update address
// @Tags    addresses
// @Accept  json
// @Produce json
// @Param   id        path int            true "user id"
// @Param   addressId path int            true "address id"
// @Param   input     body addressRequest true "address"
// @Security BearerAuth
// @Success 200 {object} addressResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/addresses/{addressId} [put]
func (h *AddressHandler) Update(c *fiber.Ctx) error {
	userID, addressID, err := ownedIDs(c, "addressId")
	if err != nil {
		return err
	}
	var req addressRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	a, err := h.addresses.Update(c.UserContext(), addressID, userID, req.toAddress())
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toAddressResponse(a))
}

// @Summary Delete address
// @Tags    addresses
// @Param   id        path int true "user id"
// @Param   addressId path int true "address id"
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/addresses/{addressId} [delete]
func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	userID, addressID, err := ownedIDs(c, "addressId")
	if err != nil {
		return err
	}
	if err := h.addresses.Delete(c.UserContext(), addressID, userID); err != nil {
		return err
	}
	return presenter.NoContent(c)
}

// ownedIDs parses the owner id and the id of the child resource.
func ownedIDs(c *fiber.Ctx, child string) (int64, int64, error) {
	userID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	childID, err := pathID(c, child)
	if err != nil {
		return 0, 0, err
	}
	return userID, childID, nil
}
