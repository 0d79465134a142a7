package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgewl2/sp-store-users-management/api/http/presenter"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

type RoleHandler struct {
	uc       role.UseCase
	validate *validation.Validator
}

func NewRoleHandler(uc role.UseCase, v *validation.Validator) *RoleHandler {
	return &RoleHandler{uc: uc, validate: v}
}

// @Summary List roles
// @Tags    roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} roleResponse
// @Router  /roles [get]
func (h *RoleHandler) List(c *fiber.Ctx) error {
	roles, err := h.uc.List(c.UserContext())
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toRoleResponses(roles))
}

// @Summary Create role
// @Tags    roles
// @Accept  json
// @Produce json
// @Param   input body roleRequest true "role"
// @Security BearerAuth
// @Success 201 {object} roleResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /roles [post]
func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var req roleRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	r, err := h.uc.Create(c.UserContext(), role.Role{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, toRoleResponse(r))
}

// @Summary Get role
// @Tags    roles
// @Produce json
// @Param   id path int true "role id"
// @Security BearerAuth
// @Success 200 {object} roleResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /roles/{id} [get]
func (h *RoleHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toRoleResponse(r))
}

// @Summary Update role
// @Tags    roles
// @Accept  json
// @Produce json
// @Param   id    path int         true "role id"
// @Param   input body roleRequest true "role"
// @Security BearerAuth
// @Success 200 {object} roleResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /roles/{id} [put]
func (h *RoleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	r, err := h.uc.Update(c.UserContext(), id, role.Role{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toRoleResponse(r))
}

// @Summary Delete role
// @Tags    roles
// @Param   id path int true "role id"
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /roles/{id} [delete]
func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return presenter.NoContent(c)
}
