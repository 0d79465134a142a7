package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgewl2/sp-store-users-management/api/http/presenter"
	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

type UserHandler struct {
	users    user.UseCase
	roles    role.UseCase
	validate *validation.Validator
}

func NewUserHandler(users user.UseCase, roles role.UseCase, v *validation.Validator) *UserHandler {
	return &UserHandler{users: users, roles: roles, validate: v}
}

// @Summary List users
// @Tags    users
// @Produce json
// @Param   limit  query int false "page size (1-200)"
// @Param   offset query int false "rows to skip"
// @Security BearerAuth
// @Success 200 {array}  userResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c)
	users, err := h.users.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	res := make([]userResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u))
	}
	return presenter.JSON(c, http.StatusOK, res)
}

// @Summary     Register user
// @Description Registers a user. Addresses, phones and extra role ids may be sent in the same request.
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       input body createUserRequest true "registration payload"
// @Success     201 {object} userResponse
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     404 {object} presenter.ErrorResponse
// @Failure     409 {object} presenter.ErrorResponse
// @Router      /users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	u := user.User{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: parseDate(req.BirthDate),
	}

	var (
		created user.User
		err     error
	)
	if req.complete() {
		addresses := make([]address.Address, 0, len(req.Addresses))
		for _, a := range req.Addresses {
			addresses = append(addresses, a.toAddress())
		}
		phones := make([]phone.Phone, 0, len(req.Phones))
		for _, p := range req.Phones {
			phones = append(phones, p.toPhone())
		}
		created, err = h.users.CreateComplete(c.UserContext(), u, addresses, phones, req.RoleIDs)
	} else {
		created, err = h.users.Create(c.UserContext(), u)
	}
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, toUserResponse(created))
}

// @Summary Get user by id
// @Tags    users
// @Produce json
// @Param   id path int true "user id"
// @Security BearerAuth
// @Success 200 {object} userResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toUserResponse(u))
}

// @Summary Get user by username
// @Tags    users
// @Produce json
// @Param   username path string true "username"
// @Security BearerAuth
// @Success 200 {object} userResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/username/{username} [get]
func (h *UserHandler) GetByUsername(c *fiber.Ctx) error {
	u, err := h.users.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toUserResponse(u))
}

// @Summary Get user by email
// @Tags    users
// @Produce json
// @Param   email path string true "email"
// @Security BearerAuth
// @Success 200 {object} userResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/email/{email} [get]
func (h *UserHandler) GetByEmail(c *fiber.Ctx) error {
	u, err := h.users.GetByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toUserResponse(u))
}

// @Summary     Update user
// @Description Replaces the profile. The password is re-hashed only when present.
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       id    path int               true "user id"
// @Param       input body updateUserRequest true "profile"
// @Security    BearerAuth
// @Success     200 {object} userResponse
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     404 {object} presenter.ErrorResponse
// @Failure     409 {object} presenter.ErrorResponse
// @Router      /users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	u, err := h.users.Update(c.UserContext(), id, user.User{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: parseDate(req.BirthDate),
	})
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toUserResponse(u))
}

// @Summary Delete user
// @Tags    users
// @Param   id path int true "user id"
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return presenter.NoContent(c)
}

// @Summary Change password
// @Tags    users
// @Accept  json
// @Param   id    path int                   true "user id"
// @Param   input body changePasswordRequest true "current and new password"
// @Security BearerAuth
// @Success 204
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.users.ChangePassword(c.UserContext(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return presenter.NoContent(c)
}

// @Summary List roles of a user
// @Tags    users
// @Produce json
// @Param   id path int true "user id"
// @Security BearerAuth
// @Success 200 {array}  roleResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/roles [get]
func (h *UserHandler) ListRoles(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.users.GetByID(c.UserContext(), id); err != nil {
		return err
	}
	roles, err := h.roles.ListByUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, toRoleResponses(roles))
}

// @Summary Assign role
// @Tags    users
// @Param   id     path int true "user id"
// @Param   roleId path int true "role id"
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /users/{id}/roles/{roleId} [post]
func (h *UserHandler) AssignRole(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "roleId")
	if err != nil {
		return err
	}
	if err := h.users.AssignRole(c.UserContext(), id, roleID); err != nil {
		return err
	}
	return presenter.NoContent(c)
}

// @Summary Remove role
// @Tags    users
// @Param   id     path int true "user id"
// @Param   roleId path int true "role id"
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /users/{id}/roles/{roleId} [delete]
func (h *UserHandler) RemoveRole(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "roleId")
	if err != nil {
		return err
	}
	if err := h.users.RemoveRole(c.UserContext(), id, roleID); err != nil {
		return err
	}
	return presenter.NoContent(c)
}
