package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-registry/internal/api/dto"
	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponses(users))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	role, _ := domain.ParseRole(req.Role)
	actor, _ := auth.IdentityFromContext(c)

	user, err := h.users.Create(c.UserContext(), actor, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// UpdateCredentials handles PUT /users/:id.
func (h *UsersHandler) UpdateCredentials(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCredentialsRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)

	user, err := h.users.UpdateCredentials(c.UserContext(), actor, id, service.UpdateCredentialsInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateRole handles PUT /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	role, _ := domain.ParseRole(req.Role)
	actor, _ := auth.IdentityFromContext(c)

	user, err := h.users.UpdateRole(c.UserContext(), actor, id, role)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)
	if err := h.users.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
