package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/service"
)

// AdminHandler exposes user-directory administration: listing accounts and
// changing role sets. Routes are gated by the users:manage policy rule.
type AdminHandler struct {
	roles *service.RoleService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(roleService *service.RoleService) *AdminHandler {
	return &AdminHandler{roles: roleService}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.roles.ListUsers(c.Context())
	if err != nil {
		return err
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewUserResponse(user))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"users": out}})
}

// GrantRole handles POST /admin/users/:id/roles.
func (h *AdminHandler) GrantRole(c *fiber.Ctx) error {
	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "role required")
	}

	user, err := h.roles.GrantRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewUserResponse(user)}})
}

// RevokeRole handles DELETE /admin/users/:id/roles.
func (h *AdminHandler) RevokeRole(c *fiber.Ctx) error {
	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "role required")
	}

	user, err := h.roles.RevokeRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewUserResponse(user)}})
}
