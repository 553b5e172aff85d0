package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/readmodel"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// RoleCommands manages role permissions in the identity provider.
type RoleCommands interface {
	RolesWithPermissions(ctx context.Context) ([]domain.RoleWithPermissions, error)
	Permissions(ctx context.Context) ([]string, error)
	ReplacePermissions(ctx context.Context, role string, permissions []string) error
	AddPermission(ctx context.Context, role, permission string) (bool, error)
	RemovePermission(ctx context.Context, role, permission string) (bool, error)
}

// RoleQueries reads the role catalog.
type RoleQueries interface {
	RoleByID(ctx context.Context, id int) (*readmodel.RoleDocument, error)
	Roles(ctx context.Context) ([]readmodel.RoleDocument, error)
}

// RolesHandler exposes role and permission endpoints.
type RolesHandler struct {
	commands RoleCommands
	queries  RoleQueries
}

// NewRolesHandler constructs handler.
func NewRolesHandler(commands RoleCommands, queries RoleQueries) *RolesHandler {
	return &RolesHandler{commands: commands, queries: queries}
}

// Catalog handles GET /api/roles.
func (h *RolesHandler) Catalog(c *fiber.Ctx) error {
	roles, err := h.queries.Roles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roles})
}

// Get handles GET /api/roles/:id.
func (h *RolesHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.queries.RoleByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": role})
}

// WithPermissions handles GET /api/roles/permissions/by-role.
func (h *RolesHandler) WithPermissions(c *fiber.Ctx) error {
	roles, err := h.commands.RolesWithPermissions(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(roles))
	for _, r := range roles {
		out = append(out, fiber.Map{"role": r.Name, "permissions": r.Permissions})
	}
	return c.JSON(fiber.Map{"data": out})
}

// Permissions handles GET /api/roles/permissions.
func (h *RolesHandler) Permissions(c *fiber.Ctx) error {
	perms, err := h.commands.Permissions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": perms})
}

// ReplacePermissions handles PUT /api/roles/:role/permissions.
func (h *RolesHandler) ReplacePermissions(c *fiber.Ctx) error {
	var req dto.ReplacePermissionsRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.commands.ReplacePermissions(c.UserContext(), c.Params("role"), req.Permissions); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

// AddPermission handles POST /api/roles/:role/permissions.
func (h *RolesHandler) AddPermission(c *fiber.Ctx) error {
	var req dto.PermissionRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	ok, err := h.commands.AddPermission(c.UserContext(), c.Params("role"), req.Permission)
	return respondOutcome(c, ok, err, apperrors.NewNotFound("permission", map[string]any{"permission": req.Permission}))
}

// RemovePermission handles DELETE /api/roles/:role/permissions/:permission.
func (h *RolesHandler) RemovePermission(c *fiber.Ctx) error {
	permission := c.Params("permission")
	ok, err := h.commands.RemovePermission(c.UserContext(), c.Params("role"), permission)
	return respondOutcome(c, ok, err, apperrors.NewNotFound("permission", map[string]any{"permission": permission}))
}
