package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/identity"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// RoleService edits role composition in the identity provider. Nothing here
// writes the relational store.
type RoleService struct {
	admin  RoleAdmin
	logger *zap.Logger
}

// NewRoleService builds the service.
func NewRoleService(admin RoleAdmin, logger *zap.Logger) *RoleService {
	return &RoleService{admin: admin, logger: logger}
}

// RolesWithPermissions lists composite roles and their permissions.
func (s *RoleService) RolesWithPermissions(ctx context.Context) ([]domain.RoleWithPermissions, error) {
	roles, err := s.admin.CompositeRoles(ctx)
	if err != nil {
		return nil, apperrors.NewIdentityProviderError("list roles", err)
	}
	if roles == nil {
		roles = []domain.RoleWithPermissions{}
	}
	return roles, nil
}

// Permissions lists every assignable permission name.
func (s *RoleService) Permissions(ctx context.Context) ([]string, error) {
	simple, err := s.admin.SimpleRoles(ctx)
	if err != nil {
		return nil, apperrors.NewIdentityProviderError("list permissions", err)
	}
	out := make([]string, 0, len(simple))
	for _, r := range simple {
		out = append(out, r.Name)
	}
	return out, nil
}

// ReplacePermissions makes permissions the exact permission set of role.
func (s *RoleService) ReplacePermissions(ctx context.Context, role string, permissions []string) error {
	if err := s.admin.ReplaceRolePermissions(ctx, role, permissions); err != nil {
		return roleAdminError("replace role permissions", role, err)
	}
	s.logger.Info("role permissions replaced", zap.String("role", role), zap.Strings("permissions", permissions))
	return nil
}

// AddPermission reports false when the permission does not exist.
func (s *RoleService) AddPermission(ctx context.Context, role, permission string) (bool, error) {
	ok, err := s.admin.AddPermission(ctx, role, permission)
	if err != nil {
		return false, roleAdminError("add permission", role, err)
	}
	return ok, nil
}

// RemovePermission reports false when the permission does not exist.
func (s *RoleService) RemovePermission(ctx context.Context, role, permission string) (bool, error) {
	ok, err := s.admin.RemovePermission(ctx, role, permission)
	if err != nil {
		return false, roleAdminError("remove permission", role, err)
	}
	return ok, nil
}

// roleAdminError reports an unknown role as missing rather than as a
// provider failure.
func roleAdminError(op, role string, err error) error {
	if identity.IsNotFound(err) {
		return apperrors.NewNotFound("role", map[string]any{"role": role})
	}
	return apperrors.NewIdentityProviderError(op, err)
}
