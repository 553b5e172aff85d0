package service

import (
	"context"

	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/identity"
)

// IdentityProvider is the slice of the provider admin API the orchestrators use.
type IdentityProvider interface {
	CreateUser(ctx context.Context, acc identity.Account) (string, error)
	UpdateUser(ctx context.Context, externalID string, acc identity.Account) error
	SetPassword(ctx context.Context, externalID, password string) error
	AssignRole(ctx context.Context, externalID, roleName string) error
}

// RoleAdmin manages role composition in the provider.
type RoleAdmin interface {
	CompositeRoles(ctx context.Context) ([]domain.RoleWithPermissions, error)
	SimpleRoles(ctx context.Context) ([]identity.Role, error)
	ReplaceRolePermissions(ctx context.Context, role string, permissions []string) error
	AddPermission(ctx context.Context, role, permission string) (bool, error)
	RemovePermission(ctx context.Context, role, permission string) (bool, error)
}

// Notifier delivers user-facing messages.
type Notifier interface {
	SendConfirmation(ctx context.Context, email, name, code string) error
	SendPasswordChanged(ctx context.Context, email, name string) error
	SendRecoveryToken(ctx context.Context, email, name, token string) error
}
