package domain

import "strings"

// DefaultRolePrefix marks provider-managed roles every user keeps.
const DefaultRolePrefix = "default-roles-"

// Role is static reference data; permissions are composed onto roles in the
// identity provider.
type Role struct {
	ID   int
	Name string
}

// Permission is a named capability, modelled as a simple role in the provider.
type Permission struct {
	ID          int
	Description string
}

// RolePermission links a role to one of its seeded permissions.
type RolePermission struct {
	RoleID       int
	PermissionID int
}

// RoleWithPermissions is the provider view of a composite role.
type RoleWithPermissions struct {
	Name        string
	Permissions []string
}

// IsDefaultRole reports whether name is a provider default role.
func IsDefaultRole(name string) bool {
	return strings.HasPrefix(name, DefaultRolePrefix)
}

// Seeded role ids.
const (
	RoleAdministrator = 1
	RoleAuctioneer    = 2
	RoleBidder        = 3
	RoleSupport       = 4
)

// Permission names checked by the HTTP layer.
const (
	PermissionManageUsers = "gestionar usuarios"
	PermissionManageRoles = "gestionar roles y permisos"
)

// Roles returns the seeded role catalog.
func Roles() []Role {
	return []Role{
		{ID: RoleAdministrator, Name: "Administrador"},
		{ID: RoleAuctioneer, Name: "Subastador"},
		{ID: RoleBidder, Name: "Postor"},
		{ID: RoleSupport, Name: "Soporte Tecnico"},
	}
}

// Permissions returns the seeded permission catalog.
func Permissions() []Permission {
	names := []string{
		PermissionManageUsers,
		PermissionManageRoles,
		"administrar subastas",
		"gestionar reportes",
		"administrar medios de pago",
		"gestionar reclamos y disputas",
		"visualizar historial de transacciones",
		"crear y administrar subastas",
		"configurar productos",
		"definir reglas de participación",
		"validar pujas",
		"notificar ganadores",
		"revisar reclamos",
		"explorar subastas",
		"realizar pujas",
		"pagar productos ganados",
		"reclamar premios",
		"presentar reclamos",
		"visualizar historial de compras y pujas",
		"resolver reclamos",
		"gestionar estados de disputas",
		"revisar reportes de actividad y seguridad",
		"solucionar problemas de acceso y pagos",
	}
	out := make([]Permission, len(names))
	for i, n := range names {
		out[i] = Permission{ID: i + 1, Description: n}
	}
	return out
}

// RolePermissions returns the seeded role to permission links.
func RolePermissions() []RolePermission {
	ranges := []struct{ role, first, last int }{
		{RoleAdministrator, 1, 7},
		{RoleAuctioneer, 8, 13},
		{RoleBidder, 14, 19},
		{RoleSupport, 20, 23},
	}
	var out []RolePermission
	for _, r := range ranges {
		for p := r.first; p <= r.last; p++ {
			out = append(out, RolePermission{RoleID: r.role, PermissionID: p})
		}
	}
	return out
}
