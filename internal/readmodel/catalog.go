package readmodel

import "github.com/spec-kit/user-service/internal/domain"

// CatalogRoles builds the role documents from the seeded catalog.
func CatalogRoles() []RoleDocument {
	perms := map[int]domain.Permission{}
	for _, p := range domain.Permissions() {
		perms[p.ID] = p
	}
	byRole := map[int][]PermissionDocument{}
	for _, link := range domain.RolePermissions() {
		p := perms[link.PermissionID]
		byRole[link.RoleID] = append(byRole[link.RoleID], PermissionDocument{ID: p.ID, Description: p.Description})
	}
	roles := domain.Roles()
	out := make([]RoleDocument, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleDocument{ID: r.ID, Name: r.Name, Permissions: byRole[r.ID]})
	}
	return out
}
