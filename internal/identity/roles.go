package identity

import "github.com/spec-kit/user-service/internal/domain"

// Role is the provider's realm role representation.
type Role struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId,omitempty"`
}

// planRoleReplacement computes a full replace: every non-default role in
// current is removed and desired is added. Default roles are never touched.
func planRoleReplacement(current, desired []Role) (toRemove, toAdd []Role) {
	for _, r := range current {
		if domain.IsDefaultRole(r.Name) {
			continue
		}
		toRemove = append(toRemove, r)
	}
	for _, r := range desired {
		if domain.IsDefaultRole(r.Name) {
			continue
		}
		toAdd = append(toAdd, r)
	}
	return toRemove, toAdd
}

// selectRoles returns the roles in all whose name is listed in names, in the
// order of all.
func selectRoles(all []Role, names []string) []Role {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var out []Role
	for _, r := range all {
		if _, ok := wanted[r.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}

func findRole(all []Role, name string) (Role, bool) {
	for _, r := range all {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}
