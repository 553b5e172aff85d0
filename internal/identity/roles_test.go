package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanRoleReplacementKeepsDefaults(t *testing.T) {
	current := []Role{{Name: "default-roles-subastas"}, {Name: "Administrador"}, {Name: "Postor"}}
	desired := []Role{{Name: "Subastador"}}

	toRemove, toAdd := planRoleReplacement(current, desired)

	assert.Equal(t, []string{"Administrador", "Postor"}, names(toRemove))
	assert.Equal(t, []string{"Subastador"}, names(toAdd))
}

func TestPlanRoleReplacementFromEmpty(t *testing.T) {
	toRemove, toAdd := planRoleReplacement(nil, []Role{{Name: "Postor"}})
	assert.Empty(t, toRemove)
	assert.Equal(t, []string{"Postor"}, names(toAdd))
}

func TestPlanRoleReplacementNeverAddsDefault(t *testing.T) {
	_, toAdd := planRoleReplacement(nil, []Role{{Name: "default-roles-subastas"}})
	assert.Empty(t, toAdd)
}

func TestSelectRolesIgnoresUnknownNames(t *testing.T) {
	all := []Role{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	assert.Equal(t, []string{"a", "c"}, names(selectRoles(all, []string{"c", "a", "z"})))
}
