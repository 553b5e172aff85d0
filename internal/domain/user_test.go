package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserStartsUnverifiedWithoutExternalID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser(NewUserInput{Name: "Ana", Email: "ana@x.com", RoleID: RoleBidder}, now, time.Hour)

	require.NotEmpty(t, u.ID)
	assert.False(t, u.Verified)
	assert.False(t, u.ExternallyAuthenticable())
	assert.Len(t, u.ConfirmationCode, 6)
	assert.Equal(t, now.Add(time.Hour), u.ConfirmationExpires)
}

func TestCanConfirm(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser(NewUserInput{Email: "ana@x.com"}, now, time.Hour)

	assert.True(t, u.CanConfirm(u.ConfirmationCode, now.Add(30*time.Minute)))
	assert.False(t, u.CanConfirm("WRONG1", now))
	assert.False(t, u.CanConfirm("", now))
	assert.False(t, u.CanConfirm(u.ConfirmationCode, now.Add(2*time.Hour)))
}

func TestRecoveryTokenLifecycle(t *testing.T) {
	now := time.Now()
	u := &User{}
	assert.False(t, u.RecoveryTokenValid(now))

	token := u.IssueRecoveryToken(now, time.Hour)
	require.NotEmpty(t, token)
	assert.True(t, u.RecoveryTokenValid(now.Add(time.Minute)))
	assert.False(t, u.RecoveryTokenValid(now.Add(2*time.Hour)))

	u.SetPasswordHash("hash")
	assert.Nil(t, u.RecoveryToken)
	assert.False(t, u.RecoveryTokenValid(now))
}

func TestIsDefaultRole(t *testing.T) {
	assert.True(t, IsDefaultRole("default-roles-subastas"))
	assert.False(t, IsDefaultRole("Postor"))
}

func TestCatalogLinksReferenceKnownIDs(t *testing.T) {
	perms := map[int]bool{}
	for _, p := range Permissions() {
		perms[p.ID] = true
	}
	roles := map[int]bool{}
	for _, r := range Roles() {
		roles[r.ID] = true
	}
	links := RolePermissions()
	assert.Len(t, links, len(Permissions()))
	for _, l := range links {
		assert.True(t, roles[l.RoleID], "role %d", l.RoleID)
		assert.True(t, perms[l.PermissionID], "permission %d", l.PermissionID)
	}
}
