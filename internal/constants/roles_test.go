package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	for _, role := range ValidRoles {
		assert.True(t, IsValidRole(role), role)
	}
	assert.False(t, IsValidRole("owner"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("Admin"))
}

func TestTierAtOrBelow(t *testing.T) {
	// every role can act on itself and below
	assert.True(t, TierAtOrBelow(Superadmin, Admin))
	assert.True(t, TierAtOrBelow(Admin, Admin))
	assert.True(t, TierAtOrBelow(Admin, Editor))
	assert.True(t, TierAtOrBelow(Editor, Viewer))
	assert.True(t, TierAtOrBelow(Viewer, Viewer))

	// never above
	assert.False(t, TierAtOrBelow(Editor, Admin))
	assert.False(t, TierAtOrBelow(Admin, Superadmin))
	assert.False(t, TierAtOrBelow(Viewer, Editor))

	// unknown roles always lose
	assert.False(t, TierAtOrBelow("owner", Viewer))
	assert.False(t, TierAtOrBelow(Admin, "owner"))
}

func TestPermissionRoles_InviteUser(t *testing.T) {
	assert.True(t, AllowedRole(InviteUser, Superadmin))
	assert.True(t, AllowedRole(InviteUser, Admin))
	assert.True(t, AllowedRole(InviteUser, Editor))
	assert.False(t, AllowedRole(InviteUser, Viewer))
	assert.False(t, AllowedRole("unknown.permission", Admin))
}
