package permissions

import (
	"testing"

	"github.com/registerhq/register-backend/pkg/actor"
	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"empty required always passes", []string{}, "", true},
		{"full wildcard", []string{"*"}, "inventory.write", true},
		{"exact match", []string{"inventory.read"}, "inventory.read", true},
		{"resource wildcard", []string{"inventory.*"}, "inventory.write", true},
		{"wildcard does not cross resources", []string{"inventory.*"}, "catalog.read", false},
		{"no match", []string{"catalog.read"}, "inventory.read", false},
		{"prefix is not a wildcard", []string{"inventory"}, "inventory.read", false},
		{"nil perms", nil, "inventory.read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.perms, tt.required))
		})
	}
}

func TestHasAnyPermission(t *testing.T) {
	perms := []string{"inventory.read"}
	assert.True(t, HasAnyPermission(perms, []string{"catalog.read", "inventory.read"}))
	assert.False(t, HasAnyPermission(perms, []string{"catalog.read", "orders.read"}))
}

func TestHasAllPermissions(t *testing.T) {
	perms := []string{"inventory.*", "catalog.read"}
	assert.True(t, HasAllPermissions(perms, []string{"inventory.read", "inventory.write", "catalog.read"}))
	assert.False(t, HasAllPermissions(perms, []string{"inventory.read", "catalog.write"}))
}

func TestRolePermissions(t *testing.T) {
	// Admin can do everything
	assert.True(t, RoleHasPermission(actor.RoleAdmin, "inventory.write"))
	assert.True(t, RoleHasPermission(actor.RoleAdmin, "orders.write"))

	// Manager has full domain access
	assert.True(t, RoleHasPermission(actor.RoleManager, "catalog.write"))
	assert.True(t, RoleHasPermission(actor.RoleManager, "inventory.write"))
	assert.True(t, RoleHasPermission(actor.RoleManager, "orders.read"))

	// Regular users are read-only
	assert.True(t, RoleHasPermission(actor.RoleUser, "inventory.read"))
	assert.False(t, RoleHasPermission(actor.RoleUser, "inventory.write"))
	assert.False(t, RoleHasPermission(actor.RoleUser, "orders.write"))

	// Unknown roles get nothing
	assert.False(t, RoleHasPermission("guest", "inventory.read"))
	assert.Empty(t, ForRole("guest"))
}

func TestMergePermissions(t *testing.T) {
	merged := MergePermissions(
		[]string{"inventory.read", "catalog.read"},
		[]string{"catalog.read", "orders.read"},
	)
	assert.ElementsMatch(t, []string{"inventory.read", "catalog.read", "orders.read"}, merged)
}
