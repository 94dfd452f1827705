// Package permissions provides utilities for checking permission strings
// against required permissions with support for wildcards, plus the
// role-to-permission mapping used by the HTTP authorization middleware.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "inventory.*")
//   - "resource.action" - Specific action (e.g., "inventory.read")
package permissions

import (
	"strings"

	"github.com/registerhq/register-backend/pkg/actor"
)

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "inventory.*" matches "inventory.read", "inventory.write", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true // No permission required
	}

	for _, p := range userPerms {
		if p == "*" {
			return true // Full admin access
		}
		if p == required {
			return true // Exact match
		}
		// Check wildcard patterns like "inventory.*"
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the user has all of the required permissions.
func HasAllPermissions(userPerms []string, required []string) bool {
	for _, req := range required {
		if !HasPermission(userPerms, req) {
			return false
		}
	}
	return true
}

// rolePermissions maps each role to the permission set it grants.
// Admins get everything; managers get full write access over the business
// domains; regular users can only read.
var rolePermissions = map[string][]string{
	actor.RoleAdmin: {"*"},
	actor.RoleManager: {
		"catalog.*",
		"inventory.*",
		"orders.*",
	},
	actor.RoleUser: {
		"catalog.read",
		"inventory.read",
		"orders.read",
	},
}

// ForRole returns the permission set granted by a role. Unknown roles get
// no permissions.
func ForRole(role string) []string {
	return rolePermissions[role]
}

// RoleHasPermission checks a role directly against a required permission.
func RoleHasPermission(role, required string) bool {
	return HasPermission(ForRole(role), required)
}

// MergePermissions merges multiple permission sets, removing duplicates.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, set := range sets {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}
