package access

import (
	"fmt"
	"strings"

	"foodflow/internal/models"
)

// Role is a staff group that gates workflow operations
type Role string

const (
	RoleWaiter    Role = "waiter"
	RoleKitchen   Role = "kitchen"
	RoleCashier   Role = "cashier"
	RoleSuperuser Role = "superuser"
)

// ParseRole maps a group name to a role
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleWaiter:
		return RoleWaiter, true
	case RoleKitchen:
		return RoleKitchen, true
	case RoleCashier:
		return RoleCashier, true
	case RoleSuperuser:
		return RoleSuperuser, true
	}
	return "", false
}

// Caller is the authenticated identity invoking a workflow operation
type Caller struct {
	UserID    *int64
	Username  string
	Roles     []Role
	Superuser bool
}

// Authenticated reports whether the caller carries an identity at all
func (c Caller) Authenticated() bool {
	return c.Username != "" || c.UserID != nil
}

// Name returns a label for status logs and events
func (c Caller) Name() string {
	if c.Username != "" {
		return c.Username
	}
	if c.UserID != nil {
		return fmt.Sprintf("user:%d", *c.UserID)
	}
	return "anonymous"
}

// Allowed reports whether caller may invoke an operation requiring role.
// Superusers pass every check; RoleSuperuser is held only by superusers.
func Allowed(caller Caller, required Role) bool {
	if !caller.Authenticated() {
		return false
	}
	if caller.Superuser {
		return true
	}
	if required == RoleSuperuser {
		return false
	}
	for _, r := range caller.Roles {
		if r == required {
			return true
		}
	}
	return false
}

// Require returns models.ErrUnauthorized when caller lacks role. The error
// carries no information about the target of the call.
func Require(caller Caller, required Role) error {
	if !Allowed(caller, required) {
		return fmt.Errorf("%s role required: %w", required, models.ErrUnauthorized)
	}
	return nil
}

// RequireStaff accepts any authenticated caller holding at least one role
func RequireStaff(caller Caller) error {
	if caller.Authenticated() && (caller.Superuser || len(caller.Roles) > 0) {
		return nil
	}
	return fmt.Errorf("staff role required: %w", models.ErrUnauthorized)
}
