package access

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodflow/internal/models"
)

func TestAllowed(t *testing.T) {
	waiter := Caller{Username: "ana", Roles: []Role{RoleWaiter}}
	cook := Caller{Username: "luis", Roles: []Role{RoleKitchen}}
	boss := Caller{Username: "root", Superuser: true}
	anonymous := Caller{Roles: []Role{RoleCashier}}

	tests := []struct {
		name     string
		caller   Caller
		required Role
		want     bool
	}{
		{"waiter creates orders", waiter, RoleWaiter, true},
		{"waiter cannot mark ready", waiter, RoleKitchen, false},
		{"kitchen marks ready", cook, RoleKitchen, true},
		{"kitchen cannot take payment", cook, RoleCashier, false},
		{"superuser overrides cashier", boss, RoleCashier, true},
		{"superuser administers", boss, RoleSuperuser, true},
		{"role holder is not superuser", waiter, RoleSuperuser, false},
		{"no identity is denied", anonymous, RoleCashier, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.caller, tt.required))
		})
	}
}

func TestRequire(t *testing.T) {
	err := Require(Caller{Username: "ana", Roles: []Role{RoleWaiter}}, RoleCashier)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.NoError(t, Require(Caller{Username: "ana", Roles: []Role{RoleWaiter}}, RoleWaiter))
}

func TestRequireStaff(t *testing.T) {
	assert.NoError(t, RequireStaff(Caller{Username: "ana", Roles: []Role{RoleKitchen}}))
	assert.NoError(t, RequireStaff(Caller{Username: "root", Superuser: true}))
	assert.ErrorIs(t, RequireStaff(Caller{Username: "guest"}), models.ErrUnauthorized)
}

func TestCallerFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderUserID, "7")
	r.Header.Set(HeaderUserName, "ana")
	r.Header.Set(HeaderUserRoles, "Waiter, cashier,dishwasher")

	caller := CallerFromRequest(r)
	require.NotNil(t, caller.UserID)
	assert.Equal(t, int64(7), *caller.UserID)
	assert.Equal(t, "ana", caller.Name())
	assert.Equal(t, []Role{RoleWaiter, RoleCashier}, caller.Roles)
	assert.False(t, caller.Superuser)
}

func TestCallerFromRequest_Superuser(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderUserName, "root")
	r.Header.Set(HeaderSuperuser, "true")

	caller := CallerFromRequest(r)
	assert.True(t, caller.Superuser)
	assert.True(t, Allowed(caller, RoleKitchen))

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderUserName, "root")
	r.Header.Set(HeaderUserRoles, "superuser")
	assert.True(t, CallerFromRequest(r).Superuser)
}

func TestCallerFromRequest_NoIdentity(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderUserID, "not-a-number")

	caller := CallerFromRequest(r)
	assert.False(t, caller.Authenticated())
	assert.Equal(t, "anonymous", caller.Name())
}
