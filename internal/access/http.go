package access

import (
	"net/http"
	"strconv"
	"strings"
)

// Identity headers set by the upstream authentication proxy
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserRoles = "X-User-Roles"
	HeaderSuperuser = "X-User-Superuser"
)

// CallerFromRequest builds the caller from the identity headers. Unknown
// role names are ignored. A request without identity yields a caller for
// which Authenticated is false.
func CallerFromRequest(r *http.Request) Caller {
	var caller Caller

	if raw := strings.TrimSpace(r.Header.Get(HeaderUserID)); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			caller.UserID = &id
		}
	}
	caller.Username = strings.TrimSpace(r.Header.Get(HeaderUserName))

	for _, part := range strings.Split(r.Header.Get(HeaderUserRoles), ",") {
		if role, ok := ParseRole(part); ok {
			if role == RoleSuperuser {
				caller.Superuser = true
				continue
			}
			caller.Roles = append(caller.Roles, role)
		}
	}

	if v, err := strconv.ParseBool(r.Header.Get(HeaderSuperuser)); err == nil && v {
		caller.Superuser = true
	}

	return caller
}
