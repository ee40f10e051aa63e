// Package rbac provides declarative role-based access control.
//
// Roles are a closed enum rather than free-form strings; routes declare the
// roles they accept at registration time:
//
//	api.Post("/products", "products.create", h.Create, rbac.Require(rbac.RoleVendor))
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/madina/pkg/middleware"
	"github.com/shashiranjanraj/madina/pkg/response"
)

// Role is an account capability tag carried in the JWT.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleVendor   Role = "vendor"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleVendor, RoleDelivery, RoleAdmin:
		return true
	}
	return false
}

// Parse maps a raw string to a Role, falling back to consumer for anything
// unknown so self-registration can never mint a privileged role.
func Parse(s string) Role {
	r := Role(s)
	if !r.Valid() || r == RoleAdmin {
		return RoleConsumer
	}
	return r
}

// Require returns middleware that admits only identities holding one of the
// given roles. The authentication middleware must have run first so the role
// is present in the request context.
func Require(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r.Context())
			if !ok || !allowed[Role(role)] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
