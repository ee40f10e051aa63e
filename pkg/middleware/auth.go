package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/madina/pkg/auth"
	"github.com/shashiranjanraj/madina/pkg/response"
)

// CookieName is the HTTP-only cookie the signed token travels in.
const CookieName = "token"

type identityKey struct{}

// Identity is the decoded token payload attached to the request context by
// the Auth middleware.
type Identity struct {
	UserID string
	Role   string
}

// PublicRule exempts a path (optionally a whole subtree) and method from
// authentication. An empty Method matches every method.
type PublicRule struct {
	Method string
	Path   string
	Prefix bool
}

func (p PublicRule) matches(r *http.Request) bool {
	if p.Method != "" && p.Method != r.Method {
		return false
	}
	if p.Prefix {
		return strings.HasPrefix(r.URL.Path, p.Path)
	}
	return r.URL.Path == p.Path
}

// Auth returns the authentication gate: it extracts the bearer token from
// the token cookie, verifies it, and attaches the decoded identity to the
// request context. Requests matching a public rule pass through untouched.
// Authentication always runs before any role check; the two are never merged.
func Auth(public ...PublicRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rule := range public {
				if rule.matches(r) {
					next.ServeHTTP(w, r)
					return
				}
			}

			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				response.Unauthorized(w)
				return
			}

			claims, err := auth.ValidateToken(cookie.Value)
			if err != nil {
				response.Unauthorized(w)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetAuthCookie writes the signed token as an HTTP-only cookie.
func SetAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithIdentity stores the decoded identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the authenticated identity, if any.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserIDFromCtx returns the authenticated subject id.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := IdentityFromCtx(ctx)
	return id.UserID, ok
}

// RoleFromCtx returns the authenticated role.
func RoleFromCtx(ctx context.Context) (string, bool) {
	id, ok := IdentityFromCtx(ctx)
	return id.Role, ok
}
