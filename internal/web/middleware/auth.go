package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/auth"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/logging"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "noitru_session"

var (
	ErrUnauthorized = errors.New("unauthorized: missing session token")
	ErrForbidden    = errors.New("forbidden: role does not allow this action")
)

// ErrorFunc writes an error response. The web server supplies its own so
// that middleware failures render like handler failures.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error, status int)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid session token and puts
// the signed-in user on the request context.
func Authenticate(v TokenVerifier, fail ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				fail(w, r, ErrUnauthorized, http.StatusUnauthorized)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				fail(w, r, err, http.StatusUnauthorized)
				return
			}
			actor, err := claims.Actor()
			if err != nil {
				fail(w, r, err, http.StatusUnauthorized)
				return
			}

			ctx := core.ContextWithActor(r.Context(), actor)
			ctx = logging.ContextWithUser(ctx, actor.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require lets the request through only when the signed-in user's roles
// satisfy check. It must run after Authenticate.
func Require(check func(roles.Set) bool, fail ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := core.ActorFromContext(r.Context())
			if !ok {
				fail(w, r, ErrUnauthorized, http.StatusUnauthorized)
				return
			}
			if !check(actor.Roles) {
				logging.FromContext(r.Context()).Warn("auth: capability denied",
					"path", r.URL.Path,
					"roles", actor.Roles.Strings(),
				)
				fail(w, r, ErrForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reads the Authorization header, then the session cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
