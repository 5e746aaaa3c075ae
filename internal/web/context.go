package web

import (
	"net"
	"net/http"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
)

// requestMetadata copies the client address and User-Agent into the
// context so audit entries can record them. It runs after TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), clientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actor returns the signed-in user. Routes behind Authenticate always
// have one.
func actor(r *http.Request) core.Actor {
	a, _ := core.ActorFromContext(r.Context())
	return a
}

// clientIP is RemoteAddr without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
