// Package web serves the JSON API of the boarding-school app.
//
// Every /api route except login sits behind session authentication, and
// write routes are further gated by the role capability predicates in
// package roles.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/auth"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/config"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
	mw "github.com/nguyenhongdanhg/noitruxinman-sub001/internal/web/middleware"
)

// Server is the HTTP server.
type Server struct {
	service *core.Service
	authn   *auth.Authenticator
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	now     func() time.Time

	limiters []*rateLimiter
}

// NewServer wires the router. cfg supplies server, security, rate and
// import settings.
func NewServer(service *core.Service, authn *auth.Authenticator, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		authn:   authn,
		cfg:     cfg,
		router:  chi.NewRouter(),
		now:     time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(requestMetadata)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.limit(s.newLimiter(s.cfg.Rate.RequestsPerMinute)))
	}
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	requireAuth := mw.Authenticate(s.authn.Issuer(), s.respondError)
	can := func(check func(roles.Set) bool) func(http.Handler) http.Handler {
		return mw.Require(check, s.respondError)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.limit(s.newLimiter(s.cfg.Rate.LoginPerMinute)))
			}
			r.Post("/auth/login", s.handleLogin)
		})
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", s.handleMe)

			r.Route("/students", func(r chi.Router) {
				r.Get("/", s.handleListStudents)
				r.Get("/{id}", s.handleGetStudent)
				r.Group(func(r chi.Router) {
					r.Use(can(roles.CanManageStudents))
					r.Post("/", s.handleCreateStudent)
					r.Post("/import", s.handleImportRoster)
					r.Put("/{id}", s.handleUpdateStudent)
					r.Delete("/{id}", s.handleDeleteStudent)
				})
			})

			r.Route("/duty", func(r chi.Router) {
				r.Get("/", s.handleListDuty)
				r.Get("/calendar", s.handleDutyCalendar)
				r.Group(func(r chi.Router) {
					r.Use(can(roles.CanManageDuty))
					r.Get("/template", s.handleDutyTemplate)
					r.Post("/import", s.handleImportDuty)
					r.Post("/import/preview", s.handlePreviewDuty)
					r.Post("/", s.handleCreateDuty)
					r.Put("/{id}", s.handleUpdateDuty)
					r.Delete("/{id}", s.handleDeleteDuty)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", s.handleListReports)
				r.Post("/", s.handleCreateReport)
				r.Get("/{id}", s.handleGetReport)
				r.With(can(roles.CanManageUsers)).Delete("/{id}", s.handleDeleteReport)
			})
			r.With(can(roles.CanViewMealStats)).Get("/meals/stats", s.handleMealStats)

			r.Group(func(r chi.Router) {
				r.Use(can(roles.CanManageUsers))
				r.Get("/permission-groups", s.handleListGroups)
				r.Post("/permission-groups", s.handleCreateGroup)
				r.Get("/users", s.handleListUsers)
				r.Post("/users", s.handleCreateUser)
				r.Get("/users/export", s.handleExportUsers)
				r.Get("/users/{id}/groups", s.handleUserGroups)
				r.Put("/users/{id}/groups", s.handleReplaceUserGroups)
				r.Get("/audit-log", s.handleAuditLog)
			})
		})
	})
}

// Start listens until Shutdown. The rate limiter sweepers stop with ctx.
func (s *Server) Start(ctx context.Context) error {
	for _, rl := range s.limiters {
		go rl.sweep(ctx)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders sets the hardening headers on every response.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
