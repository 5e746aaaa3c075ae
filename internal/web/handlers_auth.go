package web

import (
	"net/http"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
	mw "github.com/nguyenhongdanhg/noitruxinman-sub001/internal/web/middleware"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// handleLogin accepts an email, username or phone number plus password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	sess, err := s.authn.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// meResponse tells the client who is signed in and what the UI may offer.
type meResponse struct {
	User         model.User                    `json:"user"`
	RoleLabels   []string                      `json:"role_labels"`
	Capabilities map[string]bool               `json:"capabilities"`
	Permissions  map[model.Feature]model.Grant `json:"permissions"`
}

func capabilities(rs roles.Set) map[string]bool {
	return map[string]bool{
		"report_meals":    roles.CanReportMeals(rs),
		"view_meal_stats": roles.CanViewMealStats(rs),
		"take_attendance": roles.CanTakeAttendance(rs),
		"manage_users":    roles.CanManageUsers(rs),
		"manage_duty":     roles.CanManageDuty(rs),
		"manage_students": roles.CanManageStudents(rs),
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	u, err := s.service.GetUser(r.Context(), a.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	perms, err := s.service.EffectivePermissions(r.Context(), a.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, meResponse{
		User:         u,
		RoleLabels:   u.Roles.Labels(),
		Capabilities: capabilities(u.Roles),
		Permissions:  perms,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	})
}
