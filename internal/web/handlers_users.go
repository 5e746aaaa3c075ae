package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/auth"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/exporter"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, users)
}

type createUserRequest struct {
	FullName string   `json:"full_name"`
	Username string   `json:"username"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
	ClassID  string   `json:"class_id"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	set := make(roles.Set, len(req.Roles))
	for _, tag := range req.Roles {
		role, err := roles.Parse(tag)
		if err != nil {
			s.fail(w, r, badRequest("%v", err))
			return
		}
		set[role] = struct{}{}
	}

	var hash string
	if req.Password != "" {
		h, err := auth.HashPassword(req.Password)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		hash = h
	}

	u, err := s.service.CreateUser(r.Context(), model.User{
		FullName:     req.FullName,
		Username:     req.Username,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        set,
		ClassID:      req.ClassID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, u)
}

// handleExportUsers downloads the users workbook.
func (s *Server) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.UsersForExport(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := exporter.UsersWorkbook(data.Users, data.Matrix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attachment(w, xlsxContentType, exporter.UsersFilename(s.now()), body)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.service.ListPermissionGroups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var in model.PermissionGroup
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.service.CreatePermissionGroup(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, g)
}

type userGroupsBody struct {
	GroupIDs []uuid.UUID `json:"group_ids"`
}

func (s *Server) handleUserGroups(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ids, err := s.service.UserGroups(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	writeJSON(w, userGroupsBody{GroupIDs: ids})
}

// handleReplaceUserGroups sets the user's memberships to exactly the given
// groups. An empty list removes every membership.
func (s *Server) handleReplaceUserGroups(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body userGroupsBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.ReplaceUserGroups(r.Context(), id, body.GroupIDs); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, body)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		if since, err = time.Parse(time.RFC3339, raw); err != nil {
			s.fail(w, r, badRequest("since phải có dạng RFC3339"))
			return
		}
	}
	entries, err := s.service.AuditLog(r.Context(), core.AuditFilter{
		Action: core.AuditAction(r.URL.Query().Get("action")),
		Since:  since,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, entries)
}
