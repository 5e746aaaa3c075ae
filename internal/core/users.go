package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

var (
	// ErrNoRoles means a new user was given no role.
	ErrNoRoles = errors.New("user must have at least one role")
	// ErrMissingField means a required user field is empty.
	ErrMissingField = errors.New("required field missing")
)

// rolesOnDuty are the roles whose holders appear on the duty roster.
var rolesOnDuty = []roles.Role{roles.Teacher, roles.ClassTeacher}

// ListUsers returns all users ordered by full name.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return cached(s.cache, entityUsers, "all", func() ([]model.User, error) {
		users, err := s.store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
		return users, nil
	})
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return s.store.GetUser(ctx, id)
}

// CreateUser stores a user whose password has already been hashed.
func (s *Service) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.FullName = strings.Join(strings.Fields(u.FullName), " ")
	u.Username = strings.TrimSpace(u.Username)
	u.Phone = strings.TrimSpace(u.Phone)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.ClassID = model.NormalizeClassID(u.ClassID)
	if u.FullName == "" || u.Email == "" || u.PasswordHash == "" {
		return model.User{}, fmt.Errorf("%w: full_name, email and password", ErrMissingField)
	}
	if len(u.Roles) == 0 {
		return model.User{}, ErrNoRoles
	}
	u.ID = uuid.New()
	u.CreatedAt = s.now()

	if err := s.store.InsertUser(ctx, u); err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	s.cache.invalidate(entityUsers)
	s.LogAudit(ctx, AuditLogParams{Action: ActionUserCreate, Entity: entityUsers, EntityID: u.ID.String(), RowsAffected: 1})
	return u, nil
}

// UsersExport is everything the users workbook needs.
type UsersExport struct {
	Users  []model.User
	Matrix model.PermissionMatrix
}

// UsersForExport loads users together with their effective permissions.
func (s *Service) UsersForExport(ctx context.Context) (*UsersExport, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	matrix, err := s.PermissionMatrix(ctx)
	if err != nil {
		return nil, err
	}
	return &UsersExport{Users: users, Matrix: matrix}, nil
}
