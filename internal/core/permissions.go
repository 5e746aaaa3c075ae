package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

var (
	// ErrUnknownFeature means a group grants a feature that does not exist.
	ErrUnknownFeature = errors.New("unknown permission feature")

	// ErrUnknownGroup means a membership names a group that does not exist.
	ErrUnknownGroup = errors.New("unknown permission group")
)

// ListPermissionGroups returns all groups ordered by name.
func (s *Service) ListPermissionGroups(ctx context.Context) ([]model.PermissionGroup, error) {
	return cached(s.cache, entityPermissions, "groups", func() ([]model.PermissionGroup, error) {
		return s.store.ListPermissionGroups(ctx)
	})
}

// CreatePermissionGroup stores a new group. Empty grants are dropped.
func (s *Service) CreatePermissionGroup(ctx context.Context, g model.PermissionGroup) (model.PermissionGroup, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Description = strings.TrimSpace(g.Description)
	if err := s.validate.StructCtx(ctx, g); err != nil {
		return model.PermissionGroup{}, err
	}

	grants := make(map[model.Feature]model.Grant, len(g.Grants))
	for f, gr := range g.Grants {
		if !f.Valid() {
			return model.PermissionGroup{}, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
		}
		if !gr.Empty() {
			grants[f] = gr
		}
	}
	g.Grants = grants
	g.ID = uuid.New()
	g.CreatedAt = s.now()

	if err := s.store.InsertPermissionGroup(ctx, g); err != nil {
		return model.PermissionGroup{}, fmt.Errorf("insert permission group: %w", err)
	}
	s.cache.invalidate(entityPermissions)
	s.LogAudit(ctx, AuditLogParams{Action: ActionGroupCreate, Entity: entityPermissions, EntityID: g.ID.String(), RowsAffected: 1, Detail: g.Name})
	return g, nil
}

// UserGroups returns the ids of the groups a user belongs to.
func (s *Service) UserGroups(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.store.ListUserPermissionGroups(ctx, &userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.GroupID
	}
	return ids, nil
}

// ReplaceUserGroups sets a user's memberships to exactly groupIDs: all
// existing rows are deleted, then the new set is inserted, in one
// transaction. An empty list leaves the user with no groups.
func (s *Service) ReplaceUserGroups(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}
	groups, err := s.store.ListPermissionGroups(ctx)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(groups))
	for _, g := range groups {
		known[g.ID] = true
	}

	seen := make(map[uuid.UUID]bool, len(groupIDs))
	rows := make([]model.UserPermissionGroup, 0, len(groupIDs))
	for _, id := range groupIDs {
		if !known[id] {
			return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, model.UserPermissionGroup{UserID: userID, GroupID: id})
	}

	err = s.store.InTx(ctx, func(tx Store) error {
		if err := tx.DeleteUserPermissionGroups(ctx, userID); err != nil {
			return fmt.Errorf("clear memberships: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.InsertUserPermissionGroups(ctx, rows); err != nil {
			return fmt.Errorf("insert memberships: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(entityPermissions)
	s.LogAudit(ctx, AuditLogParams{Action: ActionGroupsReplace, Entity: entityPermissions, EntityID: userID.String(), RowsAffected: len(rows)})
	return nil
}

// PermissionMatrix evaluates every membership against group grants.
func (s *Service) PermissionMatrix(ctx context.Context) (model.PermissionMatrix, error) {
	groups, err := s.ListPermissionGroups(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.store.ListUserPermissionGroups(ctx, nil)
	if err != nil {
		return nil, err
	}
	return model.BuildPermissionMatrix(groups, memberships), nil
}

// EffectivePermissions returns the union of grants for one user.
func (s *Service) EffectivePermissions(ctx context.Context, userID uuid.UUID) (map[model.Feature]model.Grant, error) {
	groups, err := s.ListPermissionGroups(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.store.ListUserPermissionGroups(ctx, &userID)
	if err != nil {
		return nil, err
	}
	grants := model.BuildPermissionMatrix(groups, memberships)[userID]
	if grants == nil {
		grants = map[model.Feature]model.Grant{}
	}
	return grants, nil
}
