package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/gorm"
)

// RoleService assigns roles on behalf of administrators. Assignments are not
// audited.
type RoleService struct {
	users    *repository.UserRepository
	identity identity.Provider
	enforcer *authz.Enforcer
}

func NewRoleService(users *repository.UserRepository, idp identity.Provider, enforcer *authz.Enforcer) *RoleService {
	return &RoleService{users: users, identity: idp, enforcer: enforcer}
}

func (s *RoleService) requireAdmin(ctx context.Context, callerID, act string) error {
	if callerID == "" {
		return unauthenticated("authentication required")
	}
	caller, err := s.users.FindByID(ctx, callerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return forbidden("only administrators can manage user roles")
	}
	if err != nil {
		return backend("failed to load caller", err)
	}
	if !s.enforcer.Allowed(caller.Role, authz.ObjUsers, act) {
		return forbidden("only administrators can manage user roles")
	}
	return nil
}

// SetUserRole stores newRole on the target user and mirrors it into the
// identity claims.
func (s *RoleService) SetUserRole(ctx context.Context, callerID, userID string, newRole entity.Role) (string, error) {
	if err := s.requireAdmin(ctx, callerID, authz.ActAssignRole); err != nil {
		return "", err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" || newRole == "" {
		return "", invalid("userId and newRole are required")
	}
	if !newRole.Assignable() {
		return "", invalid("newRole must be one of registered, owner, moderator, admin")
	}

	log := logging.Ctx(ctx).With().Str("caller_id", callerID).Str("user_id", userID).Str("role", string(newRole)).Logger()

	if err := s.users.UpdateRole(ctx, userID, newRole); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFound("user not found")
		}
		log.Error().Err(err).Msg("role update failed")
		return "", backend("failed to change user role", err)
	}
	if err := s.identity.SetRole(ctx, userID, newRole); err != nil {
		log.Error().Err(err).Msg("claims mirror failed")
		return "", backend("failed to change user role", err)
	}
	metrics.RoleChanged(string(newRole))

	log.Info().Msg("user role changed")
	return fmt.Sprintf("Role %s assigned to user %s", newRole, userID), nil
}

func (s *RoleService) ListUsers(ctx context.Context, callerID string, role entity.Role, page Page) ([]entity.User, error) {
	if err := s.requireAdmin(ctx, callerID, authz.ActList); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, invalid("unknown role")
	}
	page = page.Normalize()
	users, err := s.users.ListByRole(ctx, role, page.Limit, page.Offset)
	if err != nil {
		return nil, backend("failed to load users", err)
	}
	return users, nil
}
