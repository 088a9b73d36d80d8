package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/gorm"
)

// BootstrapService grants the first administrator. It refuses once any admin
// exists, and calls are serialised so two concurrent requests cannot both
// pass the check.
type BootstrapService struct {
	users    *repository.UserRepository
	identity identity.Provider
	key      string
	mu       sync.Mutex
}

// NewBootstrapService with an empty key disables the endpoint.
func NewBootstrapService(users *repository.UserRepository, idp identity.Provider, key string) *BootstrapService {
	return &BootstrapService{users: users, identity: idp, key: key}
}

func (s *BootstrapService) CreateInitialAdmin(ctx context.Context, key, email string) (string, error) {
	if s.key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.key)) != 1 {
		return "", forbidden("invalid bootstrap key")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.users.ExistsWithRole(ctx, entity.RoleAdmin)
	if err != nil {
		return "", backend("failed to check for administrators", err)
	}
	if exists {
		return "", invalid("an administrator already exists")
	}

	uid, err := s.identity.LookupUIDByEmail(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return "", notFound("no account with email " + email)
	}
	if err != nil {
		return "", backend("failed to look up account", err)
	}

	if err := s.identity.SetRole(ctx, uid, entity.RoleAdmin); err != nil {
		return "", backend("failed to set admin claims", err)
	}

	// the account may predate its users row when it was created directly
	// in the identity provider
	err = s.users.UpdateRole(ctx, uid, entity.RoleAdmin)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.users.Create(ctx, &entity.User{
			Model: entity.Model{ID: uid},
			Email: email,
			Role:  entity.RoleAdmin,
		})
	}
	if err != nil {
		return "", backend("failed to store admin role", err)
	}
	metrics.RoleChanged(string(entity.RoleAdmin))

	logging.Ctx(ctx).Warn().Str("user_id", uid).Str("email", email).Msg("initial administrator created")
	return fmt.Sprintf("User %s is now an administrator", email), nil
}
