package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Username    string
	City        string
}

// ProfilePatch holds the self-editable profile fields.
type ProfilePatch struct {
	DisplayName *string
	Username    *string
	City        *string
	AvatarURL   *string
}

// AuthService handles password sign-up and sign-in against the local
// provider, and profile reads for both providers.
type AuthService struct {
	userRepo *repository.UserRepository
	local    *identity.Local
}

// NewAuthService accepts a nil local provider; password sign-in is then
// disabled.
func NewAuthService(repo *repository.UserRepository, local *identity.Local) *AuthService {
	return &AuthService{userRepo: repo, local: local}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if s.local == nil {
		return nil, forbidden("password sign-up is disabled")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || len(in.Password) < 6 {
		return nil, invalid("email and a password of at least 6 characters are required")
	}

	count, err := s.userRepo.CountByEmail(ctx, email)
	if err != nil {
		return nil, backend("failed to register", err)
	}
	if count > 0 {
		return nil, conflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, backend("failed to register", err)
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Username:     strings.TrimSpace(in.Username),
		City:         strings.TrimSpace(in.City),
		Role:         entity.RoleRegistered,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, backend("failed to register", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	if s.local == nil {
		return "", nil, forbidden("password sign-in is disabled")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, unauthenticated("invalid credentials")
	}
	if err != nil {
		return "", nil, backend("failed to sign in", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, unauthenticated("invalid credentials")
	}

	token, err := s.local.IssueToken(user)
	if err != nil {
		return "", nil, backend("cannot generate token", err)
	}
	return token, user, nil
}

// Me returns the caller's profile. On the first request of an account that
// exists only in the identity provider the users row is created with role
// registered.
func (s *AuthService) Me(ctx context.Context, p *identity.Principal) (*entity.User, error) {
	if p == nil || p.UID == "" {
		return nil, unauthenticated("authentication required")
	}
	user, err := s.userRepo.FindByID(ctx, p.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, backend("failed to load profile", err)
	}
	if p.Email == "" {
		return nil, notFound("user not found")
	}

	user = &entity.User{
		Model: entity.Model{ID: p.UID},
		Email: strings.ToLower(p.Email),
		Role:  entity.RoleRegistered,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, backend("failed to create profile", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("profile created on first sign-in")
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, p ProfilePatch) (*entity.User, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}
	updates := map[string]any{}
	if p.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*p.DisplayName)
	}
	if p.Username != nil {
		updates["username"] = strings.TrimSpace(*p.Username)
	}
	if p.City != nil {
		updates["city"] = strings.TrimSpace(*p.City)
	}
	if p.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*p.AvatarURL)
	}
	if len(updates) > 0 {
		if err := s.userRepo.Update(ctx, userID, updates); err != nil {
			return nil, backend("failed to update profile", err)
		}
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}
