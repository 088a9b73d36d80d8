package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Local keeps accounts in the users table and signs HS256 tokens. Custom
// claims live in users.claims, so a role change reaches the token on the next
// login, the same way Firebase claims reach a refreshed ID token.
type Local struct {
	users  *repository.UserRepository
	secret string
	ttl    time.Duration
}

func NewLocal(users *repository.UserRepository, secret string, ttl time.Duration) *Local {
	return &Local{users: users, secret: secret, ttl: ttl}
}

func (l *Local) VerifyToken(ctx context.Context, token string) (*Principal, error) {
	claims, err := utils.ParseToken(token, l.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{UID: claims.UserID, Role: entity.Role(claims.Role)}, nil
}

func (l *Local) SetRole(ctx context.Context, uid string, role entity.Role) error {
	err := l.users.UpdateClaims(ctx, uid, datatypes.JSONMap{"role": string(role)})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (l *Local) LookupUIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := l.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// IssueToken signs a token for u. The role claim comes from the mirrored
// custom claims when present.
func (l *Local) IssueToken(u *entity.User) (string, error) {
	role := string(u.Role)
	if v, ok := u.Claims["role"].(string); ok && v != "" {
		role = v
	}
	return utils.GenerateToken(u.ID, role, l.secret, l.ttl)
}
