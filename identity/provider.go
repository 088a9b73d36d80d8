// Package identity abstracts the authentication service: token verification,
// custom role claims and account lookup by email.
package identity

import (
	"context"
	"errors"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
)

var (
	ErrInvalidToken = errors.New("identity: invalid token")
	ErrUserNotFound = errors.New("identity: user not found")
)

// Principal is the verified caller behind a bearer token.
type Principal struct {
	UID   string
	Email string
	// Role as carried in the token claims; may lag behind the stored role
	// until the token is refreshed.
	Role entity.Role
}

type Provider interface {
	VerifyToken(ctx context.Context, token string) (*Principal, error)
	// SetRole mirrors a role into the account's custom claims.
	SetRole(ctx context.Context, uid string, role entity.Role) error
	LookupUIDByEmail(ctx context.Context, email string) (string, error)
}
