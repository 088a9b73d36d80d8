package identity

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/sony/gobreaker/v2"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
)

// Firebase uses the Admin SDK. Credentials come from the environment
// (GOOGLE_APPLICATION_CREDENTIALS or the metadata server).
type Firebase struct {
	client  *auth.Client
	breaker *gobreaker.CircuitBreaker[any]
}

func NewFirebase(ctx context.Context, projectID string) (*Firebase, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "firebase-auth",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// a missing account is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || auth.IsUserNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Firebase{client: client, breaker: breaker}, nil
}

func (f *Firebase) VerifyToken(ctx context.Context, token string) (*Principal, error) {
	tok, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	p := &Principal{UID: tok.UID}
	if v, ok := tok.Claims["email"].(string); ok {
		p.Email = v
	}
	if v, ok := tok.Claims["role"].(string); ok {
		p.Role = entity.Role(v)
	}
	return p, nil
}

func (f *Firebase) SetRole(ctx context.Context, uid string, role entity.Role) error {
	_, err := f.breaker.Execute(func() (any, error) {
		return nil, f.client.SetCustomUserClaims(ctx, uid, map[string]any{"role": string(role)})
	})
	if auth.IsUserNotFound(err) {
		return ErrUserNotFound
	}
	return err
}

func (f *Firebase) LookupUIDByEmail(ctx context.Context, email string) (string, error) {
	rec, err := f.breaker.Execute(func() (any, error) {
		return f.client.GetUserByEmail(ctx, email)
	})
	if auth.IsUserNotFound(err) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return rec.(*auth.UserRecord).UID, nil
}
