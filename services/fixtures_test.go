package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/events"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/testdb"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"
)

// fakeIdentity records claim writes and can be told to fail.
type fakeIdentity struct {
	mu        sync.Mutex
	claims    map[string]entity.Role
	accounts  map[string]string // email -> uid
	setErr    error
	lookupErr error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{claims: map[string]entity.Role{}, accounts: map[string]string{}}
}

func (f *fakeIdentity) VerifyToken(context.Context, string) (*identity.Principal, error) {
	return nil, identity.ErrInvalidToken
}

func (f *fakeIdentity) SetRole(_ context.Context, uid string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.claims[uid] = role
	return nil
}

func (f *fakeIdentity) LookupUIDByEmail(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	uid, ok := f.accounts[email]
	if !ok {
		return "", identity.ErrUserNotFound
	}
	return uid, nil
}

func (f *fakeIdentity) claim(uid string) entity.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[uid]
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[string]int
}

func (p *recordingPusher) Push(userID string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = map[string]int{}
	}
	p.pushed[userID]++
}

func (p *recordingPusher) count(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushed[userID]
}

type testEnv struct {
	db            *gorm.DB
	users         *repository.UserRepository
	restaurants   *repository.RestaurantRepository
	reviews       *repository.ReviewRepository
	likes         *repository.LikeRepository
	notifications *repository.NotificationRepository
	actions       *repository.ModerationRepository
	idp           *fakeIdentity
	enforcer      *authz.Enforcer
	pusher        *recordingPusher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testdb.Open(t)
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	return &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		restaurants:   repository.NewRestaurantRepository(db),
		reviews:       repository.NewReviewRepository(db),
		likes:         repository.NewLikeRepository(db),
		notifications: repository.NewNotificationRepository(db),
		actions:       repository.NewModerationRepository(db),
		idp:           newFakeIdentity(),
		enforcer:      enforcer,
		pusher:        &recordingPusher{},
	}
}

func (e *testEnv) user(t *testing.T, email string, role entity.Role) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, DisplayName: email, Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) restaurant(t *testing.T, title, ownerID string, status entity.ModerationStatus) *entity.Restaurant {
	t.Helper()
	r := &entity.Restaurant{
		Title:      title,
		OwnerID:    ownerID,
		PriceRange: entity.PriceModerate,
		Address:    entity.Address{City: "Podgorica"},
		Moderation: entity.Moderation{Status: status},
	}
	require.NoError(t, e.restaurants.Create(context.Background(), r))
	return r
}

// bus starts an event bus wired to the push handler, the way main does.
func (e *testEnv) bus(t *testing.T) *events.Bus {
	t.Helper()
	bus, err := events.NewBus(nil)
	require.NoError(t, err)
	notifications := NewNotificationService(e.notifications, e.pusher)
	bus.OnRestaurantModerated("push-owner", notifications.PushRestaurantModerated)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = bus.Close()
	})
	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("event bus did not start")
	}
	return bus
}

func (e *testEnv) moderation(t *testing.T) *ModerationService {
	t.Helper()
	notifications := NewNotificationService(e.notifications, e.pusher)
	return NewModerationService(e.users, e.restaurants, e.actions, e.idp, e.enforcer, notifications, e.bus(t))
}

func (e *testEnv) notificationsFor(t *testing.T, userID string) []entity.Notification {
	t.Helper()
	items, err := e.notifications.ListByUser(context.Background(), userID, false, 100, 0)
	require.NoError(t, err)
	return items
}

func (e *testEnv) reload(t *testing.T, id string) *entity.Restaurant {
	t.Helper()
	r, err := e.restaurants.FindByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (e *testEnv) roleOf(t *testing.T, id string) entity.Role {
	t.Helper()
	u, err := e.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u.Role
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
