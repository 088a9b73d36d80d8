package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
)

func startBus(t *testing.T, handlers map[string]Handler) *Bus {
	t.Helper()
	bus, err := NewBus(nil)
	require.NoError(t, err)
	for name, h := range handlers {
		bus.OnRestaurantModerated(name, h)
	}

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
		t.Fatal("router did not start")
	}
	return bus
}

func TestPublishDeliversBeforeReturning(t *testing.T) {
	var mu sync.Mutex
	var got []RestaurantModerated

	bus := startBus(t, map[string]Handler{
		"collect": func(_ context.Context, ev RestaurantModerated) error {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
			return nil
		},
	})

	ev := RestaurantModerated{
		RestaurantID:    "r1",
		RestaurantTitle: "Kafana",
		OwnerID:         "u1",
		ModeratorID:     "m1",
		PreviousStatus:  entity.ModerationPending,
		Status:          entity.ModerationApproved,
	}
	require.NoError(t, bus.PublishRestaurantModerated(context.Background(), ev))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RestaurantID)
	assert.Equal(t, entity.ModerationApproved, got[0].Status)
}

func TestHandlerErrorIsNotRedelivered(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	bus := startBus(t, map[string]Handler{
		"failing": func(context.Context, RestaurantModerated) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return errors.New("store down")
		},
	})

	require.NoError(t, bus.PublishRestaurantModerated(context.Background(), RestaurantModerated{RestaurantID: "r1"}))
	require.NoError(t, bus.PublishRestaurantModerated(context.Background(), RestaurantModerated{RestaurantID: "r2"}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestRequestIDTravelsWithEvent(t *testing.T) {
	seen := make(chan string, 1)
	bus := startBus(t, map[string]Handler{
		"trace": func(ctx context.Context, _ RestaurantModerated) error {
			seen <- logging.RequestIDFromContext(ctx)
			return nil
		},
	})

	ctx := logging.ContextWithRequestID(context.Background(), "req-42")
	require.NoError(t, bus.PublishRestaurantModerated(ctx, RestaurantModerated{RestaurantID: "r1"}))
	assert.Equal(t, "req-42", <-seen)
}

func TestStatusChanged(t *testing.T) {
	assert.True(t, RestaurantModerated{PreviousStatus: entity.ModerationPending, Status: entity.ModerationApproved}.StatusChanged())
	assert.True(t, RestaurantModerated{PreviousStatus: entity.ModerationPending, Status: entity.ModerationRejected}.StatusChanged())
	assert.False(t, RestaurantModerated{PreviousStatus: entity.ModerationPending, Status: entity.ModerationPending}.StatusChanged())
	assert.False(t, RestaurantModerated{PreviousStatus: entity.ModerationApproved, Status: entity.ModerationApproved}.StatusChanged())
}
