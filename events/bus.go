package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
)

const metaRequestID = "request_id"

// Handler reacts to a moderation decision. A returned error is logged and the
// message is acknowledged anyway: side effects are never retried.
type Handler func(ctx context.Context, ev RestaurantModerated) error

// Bus publishes moderation events and dispatches them to handlers.
// Publish blocks until every subscribed handler has finished, so callers see
// the side effects of their own decision.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter
}

func NewBus(logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	return &Bus{pubsub: pubsub, router: router, logger: logger}, nil
}

// OnRestaurantModerated registers h under name. Must be called before Serve.
func (b *Bus) OnRestaurantModerated(name string, h Handler) {
	b.router.AddConsumerHandler(name, TopicRestaurantModerated, b.pubsub, func(msg *message.Message) error {
		var ev RestaurantModerated
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			b.logger.Error("drop undecodable event", err, watermill.LogFields{"message_uuid": msg.UUID})
			return nil
		}

		ctx := msg.Context()
		if id := msg.Metadata.Get(metaRequestID); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		if err := h(ctx, ev); err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("handler", name).
				Str("restaurant_id", ev.RestaurantID).
				Msg("moderation side effect failed")
		}
		return nil
	})
}

func (b *Bus) PublishRestaurantModerated(ctx context.Context, ev RestaurantModerated) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metaRequestID, id)
	}
	return b.pubsub.Publish(TopicRestaurantModerated, msg)
}

// Serve runs the router until ctx is cancelled. It implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once handlers are subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubsub.Close()
}
