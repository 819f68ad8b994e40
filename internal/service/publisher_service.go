package service

import (
	"context"
	"encoding/json"
	"fmt"

	"prd-builder-be/internal/pkg/logger"
	"prd-builder-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventForwarder ships events outside the process (NATS JetStream in production).
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	forwarder EventForwarder
	logger    logger.ILogger
}

// NewPublisherService publishes on the in-process topic and, when forwarder is
// non-nil, to the external bus as well. A forwarding failure is logged only.
func NewPublisherService(topicName string, publisher message.Publisher, forwarder EventForwarder, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		forwarder: forwarder,
		logger:    log,
	}
}

func (s *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.EventType(), err)
	}

	if s.forwarder != nil {
		if err := s.forwarder.Publish(ctx, event); err != nil {
			s.logger.Warn("PublisherService", "Failed to forward event", map[string]interface{}{
				"event_type": event.EventType(),
				"error":      err.Error(),
			})
		}
	}
	return nil
}
