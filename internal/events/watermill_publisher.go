package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	metadataEventType = "event_type"
	metadataUserID    = "user_id"
)

// WatermillPublisher sends events to a watermill publisher, one topic per
// event type
type WatermillPublisher struct {
	publisher   message.Publisher
	topicPrefix string
	logger      *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, topicPrefix string, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher:   publisher,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// NewKafkaEventPublisher publishes to Kafka. Messages are keyed by user id so a
// user's events keep their order within a partition.
func NewKafkaEventPublisher(brokers []string, topicPrefix string, logger *slog.Logger) (*WatermillPublisher, error) {
	marshaler := kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(metadataUserID), nil
	})

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: marshaler,
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return NewWatermillPublisher(publisher, topicPrefix, logger), nil
}

// NewInMemoryEventPublisher publishes on an in-process channel; used when no
// brokers are configured
func NewInMemoryEventPublisher(topicPrefix string, logger *slog.Logger) (*WatermillPublisher, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return NewWatermillPublisher(pubSub, topicPrefix, logger), pubSub
}

// Topic is the topic an event type is published on
func (p *WatermillPublisher) Topic(eventType string) string {
	return p.topicPrefix + eventType
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(metadataEventType, event.Type)
	msg.Metadata.Set(metadataUserID, event.UserID)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.Topic(event.Type), msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "type", event.Type, "user_id", event.UserID)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
