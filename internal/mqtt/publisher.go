package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

// Publisher publishes club events below a base topic.
type Publisher struct {
	client Client
	topic  string
}

// NewPublisher creates a Publisher. An empty base topic falls back to the default.
func NewPublisher(client Client, baseTopic string) *Publisher {
	baseTopic = strings.TrimRight(baseTopic, "/")
	if baseTopic == "" {
		baseTopic = defaultTopic
	}
	return &Publisher{client: client, topic: baseTopic}
}

// CatchTopic is the topic catch events go to.
func (p *Publisher) CatchTopic() string {
	return p.topic + "/catches"
}

// PublishCatch publishes a catch event, connecting first when needed.
func (p *Publisher) PublishCatch(ctx context.Context, event CatchEventDTO) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "marshal_catch_event").
			Build()
	}

	if !p.client.IsConnected() {
		if err := p.client.Connect(ctx); err != nil {
			return err
		}
	}

	if err := p.client.Publish(ctx, p.CatchTopic(), payload); err != nil {
		return err
	}
	getLogger().Info("catch event published",
		logger.Int("catch_id", int(event.CatchID)),
		logger.String("topic", p.CatchTopic()))
	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	p.client.Disconnect()
}
