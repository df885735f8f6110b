package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher sends lobby broadcasts to a Redis channel (implements service.Broadcaster)
type Publisher struct {
	client *redis.Client
	topic  string
}

// NewPublisher creates a new event publisher
func NewPublisher(client *redis.Client, topic string) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
	}
}

func (p *Publisher) Broadcast(ctx context.Context, message string) error {
	if err := p.client.Publish(ctx, p.topic, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}
