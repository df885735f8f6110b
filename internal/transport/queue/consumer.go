// Package queue carries the text protocol over Redis: commands arrive on a list,
// replies leave on another list and lobby broadcasts go out on a pub/sub channel.
package queue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler runs one raw command and returns the reply for its sender
type Handler interface {
	Handle(ctx context.Context, raw string) (string, error)
}

// Consumer pops commands off a Redis list and pushes replies onto another
type Consumer struct {
	client      *redis.Client
	handler     Handler
	commands    string
	replies     string
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// NewConsumer creates a new command queue consumer
func NewConsumer(client *redis.Client, handler Handler, commands, replies string) *Consumer {
	return &Consumer{
		client:      client,
		handler:     handler,
		commands:    commands,
		replies:     replies,
		pollTimeout: time.Second,
		retryDelay:  time.Second,
	}
}

// Run consumes commands until ctx is cancelled. Commands are handled one at a
// time in arrival order. A failed command is logged and dropped.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("Consuming commands from %s", c.commands)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		res, err := c.client.BLPop(ctx, c.pollTimeout, c.commands).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("Failed to read command queue: %v", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		// res is [key, value]
		c.process(ctx, res[1])
	}
}

func (c *Consumer) process(ctx context.Context, raw string) {
	reply, err := c.handler.Handle(ctx, raw)
	if err != nil {
		log.Printf("Dropping command %q: %v", raw, err)
		return
	}
	if reply == "" {
		return
	}
	if err := c.client.RPush(ctx, c.replies, reply).Err(); err != nil {
		log.Printf("Failed to send reply %q: %v", reply, err)
	}
}
