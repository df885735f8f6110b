package service

import (
	"context"
	"errors"
)

// Broadcaster delivers an encoded lobby event to every subscriber
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) error
}

// Broadcasters fans one event out to several transports.
// Every transport is tried; failures are joined.
type Broadcasters []Broadcaster

// Broadcast implements Broadcaster
func (bs Broadcasters) Broadcast(ctx context.Context, message string) error {
	var errs []error
	for _, b := range bs {
		if err := b.Broadcast(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
