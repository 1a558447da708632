// Package backplane carries validated frames between relay instances serving
// the same rooms.
package backplane

import (
	"context"
	"errors"
)

// Handler receives a frame published by another instance.
type Handler func(topic string, frame []byte)

// Backplane is a topic-addressed pub/sub shared by relay instances. A
// subscriber never receives its own instance's publications.
type Backplane interface {
	Publish(ctx context.Context, topic string, frame []byte) error
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}

var (
	ErrClosed            = errors.New("backplane closed")
	ErrAlreadySubscribed = errors.New("backplane already subscribed")
)

// message is the unit exchanged between instances.
type message struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
	Frame  []byte `json:"frame"`
}
