package backplane

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"roomsync/internal/logging"
)

// ChannelPrefix namespaces room channels, e.g. roomsync:fld-room-01.
const ChannelPrefix = "roomsync:"

// Redis fans frames out over Redis pub/sub, one channel per topic.
type Redis struct {
	client     *redis.Client
	instanceID string
	logger     *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
	closed bool
}

var _ Backplane = (*Redis)(nil)

func NewRedis(client *redis.Client, instanceID string, logger *zap.Logger) *Redis {
	return &Redis{
		client:     client,
		instanceID: instanceID,
		logger:     logging.OrNop(logger),
	}
}

func (r *Redis) Publish(ctx context.Context, topic string, frame []byte) error {
	data, err := encodeMessage(message{Origin: r.instanceID, Topic: topic, Frame: frame})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, ChannelPrefix+topic, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe pattern-subscribes to every room channel and waits for the
// subscription to be confirmed before returning.
func (r *Redis) Subscribe(ctx context.Context, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.pubsub != nil {
		return ErrAlreadySubscribed
	}

	pubsub := r.client.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	r.pubsub = pubsub
	r.done = make(chan struct{})

	go r.receive(pubsub.Channel(), h, r.done)
	return nil
}

func (r *Redis) receive(ch <-chan *redis.Message, h Handler, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		r.handle(msg.Channel, msg.Payload, h)
	}
}

func (r *Redis) handle(channel, payload string, h Handler) {
	m, err := decodeMessage(payload)
	if err != nil {
		r.logger.Warn("dropping malformed backplane message",
			zap.String("channel", channel), zap.Error(err))
		return
	}
	if m.Origin == r.instanceID {
		return
	}
	if m.Topic != strings.TrimPrefix(channel, ChannelPrefix) {
		r.logger.Warn("backplane topic does not match channel",
			zap.String("channel", channel), zap.String("topic", m.Topic))
		return
	}
	h(m.Topic, m.Frame)
}

func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	pubsub, done := r.pubsub, r.done
	r.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}

func encodeMessage(m message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode backplane message: %w", err)
	}
	return data, nil
}

func decodeMessage(payload string) (message, error) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return message{}, fmt.Errorf("decode backplane message: %w", err)
	}
	if m.Origin == "" || m.Topic == "" {
		return message{}, fmt.Errorf("decode backplane message: missing origin or topic")
	}
	return m, nil
}
