package backplane

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	topic string
	frame string
}

type collector struct {
	mu  sync.Mutex
	got []delivery
}

func (c *collector) handle(topic string, frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, delivery{topic, string(frame)})
}

func (c *collector) deliveries() []delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]delivery(nil), c.got...)
}

func TestLocal_SkipsOwnInstance(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	a := NewLocal(bus, "relay-a")
	b := NewLocal(bus, "relay-b")
	var gotA, gotB collector
	require.NoError(t, a.Subscribe(ctx, gotA.handle))
	require.NoError(t, b.Subscribe(ctx, gotB.handle))

	require.NoError(t, a.Publish(ctx, "room", []byte(`{"kind":"join"}`)))

	assert.Empty(t, gotA.deliveries())
	assert.Equal(t, []delivery{{"room", `{"kind":"join"}`}}, gotB.deliveries())
}

func TestLocal_Lifecycle(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	a := NewLocal(bus, "relay-a")
	b := NewLocal(bus, "relay-b")
	var gotB collector

	require.NoError(t, b.Subscribe(ctx, gotB.handle))
	assert.ErrorIs(t, b.Subscribe(ctx, gotB.handle), ErrAlreadySubscribed)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(ctx, "room", nil), ErrClosed)
	assert.ErrorIs(t, b.Subscribe(ctx, gotB.handle), ErrClosed)

	require.NoError(t, a.Publish(ctx, "room", []byte("x")))
	assert.Empty(t, gotB.deliveries(), "closed instance no longer receives")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, a.Publish(cancelled, "room", nil), context.Canceled)
}

func TestLocal_PrivateBus(t *testing.T) {
	l := NewLocal(nil, "solo")
	var got collector
	require.NoError(t, l.Subscribe(context.Background(), got.handle))
	require.NoError(t, l.Publish(context.Background(), "room", []byte("x")))
	assert.Empty(t, got.deliveries())
}

func TestRedis_MessageCodec(t *testing.T) {
	data, err := encodeMessage(message{Origin: "relay-a", Topic: "room", Frame: []byte(`{"kind":"vote"}`)})
	require.NoError(t, err)

	m, err := decodeMessage(string(data))
	require.NoError(t, err)
	assert.Equal(t, "relay-a", m.Origin)
	assert.Equal(t, "room", m.Topic)
	assert.Equal(t, `{"kind":"vote"}`, string(m.Frame))

	_, err = decodeMessage("not json")
	assert.Error(t, err)
	_, err = decodeMessage(`{"topic":"room"}`)
	assert.Error(t, err)
}

func TestRedis_HandleFiltersMessages(t *testing.T) {
	r := NewRedis(nil, "relay-a", nil)
	var got collector

	own, _ := encodeMessage(message{Origin: "relay-a", Topic: "room", Frame: []byte("own")})
	peer, _ := encodeMessage(message{Origin: "relay-b", Topic: "room", Frame: []byte("peer")})
	wrongChannel, _ := encodeMessage(message{Origin: "relay-b", Topic: "other", Frame: []byte("x")})

	r.handle(ChannelPrefix+"room", string(own), got.handle)
	r.handle(ChannelPrefix+"room", string(peer), got.handle)
	r.handle(ChannelPrefix+"room", string(wrongChannel), got.handle)
	r.handle(ChannelPrefix+"room", "garbage", got.handle)

	assert.Equal(t, []delivery{{"room", "peer"}}, got.deliveries())
}

func TestRedis_CloseWithoutSubscribe(t *testing.T) {
	r := NewRedis(nil, "relay-a", nil)
	assert.NoError(t, r.Close())
	assert.ErrorIs(t, r.Subscribe(context.Background(), func(string, []byte) {}), ErrClosed)
}

// TestRedis_RoundTrip needs a reachable server in ROOMSYNC_TEST_REDIS_ADDR.
func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("ROOMSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ROOMSYNC_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	a := NewRedis(client, "relay-a", nil)
	b := NewRedis(client, "relay-b", nil)
	var gotA, gotB collector
	require.NoError(t, a.Subscribe(ctx, gotA.handle))
	require.NoError(t, b.Subscribe(ctx, gotB.handle))
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})

	require.NoError(t, a.Publish(ctx, "room", []byte("hello")))
	assert.Eventually(t, func() bool { return len(gotB.deliveries()) == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Empty(t, gotA.deliveries())
}
