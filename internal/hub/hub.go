// Package hub serialises frame routing for one relay instance and bridges it
// to the backplane.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"roomsync/internal/backplane"
	"roomsync/internal/logging"
	"roomsync/internal/metrics"
	"roomsync/pkg/interfaces"
)

const (
	inboundBuffer = 1000
	remoteBuffer  = 1000
)

// FrameContext is a frame read from a local connection.
type FrameContext struct {
	Sender     interfaces.Connection
	Frame      []byte
	ReceivedAt time.Time
}

type remoteFrame struct {
	topic string
	frame []byte
}

// Hub routes local frames, publishes accepted ones to the backplane and
// delivers frames from other instances to local connections. One goroutine
// does all of it.
type Hub struct {
	inbound  chan *FrameContext
	remote   chan remoteFrame
	shutdown chan struct{}
	stopped  chan struct{}

	router    interfaces.EventRouter
	backplane backplane.Backplane
	metrics   *metrics.Metrics
	logger    *zap.Logger

	running bool
	mu      sync.RWMutex
}

// NewHub builds a hub. A nil backplane keeps the hub single-instance.
func NewHub(router interfaces.EventRouter, bp backplane.Backplane, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		inbound:   make(chan *FrameContext, inboundBuffer),
		remote:    make(chan remoteFrame, remoteBuffer),
		shutdown:  make(chan struct{}),
		stopped:   make(chan struct{}),
		router:    router,
		backplane: bp,
		metrics:   m,
		logger:    logging.OrNop(logger),
	}
}

// Start subscribes to the backplane and starts the processing goroutine.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrHubAlreadyRunning
	}

	if h.backplane != nil {
		if err := h.backplane.Subscribe(ctx, h.enqueueRemote); err != nil {
			return err
		}
	}
	h.running = true
	h.logger.Info("starting hub")

	go h.run(ctx)
	return nil
}

// Stop ends the processing goroutine and waits for it to exit.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return ErrHubNotRunning
	}
	h.running = false
	h.logger.Info("stopping hub")

	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
	h.mu.Unlock()

	<-h.stopped
	return nil
}

func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Submit queues a frame read from conn. It never blocks.
func (h *Hub) Submit(conn interfaces.Connection, frame []byte) error {
	if conn == nil {
		return ErrNilConnection
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.running {
		return ErrHubNotRunning
	}

	select {
	case h.inbound <- &FrameContext{Sender: conn, Frame: frame, ReceivedAt: time.Now()}:
		return nil
	default:
		return ErrInboundChannelFull
	}
}

func (h *Hub) enqueueRemote(topic string, frame []byte) {
	h.metrics.Backplane("in")
	select {
	case h.remote <- remoteFrame{topic: topic, frame: frame}:
	default:
		h.metrics.Dropped(metrics.ReasonHubFull)
		h.logger.Warn("dropping backplane frame", zap.String("topic", topic), zap.Error(ErrRemoteChannelFull))
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.stopped)
	defer h.logger.Info("hub processing stopped")

	for {
		select {
		case fc := <-h.inbound:
			h.handleFrame(ctx, fc)
		case rf := <-h.remote:
			n := h.router.Deliver(rf.topic, rf.frame)
			h.logger.Debug("delivered backplane frame", zap.String("topic", rf.topic), zap.Int("recipients", n))
		case <-h.shutdown:
			return
		case <-ctx.Done():
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// handleFrame routes locally first, then publishes. Routing errors drop the
// frame; the connection stays open.
func (h *Hub) handleFrame(ctx context.Context, fc *FrameContext) {
	topic := fc.Sender.GetTopic()
	kind, err := h.router.RouteFrame(ctx, fc.Sender, fc.Frame)
	if err != nil {
		h.logger.Debug("frame dropped",
			zap.String("participant_id", fc.Sender.GetParticipantID()),
			zap.String("topic", topic),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}

	if h.backplane == nil {
		return
	}
	if err := h.backplane.Publish(ctx, topic, fc.Frame); err != nil {
		h.logger.Warn("backplane publish failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	h.metrics.Backplane("out")
}
