package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomsync/internal/config"
	"roomsync/internal/identity"
	"roomsync/internal/logging"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

const (
	sendBuffer   = 100
	writeTimeout = 5 * time.Second
	drainTimeout = time.Second
	// Relay frames are bounded by MaxPayloadBytes plus the envelope header.
	readLimit = 2 * events.MaxPayloadBytes
)

// Options identifies the participant to the relay.
type Options struct {
	ParticipantID identity.ID
	Role          events.Role
	Passcode      string
}

// WSTransport talks to a roomsync relay over one websocket.
type WSTransport struct {
	*dispatcher
	relayURL   string
	opts       Options
	maxElapsed time.Duration
	dialer     *websocket.Dialer
	logger     *zap.Logger

	mu   sync.Mutex
	sess *session
	// dialing is closed when the Connect in flight finishes.
	dialing chan struct{}
	// epoch moves on every Disconnect so a dial that started earlier is discarded.
	epoch uint64
}

// session is one live socket. Closing it is final; a new Connect opens a new one.
type session struct {
	conn    *websocket.Conn
	writeCh chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	// queued counts frames accepted by Send and not yet written.
	queued atomic.Int64
}

func (s *session) close() {
	s.once.Do(func() {
		s.cancel()
		s.conn.Close()
	})
}

func NewWS(relayURL string, maxElapsed time.Duration, opts Options, logger *zap.Logger) *WSTransport {
	return &WSTransport{
		dispatcher: newDispatcher(interfaces.StatusUnavailable),
		relayURL:   relayURL,
		opts:       opts,
		maxElapsed: maxElapsed,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
		logger: logging.OrNop(logger),
	}
}

// New returns the transport described by cfg without connecting. An empty
// relay URL selects local mode.
func New(cfg *config.ClientConfig, opts Options, logger *zap.Logger) interfaces.Transport {
	if cfg == nil || cfg.RelayURL == "" {
		return NewLocal()
	}
	return NewWS(cfg.RelayURL, cfg.ConnectTimeout, opts, logger)
}

// Dial connects to topic and returns the live transport, or a LocalTransport
// when the relay cannot be reached. The failure is logged, not returned.
func Dial(ctx context.Context, cfg *config.ClientConfig, topic string, opts Options, logger *zap.Logger) interfaces.Transport {
	logger = logging.OrNop(logger)
	t := New(cfg, opts, logger)
	if _, local := t.(*LocalTransport); local {
		return t
	}
	if err := t.Connect(ctx, topic); err != nil {
		logger.Info("relay unreachable, running locally", zap.String("topic", topic), zap.Error(err))
		return NewLocal()
	}
	return t
}

func (t *WSTransport) endpoint(topic string) (string, error) {
	u, err := url.Parse(t.relayURL)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("participant_id", t.opts.ParticipantID.String())
	q.Set("role", string(t.opts.Role))
	q.Set("topic", topic)
	if t.opts.Passcode != "" {
		q.Set("passcode", t.opts.Passcode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the relay with bounded exponential backoff. Handshake
// rejections (4xx) are not retried. A Connect issued while another is dialing
// waits for it instead of opening a second socket. The transport may be
// connected again after Disconnect.
func (t *WSTransport) Connect(ctx context.Context, topic string) error {
	t.mu.Lock()
	if t.sess != nil {
		t.mu.Unlock()
		return nil
	}
	if wait := t.dialing; wait != nil {
		t.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		t.mu.Lock()
		connected := t.sess != nil
		t.mu.Unlock()
		if !connected {
			return ErrUnavailable
		}
		return nil
	}
	done := make(chan struct{})
	t.dialing = done
	epoch := t.epoch
	t.mu.Unlock()

	finish := func(s *session) bool {
		t.mu.Lock()
		defer t.mu.Unlock()
		close(done)
		t.dialing = nil
		if s == nil || t.epoch != epoch {
			return false
		}
		t.sess = s
		return true
	}

	endpoint, err := t.endpoint(topic)
	if err != nil {
		finish(nil)
		t.setStatus(interfaces.StatusUnavailable)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	t.setStatus(interfaces.StatusConnecting)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = t.maxElapsed

	var conn *websocket.Conn
	attempt := 0
	op := func() error {
		attempt++
		c, resp, err := t.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			t.logger.Debug("relay dial failed", zap.Int("attempt", attempt), zap.Error(err))
			if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(fmt.Errorf("relay rejected handshake: %s", resp.Status))
			}
			return err
		}
		conn = c
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		finish(nil)
		t.setStatus(interfaces.StatusUnavailable)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	conn.SetReadLimit(readLimit)
	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		conn:    conn,
		writeCh: make(chan []byte, sendBuffer),
		ctx:     sctx,
		cancel:  cancel,
	}

	if !finish(s) {
		// Disconnect was called while dialing.
		s.close()
		return ErrUnavailable
	}

	go t.writeLoop(s)
	go t.readLoop(s)

	t.logger.Info("connected to relay", zap.String("topic", topic), zap.Int("attempts", attempt))
	t.setStatus(interfaces.StatusConnected)
	return nil
}

func (t *WSTransport) writeLoop(s *session) {
	for {
		select {
		case data := <-s.writeCh:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				t.drop(s)
				return
			}
			err := s.conn.WriteMessage(websocket.TextMessage, data)
			s.queued.Add(-1)
			if err != nil {
				t.logger.Debug("relay write failed", zap.Error(err))
				t.drop(s)
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// readLoop dispatches frames until the socket fails. There is no reconnect;
// the transport stays unavailable and the client keeps running locally.
func (t *WSTransport) readLoop(s *session) {
	defer t.drop(s)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				t.logger.Info("relay connection lost", zap.Error(err))
			}
			return
		}
		env, err := events.Unmarshal(data)
		if err != nil {
			t.logger.Debug("ignoring malformed frame", zap.Error(err))
			continue
		}
		t.dispatch(env)
	}
}

func (t *WSTransport) drop(s *session) {
	s.close()
	t.mu.Lock()
	current := t.sess == s
	if current {
		t.sess = nil
	}
	t.mu.Unlock()
	if current {
		t.setStatus(interfaces.StatusUnavailable)
	}
}

// Send queues env for the writer. It never blocks.
func (t *WSTransport) Send(env events.Envelope) error {
	t.mu.Lock()
	s := t.sess
	t.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}

	data, err := events.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case <-s.ctx.Done():
		return ErrNotConnected
	default:
	}
	s.queued.Add(1)
	select {
	case s.writeCh <- data:
		return nil
	default:
		s.queued.Add(-1)
		return ErrSendBufferFull
	}
}

// drain waits briefly for queued frames to reach the socket.
func (s *session) drain(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for s.queued.Load() > 0 && s.ctx.Err() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

// Disconnect closes the current socket, if any, and abandons a dial in flight.
func (t *WSTransport) Disconnect() error {
	t.mu.Lock()
	t.epoch++
	s := t.sess
	t.sess = nil
	t.mu.Unlock()

	if s != nil {
		s.drain(drainTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.close()
	}
	t.setStatus(interfaces.StatusUnavailable)
	return nil
}
