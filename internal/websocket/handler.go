package websocket

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomsync/internal/config"
	"roomsync/internal/logging"
	"roomsync/internal/metrics"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// readLimit leaves room for the envelope around a maximal payload; the
// router enforces the payload bound itself.
const readLimit = 4 * events.MaxPayloadBytes

var upgrader = websocket.Upgrader{
	// Room clients are served from arbitrary origins; the passcode gates access.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// FrameSink receives every text frame read from a registered connection.
type FrameSink interface {
	Submit(conn interfaces.Connection, frame []byte) error
}

type connectParams struct {
	ParticipantID string `validate:"required,max=64"`
	Role          string `validate:"required,oneof=teacher student"`
	Topic         string `validate:"required,max=128"`
}

var paramValidator = validator.New()

// Handler upgrades room connections and pumps their frames into a FrameSink.
type Handler struct {
	registry *Registry
	sink     FrameSink
	cfg      *config.WebSocketConfig
	passcode string
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewHandler builds a handler. An empty passcode disables the passcode check.
func NewHandler(registry *Registry, sink FrameSink, cfg *config.WebSocketConfig, passcode string, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if cfg == nil {
		cfg = config.DefaultConfig().WebSocket
	}
	return &Handler{
		registry: registry,
		sink:     sink,
		cfg:      cfg,
		passcode: passcode,
		metrics:  m,
		logger:   logging.OrNop(logger),
	}
}

// HandleWebSocket validates the query (participant_id, role, topic and an
// optional passcode), upgrades, registers and starts the read pump.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := connectParams{
		ParticipantID: q.Get("participant_id"),
		Role:          q.Get("role"),
		Topic:         q.Get("topic"),
	}
	if err := paramValidator.Struct(params); err != nil {
		h.logger.Debug("rejected connection parameters", zap.Error(err))
		http.Error(w, "Invalid query parameters: participant_id, role (teacher|student) and topic are required", http.StatusBadRequest)
		return
	}

	if err := h.checkPasscode(q.Get("passcode")); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, ErrPasscodeRequired) {
			status = http.StatusUnauthorized
		}
		h.logger.Info("rejected connection",
			zap.String("participant_id", params.ParticipantID),
			zap.String("topic", params.Topic),
			zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	wsConn := NewConnection(conn, h.cfg.BufferSize, h.cfg.WriteTimeout)
	role := events.Role(params.Role)
	if err := wsConn.SetCredentials(params.ParticipantID, role, params.Topic); err != nil {
		h.logger.Warn("failed to set credentials", zap.Error(err))
		_ = wsConn.Close()
		return
	}
	if err := h.registry.RegisterConnection(wsConn); err != nil {
		h.logger.Warn("failed to register connection", zap.Error(err))
		_ = wsConn.Close()
		return
	}
	h.metrics.ConnectionOpened(string(role))
	h.logger.Info("connection registered",
		zap.String("participant_id", params.ParticipantID),
		zap.String("role", params.Role),
		zap.String("topic", params.Topic))

	go h.handleConnection(wsConn)
}

func (h *Handler) checkPasscode(given string) error {
	if h.passcode == "" {
		return nil
	}
	if given == "" {
		return ErrPasscodeRequired
	}
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.passcode)) != 1 {
		return ErrPasscodeMismatch
	}
	return nil
}

// handleConnection runs the heartbeat and the read pump until the peer goes away.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		if h.registry.UnregisterConnection(conn) {
			h.logger.Info("connection unregistered",
				zap.String("participant_id", conn.GetParticipantID()),
				zap.String("topic", conn.GetTopic()))
		}
		h.metrics.ConnectionClosed(string(conn.GetRole()))
		_ = conn.Close()
	}()

	readTimeout := h.cfg.ReadTimeout
	conn.conn.SetReadLimit(readLimit)
	if err := conn.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		h.logger.Warn("failed to set read deadline", zap.Error(err))
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
					return
				}
			case <-conn.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error",
					zap.String("participant_id", conn.GetParticipantID()),
					zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := h.sink.Submit(conn, data); err != nil {
			h.metrics.Dropped(metrics.ReasonHubFull)
			h.logger.Warn("frame not accepted",
				zap.String("participant_id", conn.GetParticipantID()),
				zap.Error(err))
		}
	}
}
