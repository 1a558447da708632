// Package router validates inbound room frames and fans them out to every
// connection on the sender's topic.
package router

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"roomsync/internal/logging"
	"roomsync/internal/metrics"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// maxFrameBytes bounds a whole frame: a maximal payload plus its envelope.
const maxFrameBytes = events.MaxPayloadBytes + 1024

// PeerSource lists the local connections on a topic.
type PeerSource interface {
	Peers(topic string) []interfaces.Connection
}

// Router implements interfaces.EventRouter. Frames are forwarded verbatim;
// the relay never decodes payloads.
type Router struct {
	peers   PeerSource
	limiter *RateLimiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ interfaces.EventRouter = (*Router)(nil)

// NewRouter builds a router. A nil limiter disables rate limiting.
func NewRouter(peers PeerSource, limiter *RateLimiter, m *metrics.Metrics, logger *zap.Logger) *Router {
	return &Router{
		peers:   peers,
		limiter: limiter,
		metrics: m,
		logger:  logging.OrNop(logger),
	}
}

// RouteFrame validates frame against the sender's credentials and delivers
// it to every connection on the sender's topic, the sender included.
func (r *Router) RouteFrame(ctx context.Context, sender interfaces.Connection, frame []byte) (events.Kind, error) {
	kind, err := r.validate(sender, frame)
	if err != nil {
		r.metrics.Dropped(dropReason(err))
		return kind, err
	}
	r.metrics.Routed(string(kind))
	r.Deliver(sender.GetTopic(), frame)
	return kind, nil
}

func (r *Router) validate(sender interfaces.Connection, frame []byte) (events.Kind, error) {
	if sender == nil || !sender.IsAuthenticated() {
		return "", ErrSenderNotAuthenticated
	}
	if len(frame) > maxFrameBytes {
		return "", ErrFrameTooLarge
	}

	env, err := events.Unmarshal(frame)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if err := events.ValidateEnvelope(env); err != nil {
		if errors.Is(err, events.ErrPayloadTooLarge) {
			return env.Kind, ErrFrameTooLarge
		}
		return env.Kind, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if env.Sender != sender.GetParticipantID() {
		return env.Kind, ErrSenderMismatch
	}
	if !canSendKind(sender.GetRole(), env.Kind) {
		return env.Kind, ErrUnauthorizedKind
	}
	if r.limiter != nil && !r.limiter.Allow(sender.GetParticipantID()) {
		return env.Kind, ErrRateLimitExceeded
	}
	return env.Kind, nil
}

// Deliver writes frame to every local connection on topic. Slow consumers
// lose the frame; delivery to the others continues.
func (r *Router) Deliver(topic string, frame []byte) int {
	delivered := 0
	for _, conn := range r.peers.Peers(topic) {
		if err := conn.WriteMessage(frame); err != nil {
			r.metrics.Dropped(metrics.ReasonSlowConsumer)
			r.logger.Debug("frame not delivered",
				zap.String("participant_id", conn.GetParticipantID()),
				zap.String("topic", topic),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

// canSendKind: navigation state is teacher-only; contributions are open to
// every role.
func canSendKind(role events.Role, kind events.Kind) bool {
	if !role.Valid() || !kind.Valid() {
		return false
	}
	if kind == events.KindState {
		return role == events.RoleTeacher
	}
	return true
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return metrics.ReasonRateLimited
	case errors.Is(err, ErrSenderMismatch):
		return metrics.ReasonSpoofed
	case errors.Is(err, ErrUnauthorizedKind), errors.Is(err, ErrSenderNotAuthenticated):
		return metrics.ReasonUnauthorized
	case errors.Is(err, ErrFrameTooLarge):
		return metrics.ReasonTooLarge
	default:
		return metrics.ReasonInvalid
	}
}
