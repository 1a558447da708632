// Package api serves the relay's HTTP surface: health, room occupancy,
// metrics and the websocket endpoint.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"roomsync/internal/logging"
	"roomsync/internal/websocket"
)

const maxTopicLength = 128

// Registry is the part of websocket.Registry the API reads.
type Registry interface {
	TopicCounts(topic string) websocket.RoleCounts
	Topics() []string
	GetStats() map[string]int
}

type Server struct {
	registry   Registry
	ws         http.Handler
	metrics    http.Handler
	instanceID string
	startedAt  time.Time
	logger     *zap.Logger
	router     chi.Router
}

// NewServer mounts the routes. ws and metrics may be nil, in which case the
// routes are not registered.
func NewServer(registry Registry, ws http.Handler, metrics http.Handler, instanceID string, logger *zap.Logger) *Server {
	s := &Server{
		registry:   registry,
		ws:         ws,
		metrics:    metrics,
		instanceID: instanceID,
		startedAt:  time.Now(),
		logger:     logging.OrNop(logger),
		router:     chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)

	s.router.Group(func(r chi.Router) {
		r.Use(jsonMiddleware)
		r.Get("/healthz", s.healthCheck)
		r.Get("/api/rooms", s.listRooms)
		r.Get("/api/rooms/{topic}", s.getRoom)
	})
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.ws != nil {
		s.router.Method(http.MethodGet, "/ws", s.ws)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Instance    string         `json:"instance"`
	Uptime      string         `json:"uptime"`
	Connections map[string]int `json:"connections"`
}

type RoomResponse struct {
	Topic       string `json:"topic"`
	Connections int    `json:"connections"`
	Teachers    int    `json:"teachers"`
	Students    int    `json:"students"`
}

type ListRoomsResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Instance:    s.instanceID,
		Uptime:      time.Since(s.startedAt).Round(time.Second).String(),
		Connections: s.registry.GetStats(),
	})
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	topics := s.registry.Topics()
	rooms := make([]RoomResponse, 0, len(topics))
	for _, topic := range topics {
		rooms = append(rooms, s.room(topic))
	}
	s.writeJSON(w, http.StatusOK, ListRoomsResponse{Rooms: rooms})
}

// getRoom reports occupancy only. An unknown topic is an empty room, not a 404.
func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if topic == "" || len(topic) > maxTopicLength {
		s.sendError(w, "Invalid room topic", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.room(topic))
}

func (s *Server) room(topic string) RoomResponse {
	counts := s.registry.TopicCounts(topic)
	return RoomResponse{
		Topic:       topic,
		Connections: counts.Total(),
		Teachers:    counts.Teachers,
		Students:    counts.Students,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	s.writeJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
