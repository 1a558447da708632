package websocket

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"roomsync/internal/logging"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// RoleCounts is the number of live connections per role on one topic.
type RoleCounts struct {
	Teachers int `json:"teachers"`
	Students int `json:"students"`
}

func (c RoleCounts) Total() int { return c.Teachers + c.Students }

// Registry tracks live connections by topic and participant id. A participant
// reconnecting on the same topic replaces its previous connection.
type Registry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Connection
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		topics: make(map[string]map[string]*Connection),
		logger: logging.OrNop(logger),
	}
}

// RegisterConnection adds conn under its topic. An existing connection for
// the same participant is closed asynchronously.
func (r *Registry) RegisterConnection(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}
	if !conn.IsAuthenticated() {
		return ErrConnectionNotAuthenticated
	}

	id := conn.GetParticipantID()
	topic := conn.GetTopic()

	r.mu.Lock()
	defer r.mu.Unlock()

	peers := r.topics[topic]
	if peers == nil {
		peers = make(map[string]*Connection)
		r.topics[topic] = peers
	}
	if existing, ok := peers[id]; ok && existing != conn {
		go func() {
			if err := existing.Close(); err != nil {
				r.logger.Debug("failed to close replaced connection",
					zap.String("participant_id", id), zap.Error(err))
			}
		}()
	}
	peers[id] = conn
	return nil
}

// UnregisterConnection removes conn only if it is still the registered
// connection for its participant. It reports whether anything was removed.
func (r *Registry) UnregisterConnection(conn *Connection) bool {
	if conn == nil {
		return false
	}
	id := conn.GetParticipantID()
	topic := conn.GetTopic()

	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.topics[topic]
	if !ok || peers[id] != conn {
		return false
	}
	delete(peers, id)
	if len(peers) == 0 {
		delete(r.topics, topic)
	}
	return true
}

func (r *Registry) Lookup(topic, participantID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.topics[topic][participantID]
	return conn, ok
}

// TopicConnections returns every connection on topic.
func (r *Registry) TopicConnections(topic string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := r.topics[topic]
	conns := make([]*Connection, 0, len(peers))
	for _, conn := range peers {
		conns = append(conns, conn)
	}
	return conns
}

// Peers is TopicConnections typed for the router.
func (r *Registry) Peers(topic string) []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := r.topics[topic]
	conns := make([]interfaces.Connection, 0, len(peers))
	for _, conn := range peers {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Registry) TopicCounts(topic string) RoleCounts {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts RoleCounts
	for _, conn := range r.topics[topic] {
		switch conn.GetRole() {
		case events.RoleTeacher:
			counts.Teachers++
		case events.RoleStudent:
			counts.Students++
		}
	}
	return counts
}

// Topics returns the active topics in sorted order.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

func (r *Registry) GetStats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, peers := range r.topics {
		total += len(peers)
	}
	return map[string]int{
		"total_connections": total,
		"active_topics":     len(r.topics),
	}
}
