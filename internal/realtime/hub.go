package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains event_id -> set of connections and broadcasts question
// activity (question_created, question_updated, vote_updated, stage_changed)
// to every view watching the event. Uses Redis pub/sub for horizontal
// scaling: local broadcast + publish to Redis.
type Hub struct {
	// eventID -> map[clientID]*Client
	events   map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per event
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishEvent(eventID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to event channels and invokes handler for incoming messages.
type RedisSubscriber interface {
	SubscribeEvent(eventID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		events:   make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an event room. Starts Redis subscription for this event if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.events[c.EventID] == nil {
		h.events[c.EventID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeEvent(c.EventID, func(event string, payload []byte) {
				h.BroadcastToEvent(c.EventID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.EventID] = cancel
			}
		}
	}
	h.events[c.EventID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined event", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// Unregister removes a client from an event room. Cancels Redis subscription when last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.events[c.EventID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.events, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left event", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// BroadcastToEvent sends a message to all clients in an event room (local only).
func (h *Hub) BroadcastToEvent(eventID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.events[eventID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishToEventOnly publishes to Redis only (no direct local broadcast), so
// the Redis subscriber callback performs the broadcast once for all instances
// including this one, avoiding duplicate delivery to local clients. Falls
// back to local broadcast when Redis is not configured.
func (h *Hub) PublishToEventOnly(eventID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishEvent(eventID, event, data)
		return
	}
	h.BroadcastToEvent(eventID, event, payload)
}

// AudienceCount returns the number of connected clients in an event room.
func (h *Hub) AudienceCount(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events[eventID])
}
