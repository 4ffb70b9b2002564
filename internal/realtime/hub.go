package realtime

import (
	"encoding/json"
	"sync"

	"github.com/campustrade/backend/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	TopicGlobal = "global"

	EventItemStatusUpdated  = "item-status-updated"
	EventItemUpdated        = "item-updated"
	EventAppointmentCreated = "appointment-created"
	EventAppointmentUpdated = "appointment-updated"
	EventNotification       = "notification"
)

// UserTopic is the private room for one user.
func UserTopic(uid string) string {
	return "user-" + uid
}

// Publisher pushes an event to every subscriber of a topic. Delivery is best
// effort: the API response and persisted rows stay the source of truth.
type Publisher interface {
	Publish(topic, event string, payload interface{})
}

// Message is the wire envelope delivered to websocket clients.
type Message struct {
	Topic   string      `json:"topic"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub tracks websocket clients and their room subscriptions.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) join(c *Client, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[room] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, set := range h.rooms {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish sends the event to all clients in the topic room. Clients with a
// full send buffer are skipped rather than blocking the caller.
func (h *Hub) Publish(topic, event string, payload interface{}) {
	raw, err := json.Marshal(Message{Topic: topic, Event: event, Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal realtime event")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[topic]))
	for c := range h.rooms[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	metrics.IncRealtimeEvent(event)
	for _, c := range clients {
		select {
		case c.send <- raw:
		default:
			h.log.Warn().Str("topic", topic).Msg("dropping realtime event, client buffer full")
		}
	}
}

// SubscriberCount reports how many clients are in a room.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}
