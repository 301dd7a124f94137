// Package notify implements the notification dispatcher: fan-out of domain
// events to per-user queues and post-scoped broadcast topics.
//
// Delivery is at-most-once and strictly fire-and-forget. Sends never block:
// a subscriber whose buffer is full, or a user with no live subscription,
// simply misses the event. The triggering write has already committed by the
// time an engine calls into this package, so nothing here can fail or roll
// back a mutation. Drops are counted and logged at debug, never surfaced.
package notify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Event types emitted by the engines.
const (
	EventPostReaction   = "POST_REACTION"
	EventComment        = "COMMENT"
	EventNewMessage     = "NEW_MESSAGE"
	EventFriendRequest  = "FRIEND_REQUEST"
	EventFriendAccepted = "FRIEND_ACCEPTED"
)

// Per-user queue topics, mirroring the destinations the frontend subscribes to.
const (
	TopicNotifications = "notifications"
	TopicMessages      = "messages"
)

// PostReactionsTopic names the broadcast topic carrying aggregate reaction
// updates for one post.
func PostReactionsTopic(postID string) string {
	return "post." + postID + ".reactions"
}

// Event is an ephemeral notification. It is never persisted; undelivered
// events are dropped without retry.
type Event struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// Notifier is the delivery capability the engines depend on. Implementations
// must not block and must not return delivery failures to the caller.
type Notifier interface {
	// SendToUser routes an event to the addressable queue of one user,
	// keyed by a stable identifier (email).
	SendToUser(userKey, topic string, event Event)

	// Broadcast routes an event to every subscriber of a topic.
	Broadcast(topic string, event Event)
}

var droppedEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_dropped_events_total",
		Help: "Notification events dropped because no subscriber could take them.",
	},
	[]string{"type"},
)

// Hub is the in-process Notifier. Per-user queues are keyed by "userKey/topic"
// so one user can hold separate notification and message subscriptions;
// broadcast topics hold plain subscriber sets.
type Hub struct {
	mu     sync.RWMutex
	queues map[string]map[chan Event]struct{}
	buffer int
}

// NewHub returns a Hub whose subscriber channels buffer up to buffer events.
// A non-positive buffer falls back to 16.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		queues: make(map[string]map[chan Event]struct{}),
		buffer: buffer,
	}
}

func userQueue(userKey, topic string) string { return userKey + "/" + topic }

// SubscribeUser attaches a subscriber to one user's queue for a topic.
// The returned cancel func detaches and closes the channel; it is safe to
// call more than once.
func (h *Hub) SubscribeUser(userKey, topic string) (<-chan Event, func()) {
	return h.subscribe(userQueue(userKey, topic))
}

// SubscribeTopic attaches a subscriber to a broadcast topic.
func (h *Hub) SubscribeTopic(topic string) (<-chan Event, func()) {
	return h.subscribe(topic)
}

func (h *Hub) subscribe(key string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	set, ok := h.queues[key]
	if !ok {
		set = make(map[chan Event]struct{})
		h.queues[key] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	// close(ch) must happen under the write lock: dispatch sends while holding
	// the read lock, so a detached channel can never be closed mid-send.
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.queues[key]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.queues, key)
				}
			}
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// SendToUser implements Notifier.
func (h *Hub) SendToUser(userKey, topic string, event Event) {
	if userKey == "" {
		return
	}
	event.Topic = topic
	h.dispatch(userQueue(userKey, topic), event)
}

// Broadcast implements Notifier.
func (h *Hub) Broadcast(topic string, event Event) {
	event.Topic = topic
	h.dispatch(topic, event)
}

// dispatch delivers to every subscriber of key without ever blocking. A full
// buffer or an absent subscriber drops the event. The read lock is held across
// the sends; they cannot block, and cancel closes channels only under the
// write lock, so a send can never hit a closed channel.
func (h *Hub) dispatch(key string, event Event) {
	h.mu.RLock()
	set, ok := h.queues[key]
	if !ok || len(set) == 0 {
		h.mu.RUnlock()
		droppedEvents.WithLabelValues(event.Type).Inc()
		log.Debug().Str("key", key).Str("type", event.Type).Msg("notification dropped: no subscriber")
		return
	}
	dropped := 0
	for ch := range set {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	for i := 0; i < dropped; i++ {
		droppedEvents.WithLabelValues(event.Type).Inc()
		log.Debug().Str("key", key).Str("type", event.Type).Msg("notification dropped: subscriber full")
	}
}

// Nop is a Notifier that discards everything. Useful when wiring engines in
// contexts without a live hub.
type Nop struct{}

func (Nop) SendToUser(string, string, Event) {}
func (Nop) Broadcast(string, Event)          {}
