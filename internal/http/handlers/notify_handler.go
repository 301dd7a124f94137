// Notification streaming over Server-Sent Events.
//
//   - GET /notifications/stream   (live event feed for the authenticated user)
//
// The stream fans in the caller's personal notification queue, their
// direct-message queue, and the reaction broadcast topic of each post named
// in the "posts" query parameter. Delivery is at-most-once: the hub drops
// events for subscribers whose buffers are full, so clients must treat the
// stream as a hint and re-fetch state on reconnect.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/notify"
)

// heartbeatInterval keeps intermediaries from timing out an idle stream.
const heartbeatInterval = 25 * time.Second

// maxStreamPosts caps the post topics one stream may join.
const maxStreamPosts = 20

// StreamNotifications subscribes the caller to their event queues and relays
// them as SSE frames until the client disconnects.
func (h *Handlers) StreamNotifications(c *gin.Context) {
	email := userEmail(c)
	if email == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	postIDs, ok := streamPostIDs(c)
	if !ok {
		return
	}

	merged := make(chan notify.Event, 8)
	done := make(chan struct{})
	defer close(done)

	forward := func(ch <-chan notify.Event) {
		go func() {
			for {
				select {
				case ev, open := <-ch:
					if !open {
						return
					}
					select {
					case merged <- ev:
					case <-done:
						return
					}
				case <-done:
					return
				}
			}
		}()
	}

	events, cancelEvents := h.hub.SubscribeUser(email, notify.TopicNotifications)
	defer cancelEvents()
	forward(events)

	msgs, cancelMsgs := h.hub.SubscribeUser(email, notify.TopicMessages)
	defer cancelMsgs()
	forward(msgs)

	for _, postID := range postIDs {
		reactions, cancelTopic := h.hub.SubscribeTopic(notify.PostReactionsTopic(postID))
		defer cancelTopic()
		forward(reactions)
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	lg := middleware.LoggerFrom(c)
	lg.Debug().Str("user", email).Int("post_topics", len(postIDs)).Msg("notification stream opened")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			lg.Debug().Str("user", email).Msg("notification stream closed")
			return
		case ev := <-merged:
			if !writeSSE(c.Writer, ev) {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// streamPostIDs parses the optional "posts" query parameter (comma-separated
// post IDs) and writes the error response itself when the input is invalid.
func streamPostIDs(c *gin.Context) ([]string, bool) {
	raw := strings.TrimSpace(c.Query("posts"))
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxStreamPosts {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "too many post topics requested")
		return nil, false
	}
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		id := strings.TrimSpace(p)
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid post id in posts parameter")
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// writeSSE encodes one event as an SSE frame and flushes it. It reports false
// when the connection is gone.
func writeSSE(w gin.ResponseWriter, ev notify.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return true // skip unencodable payloads, keep the stream alive
	}
	if _, err := io.WriteString(w, "event: "+ev.Type+"\ndata: "+string(data)+"\n\n"); err != nil {
		return false
	}
	w.Flush()
	return true
}
