package web

import (
	"net/http"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/bus"
)

// sseKeepAliveInterval sends a comment frame periodically so idle HTTP
// proxies don't time out the connection while no bus events are flowing.
const sseKeepAliveInterval = 25 * time.Second

// EventsHandler serves GET /events: an SSE stream scoped to one session,
// relaying C5 notification-bus events (url_transform, lagged) as they occur.
type EventsHandler struct {
	notifier *bus.Bus
}

// NewEventsHandler creates an events handler bound to notifier.
func NewEventsHandler(notifier *bus.Bus) *EventsHandler {
	return &EventsHandler{notifier: notifier}
}

// ServeHTTP handles GET /events?session_id=... (or a session_id cookie).
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	sse := newSSEWriter(w, r)
	if sse == nil {
		return
	}

	events, cancel := h.notifier.Subscribe(sessionID)
	defer cancel()

	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if !sse.Send(string(evt.Type), evt.Data) {
				return
			}
		case <-ticker.C:
			if !sse.Send("keepalive", map[string]string{}) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// sessionIDFromRequest resolves the session id from a query parameter first,
// falling back to the session_id cookie (spec.md §4.8: "derived from a
// cookie or query parameter").
func sessionIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("session_id"); id != "" {
		return id
	}
	if c, err := r.Cookie("session_id"); err == nil {
		return c.Value
	}
	return ""
}
