package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isa-group/harvey-agent-core/internal/bus"
)

func TestEventsHandler_StreamsPublishedEvent(t *testing.T) {
	notifier := bus.New(4)
	h := NewEventsHandler(notifier)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id=sess-1", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Give the handler a moment to register its subscription before publishing.
	time.Sleep(50 * time.Millisecond)
	notifier.Publish("sess-1", bus.Event{
		Type: bus.EventURLTransform,
		Data: bus.URLTransformPayload{CanonicalURL: "https://x.example.com", State: "ready"},
	})

	reader := bufio.NewReader(resp.Body)
	var sawEvent bool
	for i := 0; i < 10; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.HasPrefix(line, "event: url_transform") {
			sawEvent = true
			break
		}
	}
	assert.True(t, sawEvent, "expected to observe a url_transform SSE event")
}

func TestEventsHandler_MissingSessionIDReturnsBadRequest(t *testing.T) {
	notifier := bus.New(4)
	h := NewEventsHandler(notifier)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsHandler_RejectsNonGet(t *testing.T) {
	notifier := bus.New(4)
	h := NewEventsHandler(notifier)

	req := httptest.NewRequest(http.MethodPost, "/events?session_id=sess-1", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
