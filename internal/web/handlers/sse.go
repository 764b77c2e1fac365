package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/constants"
	"github.com/classgate/kiosk/internal/kiosk"
)

// EventsHandler streams kiosk state changes to the browser over SSE.
type EventsHandler struct {
	config  *config.Config
	session *kiosk.Session
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(cfg *config.Config, session *kiosk.Session) *EventsHandler {
	return &EventsHandler{config: cfg, session: session}
}

// sendSSEEvent writes a single SSE event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

// Stream sets up SSE headers and forwards state events until the client
// disconnects. Keep-alive comments hold idle connections open through
// proxies.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := h.session.Events.AddListener()
	defer h.session.Events.RemoveListener(eventCh)

	// Initial snapshot so the client does not wait for the next change.
	sendSSEEvent(w, flusher, "state", h.session.State())

	keepAlive := time.NewTicker(constants.SSEKeepAliveSeconds * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event.Data)
		}
	}
}
