package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
)

const defaultHeartbeat = 30 * time.Second

// EventStreamHandler serves location events as Server-Sent Events
type EventStreamHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[string]int // channel -> connected clients
}

// NewEventStreamHandler creates a new event stream handler
func NewEventStreamHandler(eventBus providers.EventBus) *EventStreamHandler {
	return &EventStreamHandler{
		eventBus:  eventBus,
		heartbeat: defaultHeartbeat,
		clients:   make(map[string]int),
	}
}

// WithHeartbeat overrides the keep-alive interval
func (h *EventStreamHandler) WithHeartbeat(d time.Duration) *EventStreamHandler {
	if d > 0 {
		h.heartbeat = d
	}
	return h
}

// StreamLocationEvents handles GET /api/stream/locations. An optional
// comma separated ?types= narrows the stream, e.g. types=checkin.created.
func (h *EventStreamHandler) StreamLocationEvents(w http.ResponseWriter, r *http.Request) {
	var types map[entities.LocationEventType]bool
	if raw := strings.TrimSpace(r.URL.Query().Get("types")); raw != "" {
		types = make(map[entities.LocationEventType]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types[entities.LocationEventType(t)] = true
			}
		}
	}

	h.stream(w, r, providers.EventChannelLocationUpdates, map[string]interface{}{"channel": providers.EventChannelLocationUpdates},
		func(e *entities.LocationEvent) bool { return types == nil || types[e.EventType] })
}

// StreamLocationUpdates handles GET /api/stream/locations/{id}
func (h *EventStreamHandler) StreamLocationUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.stream(w, r, providers.GetLocationChannel(id), map[string]interface{}{"locationId": id}, nil)
}

// Stats handles GET /api/stream/stats
func (h *EventStreamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]int{"connectedClients": h.ClientCount()})
}

func (h *EventStreamHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}, keep func(*entities.LocationEvent) bool) {
	logger := observability.LoggerFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to channel")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.register(channel)
	defer h.unregister(channel)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	hello["timestamp"] = time.Now().UTC()
	writeEvent(w, "connected", hello)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("channel", channel).Msg("stream client disconnected")
			return
		case <-ticker.C:
			writeEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil || (keep != nil && !keep(event)) {
				continue
			}
			writeEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func (h *EventStreamHandler) register(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]++
}

func (h *EventStreamHandler) unregister(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[channel]--; h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
}

// ClientCount returns the number of connected stream clients
func (h *EventStreamHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}

func writeEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
