package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// EventsHandler serves the session journal:
//
//	GET /api/events?limit=N&session=ID&kind=K
//	GET /api/events/summary?session=ID
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

type listEventsResponse struct {
	Events []*store.Event `json:"events"`
}

type summaryResponse struct {
	Session  string               `json:"session,omitempty"`
	Gestures []store.GestureCount `json:"gestures"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/api/events") {
	case "", "/":
		h.list(w, r)
	case "/summary":
		h.summary(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, store.DefaultEventLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	kind := store.EventKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", store.EventGesture, store.EventAction, store.EventScrollLock:
	default:
		writeError(w, http.StatusBadRequest, "unknown event kind")
		return
	}

	events, err := h.store.Events().List(store.EventFilter{
		SessionID: r.URL.Query().Get("session"),
		Kind:      kind,
		Limit:     limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	if events == nil {
		events = []*store.Event{}
	}

	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}

func (h *EventsHandler) summary(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")

	counts, err := h.store.Events().GestureCounts(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize events")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{Session: session, Gestures: counts})
}
