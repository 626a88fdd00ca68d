package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HeoJeongBo/expo-live-activity/internal/auth"
)

// sseBuffer bounds how many events a slow SSE client may fall behind before
// losing them; the stream is best-effort like the publisher it mirrors.
const sseBuffer = 16

type sseEvent struct {
	Name    string
	Payload map[string]any
}

// sseListener adapts the module listener contract onto a channel the events
// handler can select on.
type sseListener struct {
	ch chan sseEvent
}

func newSSEListener() *sseListener {
	return &sseListener{ch: make(chan sseEvent, sseBuffer)}
}

func (l *sseListener) push(name string, payload map[string]any) {
	select {
	case l.ch <- sseEvent{Name: name, Payload: payload}:
	default:
	}
}

func (l *sseListener) OnActivityUpdate(payload map[string]any) { l.push("onActivityUpdate", payload) }
func (l *sseListener) OnActivityEnd(payload map[string]any)    { l.push("onActivityEnd", payload) }
func (l *sseListener) OnUserAction(payload map[string]any)     { l.push("onUserAction", payload) }
func (l *sseListener) OnError(payload map[string]any)          { l.push("onError", payload) }

// events streams module events as server-sent events until the client
// disconnects.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	listener := newSSEListener()
	h.module.AddListener(listener)
	defer h.module.RemoveListener(listener)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-listener.ch:
			body, err := json.Marshal(event.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, body)
			flusher.Flush()
		}
	}
}
