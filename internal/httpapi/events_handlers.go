package httpapi

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"joetracker-engine/internal/events"
)

const (
	keepAliveInterval = 25 * time.Second
	sseRetryMillis    = 3000
)

type EventsHandler struct {
	Hub       *events.Hub
	KeepAlive time.Duration // defaults to keepAliveInterval
}

func writeSSE(w io.Writer, msg string) {
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
}

// ServeSSE streams hub events until the client leaves or the hub closes.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillis)
	writeSSE(w, events.MakeEvent(RequestIDFrom(r.Context()), events.TypePing, nil))
	if err := rc.Flush(); err != nil {
		log.Printf("[events] request_id=%s stream unsupported: %v", RequestIDFrom(r.Context()), err)
		return
	}

	every := h.KeepAlive
	if every <= 0 {
		every = keepAliveInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-t.C:
			fmt.Fprint(w, ": keep-alive\n\n")
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, msg)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
