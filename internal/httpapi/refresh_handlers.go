package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"

	"joetracker-engine/internal/refresh"
)

type RefreshHandler struct {
	Deps
}

func (h RefreshHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Refresher.Status())
}

// Run starts a refresh in the background and returns immediately.
func (h RefreshHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Refresher.Status().Running {
		WriteError(w, r, http.StatusConflict, "already_running", refresh.ErrAlreadyRunning.Error())
		return
	}

	cfg := currentConfig(h.CfgVal)
	opts := refresh.Options{Fetch: cfg.Fetch.Enabled}
	if opts.Fetch && h.Fetchers != nil {
		opts.Fetchers = h.Fetchers(cfg, h.now())
	}

	go func() {
		if _, err := h.Refresher.RunOnce(context.Background(), opts); err != nil && !errors.Is(err, refresh.ErrAlreadyRunning) {
			log.Printf("[refresh] request_id=%s error: %v", RequestIDFrom(r.Context()), err)
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "fetch": opts.Fetch})
}
