package httpapi

import (
	"net/http"
	"time"

	"joetracker-engine/internal/store"
)

type HealthHandler struct {
	Deps
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"ok":   true,
		"time": h.now().UTC().Format(time.RFC3339),
	}
	if n, err := store.CountPostings(r.Context(), h.DB); err == nil {
		out["postings"] = n
	} else {
		out["ok"] = false
		out["error"] = err.Error()
	}
	if run, ok, err := store.LastRun(r.Context(), h.DB); err == nil && ok {
		out["last_run"] = run
	}
	WriteJSON(w, http.StatusOK, out)
}
