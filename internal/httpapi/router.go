package httpapi

import "net/http"

// NewMux returns the raw mux so the caller can still attach /shutdown.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Dashboard + data
	dh := DataHandler{Deps: d}
	mux.HandleFunc("/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.Index,
	}))
	mux.HandleFunc("/api/data", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.Data,
	}))
	mux.HandleFunc("/api/sections", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.Sections,
	}))
	mux.HandleFunc("/api/series", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.Series,
	}))
	mux.HandleFunc("/api/comparison", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.Comparison,
	}))

	// Refresh
	rh := RefreshHandler{Deps: d}
	mux.HandleFunc("/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))
	mux.HandleFunc("/refresh/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Config
	ch := ConfigHandler{Deps: d}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	hh := HealthHandler{Deps: d}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	dbh := DBHandler{Deps: d}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dbh.Checkpoint,
	}))

	return mux
}

// NewHandler wraps h in the standard middleware chain.
func NewHandler(h http.Handler) http.Handler {
	return Chain(h, RequestID, Recover, AccessLog, Cors)
}
