package ipc

import (
	"context"
	"net/http"
	"strings"
)

// Server wraps an HTTP server with lab-engine routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address. The metrics
// handler is optional.
func NewServer(h *Handler, listenAddr string, metricsHandler http.Handler) *Server {
	mux := http.NewServeMux()

	// Health endpoint.
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Experiment state.
	mux.HandleFunc("GET /api/v1/state", h.GetState)
	mux.HandleFunc("POST /api/v1/reset", h.Reset)

	// Equipment endpoints.
	mux.HandleFunc("POST /api/v1/equipment", h.AddEquipment)
	mux.HandleFunc("DELETE /api/v1/equipment/{id}", h.RemoveEquipment)
	mux.HandleFunc("POST /api/v1/equipment/{id}/chemical", h.AddChemical)
	mux.HandleFunc("POST /api/v1/equipment/{id}/mix", h.Mix)
	mux.HandleFunc("POST /api/v1/equipment/{id}/resize", h.Resize)
	mux.HandleFunc("POST /api/v1/equipment/{id}/move", h.Move)
	mux.HandleFunc("POST /api/v1/equipment/{id}/select", h.Select)
	mux.HandleFunc("POST /api/v1/equipment/{id}/detach", h.Detach)
	mux.HandleFunc("GET /api/v1/equipment/{id}/assembly", h.GetAssembly)

	// Transfer endpoints.
	mux.HandleFunc("POST /api/v1/pour", h.Pour)
	mux.HandleFunc("POST /api/v1/titrate", h.Titrate)
	mux.HandleFunc("POST /api/v1/attach", h.Attach)

	// Lab log endpoints.
	mux.HandleFunc("POST /api/v1/logs", h.Annotate)
	mux.HandleFunc("GET /api/v1/logs", h.ListLogs)
	mux.HandleFunc("GET /api/v1/logs/stream", h.StreamLogs)

	// Catalog and assist endpoints.
	mux.HandleFunc("GET /api/v1/catalog/search", h.SearchCatalog)
	mux.HandleFunc("POST /api/v1/suggest", h.Suggest)

	// Safety toggle.
	mux.HandleFunc("POST /api/v1/safety", h.SetSafety)

	// Interaction gestures.
	mux.HandleFunc("GET /api/v1/interaction", h.GetMode)
	mux.HandleFunc("POST /api/v1/interaction/chemical", h.PickUpChemical)
	mux.HandleFunc("POST /api/v1/interaction/equipment", h.PickUpEquipment)
	mux.HandleFunc("POST /api/v1/interaction/click", h.Click)
	mux.HandleFunc("POST /api/v1/interaction/attach", h.BeginAttach)
	mux.HandleFunc("POST /api/v1/interaction/pour", h.ConfirmPour)
	mux.HandleFunc("POST /api/v1/interaction/cancel", h.CancelInteraction)

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: corsMiddleware(mux),
	}

	return &Server{
		httpServer: srv,
	}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL turns a listen address into a clickable URL.
func FormatListenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// corsMiddleware adds CORS headers for local desktop app access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
