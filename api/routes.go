package api

import (
	"net/http"
	"strings"

	"incidentdash/api/routegroups"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.securityHeadersMiddleware, s.loggingMiddleware)

	h := s.newRouteHandlers()
	guards := routegroups.Guards{LimitBody: s.limitBody}
	routegroups.RegisterDashboard(r, guards, h.dashboard)
	r.Route("/api/v1", func(apiRouter chi.Router) {
		routegroups.RegisterAPIV1(apiRouter, guards, h.series, h.loads)
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.MethodFunc(http.MethodGet, "/healthz", s.health)
	r.NotFound(s.notFound)
	return r
}

// notFound keeps JSON clients on JSON and sends browsers back to the home page.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/v1/") {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"code": "not_found", "message": "not found"}})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
