package routegroups

import (
	"incidentdash/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterDashboard(router chi.Router, g Guards, dashboard *handlers.DashboardHandler) {
	router.MethodFunc("GET", "/", dashboard.Home)
	router.MethodFunc("POST", "/submit_system", g.Form(dashboard.SubmitSystem))
	router.MethodFunc("POST", "/submit_projection", g.Form(dashboard.SubmitProjection))
	router.Route("/api/incidents/{field}", func(incidentsRouter chi.Router) {
		incidentsRouter.MethodFunc("GET", "/{category}", dashboard.History)
		incidentsRouter.MethodFunc("GET", "/projection/{category}", dashboard.Projection)
	})
	router.MethodFunc("GET", "/fig/{field}/{category}", dashboard.Figure)
}
