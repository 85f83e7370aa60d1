package routegroups

import (
	"incidentdash/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterAPIV1(apiRouter chi.Router, g Guards, series *handlers.SeriesHandler, loads *handlers.LoadsHandler) {
	apiRouter.MethodFunc("GET", "/categories", series.Categories)
	apiRouter.MethodFunc("GET", "/series/{field}/{category}", series.Series)
	apiRouter.Route("/loads", func(loadsRouter chi.Router) {
		loadsRouter.MethodFunc("GET", "/", loads.List)
		loadsRouter.MethodFunc("GET", "/export", loads.Export)
		loadsRouter.MethodFunc("POST", "/", g.Form(loads.Reload))
	})
}
