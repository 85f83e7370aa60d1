package api

import (
	"incidentdash/api/handlers"
	"incidentdash/core/chart"
)

type routeHandlers struct {
	dashboard *handlers.DashboardHandler
	series    *handlers.SeriesHandler
	loads     *handlers.LoadsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	opts := chart.Options{WidthPx: s.cfg.Chart.WidthPx, HeightPx: s.cfg.Chart.HeightPx}
	return routeHandlers{
		dashboard: handlers.NewDashboardHandler(s.dashboardSvc, opts, s.metrics, s.logger),
		series:    handlers.NewSeriesHandler(s.dashboardSvc, s.logger),
		loads:     handlers.NewLoadsHandler(s.loader, s.loadRuns, s.cfg.Loader.CSVPath, s.logger),
	}
}
