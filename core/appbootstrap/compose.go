package appbootstrap

import (
	"database/sql"

	"incidentdash/api"
	"incidentdash/config"
	"incidentdash/core/dashboard"
	"incidentdash/core/loader"
	"incidentdash/core/store"
	"incidentdash/core/telemetry"
	"incidentdash/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	loader     *loader.Loader
	workers    []api.BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *runtimeComposition {
	metrics := telemetry.NewMetrics()
	incidentsStore := store.NewIncidentsStore(db, logger)
	loadRuns := store.NewLoadRunsStore(db)
	incidentLoader := loader.NewLoader(incidentsStore, loadRuns, metrics, logger)
	reloadScheduler := loader.NewScheduler(cfg.Loader, incidentLoader, logger)
	dashboardSvc := dashboard.NewService(incidentsStore, cfg.EffectiveWindow(), metrics, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			DB:           db,
			DashboardSvc: dashboardSvc,
			Loader:       incidentLoader,
			LoadRuns:     loadRuns,
			Metrics:      metrics,
		},
		loader:  incidentLoader,
		workers: []api.BackgroundWorker{reloadScheduler},
	}
}
