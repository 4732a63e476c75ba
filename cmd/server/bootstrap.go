package main

import (
	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/handlers"
	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg       *config.Config
	store     store.Store
	hub       *services.Hub
	importer  *services.Importer
	resync    *services.ResyncScheduler
	taskQueue services.TaskQueue
	worker    *services.Worker

	dependencyHandler *handlers.DependencyHandler
	webhookHandler    *handlers.WebhookHandler
	importHandler     *handlers.ImportHandler
	dashboardHandler  *handlers.DashboardHandler
	trackerHandler    *handlers.TrackerHandler
	eventLogHandler   *handlers.EventLogHandler
	healthHandler     *handlers.HealthHandler
	metricsHandler    *handlers.MetricsHandler
	wsHandler         *handlers.WSHandler
}

// bootstrap initializes all application dependencies: store, pipeline,
// queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	st, err := store.New(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}

	services.InitEventLogger(st)
	services.StartEventLogCleanup(st, services.DefaultLogRetentionDays)

	hub := services.GetHub()
	scorer := services.NewRiskScorer(cfg.RiskEngine)

	// Demo mode swaps the live tracker for a synthetic portfolio; the rest
	// of the pipeline is identical.
	var source services.IssueSource
	if cfg.Import.DemoMode {
		logger.Infof("[Bootstrap] Demo mode enabled, using synthetic issue source")
		source = services.NewDemoSource()
	} else {
		source = jira.NewClient(jira.ConnectionFromConfig(&cfg.Jira))
	}

	reconciler := services.NewReconciler(st, source, scorer, hub)

	// Task queue (Redis-backed if enabled, otherwise in-process)
	taskQueue := services.InitTaskQueue(cfg)
	if localQueue, ok := taskQueue.(*services.LocalQueue); ok {
		localQueue.SetProcessor(reconciler.ProcessTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled && taskQueue.IsAsync() {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(reconciler.ProcessTask)
			worker.Start()
		}
	}

	importer := services.NewImporter(st, source, scorer, hub, &cfg.Import)

	resync := services.NewResyncScheduler(importer, cfg.Import.ResyncCron)
	if err := resync.Start(); err != nil {
		logger.Fatalf("Failed to start resync scheduler: %v", err)
	}

	return &appServices{
		cfg:       cfg,
		store:     st,
		hub:       hub,
		importer:  importer,
		resync:    resync,
		taskQueue: taskQueue,
		worker:    worker,

		dependencyHandler: handlers.NewDependencyHandler(st, hub),
		webhookHandler:    handlers.NewWebhookHandler(taskQueue),
		importHandler:     handlers.NewImportHandler(importer),
		dashboardHandler:  handlers.NewDashboardHandler(st),
		trackerHandler:    handlers.NewTrackerHandler(st, &cfg.Jira),
		eventLogHandler:   handlers.NewEventLogHandler(st),
		healthHandler:     handlers.NewHealthHandler(st),
		metricsHandler:    handlers.NewMetricsHandler(st),
		wsHandler:         handlers.NewWSHandler(hub),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.resync.Stop()
	services.StopEventLogCleanup()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	if err := s.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("Store close failed")
	}
}
