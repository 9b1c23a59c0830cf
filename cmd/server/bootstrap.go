package main

import (
	"context"

	"github.com/bkadkota/simpa-bend/backend/internal/config"
	"github.com/bkadkota/simpa-bend/backend/internal/handlers"
	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/internal/utils"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue services.TaskQueue
	worker    *services.Worker
	scheduler *services.Scheduler

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	opdHandler          *handlers.OPDHandler
	spmHandler          *handlers.SPMHandler
	sp2dHandler         *handlers.SP2DHandler
	emergencyHandler    *handlers.EmergencyHandler
	notificationHandler *handlers.NotificationHandler
	archiveHandler      *handlers.ArchiveHandler
	systemConfigHandler *handlers.SystemConfigHandler
	systemLogHandler    *handlers.SystemLogHandler
	dashboardHandler    *handlers.DashboardHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(db)

	// Create default admin user
	if err := services.CreateAdminIfNotExists(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// Notification dispatch: queued through Redis when enabled, otherwise
	// processed in-process.
	notifService := services.NewNotificationService(db)
	processTask := func(ctx context.Context, task *services.NotificationTask) error {
		notifService.Dispatch(&task.Event)
		return nil
	}

	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processTask)
			worker.Start()
		}
	}

	// Housekeeping: archive sweep, emergency expiry, credential cleanup
	scheduler := services.NewScheduler(db)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	return &appServices{
		taskQueue: taskQueue,
		worker:    worker,
		scheduler: scheduler,

		authHandler:         handlers.NewAuthHandler(db),
		userHandler:         handlers.NewUserHandler(db),
		opdHandler:          handlers.NewOPDHandler(db),
		spmHandler:          handlers.NewSPMHandler(db),
		sp2dHandler:         handlers.NewSP2DHandler(db),
		emergencyHandler:    handlers.NewEmergencyHandler(db),
		notificationHandler: handlers.NewNotificationHandler(db),
		archiveHandler:      handlers.NewArchiveHandler(db),
		systemConfigHandler: handlers.NewSystemConfigHandler(db),
		systemLogHandler:    handlers.NewSystemLogHandler(db),
		dashboardHandler:    handlers.NewDashboardHandler(db),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	services.StopLogCleanupScheduler()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
