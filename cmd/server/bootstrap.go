package main

import (
	"context"

	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/handlers"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/internal/utils"
	"github.com/sonorastudio/backend/pkg/logger"
)

// appServices holds the initialized services and handlers the router needs.
type appServices struct {
	cfg             *config.Config
	cache           services.ProjectCache
	workflow        *services.WorkflowService
	notifyQueue     services.NotifyQueue
	notifyWorker    *services.NotifyWorker
	reminderService *services.ReminderService
	authHandler     *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services,
// queue and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Audit trail
	services.InitAuditLogger(models.GetDB())
	services.StartLogCleanupScheduler(models.GetDB())

	// Notification pipeline: events fan out to webhook channels and email,
	// through Redis when available, in-process otherwise
	emailService := services.NewEmailService(&cfg.SMTP)
	notificationService := services.NewNotificationService(models.GetDB(), emailService)
	dispatch := func(ctx context.Context, event *services.WorkflowEvent) error {
		return notificationService.Notify(event)
	}

	notifyQueue := services.InitNotifyQueue(cfg)
	if syncQueue, ok := notifyQueue.(*services.SyncNotifyQueue); ok {
		syncQueue.SetDispatcher(dispatch)
	}

	var notifyWorker *services.NotifyWorker
	if cfg.Redis.Enabled {
		notifyWorker = services.NewNotifyWorker(&cfg.Redis)
		if notifyWorker != nil {
			notifyWorker.SetDispatcher(dispatch)
			notifyWorker.Start()
		}
	}

	// Workflow engine with an in-memory read cache
	cache := services.NewMemoryProjectCache()
	workflow := services.NewWorkflowService(
		models.GetDB(), cache, services.NewQueueNotifier(notifyQueue), &cfg.Review)

	// Deadline reminder emails on business days
	reminderService := services.NewReminderService(models.GetDB(), emailService, &cfg.Review)
	reminderService.StartScheduler()

	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:             cfg,
		cache:           cache,
		workflow:        workflow,
		notifyQueue:     notifyQueue,
		notifyWorker:    notifyWorker,
		reminderService: reminderService,
		authHandler:     authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.reminderService.StopScheduler()

	if s.notifyWorker != nil {
		s.notifyWorker.Stop()
	}
	if s.notifyQueue != nil {
		s.notifyQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
