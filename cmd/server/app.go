package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/filestore"
	"github.com/phrazzld/todo-api/internal/platform/mail"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/phrazzld/todo-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore  store.UserStore
	todoStore  store.TodoStore
	tokenStore store.TokenStore
	taskStore  task.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	todoService      service.TodoService

	// Platform services
	mailer    mail.Mailer
	fileStore filestore.FileStore

	// Event system
	eventEmitter events.EventEmitter

	// Task handling
	taskRunner *task.TaskRunner

	// Background cleanup of expired token revocations
	tokenJanitor *auth.TokenJanitor
}

// tokenSweepInterval is how often expired revocation records are pruned.
// Rows matter only until the token itself expires, so an hourly sweep keeps
// the denylist small without meaningful load.
const tokenSweepInterval = time.Hour

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize stores
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	app.userStore = postgres.NewPostgresUserStore(db, hasher, logger)
	app.todoStore = postgres.NewPostgresTodoStore(db, logger)
	app.tokenStore = postgres.NewPostgresTokenStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Initialize JWT service with the token store so logout can revoke
	// tokens and validation rejects revoked ones.
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth, app.tokenStore)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Start pruning expired revocation records in the background
	app.tokenJanitor, err = auth.NewTokenJanitor(app.tokenStore, tokenSweepInterval, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token janitor: %w", err)
	}
	app.tokenJanitor.Start()

	// Initialize the image upload store
	app.fileStore, err = filestore.NewLocalFileStore(cfg.Upload.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	// Initialize the mailer. Without SMTP configuration outgoing mail is
	// logged instead of sent so local development needs no mail server.
	if cfg.Mail.Enabled {
		app.mailer = mail.NewSMTPMailer(cfg.Mail)
		logger.Info("SMTP mailer initialized", "host", cfg.Mail.Host, "port", cfg.Mail.Port)
	} else {
		app.mailer = mail.NewLogMailer(logger)
		logger.Info("Mail delivery disabled, logging outgoing mail instead")
	}

	// Create the notification task factory before the runner so recovered
	// tasks can be hydrated back into executable ones.
	notificationFactory := task.NewNotificationTaskFactory(
		app.todoStore,
		app.userStore,
		app.mailer,
		logger,
	)

	// Initialize and start the task runner
	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)
	app.taskRunner.SetHydrator(notificationFactory.Hydrate)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	// Initialize the event emitter and register the handler that turns todo
	// change events into queued notification tasks.
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewTaskRequestHandler(
		app.taskRunner,
		notificationFactory,
		logger,
	))
	app.eventEmitter = emitter

	// Initialize the todo service
	app.todoService, err = service.NewTodoService(db, app.todoStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop task runner
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	// Stop the revocation sweep
	if app.tokenJanitor != nil {
		app.tokenJanitor.Stop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
