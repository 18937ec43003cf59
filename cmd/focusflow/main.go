package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"focusflow/config"
	"focusflow/internal/init/cache"
	"focusflow/internal/init/database"
	"focusflow/internal/scheduler"

	energyDbRepo "focusflow/internal/modules/energy/repo/database"
	energyUC "focusflow/internal/modules/energy/usecase"

	focusC "focusflow/internal/modules/focus/controller"
	focusDbRepo "focusflow/internal/modules/focus/repo/database"
	focusUC "focusflow/internal/modules/focus/usecase"

	taskC "focusflow/internal/modules/task/controller"
	taskDbRepo "focusflow/internal/modules/task/repo/database"
	taskUC "focusflow/internal/modules/task/usecase"

	reminderC "focusflow/internal/modules/reminder/controller"
	reminderRp "focusflow/internal/modules/reminder/repo"
	reminderCacheRepo "focusflow/internal/modules/reminder/repo/cache"
	reminderDbRepo "focusflow/internal/modules/reminder/repo/database"
	reminderUC "focusflow/internal/modules/reminder/usecase"

	"focusflow/internal/modules/notification/dispatcher"
	"focusflow/internal/modules/notification/ws"
	userDbRepo "focusflow/internal/modules/user/repo/database"

	"focusflow/pkg/lib/emailsender"
	"focusflow/pkg/lib/pushsender"
	"focusflow/pkg/lib/pushsender/fcm"
	appMiddleware "focusflow/pkg/middleware/jwt"
	"focusflow/pkg/middleware/logger"
)

type App struct {
	Storage     *database.Storage
	Cache       *cache.Cache
	EmailSender *emailsender.EmailSender
	PushSender  pushsender.Sender
	Hub         *ws.Hub
	Scheduler   *scheduler.Scheduler
	Router      chi.Router
	Log         *slog.Logger
	Cfg         *config.Config
}

func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := database.NewStorage(cfg.DbConfig)
	if err != nil {
		return nil, fmt.Errorf("db init failed: %w", err)
	}

	appCache, err := cache.NewCache(cfg.CacheConfig)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}

	// Delivery channels are optional: a node without SMTP or FCM credentials
	// still runs, it just has fewer ways to reach the user.
	var eSender *emailsender.EmailSender
	if cfg.SMTPConfig.Host != "" {
		eSender, err = emailsender.New(cfg.SMTPConfig)
		if err != nil {
			log.Warn("email sender init failed, email fallback disabled", "error", err)
			eSender = nil
		}
	}

	var pSender pushsender.Sender
	if cfg.FCMConfig.ProjectID != "" || cfg.FCMConfig.ServiceAccountKeyJSONPath != "" {
		fcmSender, err := fcm.NewFCMSender(context.Background(), cfg.FCMConfig, log)
		if err != nil {
			log.Warn("FCM sender init failed, push delivery disabled", "error", err)
		} else {
			pSender = fcmSender
		}
	}

	hub := ws.NewHub(log)
	go hub.Run()

	return &App{
		Storage:     storage,
		Cache:       appCache,
		EmailSender: eSender,
		PushSender:  pSender,
		Hub:         hub,
		Router:      chi.NewRouter(),
		Log:         log,
		Cfg:         cfg,
	}, nil
}

func (app *App) SetupRoutes() error {
	app.Router.Use(
		middleware.Recoverer,
		middleware.RequestID,
		logger.New(app.Log),
		cors.Handler(cors.Options{
			AllowedOrigins:   app.Cfg.HttpServerConfig.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Cookie"},
			ExposedHeaders:   []string{"Link", "Set-Cookie"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	apiVersion := "/v1"
	AuthUserMiddleware := appMiddleware.NewUserAuth(app.Log)

	// --- Shared infrastructure ---
	userDBImpl := userDbRepo.NewUserDatabase(app.Storage.Db, app.Log)
	notifDispatcher := dispatcher.New(app.PushSender, app.EmailSender, app.Hub, userDBImpl, app.Log)

	// --- Energy module ---
	energyDBImpl := energyDbRepo.NewEnergyDatabase(app.Storage.Db, app.Log)
	energyUseCaseImpl := energyUC.NewEnergyUseCase(energyDBImpl, app.Log)

	// --- Task module ---
	taskDBImpl := taskDbRepo.NewTaskDatabase(app.Storage.Db, app.Log)
	taskUseCaseImpl := taskUC.NewTaskUseCase(taskDBImpl, app.Log)
	taskCtrl := taskC.NewTaskController(taskUseCaseImpl, app.Log)

	app.Router.Route(apiVersion+"/tasks", func(r chi.Router) {
		r.Use(AuthUserMiddleware)
		r.Post("/", taskCtrl.CreateTask)
		r.Get("/", taskCtrl.GetTasks)
		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", taskCtrl.GetTask)
			r.Put("/", taskCtrl.UpdateTask)
			r.Post("/complete", taskCtrl.CompleteTask)
		})
	})

	// --- Focus module ---
	focusDBImpl := focusDbRepo.NewFocusDatabase(app.Storage.Db, app.Log)
	focusUseCaseImpl := focusUC.NewFocusUseCase(focusDBImpl, app.Log)
	focusCtrl := focusC.NewFocusController(focusUseCaseImpl, app.Log)

	app.Router.Route(apiVersion+"/focus", func(r chi.Router) {
		r.Use(AuthUserMiddleware)
		r.Post("/start", focusCtrl.StartSession)
		r.Post("/stop", focusCtrl.StopSession)
		r.Get("/current", focusCtrl.GetCurrentSession)
	})

	// --- Reminder module ---
	reminderDBImpl := reminderDbRepo.NewReminderDatabase(app.Storage.Db, app.Log)
	prefCacheImpl := reminderCacheRepo.NewPreferenceCache(app.Cache, app.Log)
	reminderRepoImpl := reminderRp.NewRepo(reminderDBImpl, prefCacheImpl)
	reminderUseCaseImpl := reminderUC.NewReminderUseCase(
		reminderRepoImpl,
		taskDBImpl,
		focusDBImpl,
		energyUseCaseImpl,
		notifDispatcher,
		app.Cfg.SchedulerConfig,
		app.Log,
	)
	reminderCtrl := reminderC.NewReminderController(reminderUseCaseImpl, app.Log)

	app.Router.Route(apiVersion+"/reminders", func(r chi.Router) {
		r.Use(AuthUserMiddleware)
		r.Post("/", reminderCtrl.CreateReminder)
		r.Get("/", reminderCtrl.GetReminders)
		r.Get("/preferences", reminderCtrl.GetPreferences)
		r.Put("/preferences", reminderCtrl.UpdatePreferences)
		r.Get("/optimal-times", reminderCtrl.GetOptimalTimes)
		r.Get("/analytics", reminderCtrl.GetAnalytics)
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(5, 1*time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/schedule-automatic", reminderCtrl.ScheduleAutomatic)
		})
		r.Route("/{reminderID}", func(r chi.Router) {
			r.Post("/response", reminderCtrl.RecordResponse)
			r.Post("/snooze", reminderCtrl.Snooze)
			r.Post("/dismiss", reminderCtrl.Dismiss)
		})
	})

	// --- Notification feed ---
	app.Router.With(AuthUserMiddleware).Get(apiVersion+"/notifications/ws", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value("userId").(uint)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ws.ServeWs(app.Hub, w, r, userID, app.Log)
	})

	// --- Background scheduler ---
	sched, err := scheduler.New(reminderUseCaseImpl, app.Cfg.SchedulerConfig, app.Log)
	if err != nil {
		return fmt.Errorf("scheduler init failed: %w", err)
	}
	app.Scheduler = sched

	return nil
}

func (app *App) Start() error {
	srv := &http.Server{
		Addr:         app.Cfg.HttpServerConfig.Address,
		Handler:      app.Router,
		ReadTimeout:  app.Cfg.HttpServerConfig.Timeout,
		WriteTimeout: app.Cfg.HttpServerConfig.Timeout,
		IdleTimeout:  app.Cfg.HttpServerConfig.IdleTimeout,
	}

	app.Scheduler.Start()

	serverShutdown := make(chan error, 1)
	go func() {
		var err error
		addr := app.Cfg.HttpServerConfig.Address

		if app.Cfg.HttpServerConfig.TLS.Enabled {
			certFile := app.Cfg.HttpServerConfig.TLS.CertFile
			keyFile := app.Cfg.HttpServerConfig.TLS.KeyFile
			app.Log.Info("HTTPS server starting", slog.String("address", addr))
			if _, errStat := os.Stat(certFile); os.IsNotExist(errStat) {
				serverShutdown <- fmt.Errorf("TLS cert_file not found: %s", certFile)
				return
			}
			if _, errStat := os.Stat(keyFile); os.IsNotExist(errStat) {
				serverShutdown <- fmt.Errorf("TLS key_file not found: %s", keyFile)
				return
			}
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			app.Log.Info("HTTP server starting", slog.String("address", addr))
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Log.Error("server run failed", slog.String("error", err.Error()))
			serverShutdown <- err
		} else {
			serverShutdown <- nil
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			app.Scheduler.Stop(3 * time.Second)
			return fmt.Errorf("server runtime error: %w", err)
		}
		app.Log.Info("Server shutdown initiated by server itself.")
	case sig := <-quit:
		app.Log.Info("Received OS signal, initiating graceful shutdown...", slog.String("signal", sig.String()))
	}

	app.Log.Info("Stopping scheduler...")
	app.Scheduler.Stop(3 * time.Second)

	app.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		app.Log.Error("Server graceful shutdown failed", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	app.Log.Info("Server stopped gracefully")
	return nil
}

func main() {
	cfg := config.MustLoad()
	log := SetupLogger(cfg.Env)
	slog.SetDefault(log)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Error("app init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.SetupRoutes(); err != nil {
		log.Error("route setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		log.Error("application terminated with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func SetupLogger(env string) *slog.Logger {
	var log *slog.Logger
	level := slog.LevelInfo
	switch strings.ToLower(env) {
	case "local", "dev", "development":
		level = slog.LevelDebug
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true}))
	case "prod", "production":
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true}))
	default:
		level = slog.LevelDebug
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true}))
	}
	return log
}
