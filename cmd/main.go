package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/alerts"
	"github.com/ukydev/asset-maintenance/internal/auth"
	"github.com/ukydev/asset-maintenance/internal/config"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/handlers"
	"github.com/ukydev/asset-maintenance/internal/logging"
	"github.com/ukydev/asset-maintenance/internal/middleware"
	"github.com/ukydev/asset-maintenance/internal/models"
	"github.com/ukydev/asset-maintenance/internal/urgency"
)

const shutdownTimeout = 10 * time.Second

// stores groups the persistence interfaces the router depends on
type stores struct {
	users    db.UserCollection
	assets   db.AssetCollection
	tasks    db.TaskCollection
	settings db.SettingsCollection
}

func newRouter(cfg *config.Config, authService *auth.Service, s stores, scorer *urgency.Scorer) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(authService)
	requirePerm := func(action string, h http.HandlerFunc) http.Handler {
		return authMiddleware.RequirePermission(action)(h)
	}

	authHandler := handlers.NewAuthHandler(authService, s.users)
	taskHandler := handlers.NewTaskHandler(s.assets, s.tasks, s.settings, scorer)
	assetHandler := handlers.NewAssetHandler(s.assets)
	importHandler := handlers.NewImportHandler(s.assets)
	settingsHandler := handlers.NewSettingsHandler(s.settings)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/profile", authHandler.Profile)
	mux.HandleFunc("/api/auth/password", authHandler.ChangePassword)
	mux.Handle("/api/users/role", requirePerm(models.ActionManageUsers, authHandler.SetRole))

	mux.Handle("/api/tasks", requirePerm(models.ActionViewTasks, taskHandler.List))
	mux.Handle("/api/tasks/stats", requirePerm(models.ActionViewTasks, taskHandler.Stats))
	mux.Handle("/api/tasks/complete", requirePerm(models.ActionCompleteTask, taskHandler.Complete))

	mux.Handle("/api/assets", requirePerm(models.ActionViewAssets, assetHandler.List))
	mux.Handle("/api/assets/import/template", requirePerm(models.ActionImportAssets, importHandler.Template))
	mux.Handle("/api/assets/import/validate", requirePerm(models.ActionImportAssets, importHandler.Validate))
	mux.Handle("/api/assets/import", requirePerm(models.ActionImportAssets, importHandler.Import))

	mux.Handle("/api/settings", requirePerm(models.ActionManageSettings, settingsHandler.Settings))

	rateLimiter := middleware.NewRateLimitMiddleware()
	limit := rateLimiter.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindowSeconds)
	return middleware.RequestLogger(limit(authMiddleware.Authenticate(mux)))
}

// seedAdmin creates the configured admin account if it does not exist yet.
// Public signup only creates viewers, so this is how the first admin appears.
func seedAdmin(ctx context.Context, cfg *config.Config, authService *auth.Service, users db.UserCollection) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	_, err := users.FindUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	req := models.RegisterRequest{Username: cfg.AdminUsername, Email: cfg.AdminEmail, Password: cfg.AdminPassword}
	if err := auth.ValidateRegistration(req); err != nil {
		return fmt.Errorf("invalid admin account settings: %w", err)
	}
	hash, err := authService.HashPassword(req.Password)
	if err != nil {
		return err
	}
	err = users.InsertUser(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.WithField("username", req.Username).Info("Created admin account")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollectionName)}
	if err := users.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to create user indexes")
	}
	s := stores{
		users:    users,
		assets:   &db.MongoAssetCollection{Collection: database.Collection(db.AssetsCollectionName)},
		tasks:    &db.MongoTaskCollection{Collection: database.Collection(db.TasksCollectionName)},
		settings: &db.MongoSettingsCollection{Collection: database.Collection(db.SettingsCollectionName)},
	}

	authService, err := auth.NewService(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}
	if err := seedAdmin(ctx, cfg, authService, s.users); err != nil {
		log.WithError(err).Fatal("Failed to seed admin account")
	}
	scorer := urgency.NewScorer(urgency.WithHoursPerDay(cfg.HoursPerDay))

	if cfg.AlertsEnabled() {
		publisher, err := alerts.NewMQTTPublisher(cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to start alert publisher")
		}
		defer publisher.Close()

		sweeper := alerts.NewSweeper(s.assets, s.tasks, scorer, publisher, cfg.MQTTTopicPrefix, cfg.AlertThreshold)
		go sweeper.Run(ctx, cfg.AlertInterval)
		log.WithFields(log.Fields{
			"broker":   cfg.MQTTBrokerURL,
			"interval": cfg.AlertInterval,
		}).Info("Alert sweeper started")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, authService, s, scorer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
