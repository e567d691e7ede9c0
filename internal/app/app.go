package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"lifeline/backend/internal/api"
	"lifeline/backend/internal/config"
	"lifeline/backend/internal/database"
	"lifeline/backend/internal/interfaces"
	"lifeline/backend/internal/llm"
	"lifeline/backend/internal/offline"
	"lifeline/backend/internal/repository"
	"lifeline/backend/internal/service"
)

var (
	_ interfaces.HistoryService   = (*service.HistoryService)(nil)
	_ interfaces.AssistantService = (*service.AssistantService)(nil)
	_ interfaces.SettingsService  = (*service.SettingsService)(nil)
	_ service.SettingsReader      = (*service.SettingsService)(nil)
	_ llm.ChatStreamer            = (*llm.Client)(nil)
	_ llm.ConnectivityChecker     = (*llm.HTTPProbe)(nil)
)

const shutdownTimeout = 10 * time.Second

// App holds the wired application and the resources it must release.
type App struct {
	DB     *sql.DB
	Redis  *redis.Client
	Server *http.Server
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", app.Server.Addr)
		serverErr <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}

// NewApp opens storage and wires every service and handler behind an http.Server.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)

	app := &App{DB: db}

	repo, err := app.newRepository(cfg)
	if err != nil {
		if cErr := app.Close(); cErr != nil {
			err = multierror.Append(err, cErr)
		}
		return nil, err
	}

	settingsService := service.NewSettingsService(db, service.Settings{
		SystemPrompt: cfg.InitialSystemPrompt,
		Model:        cfg.ChatModel,
	})
	appSettings, err := settingsService.InitAndGet(context.Background())
	if err != nil {
		if cErr := app.Close(); cErr != nil {
			err = multierror.Append(err, cErr)
		}
		return nil, fmt.Errorf("failed to initialize application settings: %w", err)
	}
	slog.Info("Loaded application settings", "model", appSettings.Model, "force_offline", appSettings.ForceOffline)

	historyService := service.NewHistoryService(repo)
	assistantService := service.NewAssistantService(
		historyService,
		settingsService,
		llm.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey),
		llm.NewHTTPProbe(cfg.ProbeURL(), cfg.ConnectivityTimeout, cfg.ConnectivityCacheTTL),
		offline.NewDefaultEngine(),
		service.AssistantOptions{OfflineDelay: cfg.OfflineReplyDelay},
	)

	var limiter *rate.Limiter
	if cfg.SubmitRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRateLimit), max(cfg.SubmitRateBurst, 1))
	}

	router := api.NewRouter(
		api.NewConversationHandler(historyService, assistantService),
		api.NewAssistantHandler(assistantService),
		api.NewSettingsHandler(settingsService),
		limiter,
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return app, nil
}

func (a *App) newRepository(cfg *config.Config) (repository.Repository, error) {
	if !strings.EqualFold(cfg.StorageDriver, config.StorageRedis) {
		return repository.NewSQLiteRepository(a.DB), nil
	}

	a.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("Successfully connected to Redis.", "addr", cfg.RedisAddr)
	return repository.NewRedisRepository(a.Redis, cfg.RedisPrefix), nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var result *multierror.Error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close database connection: %w", err))
		}
	}
	return result.ErrorOrNil()
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
