package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	jsonfileAdapter "scribekit/adapters/jsonfile"
	mem "scribekit/adapters/memory"
	redisAdapter "scribekit/adapters/redis"
	sqlxAdapter "scribekit/adapters/sqlx"
	"scribekit/api/httpapi"
	"scribekit/config"
	"scribekit/core"
	"scribekit/engine"
	"scribekit/integrations/webhook"
	"scribekit/leaderboard"
	"scribekit/realtime"
	"scribekit/scribe"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.AchievementService
	Board   leaderboard.Board
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	return setupStorage(ctx, cfg)
}

func provideService(hub *realtime.Hub, storage engine.Storage, cfg *config.Config) (*engine.AchievementService, error) {
	loc, err := cfg.Gamification.Location()
	if err != nil {
		return nil, err
	}

	mode := engine.DispatchAsync
	if cfg.Gamification.Dispatch == "sync" {
		mode = engine.DispatchSync
	}

	svc := scribe.New(
		scribe.WithRealtime(hub),
		scribe.WithStorage(storage),
		scribe.WithTimezone(loc),
		scribe.WithDispatchMode(mode),
	)

	if len(cfg.Notifications.WebhookEndpoints) > 0 {
		attachWebhooks(svc, webhook.New(cfg.Notifications.WebhookEndpoints))
	}

	return svc, nil
}

func provideBoard(svc *engine.AchievementService) leaderboard.Board {
	board := leaderboard.NewSkipList()
	leaderboard.Attach(svc, board)
	return board
}

func provideHandler(svc *engine.AchievementService, hub *realtime.Hub, board leaderboard.Board, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, board, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// attachWebhooks forwards every engine event to the notification sink.
func attachWebhooks(svc *engine.AchievementService, sink *webhook.Sink) {
	forward := func(_ context.Context, e core.Event) { sink.OnEvent(e) }
	svc.Subscribe(core.EventXPAwarded, forward)
	svc.Subscribe(core.EventLevelUp, forward)
	svc.Subscribe(core.EventStreakMilestone, forward)
	svc.Subscribe(core.EventStreakBroken, forward)
	svc.Subscribe(core.EventBadgeUnlocked, forward)
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(_ context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	case "file":
		return jsonfileAdapter.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
