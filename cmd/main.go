package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"showdown/internal/article"
	"showdown/internal/backend"
	"showdown/internal/bot"
	"showdown/internal/config"
	"showdown/internal/health"
	"showdown/internal/scheduler"
	"showdown/internal/session"
	"showdown/internal/showdown"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

const startupPingTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to load .env file",
			"error", err)

		return
	}

	cfg := config.LoadConfig()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	guard, err := showdown.ParseRatingGuard(cfg.RatingGuard)
	if err != nil {
		log.ErrorContext(ctx, "RATING_GUARD must be permissive or guarded",
			"error", err,
			"RATING_GUARD", cfg.RatingGuard)

		return
	}

	client, err := backend.New(cfg.APIBaseURL, cfg.APITimeout, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize backend client",
			"error", err,
			"apiBaseURL", cfg.APIBaseURL)

		return
	}
	pingBackend(ctx, client, cfg.APIBaseURL, log)

	store := session.NewStore(client, log, showdown.WithRatingGuard(guard))
	extractor := article.NewExtractor(cfg.ArticleCacheSize, cfg.ArticleCacheTTL, log)

	botInst, err := bot.New(cfg.Token, store, extractor, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"ratingGuard", cfg.RatingGuard,
		"articleCacheSize", cfg.ArticleCacheSize,
		"articleCacheTTL", cfg.ArticleCacheTTL.String())

	sched := scheduler.New(ctx, store, botInst, cfg.SessionIdleTTL, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", scheduler.SessionSweepSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", scheduler.SessionSweepSpec,
		"sessionIdleTTL", cfg.SessionIdleTTL.String())

	if cfg.HealthAddr != "" {
		healthSrv := health.New(cfg.HealthAddr, store, log)

		go healthSrv.Start(ctx)
		defer healthSrv.Stop()
	}

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"apiBaseURL", cfg.APIBaseURL)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	<-botDone
	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

// pingBackend only reports. Each new session loads the catalog itself.
func pingBackend(ctx context.Context, client *backend.Client, baseURL string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		log.WarnContext(ctx, "Backend is not reachable, sessions will start without models",
			"error", err,
			"apiBaseURL", baseURL)

		return
	}

	log.InfoContext(ctx, "Backend is reachable",
		"apiBaseURL", baseURL)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
