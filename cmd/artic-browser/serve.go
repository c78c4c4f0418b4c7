package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/artic-browser/internal/app"
	"github.com/Sternrassler/artic-browser/internal/server"
	"github.com/Sternrassler/artic-browser/internal/view"
	"github.com/Sternrassler/artic-browser/pkg/client"
	"github.com/Sternrassler/artic-browser/pkg/logging"
	"github.com/Sternrassler/artic-browser/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

// serveOptions are the serve flags. Flags not given on the command line
// fall back to the environment, then to the defaults below.
type serveOptions struct {
	port        string
	redisURL    string
	apiURL      string
	userAgent   string
	logLevel    string
	logPretty   bool
	rateLimit   int
	sessionIdle time.Duration
}

func defaultServeOptions() serveOptions {
	return serveOptions{
		port:        "8080",
		redisURL:    "localhost:6379",
		apiURL:      client.DefaultBaseURL,
		userAgent:   "artic-browser/" + version,
		logLevel:    "info",
		rateLimit:   ratelimit.DefaultRequestsPerMinute,
		sessionIdle: 12 * time.Hour,
	}
}

// applyEnv fills every option whose flag was not changed from its variable.
func (o *serveOptions) applyEnv(changed func(name string) bool, getenv func(string) string) error {
	str := func(flag, key string, dst *string) {
		if v := getenv(key); v != "" && !changed(flag) {
			*dst = v
		}
	}
	str("port", "PORT", &o.port)
	str("redis-url", "REDIS_URL", &o.redisURL)
	str("api-url", "ARTIC_API_URL", &o.apiURL)
	str("user-agent", "USER_AGENT", &o.userAgent)
	str("log-level", "LOG_LEVEL", &o.logLevel)

	if v := getenv("LOG_PRETTY"); v != "" && !changed("log-pretty") {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		o.logPretty = b
	}
	if v := getenv("RATE_LIMIT_PER_MINUTE"); v != "" && !changed("rate-limit") {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
		}
		o.rateLimit = n
	}
	if v := getenv("SESSION_IDLE"); v != "" && !changed("session-idle") {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_IDLE: %w", err)
		}
		o.sessionIdle = d
	}
	return nil
}

// redisOptions accepts a redis:// URL or a bare host:port.
func redisOptions(raw string) (*redis.Options, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		return redis.ParseURL(raw)
	}
	return &redis.Options{Addr: raw}, nil
}

func newServeCmd() *cobra.Command {
	opts := defaultServeOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the artworks browser web server",
		Long: `Starts the web interface. Pages are loaded from the artworks API through
a Redis-backed response cache and request budget.

Every flag can also be set through the environment variable named in its
description; a .env file in the working directory is loaded first.`,
		Example: `  # Start on the default port 8080 with a local Redis
  artic-browser serve

  # Custom port and Redis
  artic-browser serve --port 3000 --redis-url redis://cache:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.applyEnv(cmd.Flags().Changed, os.Getenv); err != nil {
				return err
			}
			return runServe(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.port, "port", "p", opts.port, "Port to listen on (PORT)")
	f.StringVar(&opts.redisURL, "redis-url", opts.redisURL, "Redis address or URL (REDIS_URL)")
	f.StringVar(&opts.apiURL, "api-url", opts.apiURL, "Artworks API base URL (ARTIC_API_URL)")
	f.StringVar(&opts.userAgent, "user-agent", opts.userAgent, "User-Agent sent to the API (USER_AGENT)")
	f.StringVar(&opts.logLevel, "log-level", opts.logLevel, "debug, info, warn or error (LOG_LEVEL)")
	f.BoolVar(&opts.logPretty, "log-pretty", opts.logPretty, "Human-readable console logs (LOG_PRETTY)")
	f.IntVar(&opts.rateLimit, "rate-limit", opts.rateLimit, "API requests per minute (RATE_LIMIT_PER_MINUTE)")
	f.DurationVar(&opts.sessionIdle, "session-idle", opts.sessionIdle, "Drop sessions idle this long (SESSION_IDLE)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	level, err := logging.ParseLogLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Pretty = opts.logPretty
	logging.Setup(logCfg)
	logger := logging.NewLogger(logging.ComponentCommand)

	redisOpts, err := redisOptions(opts.redisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Str("addr", redisOpts.Addr).Msg("Failed to connect to Redis")
		return fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")

	cfg := client.DefaultConfig(redisClient, opts.userAgent)
	cfg.BaseURL = opts.apiURL
	cfg.RequestsPerMinute = opts.rateLimit
	apiClient, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}
	defer apiClient.Close()

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	sessions := app.NewSessions(apiClient, logging.NewLogger(logging.ComponentApp))
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.RunSweeper(sweepCtx, sweepInterval, opts.sessionIdle)

	srv := server.New(sessions, renderer, apiClient, logging.NewLogger(logging.ComponentServer))

	addr := ":" + opts.port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("api", opts.apiURL).
			Str("user_agent", opts.userAgent).
			Int("rate_limit", opts.rateLimit).
			Msg("Artworks browser listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
			return err
		}
		logger.Info().Msg("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
