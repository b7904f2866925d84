package lms

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/lms/db/sqlite3"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/interactions"
	"github.com/nasermirzaei89/lms/server"
	"github.com/nasermirzaei89/lms/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const sessionKeyLength = 32

type App struct {
	server  *server.Server
	handler *web.Handler
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.Open(ctx, env.GetString("DB_DSN", "file::memory:?cache=shared"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	gateway := sqlite3.NewGateway(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := &interactions.Metrics{}
	metrics.Register(registry)

	sessionName := env.GetString("SESSION_NAME", "lms-"+hex.EncodeToString(securecookie.GenerateRandomKey(2)))
	sessionKey := []byte(env.GetString("SESSION_KEY", ""))

	if len(sessionKey) == 0 {
		slog.WarnContext(ctx, "SESSION_KEY is not set, sessions will not survive a restart")

		sessionKey = securecookie.GenerateRandomKey(sessionKeyLength)
	}

	cookieStore := sessions.NewCookieStore(sessionKey)
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	httpHandler := web.NewHandler(
		gateway,
		cookieStore,
		sessionName,
		web.Config{
			PreviewLimit: getIntFromEnv(ctx, "REPLY_PREVIEW_LIMIT", discuss.DefaultPreviewLimit),
			Coordinator: interactions.Config{
				GatewayTimeout: getDurationFromEnv(ctx, "GATEWAY_TIMEOUT", 0),
				Metrics:        metrics,
			},
			Gatherer:           registry,
			SessionIdleTimeout: getDurationFromEnv(ctx, "SESSION_IDLE_TIMEOUT", 0),
			MaxSessions:        getIntFromEnv(ctx, "MAX_SESSIONS", web.DefaultMaxSessions),
		},
	)

	app := &App{
		server:  newServer(),
		handler: httpHandler,
		db:      db,
	}

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		app.handler.Close()

		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}

func getIntFromEnv(ctx context.Context, key string, def int) int {
	value := env.GetString(key, "")
	if value == "" {
		return def
	}

	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		slog.WarnContext(ctx, "invalid integer in environment, using default", "key", key, "value", value, "default", def)

		return def
	}

	return i
}

func getDurationFromEnv(ctx context.Context, key string, def time.Duration) time.Duration {
	value := env.GetString(key, "")
	if value == "" {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		slog.WarnContext(ctx, "invalid duration in environment, using default", "key", key, "value", value, "default", def)

		return def
	}

	return d
}
