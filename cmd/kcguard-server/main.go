package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kcguard/pkg/config"
	"kcguard/pkg/grant"
	"kcguard/pkg/logging"
	"kcguard/pkg/middleware"
	"kcguard/pkg/store"
)

// serverConfig holds the environment driven server settings
type serverConfig struct {
	KeycloakConfig  string
	ListenAddr      string
	LogLevel        string
	LogFormat       string
	TokenSources    []string
	RequiredRoles   []string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

func main() {
	cfg := serverConfig{
		KeycloakConfig:  getEnv("KEYCLOAK_CONFIG", config.DefaultPath()),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		TokenSources:    getEnvStringSlice("TOKEN_SOURCE", []string{"header"}),
		RequiredRoles:   getEnvStringSlice("REQUIRED_ROLES", nil),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 20),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	settings, err := config.Load(cfg.KeycloakConfig)
	if err != nil {
		logger.Fatal("failed to load keycloak configuration",
			zap.String("path", cfg.KeycloakConfig),
			zap.Error(err))
	}

	stores, err := parseStores(cfg.TokenSources)
	if err != nil {
		logger.Fatal("invalid TOKEN_SOURCE", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, 5*time.Minute)
	manager := grant.NewStoreManager(settings.ClientID, stores...)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(manager, cfg.RequiredRoles, rateLimiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting kcguard server",
		zap.String("addr", cfg.ListenAddr),
		zap.String("realm", settings.Realm),
		zap.String("client_id", settings.ClientID),
		zap.String("realm_url", settings.RealmURL()),
		zap.Strings("token_sources", cfg.TokenSources),
		zap.Strings("required_roles", cfg.RequiredRoles))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(manager grant.Manager, roles []string, limiter *middleware.RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		r.Use(middleware.GrantAttacher(manager, logger))
		r.Use(middleware.Protect(logger, roles...))
		r.Get("/whoami", handleWhoami)
		r.Post("/whoami", handleWhoami)
	})

	return r
}

// whoamiResponse describes the caller's access token
type whoamiResponse struct {
	Subject     string    `json:"sub"`
	ClientID    string    `json:"clientId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RealmRoles  []string  `json:"realmRoles"`
	ClientRoles []string  `json:"clientRoles"`
}

func handleWhoami(w http.ResponseWriter, r *http.Request) {
	g, ok := middleware.GrantFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	at := g.AccessToken
	resp := whoamiResponse{
		Subject:     at.Subject(),
		ClientID:    at.ClientID(),
		ExpiresAt:   at.ExpiresAt().UTC(),
		RealmRoles:  at.RealmRoles(),
		ClientRoles: at.ApplicationRoles(at.ClientID()),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func parseStores(names []string) ([]store.Store, error) {
	stores := make([]store.Store, 0, len(names))
	for _, name := range names {
		s, ok := store.ByName(name)
		if !ok {
			return nil, errors.New("unknown token source " + strconv.Quote(name) + " (use header, body or query)")
		}
		stores = append(stores, s)
	}
	return stores, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
