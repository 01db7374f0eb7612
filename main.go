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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/seacable/atlas-backend/internal/auth"
	"github.com/seacable/atlas-backend/internal/cables"
	"github.com/seacable/atlas-backend/internal/config"
	"github.com/seacable/atlas-backend/internal/converter"
	"github.com/seacable/atlas-backend/internal/db"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/seacable/atlas-backend/internal/logging"
	"github.com/seacable/atlas-backend/internal/metrics"
	"github.com/seacable/atlas-backend/internal/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(d) }()

	if err := auth.Init(d); err != nil {
		return fmt.Errorf("auth schema: %w", err)
	}
	if err := cables.Init(d); err != nil {
		return fmt.Errorf("cable schema: %w", err)
	}

	zones, err := geo.LoadZoneCatalog(cfg.ZoneDir, cfg.ZoneManifest)
	if err != nil {
		return fmt.Errorf("zone catalog: %w", err)
	}

	m, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	users := auth.NewGormStore(d)
	records := cables.NewStore(d)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Get("/", RootHandler)
	r.Handle("/metrics", m.Handler())

	r.Mount("/auth", auth.SetupRoutes(auth.NewHandler(users, cfg.SessionTTL, cfg.CookieSecure, log), users))

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(users))
		r.Mount("/api/cables", cables.SetupRoutes(cables.NewHandler(records, zones, m, log)))
		r.Mount("/converter", converter.SetupRoutes(
			converter.NewHandler(records, cfg.MaxUploadBytes(), m, log),
			middleware.RequireRole(users, auth.WriterRoles...),
		))
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
