package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tenantgate/internal/api"
	"tenantgate/internal/config"
	internaldb "tenantgate/internal/db"
	"tenantgate/internal/db/repository"
	"tenantgate/internal/idp"
	"tenantgate/internal/middleware"
	"tenantgate/internal/service"
	"tenantgate/internal/ui"
	"tenantgate/internal/urls"
)

func main() {
	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var handlerOpts = &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logger *slog.Logger
	if cfg.IsProduction() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	slog.SetDefault(logger)

	for _, w := range cfg.Warnings {
		logger.Warn(w, "key", "config:warning")
	}

	appOrigin, err := cfg.OriginURL()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Open SQLite with hardened connection settings.
	// writeDB: single-connection pool for serialized writes (WAL + txlock=immediate).
	// readDB:  4-connection pool for concurrent reads (WAL, no txlock).
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
	if err != nil {
		log.Fatalf("failed to open membership store: %v", err)
	}
	defer writeDB.Close()
	defer readDB.Close()

	// Run migrations on the write pool (DDL requires write access)
	if err := internaldb.RunMigrations(writeDB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	teamRepo := repository.NewTeamRepo(writeDB, readDB)
	teamSvc := service.NewTeamService(teamRepo, logger)
	sandboxSvc := service.NewSandboxService(cfg.Sandbox.APIURL, cfg.Sandbox.Template, logger)

	idpClient := idp.NewClient(cfg.Provider.URL, cfg.Provider.AnonKey, logger)
	health := idp.NewHealthChecker(
		cfg.Provider.URL, cfg.Provider.AnonKey,
		cfg.Provider.HealthTimeout, cfg.Provider.HealthCacheTTL,
		logger,
	)

	apiHandler := api.NewHandler(appOrigin, idpClient, teamSvc, sandboxSvc, logger)
	uiHandler := ui.NewHandler(appOrigin, idpClient, health, cfg.IsProduction(), logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Session(idpClient, logger))

	// Auth form actions sit behind the per-IP limiter; the redirect routes do not.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}))
		uiHandler.Routes(r)
	})
	apiHandler.Routes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, urls.Dashboard, http.StatusSeeOther)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "key", "server:start", "addr", cfg.ListenAddr, "origin", cfg.AppOrigin, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", "key", "server:shutdown", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown incomplete", "key", "server:shutdown_error", "error", err)
		}
	}
}
