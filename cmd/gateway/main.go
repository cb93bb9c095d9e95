package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-training/internal/api/http"
	"github.com/mind-engage/mindengage-training/internal/audit"
	auth "github.com/mind-engage/mindengage-training/internal/auth/middleware"
	"github.com/mind-engage/mindengage-training/internal/config"
	"github.com/mind-engage/mindengage-training/internal/db"
	"github.com/mind-engage/mindengage-training/internal/logging"
	"github.com/mind-engage/mindengage-training/internal/seed"
	"github.com/mind-engage/mindengage-training/internal/superadmin"
	"github.com/mind-engage/mindengage-training/internal/training"
)

func main() {
	cfg := config.FromEnv()

	log, err := logging.New(cfg.LogLevel, cfg.Mode == config.ModeOnline)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	store := training.NewSQLStore(dbh, cfg.DBDriver)
	events := audit.NewEventRepo(dbh, cfg.SiteID)
	console := superadmin.NewService(store, events, log.Named("superadmin"))
	records := superadmin.NewRecords(store, events, log.Named("records"))

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal("load seed file", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
		if _, err := seed.Apply(ctx, store, f, log.Named("seed")); err != nil {
			log.Fatal("apply seed file", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
	}

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	admin := auth.Admin{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, admin, log.Named("auth")))
	}

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))
		api.Mount(pr, api.Deps{Store: store, Console: console, Records: records, Audit: events, Log: log.Named("api")})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("mode", string(cfg.Mode)), zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	_ = dbh.Close()
}
