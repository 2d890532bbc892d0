package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"

	"borrowdesk/internal/account"
	"borrowdesk/internal/billing"
	"borrowdesk/internal/borrowing"
	"borrowdesk/internal/catalog"
	"borrowdesk/internal/config"
	"borrowdesk/internal/identity"
	"borrowdesk/internal/middleware"
	"borrowdesk/internal/platform/migrations"
	"borrowdesk/internal/reporting"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		logrus.WithError(err).Fatal("failed to apply migrations")
	}
	if err := migrations.SeedCatalog(ctx, db); err != nil {
		logrus.WithError(err).Fatal("failed to seed catalog")
	}

	books := catalog.NewStore()
	accounts := account.NewStore()
	borrows := borrowing.NewStore()
	payments := billing.NewStore()

	catalogSvc := catalog.NewService(db, books)
	borrowingSvc := borrowing.NewService(db, books, accounts, borrows, payments)
	billingSvc := billing.NewService(db, payments, accounts)
	reportingSvc := reporting.NewService(db, accounts, borrows, payments)

	auth := identity.NewAuthenticator(cfg.JWTSecret)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	router := chi.NewRouter()
	router.Use(middleware.RequestLog)
	router.Use(middleware.Metrics)
	router.Use(limiter.Handler)

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"OK","message":"Server is running"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			catalog.NewHandler(catalogSvc).Routes(r)
			borrowing.NewHandler(borrowingSvc).Routes(r)
			billing.NewHandler(billingSvc).Routes(r)
			reporting.NewHandler(reportingSvc).Routes(r)
		})
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown failed")
	}
}
