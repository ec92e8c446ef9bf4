package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"siikhub-waitlist-go/internal/config"
	"siikhub-waitlist-go/internal/db"
	"siikhub-waitlist-go/internal/handlers"
	"siikhub-waitlist-go/internal/metrics"
	"siikhub-waitlist-go/internal/repository"
	"siikhub-waitlist-go/internal/scheduler"
	"siikhub-waitlist-go/internal/server"
	"siikhub-waitlist-go/internal/waitlist"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting SiikHub Waitlist Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := configureLogging(cfg.Log); err != nil {
		return err
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	svc := waitlist.NewService(repository.New(dbConn), m, waitlist.Options{
		DefaultSource: cfg.Waitlist.DefaultSource,
		SignupRetries: cfg.Waitlist.SignupRetries,
		MaxUserAgent:  cfg.Waitlist.MaxUserAgent,
	})

	// bring positions and gauges in line before serving
	if _, err := svc.Ranker().Audit(context.Background()); err != nil {
		return fmt.Errorf("failed to audit waitlist positions: %w", err)
	}

	sched := scheduler.NewScheduler(&cfg.Scheduler, svc.Ranker())

	h := handlers.NewHandlers(svc, sched, prometheus.DefaultGatherer)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.NewHandler(h, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if sqlDB, err := dbConn.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

func configureLogging(cfg config.LogConfig) error {
	if cfg.Level == "" {
		return nil
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logrus.SetLevel(level)
	return nil
}
