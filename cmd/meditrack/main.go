package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"meditrack/m/internal/api"
	"meditrack/m/internal/config"
	"meditrack/m/internal/database"
	"meditrack/m/internal/logger"
	"meditrack/m/internal/metrics"
	"meditrack/m/internal/migrations"
	"meditrack/m/internal/seed"
	"meditrack/m/internal/template"
)

func main() {
	cfg := config.Load()

	logger.Init("meditrack", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("database connection failed")
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("migration failed")
	}
	if err := migrations.EnsureAdmin(ctx, db, cfg.AdminPassword); err != nil {
		logger.Logger.Fatal().Err(err).Msg("admin bootstrap failed")
	}
	if cfg.MedicineCSV != "" {
		if _, err := seed.LoadMedicines(ctx, db, cfg.MedicineCSV); err != nil {
			logger.Logger.Warn().Err(err).Str("path", cfg.MedicineCSV).Msg("medicine catalog not imported")
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	handler := api.New(db, cfg, m, prometheus.DefaultGatherer, template.NewService(cfg.TemplatePath))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Logger.Info().Str("port", cfg.HTTPPort).Str("driver", db.DriverName()).Msg("MediTrack POS server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Logger.Fatal().Err(err).Msg("server error")
	}
}
