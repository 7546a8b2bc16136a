package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"gorm.io/gorm"

	"github.com/totegamma/coa/internal/config"
	"github.com/totegamma/coa/internal/infra/database"
	"github.com/totegamma/coa/internal/infra/telemetry"
	"github.com/totegamma/coa/internal/log"
	"github.com/totegamma/coa/internal/metrics"
	"github.com/totegamma/coa/internal/present/rest"
	coamiddleware "github.com/totegamma/coa/internal/present/rest/middleware"
	"github.com/totegamma/coa/internal/service"
)

var version = "dev"

func main() {
	configPath := os.Getenv("COA_CONFIG")
	if configPath == "" {
		configPath = "/etc/coa/config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		bootLogger := log.WithComponent("main")
		bootLogger.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	log.Configure(log.Config{Level: conf.Logging.Level})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        conf.Trace.Enable,
		ServiceName:    conf.Trace.ServiceName,
		ServiceVersion: version,
		Endpoint:       conf.Trace.Endpoint,
		SampleRate:     *conf.Trace.SampleRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn, conf.Logging.SQLLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}

	if conf.Server.AutoMigrate {
		err = database.MigratePostgres(db)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	checks := []rest.HealthCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return database.Ping(ctx, db) },
	}}

	var signalService *service.SignalService
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPass, conf.Server.RedisDB)
		defer rdb.Close()
		signalService = service.NewSignalService(rdb)
		checks = append(checks, rest.HealthCheck{Name: "redis", Check: signalService.Ping})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	certificate := rest.NewCertificateController(
		database.NewRunner(db),
		signalService,
		metrics.NewController(registry),
		log.WithComponent("certificate-controller"),
	)
	handler := rest.NewHandler(certificate, registry, checks...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(otelecho.Middleware(conf.Trace.ServiceName))
	e.Use(coamiddleware.CorrelationID)
	e.Use(coamiddleware.RequestLogger(log.WithComponent("http")))

	handler.RegisterRoutes(e)

	go func() {
		logger.Info().Str("listen", conf.Server.Listen).Str("version", version).Msg("starting server")
		err := e.Start(conf.Server.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = e.Shutdown(shutdownCtx)
	if err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	closeDatabase(db)
	err = tracing.Shutdown(shutdownCtx)
	if err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
