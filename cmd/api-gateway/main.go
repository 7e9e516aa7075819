package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-records-api/api/swagger"
	"github.com/noah-isme/academic-records-api/internal/handler"
	internalmiddleware "github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
)

// @title Academic Records API
// @version 1.0.0
// @description Students, instructors, courses and enrollments
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to migrate database", "error", err)
		}
		logr.Info("database schema applied")
	}

	metricsSvc := service.NewMetricsService()
	uows := repository.NewFactory(db, repository.WithLogger(logr), repository.WithQueryObserver(metricsSvc))
	validate := validator.New()

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	var notifier service.EventNotifier
	if cfg.Outbox.Enabled {
		relay, redisCheck, err := startOutboxRelay(ctx, cfg, db, metricsSvc, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to start outbox relay", "error", err)
		}
		notifier = relay
		checks["redis"] = redisCheck
	}

	var validationClient *service.StudentValidationClient
	if cfg.StudentValidation.Enabled {
		validationClient = service.NewStudentValidationClient(cfg.StudentValidation.URL, cfg.StudentValidation.Timeout, logr)
	}

	studentSvc := service.NewStudentService(uows, validationClient, notifier, validate, logr)
	instructorSvc := service.NewInstructorService(uows, notifier, validate, logr)
	courseSvc := service.NewCourseService(uows, notifier, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(uows, notifier, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Students:    handler.NewStudentHandler(studentSvc),
		Instructors: handler.NewInstructorHandler(instructorSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc, checks),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// startOutboxRelay connects Redis and runs the relay until ctx is cancelled.
func startOutboxRelay(ctx context.Context, cfg *config.Config, db *sqlx.DB, metrics *service.MetricsService, logr *zap.Logger) (*service.OutboxRelay, handler.ReadinessCheck, error) {
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	relay := service.NewOutboxRelay(
		repository.NewOutboxRepository(db),
		repository.NewRedisEventPublisher(client, cfg.Outbox.Channel, logr),
		metrics,
		service.OutboxRelayConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			Workers:      cfg.Outbox.Workers,
			MaxRetries:   cfg.Outbox.MaxRetries,
			RetryDelay:   cfg.Outbox.RetryDelay,
		},
		logr,
	)
	go relay.Run(ctx)
	return relay, func(ctx context.Context) error { return cache.Ping(ctx, client) }, nil
}
