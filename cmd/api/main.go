package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/config"
	"github.com/noah-isme/crms-go-api/internal/database"
	"github.com/noah-isme/crms-go-api/internal/handler"
	"github.com/noah-isme/crms-go-api/internal/mail"
	"github.com/noah-isme/crms-go-api/internal/middleware"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/repository"
	"github.com/noah-isme/crms-go-api/internal/router"
	"github.com/noah-isme/crms-go-api/internal/service"
	cloud "github.com/noah-isme/crms-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Track{},
		&models.TrackAssignment{},
		&models.Submission{},
		&models.Review{},
		&models.StatusHistory{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, statistics cache disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, workflow events limited to redis")
	}

	var mailer service.Mailer
	if cfg.SMTPHost != "" && cfg.NotificationEmail != "" {
		m, err := mail.New(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.NotificationEmail,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		mailer = m
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		u, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = u
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	trackAssignmentRepo := repository.NewTrackAssignmentRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	transactor := repository.NewTransactor(db)

	guard := service.NewAuthzGuard(trackAssignmentRepo, reviewRepo, logger)
	notifier := service.NewWorkflowNotifier(redisClient, cfg.NotificationChannel, natsConn, mailer, logger)
	statisticsService := service.NewStatisticsService(reviewRepo, redisClient, cfg.StatisticsCacheTTL, logger)
	submissionService := service.NewSubmissionService(submissionRepo, trackRepo, historyRepo, transactor, guard, notifier, uploader, validate, logger)
	assignmentService := service.NewAssignmentService(submissionRepo, reviewRepo, trackAssignmentRepo, historyRepo, transactor, guard, notifier, validate, cfg.ReviewDeadline, logger)
	reviewService := service.NewReviewService(submissionRepo, reviewRepo, historyRepo, transactor, guard, notifier, statisticsService, validate, cfg.ReviewThreshold, cfg.ReviewDeadline, logger)
	trackService := service.NewTrackService(trackRepo, trackAssignmentRepo, logger)

	submissionHandler := handler.NewSubmissionHandler(submissionService, validate, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, validate, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, validate, logger)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, logger)
	trackHandler := handler.NewTrackHandler(trackService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: submissionHandler,
		AssignmentHandler: assignmentHandler,
		ReviewHandler:     reviewHandler,
		StatisticsHandler: statisticsHandler,
		TrackHandler:      trackHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
