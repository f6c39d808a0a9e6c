package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	_ "meterstock/api/swagger" // swagger docs
	"meterstock/internal/archiver"
	"meterstock/internal/database"
	"meterstock/internal/handler"
	"meterstock/internal/lifecycle"
	"meterstock/internal/middleware"
	"meterstock/internal/notifier"
	"meterstock/internal/repository"
	"meterstock/internal/service"
	"meterstock/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Smart Meter Stock API
// @version         1.0
// @description     Request lifecycle service for smart meter stock between contractors, the city, installers, and manufacturers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("No configs/.env file found, using environment")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GIN_MODE") != "release" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "meterstock") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Msg("Connected to PostgreSQL successfully")

	if err := database.SeedUsers(db); err != nil {
		log.Warn().Err(err).Msg("Failed to seed default users")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Lifecycle engine
	allowOver, _ := strconv.ParseBool(os.Getenv("ALLOW_OVER_APPROVAL"))
	engine := &lifecycle.Engine{AllowOverApproval: allowOver}

	// Notification fan-out: dashboards always, email only when a relay is set
	notifiers := notifier.Multi{notifier.NewHubNotifier(wsHub)}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		var recipients []string
		for _, r := range strings.Split(os.Getenv("NOTIFY_EMAILS"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				recipients = append(recipients, r)
			}
		}
		notifiers = append(notifiers, notifier.NewEmailNotifier(notifier.MailConfig{
			Host:       host,
			Port:       envOr("SMTP_PORT", "587"),
			From:       envOr("SMTP_FROM", "noreply@meterstock.local"),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			Recipients: recipients,
		}))
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var uploader archiver.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		uploader = archiver.NewGCSUploader(bucket, os.Getenv("GCS_PREFIX"))
	}
	arch := archiver.New(requestRepo, txManager, envOr("DATA_DIR", "data_dumps"), uploader)
	if hours, err := strconv.Atoi(os.Getenv("ARCHIVE_INTERVAL_HOURS")); err == nil && hours > 0 {
		go arch.RunPeriodic(context.Background(), time.Duration(hours)*time.Hour)
	}

	userService := service.NewUserService(userRepo)
	requestService := service.NewRequestService(engine, requestRepo, auditRepo, txManager, notifiers)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(db)
	archiveService := service.NewArchiveService(arch, auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(requestService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	archiveHandler := handler.NewArchiveHandler(archiveService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(envOr("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"), ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))
	archiveHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	log.Info().Str("port", port).Msg("Server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
