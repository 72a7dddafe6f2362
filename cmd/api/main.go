package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/adapter/handler"
	"github.com/johnquangdev/meeting-sync/internal/adapter/repository"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/channels"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/fireflies"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/readai"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-sync/internal/usecase/audit"
	"github.com/johnquangdev/meeting-sync/internal/usecase/enrichment"
	"github.com/johnquangdev/meeting-sync/internal/usecase/extraction"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingestion"
	"github.com/johnquangdev/meeting-sync/internal/usecase/participants"
	"github.com/johnquangdev/meeting-sync/internal/usecase/publish"
	"github.com/johnquangdev/meeting-sync/internal/usecase/routing"
	"github.com/johnquangdev/meeting-sync/internal/usecase/settings"
	"github.com/johnquangdev/meeting-sync/internal/usecase/syncrun"
	"github.com/johnquangdev/meeting-sync/internal/usecase/transcription"
	pkgai "github.com/johnquangdev/meeting-sync/pkg/ai"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-sync/pkg/validator"
)

// @title           Meeting Sync API
// @version         1.0
// @description     Transcription webhooks that turn meeting action items into tasks and calendar events

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	log.Println("🔧 Initializing dependencies...")

	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		log.Println("🔄 Applying sql-migrate migrations...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run cmd/migrate to manage the schema")
	}

	ctx := context.Background()
	store := newIngestionCache(ctx, cfg, logger)
	defer store.Close()

	log.Println("⚙️  Initializing repositories...")
	transcriptionRepo := repository.NewTranscriptionRepository(db)
	creationRepo := repository.NewActionItemCreationRepository(db)
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	settingsRepo := repository.NewUserSettingsRepository(db)

	log.Println("🤖 Initializing action item extraction...")
	gemini := pkgai.NewGeminiClient(&cfg.Gemini, cfg.Integrations.GeminiAPIKey)
	extractor, err := extraction.NewExtractor(gemini, logger)
	if err != nil {
		log.Fatalf("Failed to initialize extractor: %v", err)
	}

	enricher := enrichment.NewEnricher(logger)
	// typed nil clients must not reach Register
	if c := fireflies.NewClient(cfg.Fireflies, logger); c != nil {
		enricher.Register(entities.ProviderFireflies, c, "")
	} else {
		enricher.Register(entities.ProviderFireflies, nil, "FIREFLIES_API_KEY is not configured.")
	}
	if c := readai.NewClient(cfg.ReadAI); c != nil {
		enricher.Register(entities.ProviderReadAI, c, "")
	} else {
		enricher.Register(entities.ProviderReadAI, nil, "READ_AI_API_KEY is not configured.")
	}

	settingsResolver := settings.NewResolver(cfg.Integrations, userRepo, settingsRepo, cfg.Sync.ForceUserSettingsUserID, logger)
	factory := channels.NewFactory(channels.Options{}, settingsResolver, logger)
	publisher := publish.NewPublisher(factory, cfg.Sync.ChannelTimeout, logger)
	syncer := syncrun.NewService(
		routing.NewRouter(userRepo, teamRepo, logger),
		settingsResolver,
		extractor,
		publisher,
		cfg.Sync.MaxConcurrentRecipients,
		logger,
	)

	auditStore := audit.NewStore(creationRepo, logger)
	service := transcription.NewService(
		transcriptionRepo,
		ingestion.NewGate(transcriptionRepo, store, cfg.Redis.KeyTTL, logger),
		enricher,
		participants.NewResolver(userRepo, logger),
		syncer,
		auditStore,
		logger,
	)

	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to MinIO payload archive...")
		archive, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			logger.Warn("payload archive disabled", zap.Error(err))
		} else {
			service.WithArchive(archive, storage.PayloadObjectName)
		}
	}

	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, jwtManager, handler.NewTranscription(service, auditStore, logger))
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newIngestionCache prefers Redis and falls back to an in-process store
func newIngestionCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) cache.Store {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryStore()
	}
	log.Println("📦 Connecting to Redis...")
	store, err := cache.NewRedisStore(ctx, cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB, "meeting-sync:")
	if err != nil {
		logger.Warn("redis unavailable, using in-memory ingestion cache", zap.Error(err))
		return cache.NewMemoryStore()
	}
	return store
}
