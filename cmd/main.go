package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/skillloop/skillloop-backend/internal/clients/gcp"
	redisclient "github.com/skillloop/skillloop-backend/internal/clients/redis"
	"github.com/skillloop/skillloop-backend/internal/config"
	"github.com/skillloop/skillloop-backend/internal/db"
	"github.com/skillloop/skillloop-backend/internal/engine"
	"github.com/skillloop/skillloop-backend/internal/handlers"
	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/middleware"
	"github.com/skillloop/skillloop-backend/internal/observability"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/server"
	"github.com/skillloop/skillloop-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "skillloop-backend",
		Environment: os.Getenv("DEPLOY_ENV"),
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg, log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	chatTurnRepo := repos.NewChatTurnRepo(thePG, log)
	quizScoreRepo := repos.NewQuizScoreRepo(thePG, log)
	telemetryEventRepo := repos.NewTelemetryEventRepo(thePG, log)
	skillIndexRepo := repos.NewSkillIndexRepo(thePG, log)
	learningPathRepo := repos.NewLearningPathRepo(thePG, log)
	masteryStateRepo := repos.NewMasteryStateRepo(thePG, log)
	policySnapshotRepo := repos.NewPolicySnapshotRepo(thePG, log)

	// Engine
	log.Info("Setting up engine from main...")
	var classifier engine.DependencyModel
	if cfg.Engine.ClassifierBaseURL != "" {
		classifier, err = engine.NewHTTPDependencyModel(log, cfg.Engine.ClassifierBaseURL, time.Duration(cfg.Engine.ClassifierTimeoutMS)*time.Millisecond)
		if err != nil {
			log.Error("Could not init dependency classifier", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("CLASSIFIER_BASE_URL not set, using static dependency model")
		classifier = engine.StaticDependencyModel{Probability: 0.5}
	}

	policyStore := engine.NewSnapshotPolicyStore(log, policySnapshotRepo)
	policyAgent, err := engine.NewPolicyAgent(log, policyStore, cfg.Engine.Alpha, cfg.Engine.Gamma, cfg.Engine.Epsilon)
	if err != nil {
		log.Error("Could not init policy agent", "error", err)
		os.Exit(1)
	}

	var notifier engine.ProfileNotifier
	if cfg.Redis.Addr != "" {
		profileBus, busErr := redisclient.NewProfileBus(log, cfg.Redis.Addr)
		if busErr != nil {
			log.Warn("Could not init redis profile bus (continuing without)", "error", busErr)
		} else {
			defer profileBus.Close()
			notifier = profileBus
		}
	}

	eng := engine.NewEngine(
		thePG,
		log,
		chatTurnRepo,
		quizScoreRepo,
		telemetryEventRepo,
		skillIndexRepo,
		learningPathRepo,
		masteryStateRepo,
		classifier,
		engine.StaticMasteryModel{},
		policyAgent,
		notifier,
	)

	// Services
	log.Info("Setting up services from main...")
	var avatarService services.AvatarService
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, avatars disabled", "error", err)
	} else {
		avatarService, err = services.NewAvatarService(log, bucketService)
		if err != nil {
			log.Warn("Could not init AvatarService, avatars disabled", "error", err)
			avatarService = nil
		}
	}

	aiClient, err := services.NewAIClient(log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}

	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, avatarService, cfg.Auth.JWTSecretKey, cfg.AccessTTL(), cfg.RefreshTTL())
	chatService := services.NewChatService(thePG, log, chatTurnRepo, skillIndexRepo, learningPathRepo, aiClient, eng, cfg.Engine.StruggleThreshold)
	quizService := services.NewQuizService(log, chatTurnRepo, quizScoreRepo, aiClient, eng)
	telemetryService := services.NewTelemetryService(log, telemetryEventRepo)
	analyticsService := services.NewAnalyticsService(log, quizScoreRepo)
	profileService := services.NewProfileService(log, userRepo, skillIndexRepo, learningPathRepo, masteryStateRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	quizHandler := handlers.NewQuizHandler(quizService)
	telemetryHandler := handlers.NewTelemetryHandler(telemetryService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	profileHandler := handlers.NewProfileHandler(profileService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		ChatHandler:      chatHandler,
		QuizHandler:      quizHandler,
		TelemetryHandler: telemetryHandler,
		AnalyticsHandler: analyticsHandler,
		ProfileHandler:   profileHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
