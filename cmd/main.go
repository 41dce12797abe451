package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/draftline/draftline-backend/internal/clients/openai"
	"github.com/draftline/draftline-backend/internal/clients/pinecone"
	"github.com/draftline/draftline-backend/internal/clients/rediscache"
	"github.com/draftline/draftline-backend/internal/db"
	"github.com/draftline/draftline-backend/internal/handlers"
	"github.com/draftline/draftline-backend/internal/middleware"
	"github.com/draftline/draftline-backend/internal/observability"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/repos"
	"github.com/draftline/draftline-backend/internal/server"
	"github.com/draftline/draftline-backend/internal/services"
	"github.com/draftline/draftline-backend/internal/suggestions"
	"github.com/draftline/draftline-backend/internal/utils"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "draftline-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(shutdownCtx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Database
	dbService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Database auto migration failed", "error", err)
	}
	gormDB := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(gormDB, log)
	userTokenRepo := repos.NewUserTokenRepo(gormDB, log)
	profileRepo := repos.NewProfileRepo(gormDB, log)

	// Clients
	log.Info("Setting up clients from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("Could not init OpenAI client", "error", err)
	}

	var vectorStore pinecone.VectorStore
	if apiKey := strings.TrimSpace(os.Getenv("PINECONE_API_KEY")); apiKey != "" {
		pineconeClient, pcErr := pinecone.New(log, pinecone.Config{APIKey: apiKey})
		if pcErr == nil {
			vectorStore, pcErr = pinecone.NewVectorStore(log, pineconeClient)
		}
		if pcErr != nil {
			log.Warn("Pinecone init failed; running without retrieval", "error", pcErr)
			vectorStore = pinecone.NewUnavailableStore(log)
		}
	} else {
		log.Warn("PINECONE_API_KEY not set; running without retrieval")
		vectorStore = pinecone.NewUnavailableStore(log)
	}

	var suggestionCache rediscache.SuggestionCache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		suggestionCache, err = rediscache.New(log)
		if err != nil {
			log.Warn("Redis init failed; recent suggestions disabled", "error", err)
			suggestionCache = nil
		} else {
			defer suggestionCache.Close()
		}
	} else {
		log.Info("REDIS_ADDR not set; recent suggestions disabled")
	}

	// Services
	log.Info("Setting up services from main...")
	authService, err := services.NewAuthService(
		gormDB,
		log,
		userRepo,
		userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	if err != nil {
		log.Fatal("Could not init AuthService", "error", err)
	}
	profileService := services.NewProfileService(gormDB, log, profileRepo, userRepo)
	transcribeService := services.NewTranscribeService(log)
	ingestService, err := services.NewIngestService(log, openaiClient, vectorStore)
	if err != nil {
		log.Fatal("Could not init IngestService", "error", err)
	}

	planner, err := suggestions.NewPlanner(log, openaiClient)
	if err != nil {
		log.Fatal("Could not init topic planner", "error", err)
	}
	pipeline, err := suggestions.NewPipeline(log, profileService, openaiClient, vectorStore, planner)
	if err != nil {
		log.Fatal("Could not init suggestion pipeline", "error", err)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	transcribeHandler := handlers.NewTranscribeHandler(transcribeService)
	ingestHandler := handlers.NewIngestHandler(ingestService)
	suggestionsHandler := handlers.NewSuggestionsHandler(log, pipeline, suggestionCache)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:        "draftline-backend",
		AllowedOrigins:     splitOrigins(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)),
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		ProfileHandler:     profileHandler,
		TranscribeHandler:  transcribeHandler,
		IngestHandler:      ingestHandler,
		SuggestionsHandler: suggestionsHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
