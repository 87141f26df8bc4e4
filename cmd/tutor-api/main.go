package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/micocomia/5902Group5/internal/api"
	"github.com/micocomia/5902Group5/internal/api/handlers"
	"github.com/micocomia/5902Group5/internal/content"
	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/embeddings"
	"github.com/micocomia/5902Group5/internal/repository"
	"github.com/micocomia/5902Group5/internal/service"
	"github.com/micocomia/5902Group5/internal/textsplit"
	"github.com/micocomia/5902Group5/internal/websearch"
	"github.com/micocomia/5902Group5/pkg/auth"
	"github.com/micocomia/5902Group5/pkg/config"
	"github.com/micocomia/5902Group5/pkg/logger"
	"github.com/micocomia/5902Group5/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// @title AI Tutor API
// @version 1.0
// @description Course tutor backend with hybrid retrieval over verified course content and web search
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting AI tutor service",
		zap.String("store", cfg.Store.Backend),
		zap.String("vectorstore", cfg.VectorStore.Backend),
	)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.UsesPostgres() {
		db, err = postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db, appLogger); err != nil {
			appLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Initialize repositories
	userRepo, learnerRepo, err := openRepositories(cfg, db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open repositories", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Retrieval
	embedder, err := embeddings.New(&cfg.Embedder, &cfg.GigaChat, logger.Named("embeddings"))
	if err != nil {
		appLogger.Fatal("Failed to initialize embedder", zap.Error(err))
	}
	checkEmbedder(ctx, embedder, appLogger)

	verifiedService, err := service.NewVerifiedContentServiceFromConfig(ctx, cfg, embedder, db, logger.Named("verified_content"))
	if err != nil {
		appLogger.Fatal("Failed to initialize verified content service", zap.Error(err))
	}

	if cfg.VerifiedContent.IndexOnStartup {
		count, err := verifiedService.IndexVerifiedContent(ctx, "")
		if err != nil {
			appLogger.Error("Failed to index verified content", zap.Error(err))
		} else {
			appLogger.Info("Verified content ready", zap.Int("documents", count))
		}
	}

	var webRetriever service.WebRetriever
	if cfg.WebSearch.Enabled {
		webSplitter, err := textsplit.New(cfg.RAG.TextSplitterType,
			textsplit.WithChunkSize(cfg.RAG.ChunkSize),
			textsplit.WithOverlap(cfg.RAG.ChunkOverlap),
		)
		if err != nil {
			appLogger.Fatal("Failed to create web text splitter", zap.Error(err))
		}
		searcher := websearch.NewSearxNGClient(cfg.WebSearch.BaseURL, cfg.WebSearch.Timeout, logger.Named("websearch"))
		webRetriever = service.NewWebSearchRAG(searcher, embedder, webSplitter, cfg.WebSearch.MaxResults, logger.Named("web_search_rag"))
	} else {
		appLogger.Info("Web search disabled, retrieval uses verified content only")
	}

	hybrid := service.NewHybridRetriever(verifiedService, webRetriever, logger.Named("hybrid"))

	// Initialize services
	authService := service.NewAuthService(userRepo, learnerRepo, jwtManager, appLogger)
	learnerService := service.NewLearnerService(learnerRepo, appLogger)

	var tutorService *service.TutorService
	modelInfo := []dto.ModelInfo{{ModelName: cfg.GigaChat.Model, ModelProvider: "gigachat"}}
	if cfg.GigaChat.APIKey == "" {
		appLogger.Warn("GIGACHAT_API_KEY is not set, tutor chat is unavailable")
	} else {
		llmService, err := service.NewLLMService(ctx, &cfg.GigaChat, logger.Named("llm"))
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
		}
		defer llmService.Close()

		logAvailableModels(ctx, llmService, appLogger)
		tutorService = service.NewTutorService(llmService, hybrid, cfg.RAG.TopK, appLogger)
		modelInfo = []dto.ModelInfo{{ModelName: llmService.ModelName(), ModelProvider: llmService.Provider()}}
	}

	// Setup router
	app := api.SetupRouter(api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, appLogger),
		Learner:   handlers.NewLearnerHandler(learnerService, appLogger),
		Retrieval: handlers.NewRetrievalHandler(verifiedService, hybrid, appLogger),
		Tutor:     handlers.NewTutorHandler(tutorService, modelInfo, appLogger),
		Document:  handlers.NewDocumentHandler(content.NewFitzConverter(), appLogger),
	}, jwtManager, &cfg.Server, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

func openRepositories(cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) (repository.UserRepository, repository.LearnerRepository, error) {
	if cfg.Store.Backend == "postgres" {
		return repository.NewPostgresUserRepository(db, logger), repository.NewPostgresLearnerRepository(db, logger), nil
	}

	users := repository.NewFileUserRepository(cfg.Store.DataDir, logger)
	if err := users.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load users: %w", err)
	}
	learners := repository.NewFileLearnerRepository(cfg.Store.DataDir, logger)
	if err := learners.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load learner data: %w", err)
	}
	return users, learners, nil
}

func logAvailableModels(ctx context.Context, llm *service.LLMService, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	names, err := llm.ListModels(ctx)
	if err != nil {
		logger.Warn("Failed to list GigaChat models", zap.Error(err))
		return
	}
	logger.Info("GigaChat models available",
		zap.String("configured", llm.ModelName()),
		zap.Strings("models", names),
	)
}

// checkEmbedder warns when a local embedding server is unreachable.
func checkEmbedder(ctx context.Context, embedder embeddings.Embedder, logger *zap.Logger) {
	pinger, ok := embedder.(interface{ Ping(context.Context) error })
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		logger.Warn("Embedding backend is not reachable", zap.Error(err))
	}
}
