package main

import (
	"context"
	"flag"
	"log"

	"github.com/micocomia/5902Group5/internal/embeddings"
	"github.com/micocomia/5902Group5/internal/service"
	"github.com/micocomia/5902Group5/pkg/config"
	"github.com/micocomia/5902Group5/pkg/logger"
	"github.com/micocomia/5902Group5/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	baseDir := flag.String("dir", "", "course content directory (defaults to VERIFIED_CONTENT_DIR)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.VectorStore.Backend == "postgres" {
		db, err = postgres.NewPool(ctx, &cfg.Database, logger.Get())
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db, logger.Get()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	embedder, err := embeddings.New(&cfg.Embedder, &cfg.GigaChat, logger.Named("embeddings"))
	if err != nil {
		logger.Fatal("Failed to initialize embedder", zap.Error(err))
	}

	verifiedService, err := service.NewVerifiedContentServiceFromConfig(ctx, cfg, embedder, db, logger.Named("verified_content"))
	if err != nil {
		logger.Fatal("Failed to initialize verified content service", zap.Error(err))
	}

	dir := *baseDir
	if dir == "" {
		dir = cfg.VerifiedContent.BaseDir
	}
	courses := verifiedService.ListCourses(dir)
	if len(courses) == 0 {
		logger.Warn("No course directories found", zap.String("dir", dir))
	}
	for _, course := range courses {
		logger.Info("Found course",
			zap.String("course_code", course.Code),
			zap.String("term", course.Term),
		)
	}

	logger.Info("Indexing verified content", zap.String("dir", dir))
	count, err := verifiedService.IndexVerifiedContent(ctx, dir)
	if err != nil {
		logger.Fatal("Failed to index verified content", zap.Error(err))
	}

	logger.Info("Indexing completed",
		zap.String("collection", verifiedService.CollectionName()),
		zap.Int("documents", count),
	)
}
