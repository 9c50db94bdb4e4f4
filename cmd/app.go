package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/tieubaoca/studytool-be/cache"
	"github.com/tieubaoca/studytool-be/config"
	"github.com/tieubaoca/studytool-be/database"
	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/repository"
	"github.com/tieubaoca/studytool-be/service"
	"github.com/tieubaoca/studytool-be/storage"
	"github.com/tieubaoca/studytool-be/types"
)

// app holds the wired services shared by the server and the CLI commands.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	files     service.FileService
	artifacts service.ArtifactService
	pipeline  service.Pipeline
	closers   []func(context.Context) error
}

func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("Failed to close resource", "error", err)
		}
	}
	a.log.Sync()
}

func loadApp(ctx context.Context, withAI bool) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}

	fileRepo, artifactRepo, err := a.openRepos(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	textCache := cache.NewNoopTextCache()
	if cfg.Cache.RedisAddr != "" {
		redisCache, rdb, err := cache.NewRedisTextCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL, log)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		textCache = redisCache
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	}

	docCfg := types.DocumentServiceConfig{
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: service.DefaultDocumentServiceConfig.AllowedExtensions,
		MaxParallelFiles:  service.DefaultDocumentServiceConfig.MaxParallelFiles,
	}
	a.files = service.NewFileService(docCfg, fileRepo, blobs, service.NewTextExtractor(), textCache, log)
	a.artifacts = service.NewArtifactService(artifactRepo, log)

	if !withAI {
		return a, nil
	}
	aiService, err := service.NewAIService(cfg.AI)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to create ai service: %w", err)
	}
	if closer, ok := aiService.(io.Closer); ok {
		a.closers = append(a.closers, func(context.Context) error { return closer.Close() })
	}
	requester := service.NewGenerationRequester(aiService, cfg.AI.Timeout, cfg.AI.RetryBackoff, log)
	aggregator := service.NewContentAggregator(a.files, docCfg.MaxParallelFiles, log)
	a.pipeline = service.NewPipeline(aggregator, requester, a.artifacts, log)
	return a, nil
}

func (a *app) openRepos(ctx context.Context) (repository.FileRepo, repository.ArtifactRepo, error) {
	if a.cfg.Database.Driver == "mongo" {
		client, err := database.NewMongoClient(ctx, a.cfg.Database.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		db := client.Database(a.cfg.Database.MongoDatabase)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, nil, err
		}
		return repository.NewMongoFileRepo(db.Collection(database.FILES_COLLECTION)), repository.NewMongoArtifactRepo(db), nil
	}

	db, err := database.Open(a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repository.NewFileRepo(db), repository.NewArtifactRepo(db), nil
}
