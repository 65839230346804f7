package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/mirror/minio"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/core/services"
	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/normalisers/docx"
	"github.com/custodia-labs/ragcore/internal/normalisers/pdf"
	"github.com/custodia-labs/ragcore/internal/postprocessors"
	"github.com/custodia-labs/ragcore/internal/postprocessors/chunker"
)

// bootstrap returns the builder of the model-backed runtime.
func bootstrap(settings driving.SettingsService) cli.Bootstrap {
	return func(ctx context.Context) (*cli.Runtime, error) {
		cfg, err := settings.Get()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		return newRuntime(ctx, cfg)
	}
}

// newRuntime wires the services. The embedder must be reachable, the LLM
// may not be.
func newRuntime(ctx context.Context, cfg *domain.AppSettings) (*cli.Runtime, error) {
	models, err := ai.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.StoreDir)
	if err != nil {
		models.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	closeAll := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store: %v", err)
		}
		models.Close()
	}

	prompts, err := file.NewPromptStore(filepath.Join(cfg.StoreDir, "prompts"))
	if err != nil {
		closeAll()
		return nil, err
	}

	pipeline, err := newPipeline()
	if err != nil {
		closeAll()
		return nil, err
	}

	retrieval := services.NewRetrievalService(
		chunker.New(chunker.NewRegistry(pdf.New(), docx.New()), chunker.WithGroupSize(cfg.GroupSize)),
		models.Embedder,
		flat.Loader{Options: []flat.Option{flat.WithCompression(cfg.Index.Compression)}},
		services.RetrievalConfig{
			IndexDir:      cfg.Index.Dir,
			K:             cfg.K,
			Seed:          cfg.Index.Seed,
			SeedFile:      cfg.Index.SeedFile,
			PushOnPersist: cfg.Mirror.PushOnPersist,
		},
	)
	retrieval.SetPipeline(pipeline)
	retrieval.SetDocumentStore(store.DocumentStore())

	warnings := models.Warnings
	if cfg.Mirror.PushOnPersist {
		mirror, err := newMirror(cfg.Mirror)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("snapshot mirror disabled: %v", err))
		} else {
			retrieval.SetMirror(mirror)
		}
	}

	if err := retrieval.Open(ctx); err != nil {
		closeAll()
		return nil, err
	}

	return &cli.Runtime{
		Retrieval: retrieval,
		Chat:      services.NewChatService(retrieval, models.Generator, prompts, store.MessageStore()),
		Documents: services.NewDocumentService(store.DocumentStore(), retrieval),
		Watch: func(ctx context.Context, dir string) error {
			return services.NewWatcher(retrieval, dir).Run(ctx)
		},
		Warnings: warnings,
		Close:    closeAll,
	}, nil
}

// newPipeline builds the post-chunking stages.
func newPipeline() (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	return postprocessors.BuildPipeline(registry, nil, nil)
}

func newMirror(settings domain.MirrorSettings) (driven.SnapshotMirror, error) {
	m, err := minio.New(settings)
	if err != nil {
		return nil, err
	}
	return m, nil
}
