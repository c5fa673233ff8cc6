package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/ai"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/blob/bolt"
	blobfs "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/blob/filesystem"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/gdrive"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/queue/channel"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driving/cli"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/services"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/docx"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/eml"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/html"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/plaintext"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
	"github.com/custodia-labs/sales-support-ai/internal/postprocessors/chunker"
)

func openConfig(opts cli.Options) (driven.ConfigStore, error) {
	return file.NewConfigStore(opts.ConfigPath)
}

// stores groups the relational ports of one storage driver.
type stores struct {
	documents driven.DocumentStore
	entities  driven.EntityStore
	chunks    driven.ChunkStore
	closer    io.Closer
}

// bootstrap builds every adapter and service from the loaded settings.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	cfg, err := openConfig(opts)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if opts.Verbose || settings.Logging.Verbose {
		logger.SetVerbose(true)
	}
	return build(ctx, settings, cfg, opts.Verbose)
}

func build(ctx context.Context, settings domain.AppSettings, cfg driven.ConfigStore, verbose bool) (*cli.Services, error) {
	logger.Section("Bootstrap")

	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close: %v", err)
			}
		}
	}

	st, err := openStores(ctx, settings.Storage, verbose)
	if err != nil {
		return nil, err
	}
	if st.closer != nil {
		closers = append(closers, st.closer)
	}

	blobs, err := openBlobs(settings)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, blobs)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		closeAll()
		return nil, err
	}

	models := ai.Init(ctx, settings, false)
	for _, w := range models.Warnings {
		logger.Warn("%s", w)
	}

	p := settings.Pipeline
	queue := channel.New(p.QueueCapacity)
	hub := httpapi.NewHub()
	embedder := services.NewEmbedder(models.EmbeddingService, p.EmbedLimit)

	ingestion := services.NewIngestionService(services.IngestionDeps{
		Documents:         st.documents,
		Entities:          st.entities,
		Chunks:            st.chunks,
		Blobs:             blobs,
		Queue:             queue,
		Extraction:        services.NewExtractionService(plaintext.New(), docx.New(), html.New(), eml.New()),
		Identifier:        services.NewEntityIdentifier(models.LLMService, prompts, p.IdentifyPrefix),
		Analyzer:          services.NewEntityAnalyzer(models.LLMService, prompts, p.IdentifyPrefix),
		Embedder:          embedder,
		Chunker:           chunker.New(chunker.WithChunkSize(p.ChunkSize), chunker.WithOverlap(p.ChunkOverlap)),
		Publisher:         hub,
		EntityConcurrency: p.EntityConcurrency,
	})
	drive := gdrive.NewFetcher(gdrive.Config{MaxSize: settings.Server.MaxUploadBytes})

	logger.Debug("storage: %s, blobs: %s, workers: %d", settings.Storage.Driver, settings.Blob.Driver, p.Workers)

	return &cli.Services{
		Settings:  settings,
		Config:    cfg,
		Upload:    services.NewUploadService(st.documents, blobs, ingestion, drive, settings.Server.MaxUploadBytes),
		Ingestion: ingestion,
		Documents: services.NewDocumentService(st.documents, st.entities, st.chunks, blobs),
		Search:    services.NewSearchService(st.entities, embedder, models.LLMService, prompts, settings.Retrieval),
		Chat:      services.NewChatService(st.chunks, embedder, models.LLMService, prompts, settings.Retrieval),
		Worker:    services.NewStageWorker(queue, ingestion, p.Workers),
		Hub:       hub,
		Store:     st.documents,
		Close: func() {
			hub.Close()
			_ = queue.Close()
			models.Close()
			closeAll()
		},
	}, nil
}

func openStores(ctx context.Context, cfg domain.StorageSettings, verbose bool) (*stores, error) {
	switch cfg.Driver {
	case domain.StorageMemory:
		return &stores{
			documents: memory.NewDocumentStore(),
			entities:  memory.NewEntityStore(),
			chunks:    memory.NewChunkStore(),
		}, nil

	case domain.StoragePostgres:
		openCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		store, err := postgres.Open(openCtx, postgres.Config{
			DSN:      cfg.DSN,
			Embedded: cfg.EmbeddedPostgres,
			DataDir:  filepath.Join(cfg.DataDir, "postgres"),
			Verbose:  verbose,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return &stores{
			documents: store.DocumentStore(),
			entities:  store.EntityStore(),
			chunks:    store.ChunkStore(),
			closer:    store,
		}, nil

	case domain.StorageSQLite:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return &stores{
			documents: store.DocumentStore(),
			entities:  store.EntityStore(),
			chunks:    store.ChunkStore(),
			closer:    store,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidInput, cfg.Driver)
	}
}

func openBlobs(settings domain.AppSettings) (driven.BlobStore, error) {
	path := settings.Blob.Path
	switch settings.Blob.Driver {
	case domain.BlobMemory:
		return memory.NewBlobStore(), nil

	case domain.BlobFilesystem:
		if path == "" {
			path = filepath.Join(settings.Storage.DataDir, "blobs")
		}
		return blobfs.New(path)

	case domain.BlobBolt:
		if path == "" {
			path = filepath.Join(settings.Storage.DataDir, bolt.DefaultFileName)
		}
		return bolt.Open(path)

	default:
		return nil, fmt.Errorf("%w: unknown blob driver %q", domain.ErrInvalidInput, settings.Blob.Driver)
	}
}
