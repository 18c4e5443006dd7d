// Package app assembles the batch pipeline from configuration. It is shared
// by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"

	"cvbatch/internal/config"
	"cvbatch/internal/extractor"
	"cvbatch/internal/extractor/rules"
	"cvbatch/internal/ingest"
	"cvbatch/internal/logger"
	"cvbatch/internal/nlp"
	"cvbatch/internal/port"
	"cvbatch/internal/service"
	s3storage "cvbatch/internal/storage/s3"
	"cvbatch/internal/textextract"

	// Register language-model providers.
	_ "cvbatch/internal/extractor/claude"
	_ "cvbatch/internal/extractor/gemini"
	_ "cvbatch/internal/extractor/openai"
)

// App holds the long-lived components built from one Config.
type App struct {
	Batches service.BatchService
	// Storage is nil unless the report archive is configured.
	Storage port.ObjectStorage
}

// Build wires the ingestor, text extractor, strategy chain and batch service.
// The named-entity model is loaded once here and shared by every worker.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)

	ner, err := nlp.NewRecognizer(cfg.NER.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("initializing ner: %w", err)
	}

	chain, err := extractor.NewChainFromConfig(&cfg.LLM, rules.NewExtractor(ner))
	if err != nil {
		return nil, fmt.Errorf("initializing extraction chain: %w", err)
	}
	if chain.LLMEnabled() {
		log.Infof("app.Build: llm strategies %v, rule-based fallback", chain.Names())
	} else {
		log.Info("app.Build: no llm configured, using rule-based extraction only")
	}

	ingestor := ingest.NewIngestor(ingest.Limits{
		MaxArchiveBytes: cfg.Batch.MaxArchiveBytes(),
		MaxEntryBytes:   cfg.Batch.MaxEntryBytes(),
		MaxTotalBytes:   cfg.Batch.MaxTotalBytes(),
		MaxEntries:      cfg.Batch.MaxEntries,
	})

	a := &App{}
	var archive *service.ReportArchive
	if cfg.Archive.Enabled() {
		a.Storage, err = s3storage.NewS3Client(ctx, &cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("initializing report archive: %w", err)
		}
		archive = &service.ReportArchive{
			Storage:       a.Storage,
			Bucket:        cfg.Archive.Bucket,
			Prefix:        cfg.Archive.Prefix,
			PresignExpiry: cfg.Archive.PresignExpiry,
			BOM:           cfg.Batch.CSVBOM,
		}
		log.WithField("bucket", cfg.Archive.Bucket).Info("app.Build: report archive enabled")
	}

	a.Batches = service.NewBatchService(ingestor, textextract.NewExtractor(), chain, cfg.Batch.Workers, archive)
	return a, nil
}
