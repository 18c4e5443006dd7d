package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cvbatch/internal/aggregate"
	"cvbatch/internal/csvexport"
	"cvbatch/internal/domain"
	"cvbatch/internal/ingest"
	"cvbatch/internal/logger"
	"cvbatch/internal/port"
)

// Ingester unpacks an archive into entries and early skips.
type Ingester interface {
	Ingest(ctx context.Context, archive []byte) (*ingest.Batch, error)
	Limits() ingest.Limits
}

// TextExtractor turns one entry into normalized text.
type TextExtractor interface {
	Extract(ctx context.Context, entry *domain.ArchiveEntry) (*domain.ExtractedText, error)
}

// RecordExtractor maps text to a field record and never fails.
type RecordExtractor interface {
	Extract(ctx context.Context, text *domain.ExtractedText) *domain.FieldRecord
	Names() []string
	LLMEnabled() bool
}

// BatchInfo describes how batches are processed, for readiness reporting.
type BatchInfo struct {
	LLMEnabled      bool     `json:"llm_enabled"`
	Strategies      []string `json:"strategies"`
	MaxArchiveBytes int64    `json:"max_archive_bytes"`
	Workers         int      `json:"workers"`
}

// BatchService defines the batch extraction contract.
type BatchService interface {
	Process(ctx context.Context, archive []byte) (*domain.BatchResult, error)
	Info() BatchInfo
}

// ReportArchive is where generated CSV reports are copied when configured.
type ReportArchive struct {
	Storage       port.ObjectStorage
	Bucket        string
	Prefix        string
	PresignExpiry int64
	BOM           bool
}

type batchService struct {
	ingestor Ingester
	texts    TextExtractor
	records  RecordExtractor
	workers  int
	archive  *ReportArchive
}

// NewBatchService creates a new BatchService implementation. archive may be nil.
func NewBatchService(
	ingestor Ingester,
	texts TextExtractor,
	records RecordExtractor,
	workers int,
	archive *ReportArchive,
) BatchService {
	if workers < 1 {
		workers = 1
	}
	return &batchService{
		ingestor: ingestor,
		texts:    texts,
		records:  records,
		workers:  workers,
		archive:  archive,
	}
}

func (s *batchService) Info() BatchInfo {
	return BatchInfo{
		LLMEnabled:      s.records.LLMEnabled(),
		Strategies:      s.records.Names(),
		MaxArchiveBytes: s.ingestor.Limits().MaxArchiveBytes,
		Workers:         s.workers,
	}
}

// Process runs one archive through ingest, text extraction, field extraction
// and aggregation. Only batch-fatal errors are returned; everything that goes
// wrong with a single entry becomes a skip outcome.
func (s *batchService) Process(ctx context.Context, archive []byte) (*domain.BatchResult, error) {
	start := time.Now()
	id := uuid.New()
	ctx = logger.WithField(ctx, logger.FieldBatchID, id.String())
	log := logger.FromContext(ctx)

	batch, err := s.ingestor.Ingest(ctx, archive)
	if err != nil {
		log.WithError(err).Warn("batchService.Process: ingestion failed")
		return nil, err
	}
	log.Infof("batchService.Process: %d members, %d supported, %d skipped at ingestion",
		batch.Total, len(batch.Entries), len(batch.Skipped))

	outcomes := make([]domain.Outcome, batch.Total)
	for _, o := range batch.Skipped {
		outcomes[o.Index] = o
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, entry := range batch.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// each goroutine owns one slot; no two entries share an index
			outcomes[entry.Index] = s.processEntry(gctx, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("batchService.Process: batch canceled")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("batchService.Process: batch canceled")
		return nil, err
	}

	report, err := aggregate.Aggregate(outcomes, batch.Total)
	if err != nil {
		return nil, fmt.Errorf("aggregating batch %s: %w", id, err)
	}

	result := &domain.BatchResult{
		ID:       id,
		Report:   report,
		Outcomes: outcomes,
		Stats:    statsOf(outcomes),
		Duration: time.Since(start),
	}

	if s.archive != nil {
		result.ReportPath = s.archiveReport(ctx, result)
	}

	log.WithFields(logger.Fields{
		"rows":        len(report.Rows),
		"skipped":     result.Stats.Skipped,
		"llm":         result.Stats.LLM,
		"fallback":    result.Stats.Fallback,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("batchService.Process: batch completed")
	return result, nil
}

func (s *batchService) processEntry(ctx context.Context, entry *domain.ArchiveEntry) (out domain.Outcome) {
	ctx = logger.WithField(ctx, logger.FieldFile, entry.Name)
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("batchService.processEntry: recovered panic: %v", r)
			out = domain.Skipped(entry.Index, entry.Name, domain.SkipCorruptDocument, fmt.Sprintf("panic: %v", r))
		}
	}()

	text, err := s.texts.Extract(ctx, entry)
	entry.Bytes = nil
	if err != nil {
		reason := domain.SkipCorruptDocument
		if errors.Is(err, domain.ErrEmptyText) {
			reason = domain.SkipEmptyText
		}
		log.WithError(err).Warnf("batchService.processEntry: skipped (%s)", reason)
		return domain.Skipped(entry.Index, entry.Name, reason, err.Error())
	}

	rec := s.records.Extract(ctx, text)
	rec.SourceFile = entry.Name

	var warnings []string
	warnings = append(warnings, text.Warnings...)
	warnings = append(warnings, rec.Warnings...)

	log.WithFields(logger.Fields{
		logger.FieldStrategy: rec.Strategy,
		"method":             rec.Method,
	}).Debug("batchService.processEntry: extracted")
	return domain.Success(entry.Index, rec, warnings)
}

func statsOf(outcomes []domain.Outcome) domain.BatchStats {
	var st domain.BatchStats
	for _, o := range outcomes {
		switch {
		case !o.IsSuccess():
			st.Skipped++
		case o.Record.Method == domain.MethodLLM:
			st.LLM++
		default:
			st.Fallback++
		}
	}
	return st
}

// archiveReport uploads the CSV report and returns its location. Failures
// are logged and yield an empty location.
func (s *batchService) archiveReport(ctx context.Context, result *domain.BatchResult) string {
	log := logger.FromContext(ctx)

	var buf bytes.Buffer
	var opts []csvexport.Option
	if s.archive.BOM {
		opts = append(opts, csvexport.WithBOM())
	}
	if err := csvexport.NewWriter(&buf, opts...).WriteReport(result.Report); err != nil {
		log.WithError(err).Error("batchService.archiveReport: encoding report")
		return ""
	}

	key := ArchiveKey(s.archive.Prefix, time.Now().UTC(), result.ID)
	_, err := s.archive.Storage.Upload(ctx, port.UploadInput{
		Bucket:      s.archive.Bucket,
		Key:         key,
		Body:        &buf,
		ContentType: csvexport.ContentType(domain.ReportCSV),
	})
	if err != nil {
		log.WithError(err).Error("batchService.archiveReport: upload failed")
		return ""
	}

	location := fmt.Sprintf("s3://%s/%s", s.archive.Bucket, key)
	if s.archive.PresignExpiry > 0 {
		url, err := s.archive.Storage.GetPresignedURL(ctx, s.archive.Bucket, key, s.archive.PresignExpiry)
		if err != nil {
			log.WithError(err).Warn("batchService.archiveReport: presign failed")
			return location
		}
		return url
	}
	return location
}

// ArchiveKey returns the object key for a batch report: <prefix>/<date>/<batch-id>.csv.
func ArchiveKey(prefix string, at time.Time, id uuid.UUID) string {
	return path.Join(prefix, at.Format("2006-01-02"), id.String()+".csv")
}
