package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cvbatch/internal/app"
	"cvbatch/internal/config"
	"cvbatch/internal/csvexport"
	"cvbatch/internal/domain"
	"cvbatch/internal/logger"
	s3storage "cvbatch/internal/storage/s3"
)

type extractOptions struct {
	input   string
	output  string
	format  string
	workers int
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Process a resume archive into a report",
		Long:  "Reads a zip archive from a local path or s3://bucket/key and writes the numbered report to a file or stdout.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Path or s3://bucket/key of the zip archive (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Report path, or - for stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format: csv or xlsx (default from the output extension, else csv)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent documents (overrides CVBATCH_BATCH_WORKERS)")

	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.workers > 0 {
		cfg.Batch.Workers = opts.workers
	}

	// stdout may carry the report, so logs go to stderr
	log := logger.New(cfg.Log.Level, "text", cmd.ErrOrStderr())
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	archive, err := readInput(ctx, cfg, opts.input)
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := a.Batches.Process(ctx, archive)
	if err != nil {
		return fmt.Errorf("processing %s: %w", opts.input, err)
	}

	if err := writeReport(cmd.OutOrStdout(), opts.output, format, cfg.Batch.CSVBOM, result.Report); err != nil {
		return err
	}

	printSummary(cmd.ErrOrStderr(), result)
	return nil
}

func resolveFormat(flag, output string) (domain.ReportFormat, error) {
	if flag == "" && strings.EqualFold(filepath.Ext(output), ".xlsx") {
		return domain.ReportXLSX, nil
	}
	format, ok := domain.ParseReportFormat(strings.ToLower(flag))
	if !ok {
		return "", fmt.Errorf("format %q: %w", flag, domain.ErrInvalidReportFormat)
	}
	return format, nil
}

func readInput(ctx context.Context, cfg *config.Config, input string) ([]byte, error) {
	if !s3storage.IsS3URI(input) {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		return data, nil
	}

	bucket, key, err := s3storage.ParseS3URI(input)
	if err != nil {
		return nil, err
	}
	store, err := s3storage.NewS3Client(ctx, &cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("initializing s3 client: %w", err)
	}
	data, err := store.Download(ctx, bucket, key, cfg.Batch.MaxArchiveBytes())
	if err != nil {
		return nil, fmt.Errorf("downloading archive: %w", err)
	}
	return data, nil
}

func writeReport(stdout io.Writer, output string, format domain.ReportFormat, bom bool, report *domain.Report) (err error) {
	out := stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing report: %w", cerr)
			}
		}()
		out = f
	}

	if format == domain.ReportXLSX {
		return csvexport.WriteXLSX(out, report)
	}
	var opts []csvexport.Option
	if bom {
		opts = append(opts, csvexport.WithBOM())
	}
	return csvexport.NewWriter(out, opts...).WriteReport(report)
}

func printSummary(w io.Writer, result *domain.BatchResult) {
	fmt.Fprintf(w, "batch %s: %d entries, %d rows (llm %d, fallback %d), %d skipped in %s\n",
		result.ID, result.Report.TotalEntries, len(result.Report.Rows),
		result.Stats.LLM, result.Stats.Fallback, result.Stats.Skipped, result.Duration.Round(1e6))
	for _, o := range result.Report.Skipped {
		if o.Detail != "" {
			fmt.Fprintf(w, "  skipped %s: %s (%s)\n", o.SourceFile, o.SkipReason, o.Detail)
		} else {
			fmt.Fprintf(w, "  skipped %s: %s\n", o.SourceFile, o.SkipReason)
		}
	}
	if result.ReportPath != "" {
		fmt.Fprintf(w, "report archived to %s\n", result.ReportPath)
	}
}
