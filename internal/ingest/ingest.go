// Package ingest validates an uploaded archive and reads its supported members into memory.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"cvbatch/internal/domain"
	"cvbatch/internal/logger"
)

// Limits bounds the resources one archive may consume. Zero disables a limit.
type Limits struct {
	MaxArchiveBytes int64
	MaxEntryBytes   int64
	MaxTotalBytes   int64
	MaxEntries      int
}

// Batch is the result of ingesting one archive. Entries and Skipped together
// cover every file member; Total is the number of file members.
type Batch struct {
	Entries []*domain.ArchiveEntry
	Skipped []domain.Outcome
	Total   int
}

// Ingestor unpacks archives under fixed limits. It holds no per-batch state.
type Ingestor struct {
	limits Limits
}

// NewIngestor creates an Ingestor.
func NewIngestor(limits Limits) *Ingestor {
	return &Ingestor{limits: limits}
}

// Limits returns the configured limits.
func (i *Ingestor) Limits() Limits {
	return i.limits
}

// Ingest opens archive and returns its members in stored order.
func (i *Ingestor) Ingest(ctx context.Context, archive []byte) (*Batch, error) {
	log := logger.FromContext(ctx)

	if i.limits.MaxArchiveBytes > 0 && int64(len(archive)) > i.limits.MaxArchiveBytes {
		return nil, fmt.Errorf("archive is %d bytes, limit %d: %w", len(archive), i.limits.MaxArchiveBytes, domain.ErrSizeExceeded)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if errors.Is(err, zip.ErrInsecurePath) && zr != nil {
		// Unsafe members are rejected individually below.
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidArchive)
	}

	files := make([]*zip.File, 0, len(zr.File))
	var declared uint64
	for _, f := range zr.File {
		if isDir(f) {
			continue
		}
		files = append(files, f)
		declared += f.UncompressedSize64
	}

	if i.limits.MaxEntries > 0 && len(files) > i.limits.MaxEntries {
		return nil, fmt.Errorf("archive has %d members, limit %d: %w", len(files), i.limits.MaxEntries, domain.ErrSizeExceeded)
	}
	if i.limits.MaxTotalBytes > 0 && declared > uint64(i.limits.MaxTotalBytes) {
		return nil, fmt.Errorf("archive declares %d uncompressed bytes, limit %d: %w", declared, i.limits.MaxTotalBytes, domain.ErrSizeExceeded)
	}

	batch := &Batch{Total: len(files)}
	var total int64

	for idx, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		skip := func(reason domain.SkipReason, name, detail string) {
			log.WithFields(logger.Fields{
				logger.FieldFile: name,
				"reason":         reason,
			}).Debug("ingest: member skipped")
			batch.Skipped = append(batch.Skipped, domain.Skipped(idx, name, reason, detail))
		}

		name, ok := SafeName(f.Name)
		if !ok {
			skip(domain.SkipUnsafePath, f.Name, "member path escapes the archive root")
			continue
		}
		if isResourceFork(name) {
			skip(domain.SkipUnsupportedFormat, name, "resource fork")
			continue
		}

		format, known := formatFromName(name)
		if known && format == domain.FormatUnsupported {
			skip(domain.SkipUnsupportedFormat, name, "unsupported file extension")
			continue
		}

		if i.limits.MaxEntryBytes > 0 && f.UncompressedSize64 > uint64(i.limits.MaxEntryBytes) {
			skip(domain.SkipEntryTooLarge, name, fmt.Sprintf("declared size %d exceeds %d", f.UncompressedSize64, i.limits.MaxEntryBytes))
			continue
		}

		data, err := i.readMember(f)
		if errors.Is(err, errEntryTooLarge) {
			skip(domain.SkipEntryTooLarge, name, err.Error())
			continue
		}
		if err != nil {
			skip(domain.SkipCorruptDocument, name, err.Error())
			continue
		}

		total += int64(len(data))
		if i.limits.MaxTotalBytes > 0 && total > i.limits.MaxTotalBytes {
			return nil, fmt.Errorf("uncompressed content exceeds %d bytes: %w", i.limits.MaxTotalBytes, domain.ErrSizeExceeded)
		}

		if !known {
			format = sniffFormat(data)
			if format == domain.FormatUnsupported {
				skip(domain.SkipUnsupportedFormat, name, "unrecognized content signature")
				continue
			}
		}

		batch.Entries = append(batch.Entries, &domain.ArchiveEntry{
			Index:  idx,
			Name:   name,
			Bytes:  data,
			Format: format,
		})
	}

	if len(batch.Entries) == 0 {
		return nil, fmt.Errorf("%d members inspected: %w", batch.Total, domain.ErrNoSupportedFiles)
	}

	log.WithFields(logger.Fields{
		"entries": len(batch.Entries),
		"skipped": len(batch.Skipped),
		"bytes":   total,
	}).Info("ingest: archive unpacked")

	return batch, nil
}

var errEntryTooLarge = errors.New("member exceeds maximum entry size")

func (i *Ingestor) readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening member: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var r io.Reader = rc
	if i.limits.MaxEntryBytes > 0 {
		r = io.LimitReader(rc, i.limits.MaxEntryBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading member: %w", err)
	}
	if i.limits.MaxEntryBytes > 0 && int64(len(data)) > i.limits.MaxEntryBytes {
		return nil, errEntryTooLarge
	}
	return data, nil
}

// SafeName normalizes an archive member name and reports whether it stays
// inside the extraction root.
func SafeName(name string) (string, bool) {
	n := strings.ReplaceAll(name, `\`, "/")
	if n == "" || strings.ContainsRune(n, 0) || strings.HasPrefix(n, "/") {
		return "", false
	}
	if len(n) >= 2 && n[1] == ':' {
		return "", false
	}
	for _, seg := range strings.Split(n, "/") {
		if seg == ".." {
			return "", false
		}
	}
	cleaned := path.Clean(n)
	if cleaned == "." || !fs.ValidPath(cleaned) {
		return "", false
	}
	return cleaned, true
}

func isDir(f *zip.File) bool {
	return f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/")
}

func isResourceFork(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), "._")
}
