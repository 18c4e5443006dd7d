// Package textextract turns PDF and DOCX bytes into normalized plain text.
package textextract

import (
	"context"
	"fmt"
	"strings"

	"cvbatch/internal/domain"
	"cvbatch/internal/logger"
)

// Decoder produces raw text from the bytes of one document format.
// Warnings are non-fatal observations about the document.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (text string, warnings []string, err error)
}

// Extractor dispatches entries to the decoder registered for their format.
type Extractor struct {
	decoders map[domain.DocumentFormat]Decoder
}

// NewExtractor creates an Extractor with the default PDF and DOCX decoders.
func NewExtractor() *Extractor {
	return &Extractor{
		decoders: map[domain.DocumentFormat]Decoder{
			domain.FormatPDF:  NewPDFDecoder(),
			domain.FormatDOCX: NewDOCXDecoder(0),
		},
	}
}

// WithDecoder replaces the decoder for format and returns the Extractor.
func (e *Extractor) WithDecoder(format domain.DocumentFormat, d Decoder) *Extractor {
	e.decoders[format] = d
	return e
}

// Extract decodes and normalizes one entry. Errors wrap domain.ErrCorruptDocument
// or domain.ErrEmptyText.
func (e *Extractor) Extract(ctx context.Context, entry *domain.ArchiveEntry) (out *domain.ExtractedText, err error) {
	d, ok := e.decoders[entry.Format]
	if !ok {
		return nil, fmt.Errorf("no decoder for format %q: %w", entry.Format, domain.ErrCorruptDocument)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("decoder panic: %v: %w", r, domain.ErrCorruptDocument)
		}
	}()

	raw, warnings, err := d.Decode(ctx, entry.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", entry.Format, err, domain.ErrCorruptDocument)
	}

	text := Normalize(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", entry.Format, domain.ErrEmptyText)
	}

	if len(warnings) > 0 {
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldFile: entry.Name,
			"warnings":       warnings,
		}).Debug("textextract: decoder warnings")
	}

	return &domain.ExtractedText{Entry: entry, Text: text, Warnings: warnings}, nil
}
