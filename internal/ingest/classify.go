package ingest

import (
	"archive/zip"
	"bytes"
	"path"
	"strings"

	"cvbatch/internal/domain"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// formatFromName classifies a member by extension. known is false when the
// name has no extension and the content must be sniffed.
func formatFromName(name string) (format domain.DocumentFormat, known bool) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return domain.FormatUnsupported, false
	}
	if f, ok := domain.SupportedExtensions[ext]; ok {
		return f, true
	}
	return domain.FormatUnsupported, true
}

// sniffFormat classifies content by signature.
func sniffFormat(data []byte) domain.DocumentFormat {
	if bytes.HasPrefix(data, pdfMagic) {
		return domain.FormatPDF
	}
	if bytes.HasPrefix(data, zipMagic) {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return domain.FormatUnsupported
		}
		for _, f := range zr.File {
			if f.Name == "word/document.xml" {
				return domain.FormatDOCX
			}
		}
	}
	return domain.FormatUnsupported
}
