package domain

// DocumentFormat is the format an archive member was classified as.
type DocumentFormat string

const (
	FormatPDF         DocumentFormat = "pdf"
	FormatDOCX        DocumentFormat = "docx"
	FormatUnsupported DocumentFormat = "unsupported"
)

// SupportedExtensions maps file extensions (without dot) to DocumentFormat.
var SupportedExtensions = map[string]DocumentFormat{
	"pdf":  FormatPDF,
	"docx": FormatDOCX,
}

// ExtractionMethod records which tier of the strategy chain supplied a record.
type ExtractionMethod string

const (
	MethodLLM      ExtractionMethod = "llm"
	MethodFallback ExtractionMethod = "fallback"
)

// SkipReason explains why an archive member produced no report row.
type SkipReason string

const (
	SkipUnsupportedFormat SkipReason = "unsupported_format"
	SkipCorruptDocument   SkipReason = "corrupt_document"
	SkipEmptyText         SkipReason = "empty_text"
	SkipUnsafePath        SkipReason = "unsafe_path"
	SkipEntryTooLarge     SkipReason = "entry_too_large"
)

// EntityType is the label attached to a recognized named entity.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityGPE          EntityType = "GPE"
	EntityLocation     EntityType = "LOC"
	EntityOrganization EntityType = "ORG"
)

// ReportFormat selects the report encoding.
type ReportFormat string

const (
	ReportCSV  ReportFormat = "csv"
	ReportXLSX ReportFormat = "xlsx"
)

// ParseReportFormat maps a user supplied value to a ReportFormat, defaulting to CSV.
func ParseReportFormat(s string) (ReportFormat, bool) {
	switch s {
	case "", "csv":
		return ReportCSV, true
	case "xlsx":
		return ReportXLSX, true
	}
	return "", false
}
