package domain

import (
	"iter"
	"time"

	"github.com/google/uuid"
)

// ArchiveEntry is one supported member read out of an uploaded archive.
type ArchiveEntry struct {
	Index  int
	Name   string
	Bytes  []byte
	Format DocumentFormat
}

// ExtractedText is the normalized text layer of one entry.
type ExtractedText struct {
	Entry    *ArchiveEntry
	Text     string
	Warnings []string
}

// Fields is a partial record produced by one extraction strategy.
// An empty string means the field could not be extracted.
type Fields struct {
	Name              string   `json:"name"`
	Address           string   `json:"address"`
	Email             string   `json:"email"`
	ContactNumber     string   `json:"contact_number"`
	LastQualification string   `json:"last_qualification"`
	LastInstitution   string   `json:"last_institution"`
	Warnings          []string `json:"warnings,omitempty"`
}

// IsEmpty reports whether no field was populated.
func (f *Fields) IsEmpty() bool {
	return f.Name == "" && f.Address == "" && f.Email == "" &&
		f.ContactNumber == "" && f.LastQualification == "" && f.LastInstitution == ""
}

// FieldRecord is the final per-document record.
type FieldRecord struct {
	Fields
	Method     ExtractionMethod `json:"extraction_method"`
	Strategy   string           `json:"strategy"`
	SourceFile string           `json:"source_file"`
}

// Outcome is the per-entry result of the pipeline: either Record or SkipReason is set.
type Outcome struct {
	Index      int          `json:"index"`
	SourceFile string       `json:"source_file"`
	Record     *FieldRecord `json:"record,omitempty"`
	SkipReason SkipReason   `json:"skip_reason,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// Success builds an outcome carrying a record.
func Success(index int, rec *FieldRecord, warnings []string) Outcome {
	return Outcome{Index: index, SourceFile: rec.SourceFile, Record: rec, Warnings: warnings}
}

// Skipped builds an outcome for an entry that produced no record.
func Skipped(index int, sourceFile string, reason SkipReason, detail string) Outcome {
	return Outcome{Index: index, SourceFile: sourceFile, SkipReason: reason, Detail: detail}
}

// IsSuccess reports whether the outcome carries a record.
func (o Outcome) IsSuccess() bool {
	return o.Record != nil
}

// Row is one numbered report line.
type Row struct {
	Serial int          `json:"serial_no"`
	Record *FieldRecord `json:"record"`
}

// Report is the ordered, numbered result of one batch.
type Report struct {
	Rows         []Row     `json:"rows"`
	Skipped      []Outcome `json:"skipped"`
	TotalEntries int       `json:"total_entries"`
}

// All yields the report rows in serial order.
func (r *Report) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, row := range r.Rows {
			if !yield(row) {
				return
			}
		}
	}
}

// BatchStats counts how the entries of a batch were served.
type BatchStats struct {
	LLM      int `json:"llm"`
	Fallback int `json:"fallback"`
	Skipped  int `json:"skipped"`
}

// BatchResult is what the batch service hands back to the transport layer.
type BatchResult struct {
	ID         uuid.UUID     `json:"batch_id"`
	Report     *Report       `json:"report"`
	Outcomes   []Outcome     `json:"outcomes"`
	Stats      BatchStats    `json:"stats"`
	Duration   time.Duration `json:"-"`
	ReportPath string        `json:"report_path,omitempty"`
}

// Entity is a named entity located in a document.
type Entity struct {
	Text     string
	Type     EntityType
	Position int
}
