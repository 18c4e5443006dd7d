// Package csvexport encodes a batch report as CSV or XLSX.
package csvexport

import (
	"encoding/csv"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"cvbatch/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// flushEvery is how many rows are buffered before the sink is flushed.
const flushEvery = 50

// Columns is the fixed report header.
var Columns = []string{
	"Serial No",
	"Name",
	"Address",
	"Email",
	"Contact Number",
	"Last Qualification",
	"Last Institution",
}

// Writer wraps csv.Writer for exporting a report as CSV.
type Writer struct {
	out     io.Writer
	csv     *csv.Writer
	withBOM bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM() Option {
	return func(w *Writer) { w.withBOM = true }
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	cw := &Writer{out: w, csv: csv.NewWriter(w)}
	for _, opt := range opts {
		opt(cw)
	}
	return cw
}

// WriteHeader writes the header row, preceded by the BOM when enabled.
func (w *Writer) WriteHeader() error {
	if w.withBOM {
		if _, err := w.out.Write(BOM); err != nil {
			return err
		}
	}
	return w.csv.Write(Columns)
}

// WriteRow writes one numbered record.
func (w *Writer) WriteRow(row domain.Row) error {
	return w.csv.Write(rowToRecord(row))
}

// WriteReport streams the header and every row of report, flushing
// periodically so large reports reach the client incrementally.
func (w *Writer) WriteReport(report *domain.Report) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	n := 0
	for row := range report.All() {
		if err := w.WriteRow(row); err != nil {
			return err
		}
		n++
		if n%flushEvery == 0 {
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// Flush flushes the underlying csv.Writer buffer, and the sink itself when
// it is an http.Flusher.
func (w *Writer) Flush() {
	w.csv.Flush()
	if f, ok := w.out.(http.Flusher); ok {
		f.Flush()
	}
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// rowToRecord converts a row to the seven report cells. Absent fields are empty.
func rowToRecord(row domain.Row) []string {
	rec := make([]string, len(Columns))
	rec[0] = strconv.Itoa(row.Serial)
	if row.Record == nil {
		return rec
	}
	rec[1] = row.Record.Name
	rec[2] = row.Record.Address
	rec[3] = row.Record.Email
	rec[4] = row.Record.ContactNumber
	rec[5] = row.Record.LastQualification
	rec[6] = row.Record.LastInstitution
	return rec
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a configured report name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the download name for a report, e.g. resume_report.csv.
func BuildFilename(base string, format domain.ReportFormat) string {
	name := SanitizeFilename(base)
	if name == "" {
		name = "resume_report"
	}
	return name + "." + string(format)
}

// ContentType returns the MIME type for a report format.
func ContentType(format domain.ReportFormat) string {
	if format == domain.ReportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
