// Package rules is the dependency-free extraction strategy: named-entity
// recognition plus pattern and layout heuristics. It never fails; fields it
// cannot find are left empty. Ties always go to the earliest candidate in
// document order.
package rules

import (
	"context"
	"sort"
	"strings"

	"cvbatch/internal/domain"
	"cvbatch/internal/port"
)

// Extractor implements port.FieldExtractor without external services.
type Extractor struct {
	ner port.EntityRecognizer
}

// NewExtractor creates a rule-based extractor. ner may be nil, in which case
// only layout heuristics are used.
func NewExtractor(ner port.EntityRecognizer) *Extractor {
	return &Extractor{ner: ner}
}

// Extract always returns a non-nil record and a nil error.
func (e *Extractor) Extract(_ context.Context, text string) (*domain.Fields, error) {
	d := newDocument(text)
	if e.ner != nil && len(d.lines) > 0 {
		d.entities = e.ner.Recognize(d.text)
		sort.SliceStable(d.entities, func(i, j int) bool {
			return d.entities[i].Position < d.entities[j].Position
		})
	}

	fields := &domain.Fields{
		Name:          d.name(),
		Email:         d.email(),
		ContactNumber: d.phone(),
		Address:       d.address(),
	}
	edu := d.education()
	fields.LastQualification = edu.qualification
	fields.LastInstitution = edu.institution
	fields.Warnings = edu.warnings
	return fields, nil
}

// document is text split into trimmed lines with their byte offsets.
type document struct {
	text     string
	lines    []string
	starts   []int
	entities []domain.Entity
}

func newDocument(text string) *document {
	d := &document{text: text}
	offset := 0
	for _, raw := range strings.SplitAfter(text, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lead := strings.Index(raw, line)
			d.lines = append(d.lines, line)
			d.starts = append(d.starts, offset+lead)
		}
		offset += len(raw)
	}
	return d
}

// lineAt returns the index of the line containing byte offset pos.
func (d *document) lineAt(pos int) int {
	i := sort.Search(len(d.starts), func(i int) bool { return d.starts[i] > pos })
	if i == 0 {
		return 0
	}
	return i - 1
}

// entitiesOf returns entities of the given types in document order.
func (d *document) entitiesOf(types ...domain.EntityType) []domain.Entity {
	var out []domain.Entity
	for _, e := range d.entities {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// segments splits a line on the separators resumes use to pack several
// facts on one line.
func segments(line string) []string {
	var out []string
	for _, s := range segmentSplit.Split(line, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
