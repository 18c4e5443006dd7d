// Package nlp wraps the resident named-entity model used by the rule-based extractor.
package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"cvbatch/internal/domain"
)

// Recognizer runs named-entity recognition with a model loaded once at
// construction. The model is never mutated afterwards, so a Recognizer may
// be shared across goroutines.
type Recognizer struct {
	model *prose.Model
}

// NewRecognizer loads the model at modelPath, or the bundled English model
// when modelPath is empty.
func NewRecognizer(modelPath string) (r *Recognizer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("loading ner model: %v", rec)
		}
	}()

	if modelPath != "" {
		return &Recognizer{model: prose.ModelFromDisk(modelPath)}, nil
	}

	// The bundled model is only reachable through a document.
	doc, err := prose.NewDocument("Warm up.", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("loading ner model: %w", err)
	}
	return &Recognizer{model: doc.Model}, nil
}

// Recognize returns PERSON, GPE, LOC and ORG entities in document order.
// Failures yield no entities rather than an error.
func (r *Recognizer) Recognize(text string) (entities []domain.Entity) {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			entities = nil
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.UsingModel(r.model),
	)
	if err != nil {
		return nil
	}

	cursor := 0
	for _, ent := range doc.Entities() {
		typ, ok := labelFor(ent.Label)
		if !ok {
			continue
		}
		pos := locate(text, ent.Text, cursor)
		if pos >= 0 {
			cursor = pos + len(ent.Text)
		} else {
			pos = len(text)
		}
		entities = append(entities, domain.Entity{Text: ent.Text, Type: typ, Position: pos})
	}
	return entities
}

func labelFor(label string) (domain.EntityType, bool) {
	switch label {
	case "PERSON":
		return domain.EntityPerson, true
	case "GPE":
		return domain.EntityGPE, true
	case "LOC":
		return domain.EntityLocation, true
	case "ORG":
		return domain.EntityOrganization, true
	}
	return "", false
}

// locate finds entity text at or after cursor, then anywhere.
func locate(text, s string, cursor int) int {
	if s == "" {
		return -1
	}
	if cursor < len(text) {
		if i := strings.Index(text[cursor:], s); i >= 0 {
			return cursor + i
		}
	}
	return strings.Index(text, s)
}
