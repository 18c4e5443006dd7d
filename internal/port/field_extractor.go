package port

import (
	"context"

	"cvbatch/internal/domain"
)

// FieldExtractor maps the normalized text of one resume to a partial field record.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) (*domain.Fields, error)
}

// EntityRecognizer locates named entities in text. Implementations must be safe
// for concurrent use.
type EntityRecognizer interface {
	Recognize(text string) []domain.Entity
}
