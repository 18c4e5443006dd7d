// Package extractor maps resume text to a field record through an ordered
// chain of language-model strategies backed by a deterministic fallback.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cvbatch/internal/domain"
	"cvbatch/internal/logger"
	"cvbatch/internal/port"
)

// FallbackName is the strategy name recorded for rule-based records.
const FallbackName = "rules"

// Strategy is one language-model tier of the chain.
type Strategy struct {
	Name      string
	Extractor port.FieldExtractor
	Timeout   time.Duration
}

// circuitState tracks rate-limit backoff for a single strategy.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Chain tries strategies in order and always ends with the fallback, so
// Extract never fails. A strategy that reports a rate limit is skipped by
// later documents until its Retry-After elapses.
type Chain struct {
	strategies []Strategy
	circuits   []*circuitState
	fallback   port.FieldExtractor
	now        func() time.Time
}

// NewChain creates a Chain from a fallback and an ordered list of strategies.
func NewChain(fallback port.FieldExtractor, strategies ...Strategy) *Chain {
	circuits := make([]*circuitState, len(strategies))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Chain{
		strategies: strategies,
		circuits:   circuits,
		fallback:   fallback,
		now:        time.Now,
	}
}

// Names returns the language-model strategy names in chain order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

// LLMEnabled reports whether any language-model strategy is configured.
func (c *Chain) LLMEnabled() bool {
	return len(c.strategies) > 0
}

// Extract produces the record for one document.
func (c *Chain) Extract(ctx context.Context, text *domain.ExtractedText) *domain.FieldRecord {
	source := ""
	if text.Entry != nil {
		source = text.Entry.Name
	}
	log := logger.FromContext(ctx)

	for i, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		if resetAt, open := c.circuits[i].isOpenWithReset(c.now()); open {
			log.WithField(logger.FieldStrategy, s.Name).
				Debugf("extractor: skipping strategy, circuit open until %s", resetAt.Format(time.RFC3339))
			continue
		}

		fields, err := c.try(ctx, s, text.Text)
		if err == nil {
			return &domain.FieldRecord{
				Fields:     *fields,
				Method:     domain.MethodLLM,
				Strategy:   s.Name,
				SourceFile: source,
			}
		}

		log.WithField(logger.FieldStrategy, s.Name).WithError(err).Warn("extractor: strategy failed, trying next")

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			c.circuits[i].open(c.now().Add(rlErr.RetryAfter))
		}
	}

	return &domain.FieldRecord{
		Fields:     c.runFallback(ctx, text.Text),
		Method:     domain.MethodFallback,
		Strategy:   FallbackName,
		SourceFile: source,
	}
}

func (c *Chain) try(ctx context.Context, s Strategy, text string) (fields *domain.Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("strategy %s panicked: %v", s.Name, r)
		}
	}()

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	fields, err = s.Extractor.Extract(callCtx, text)
	if err != nil {
		return nil, err
	}
	if fields == nil || fields.IsEmpty() {
		return nil, ErrNoFields
	}
	return fields, nil
}

func (c *Chain) runFallback(ctx context.Context, text string) (out domain.Fields) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Errorf("extractor: fallback panicked: %v", r)
			out = domain.Fields{}
		}
	}()

	if c.fallback == nil {
		return domain.Fields{}
	}
	fields, err := c.fallback.Extract(ctx, text)
	if err != nil || fields == nil {
		return domain.Fields{}
	}
	return *fields
}
