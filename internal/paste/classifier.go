package paste

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockpress/blockpress/internal/engine/document"
	"github.com/blockpress/blockpress/internal/engine/kind"
)

// DefaultProduceTimeout bounds a single producer invocation, including any
// network enrichment it performs.
const DefaultProduceTimeout = 3 * time.Second

// Outcome is the result of classifying pasted text.
type Outcome struct {
	// Pattern is the name of the winning pattern.
	Pattern string

	// Kind is the block kind to insert.
	Kind string

	// Payload is the synthesized block payload.
	Payload map[string]any

	// Fallback is set when the winning pattern's kind was not registered
	// and the payload degrades to a default-kind textual representation.
	Fallback bool
}

// Classifier scans registered patterns against pasted text.
type Classifier struct {
	patterns *Registry
	kinds    *kind.Registry

	produceTimeout time.Duration
	logger         zerolog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithProduceTimeout bounds producer execution.
func WithProduceTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.produceTimeout = d
		}
	}
}

// WithLogger sets the classifier logger.
func WithLogger(logger zerolog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier creates a classifier over the given pattern and kind
// registries.
func NewClassifier(patterns *Registry, kinds *kind.Registry, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		patterns:       patterns,
		kinds:          kinds,
		produceTimeout: DefaultProduceTimeout,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify scans patterns in priority order against the pasted text. It
// returns nil when no pattern wins, meaning the host's default paste
// handling should proceed.
//
// The document may change while a producer is suspended on enrichment;
// callers must resolve the insert position when the insert executes, not at
// match time.
func (c *Classifier) Classify(ctx context.Context, text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	for _, p := range c.patterns.ordered() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, ok := p.Match(text)
		if !ok {
			continue
		}

		payload, err := c.produce(ctx, p, text, m)
		if err != nil {
			c.logger.Warn().Str("pattern", p.Name).Err(err).Msg("paste producer failed")
			continue
		}
		if payload == nil {
			continue
		}

		if p.Kind == document.DefaultKind || c.kinds.Has(p.Kind) {
			return &Outcome{Pattern: p.Name, Kind: p.Kind, Payload: payload}, nil
		}

		// The target kind was disabled by configuration. Never drop the
		// pasted content: degrade to a default-kind block with the match.
		c.logger.Debug().Str("pattern", p.Name).Str("kind", p.Kind).Msg("target kind not registered, falling back")
		return &Outcome{
			Pattern:  p.Name,
			Kind:     document.DefaultKind,
			Payload:  map[string]any{"text": fallbackText(m, text)},
			Fallback: true,
		}, nil
	}

	return nil, nil
}

func (c *Classifier) produce(ctx context.Context, p registered, text string, m Match) (map[string]any, error) {
	pctx, cancel := context.WithTimeout(ctx, c.produceTimeout)
	defer cancel()
	return p.Produce(pctx, text, m)
}

func fallbackText(m Match, text string) string {
	if m.Text != "" {
		return m.Text
	}
	return text
}
