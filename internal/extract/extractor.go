// Package extract turns a captured chat share page into a Conversation. It
// runs an ordered chain of strategies (embedded JSON, DOM heuristics, plain
// page text) and keeps the first one that yields content.
package extract

import (
	"log/slog"
	"time"

	"github.com/Kairiskai/MemoAI/internal/document"
	"github.com/Kairiskai/MemoAI/internal/provider"
)

// Strategy produces conversation content from a parsed document, or "" when
// it finds nothing usable.
type Strategy interface {
	Name() string
	Extract(doc *document.Document, p *provider.Profile) string
}

type structuredStrategy struct{}

func (structuredStrategy) Name() string { return "structured" }

func (structuredStrategy) Extract(doc *document.Document, p *provider.Profile) string {
	msgs, ok := ExtractStructuredMessages(doc, p)
	if !ok || len(msgs) == 0 {
		return ""
	}
	frags := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if f, ok := ToMarkdown(m); ok {
			frags = append(frags, f)
		}
	}
	return joinFragments(frags)
}

type domStrategy struct{}

func (domStrategy) Name() string { return "dom" }

func (domStrategy) Extract(doc *document.Document, p *provider.Profile) string {
	return joinFragments(ExtractFromDOM(doc, p))
}

type plainTextStrategy struct{}

func (plainTextStrategy) Name() string { return "plaintext" }

func (plainTextStrategy) Extract(doc *document.Document, p *provider.Profile) string {
	return ExtractPlainText(doc, p)
}

// DefaultStrategies returns the standard chain in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{structuredStrategy{}, domStrategy{}, plainTextStrategy{}}
}

// Extractor is safe for concurrent use; it holds only read-only state.
type Extractor struct {
	registry   *provider.Registry
	strategies []Strategy
	logger     *slog.Logger
	now        func() time.Time
}

func New(registry *provider.Registry, logger *slog.Logger) *Extractor {
	return &Extractor{
		registry:   registry,
		strategies: DefaultStrategies(),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Registry returns the provider registry the extractor resolves against.
func (e *Extractor) Registry() *provider.Registry {
	return e.registry
}

// Extract converts a captured page into a Conversation. It fails only for
// an unregistered model (*provider.UnknownProviderError) or input that
// cannot be tokenized at all (*MalformedInputError). Invalid UTF-8 and
// structure the tree builder refuses degrade instead; the result may have
// empty Content.
func (e *Extractor) Extract(html, model string) (*Conversation, error) {
	p, err := e.registry.Resolve(model)
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(html)
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}

	content, used := e.run(doc, p)

	e.logger.Debug("conversation extracted",
		"model", model,
		"strategy", used,
		"degraded", doc.Degraded,
		"html_bytes", len(html),
		"content_len", len(content),
	)

	return &Conversation{
		Model:           model,
		Content:         content,
		ScrapedAt:       e.now(),
		SourceHTMLBytes: len(html),
	}, nil
}

// run evaluates the chain left to right. The first non-empty result wins
// outright; later strategies never add to it.
func (e *Extractor) run(doc *document.Document, p *provider.Profile) (content, strategy string) {
	for _, s := range e.strategies {
		if c := s.Extract(doc, p); c != "" {
			return c, s.Name()
		}
	}
	return "", "none"
}
