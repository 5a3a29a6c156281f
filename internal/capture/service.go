// Package capture runs the capture pipeline: extract the transcript from an
// uploaded snapshot, store it, record its metadata and announce it.
package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kairiskai/MemoAI/internal/blob"
	"github.com/Kairiskai/MemoAI/internal/extract"
	"github.com/Kairiskai/MemoAI/internal/hermes"
	"github.com/Kairiskai/MemoAI/internal/store"
)

const contentType = "text/markdown; charset=utf-8"

// MetaStore persists conversation metadata rows.
type MetaStore interface {
	InsertConversation(ctx context.Context, row store.ConversationRow) error
	GetConversation(ctx context.Context, id uuid.UUID) (*store.ConversationRow, error)
	FindByHash(ctx context.Context, model, contentHash string) (*store.ConversationRow, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// BlobStore holds transcript bodies.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Publisher announces stored conversations.
type Publisher interface {
	PublishCaptured(evt hermes.ConversationCaptured) error
}

// Record is the stored metadata of a captured conversation.
type Record struct {
	ID              uuid.UUID `json:"id"`
	Model           string    `json:"model"`
	ScrapedAt       time.Time `json:"scrapedAt"`
	ContentKey      string    `json:"-"`
	SourceHTMLBytes int       `json:"sourceHtmlBytes"`
	Deduplicated    bool      `json:"deduplicated"`
}

// View is a record plus what a reader needs to fetch the transcript.
type View struct {
	Record
	Views      int    `json:"views"`
	ContentURL string `json:"contentUrl"`
}

type Service struct {
	extractor *extract.Extractor
	store     MetaStore
	blobs     BlobStore
	events    Publisher
	ttl       time.Duration
	logger    *slog.Logger
	newID     func() uuid.UUID

	wg sync.WaitGroup
}

// New builds a capture service. events may be nil, in which case nothing
// is published.
func New(ext *extract.Extractor, s MetaStore, b BlobStore, events Publisher, signedURLTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		extractor: ext,
		store:     s,
		blobs:     b,
		events:    events,
		ttl:       signedURLTTL,
		logger:    logger,
		newID:     uuid.New,
	}
}

// Extractor exposes the underlying extractor, e.g. for provider listing.
func (s *Service) Extractor() *extract.Extractor {
	return s.extractor
}

// Capture stores the conversation found in html. Byte-identical snapshots
// of the same model are stored once; later captures return the first
// record with Deduplicated set.
func (s *Service) Capture(ctx context.Context, html, model string) (*Record, error) {
	if _, err := s.extractor.Registry().Resolve(model); err != nil {
		return nil, err
	}

	hash := ContentHash(html)
	if rec, err := s.existing(ctx, model, hash); err != nil || rec != nil {
		return rec, err
	}

	conv, err := s.extractor.Extract(html, model)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	key := blob.ContentKey(id.String())
	if err := s.blobs.Put(ctx, key, contentType, []byte(conv.Content)); err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	row := store.ConversationRow{
		ID:              id,
		Model:           conv.Model,
		ScrapedAt:       conv.ScrapedAt,
		ContentKey:      key,
		SourceHTMLBytes: conv.SourceHTMLBytes,
		ContentHash:     hash,
	}
	if err := s.store.InsertConversation(ctx, row); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent upload of the same snapshot.
			if rec, ferr := s.existing(ctx, model, hash); ferr == nil && rec != nil {
				return rec, nil
			}
		}
		return nil, fmt.Errorf("store metadata: %w", err)
	}

	s.publish(row, len(conv.Content))

	s.logger.Info("conversation captured",
		"id", id,
		"model", model,
		"html_bytes", conv.SourceHTMLBytes,
		"content_bytes", len(conv.Content),
	)

	return recordFromRow(&row, false), nil
}

func (s *Service) existing(ctx context.Context, model, hash string) (*Record, error) {
	row, err := s.store.FindByHash(ctx, model, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	s.logger.Info("duplicate snapshot, reusing conversation", "id", row.ID, "model", model)
	return recordFromRow(row, true), nil
}

func (s *Service) publish(row store.ConversationRow, contentBytes int) {
	if s.events == nil {
		return
	}
	err := s.events.PublishCaptured(hermes.ConversationCaptured{
		ID:              row.ID.String(),
		Model:           row.Model,
		ContentKey:      row.ContentKey,
		SourceHTMLBytes: row.SourceHTMLBytes,
		ContentBytes:    contentBytes,
		ScrapedAt:       row.ScrapedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("failed to publish captured event", "id", row.ID, "error", err)
	}
}

// Get loads a conversation and a presigned URL for its transcript. The view
// counter is bumped in the background.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	row, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.SignedURL(ctx, row.ContentKey, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign content url: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.store.IncrementViews(bg, id); err != nil {
			s.logger.Warn("failed to increment views", "id", id, "error", err)
		}
	}()

	return &View{
		Record:     *recordFromRow(row, false),
		Views:      row.Views,
		ContentURL: url,
	}, nil
}

// Wait blocks until background view-counter updates have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// ContentHash fingerprints a raw snapshot for deduplication.
func ContentHash(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

func recordFromRow(row *store.ConversationRow, dedup bool) *Record {
	return &Record{
		ID:              row.ID,
		Model:           row.Model,
		ScrapedAt:       row.ScrapedAt,
		ContentKey:      row.ContentKey,
		SourceHTMLBytes: row.SourceHTMLBytes,
		Deduplicated:    dedup,
	}
}
