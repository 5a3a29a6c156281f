package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ConversationRow is the metadata row for one captured conversation. The
// transcript itself lives in blob storage under ContentKey.
type ConversationRow struct {
	ID              uuid.UUID
	Model           string
	ScrapedAt       time.Time
	ContentKey      string
	SourceHTMLBytes int
	ContentHash     string
	Views           int
	CreatedAt       time.Time
}

const conversationColumns = `id, model, scraped_at, content_key, source_html_bytes, content_hash, views, created_at`

// InsertConversation writes a new metadata row. Views starts at zero.
func (s *Store) InsertConversation(ctx context.Context, row ConversationRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, model, scraped_at, content_key, source_html_bytes, content_hash, views, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, now())`,
		row.ID, row.Model, row.ScrapedAt, row.ContentKey, row.SourceHTMLBytes, row.ContentHash,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// GetConversation fetches a row by id.
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*ConversationRow, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

// FindByHash returns the row previously captured from byte-identical HTML
// for the same model.
func (s *Store) FindByHash(ctx context.Context, model, contentHash string) (*ConversationRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE model = $1 AND content_hash = $2`, model, contentHash)
	return scanConversation(row)
}

// IncrementViews bumps the view counter.
func (s *Store) IncrementViews(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE conversations SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConversation(row pgx.Row) (*ConversationRow, error) {
	var c ConversationRow
	err := row.Scan(&c.ID, &c.Model, &c.ScrapedAt, &c.ContentKey, &c.SourceHTMLBytes, &c.ContentHash, &c.Views, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return &c, nil
}
