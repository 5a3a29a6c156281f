package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Kairiskai/MemoAI/internal/extract"
	"github.com/Kairiskai/MemoAI/internal/hermes"
	"github.com/Kairiskai/MemoAI/internal/provider"
	"github.com/Kairiskai/MemoAI/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]store.ConversationRow
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]store.ConversationRow)}
}

func (f *fakeStore) InsertConversation(_ context.Context, row store.ConversationRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[row.ID] = row
	return nil
}

func (f *fakeStore) GetConversation(_ context.Context, id uuid.UUID) (*store.ConversationRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &row, nil
}

func (f *fakeStore) FindByHash(_ context.Context, model, hash string) (*store.ConversationRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Model == model && row.ContentHash == hash {
			return &row, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) IncrementViews(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.Views++
	f.rows[id] = row
	return nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (f *fakeBlobs) Put(_ context.Context, key, _ string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = body
	return nil
}

func (f *fakeBlobs) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://blobs.test/" + key + "?ttl=" + ttl.String(), nil
}

type fakePublisher struct {
	events []hermes.ConversationCaptured
	err    error
}

func (f *fakePublisher) PublishCaptured(evt hermes.ConversationCaptured) error {
	f.events = append(f.events, evt)
	return f.err
}

func newTestService(s MetaStore, b BlobStore, p Publisher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(extract.New(provider.Default(), logger), s, b, p, 5*time.Minute, logger)
	return svc
}

const sharePage = `<html><head><script id="__NEXT_DATA__">{"props":{"pageProps":{"messages":[{"role":"user","text":"Hi"},{"role":"assistant","text":"Hello"}]}}}</script></head><body></body></html>`

func TestCapture_StoresContentAndMetadata(t *testing.T) {
	st, blobs, pub := newFakeStore(), &fakeBlobs{}, &fakePublisher{}
	svc := newTestService(st, blobs, pub)

	rec, err := svc.Capture(context.Background(), sharePage, "Claude")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if rec.Deduplicated {
		t.Error("first capture should not be deduplicated")
	}
	if rec.SourceHTMLBytes != len(sharePage) {
		t.Errorf("expected %d bytes, got %d", len(sharePage), rec.SourceHTMLBytes)
	}

	body := string(blobs.objects["conversations/"+rec.ID.String()+".md"])
	if body != "**user:**\nHi\n\n**assistant:**\nHello" {
		t.Errorf("unexpected stored content %q", body)
	}

	row, err := st.GetConversation(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("row not stored: %v", err)
	}
	if row.ContentHash != ContentHash(sharePage) {
		t.Errorf("expected content hash to be stored")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	if pub.events[0].ID != rec.ID.String() || pub.events[0].Model != "Claude" {
		t.Errorf("unexpected event %+v", pub.events[0])
	}
}

func TestCapture_DeduplicatesIdenticalSnapshots(t *testing.T) {
	st, blobs, pub := newFakeStore(), &fakeBlobs{}, &fakePublisher{}
	svc := newTestService(st, blobs, pub)
	ctx := context.Background()

	first, err := svc.Capture(ctx, sharePage, "Claude")
	if err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	second, err := svc.Capture(ctx, sharePage, "Claude")
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}

	if second.ID != first.ID || !second.Deduplicated {
		t.Errorf("expected dedup to return %s, got %+v", first.ID, second)
	}
	if len(blobs.objects) != 1 || len(pub.events) != 1 {
		t.Errorf("expected a single upload and event, got %d uploads %d events", len(blobs.objects), len(pub.events))
	}

	other, err := svc.Capture(ctx, sharePage, "ChatGPT")
	if err != nil {
		t.Fatalf("capture for other model failed: %v", err)
	}
	if other.ID == first.ID {
		t.Error("same html under a different model must be stored separately")
	}
}

func TestCapture_UnknownProvider(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeBlobs{}, nil)

	_, err := svc.Capture(context.Background(), sharePage, "UnknownBot")
	if !errors.Is(err, provider.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if len(st.rows) != 0 {
		t.Error("nothing should be stored for an unknown provider")
	}
}

func TestCapture_Latin1SnapshotStored(t *testing.T) {
	st, blobs := newFakeStore(), &fakeBlobs{}
	svc := newTestService(st, blobs, nil)

	html := "<html><body><main>caf\xe9 au lait</main></body></html>"
	rec, err := svc.Capture(context.Background(), html, "Claude")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if rec.SourceHTMLBytes != len(html) {
		t.Errorf("expected %d bytes, got %d", len(html), rec.SourceHTMLBytes)
	}
	if got := string(blobs.objects[rec.ContentKey]); got != "caf\uFFFD au lait" {
		t.Errorf("unexpected transcript %q", got)
	}
}

func TestCapture_BlankPageStillStored(t *testing.T) {
	st, blobs := newFakeStore(), &fakeBlobs{}
	svc := newTestService(st, blobs, nil)

	rec, err := svc.Capture(context.Background(), "<html></html>", "Claude")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if got, ok := blobs.objects[rec.ContentKey]; !ok || len(got) != 0 {
		t.Errorf("expected an empty transcript object, got %q (present=%v)", got, ok)
	}
}

func TestCapture_BlobFailureSkipsMetadata(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeBlobs{putErr: errors.New("s3 down")}, nil)

	if _, err := svc.Capture(context.Background(), sharePage, "Claude"); err == nil {
		t.Fatal("expected error when blob upload fails")
	}
	if len(st.rows) != 0 {
		t.Error("metadata must not be written without content")
	}
}

func TestCapture_PublishFailureIsNotFatal(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeBlobs{}, &fakePublisher{err: errors.New("nats down")})

	if _, err := svc.Capture(context.Background(), sharePage, "Claude"); err != nil {
		t.Fatalf("publish failure should not fail capture: %v", err)
	}
}

func TestCapture_InsertErrorPropagates(t *testing.T) {
	st := newFakeStore()
	st.insertErr = errors.New("db down")
	svc := newTestService(st, &fakeBlobs{}, nil)

	if _, err := svc.Capture(context.Background(), sharePage, "Claude"); err == nil {
		t.Fatal("expected insert error")
	}
}

func TestGet_SignsURLAndCountsView(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeBlobs{}, nil)
	ctx := context.Background()

	rec, err := svc.Capture(ctx, sharePage, "Claude")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	view, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if view.ContentURL != "https://blobs.test/"+rec.ContentKey+"?ttl=5m0s" {
		t.Errorf("unexpected content url %q", view.ContentURL)
	}
	if view.Views != 0 {
		t.Errorf("expected view count before increment, got %d", view.Views)
	}

	svc.Wait()
	row, _ := st.GetConversation(ctx, rec.ID)
	if row.Views != 1 {
		t.Errorf("expected 1 view after Get, got %d", row.Views)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeBlobs{}, nil)

	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
