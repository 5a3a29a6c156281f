package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kairiskai/MemoAI/internal/capture"
	"github.com/Kairiskai/MemoAI/internal/extract"
	"github.com/Kairiskai/MemoAI/internal/provider"
	"github.com/Kairiskai/MemoAI/internal/store"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// Conversations is the capture pipeline as seen by the HTTP layer.
type Conversations interface {
	Capture(ctx context.Context, html, model string) (*capture.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*capture.View, error)
}

// UploadResponse is returned by POST /api/conversation.
type UploadResponse struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Model           string    `json:"model"`
	ScrapedAt       time.Time `json:"scrapedAt"`
	SourceHTMLBytes int       `json:"sourceHtmlBytes"`
	Deduplicated    bool      `json:"deduplicated"`
}

// uploadConversation handles POST /api/conversation. The browser extension
// sends a multipart form with the page snapshot in "htmlDoc" and the
// provider tag in "model".
func (s *Server) uploadConversation(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	model := r.FormValue("model")
	if model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	html, err := readHTMLDoc(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.convs.Capture(r.Context(), html, model)
	if err != nil {
		s.writeCaptureError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:              rec.ID.String(),
		URL:             s.cfg.PublicURL + "/c/" + rec.ID.String(),
		Model:           rec.Model,
		ScrapedAt:       rec.ScrapedAt,
		SourceHTMLBytes: rec.SourceHTMLBytes,
		Deduplicated:    rec.Deduplicated,
	})
}

// readHTMLDoc accepts htmlDoc either as a file part or as a plain field.
func readHTMLDoc(r *http.Request) (string, error) {
	f, _, err := r.FormFile("htmlDoc")
	if err == nil {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", errors.New("read htmlDoc: " + err.Error())
		}
		return string(data), nil
	}
	if v := r.FormValue("htmlDoc"); v != "" {
		return v, nil
	}
	return "", errors.New("htmlDoc is required")
}

func (s *Server) writeCaptureError(w http.ResponseWriter, err error) {
	var malformed *extract.MalformedInputError
	switch {
	case errors.Is(err, provider.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &malformed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("capture failed", "error", err)
		writeError(w, http.StatusInternalServerError, "capture failed")
	}
}

// getConversation handles GET /api/conversation/{id}.
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// redirectConversation handles GET /c/{id} by sending the reader to the
// transcript itself.
func (s *Server) redirectConversation(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookup(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, view.ContentURL, http.StatusFound)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*capture.View, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return nil, false
	}
	view, err := s.convs.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	if err != nil {
		slog.Error("conversation lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return view, true
}
