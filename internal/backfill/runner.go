package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Kairiskai/MemoAI/internal/capture"
	"github.com/Kairiskai/MemoAI/internal/extract"
)

// Config holds the backfill command configuration.
type Config struct {
	Dir        string
	SingleFile string // process a single file only
	Model      string
	StatePath  string
	DryRun     bool // extract only; nothing is stored and state is not saved
}

// Capturer stores one snapshot.
type Capturer interface {
	Capture(ctx context.Context, html, model string) (*capture.Record, error)
}

// Summary reports what a run did.
type Summary struct {
	Discovered   int `json:"discovered"`
	Skipped      int `json:"skipped"`
	Captured     int `json:"captured"`
	Deduplicated int `json:"deduplicated"`
	Empty        int `json:"empty"`
	Failed       int `json:"failed"`
}

// Runner orchestrates the backfill process.
type Runner struct {
	cfg       Config
	capturer  Capturer
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewRunner creates a backfill runner. capturer may be nil for dry runs.
func NewRunner(cfg Config, capturer Capturer, ext *extract.Extractor, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		capturer:  capturer,
		extractor: ext,
		logger:    logger,
	}
}

// Run captures every snapshot not recorded in the state file. Per-file
// failures are recorded and do not stop the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if _, err := r.extractor.Registry().Resolve(r.cfg.Model); err != nil {
		return nil, err
	}
	if !r.cfg.DryRun && r.capturer == nil {
		return nil, fmt.Errorf("capturer is required unless dry run")
	}

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	sum := &Summary{Discovered: len(files)}
	var pending []string
	for _, path := range files {
		if state.IsProcessed(path) {
			sum.Skipped++
			continue
		}
		pending = append(pending, path)
	}
	state.FilesRemaining = len(pending)

	r.logger.Info("files discovered",
		"total", len(files),
		"pending", len(pending),
		"model", r.cfg.Model,
		"dry_run", r.cfg.DryRun,
	)

	for _, path := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("backfill interrupted, saving state")
			r.save(state)
			return sum, ctx.Err()
		default:
		}

		if err := r.processFile(ctx, path, state, sum); err != nil {
			r.logger.Warn("failed to process file", "path", path, "error", err)
			state.AddError(fmt.Sprintf("%s: %v", path, err))
			sum.Failed++
		} else {
			state.MarkProcessed(path)
		}
		state.FilesRemaining--
		r.save(state)
	}

	r.logger.Info("backfill complete",
		"captured", sum.Captured,
		"deduplicated", sum.Deduplicated,
		"empty", sum.Empty,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	return sum, nil
}

func (r *Runner) processFile(ctx context.Context, path string, state *State, sum *Summary) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	html := string(data)

	if r.cfg.DryRun {
		conv, err := r.extractor.Extract(html, r.cfg.Model)
		if err != nil {
			return err
		}
		if conv.Content == "" {
			sum.Empty++
		}
		r.logger.Info("extracted (dry run)", "path", path, "html_bytes", conv.SourceHTMLBytes, "content_len", len(conv.Content))
		return nil
	}

	rec, err := r.capturer.Capture(ctx, html, r.cfg.Model)
	if err != nil {
		return err
	}
	if rec.Deduplicated {
		sum.Deduplicated++
		state.Deduplicated++
	} else {
		sum.Captured++
		state.Captured++
	}
	r.logger.Info("captured", "path", path, "id", rec.ID, "deduplicated", rec.Deduplicated)
	return nil
}

func (r *Runner) save(state *State) {
	if r.cfg.DryRun {
		return
	}
	if err := state.Save(); err != nil {
		r.logger.Warn("failed to save state", "error", err)
	}
}

// discoverFiles returns the snapshot files to process in lexical order.
func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		return []string{r.cfg.SingleFile}, nil
	}
	if r.cfg.Dir == "" {
		return nil, fmt.Errorf("no directory or file given")
	}

	var files []string
	err := filepath.WalkDir(r.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
