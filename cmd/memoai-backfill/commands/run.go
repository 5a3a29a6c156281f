package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kairiskai/MemoAI/internal/backfill"
	"github.com/Kairiskai/MemoAI/internal/blob"
	"github.com/Kairiskai/MemoAI/internal/capture"
	"github.com/Kairiskai/MemoAI/internal/config"
	"github.com/Kairiskai/MemoAI/internal/extract"
	"github.com/Kairiskai/MemoAI/internal/hermes"
	"github.com/Kairiskai/MemoAI/internal/provider"
	"github.com/Kairiskai/MemoAI/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture every saved page under a directory",
	Long: `Walk a directory of saved conversation pages and capture each one
through the same pipeline the upload endpoint uses. Progress is kept in a
state file so an interrupted run resumes where it stopped.

Storage settings (DATABASE_URL, S3_*, NATS_*) come from the environment,
exactly as for the memoai server.`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("dir", "", "directory of saved .html pages")
	runCmd.Flags().String("file", "", "capture a single file")
	runCmd.Flags().StringP("model", "m", "Claude", "provider tag of the pages")
	runCmd.Flags().String("state", backfill.DefaultStatePath, "resume state file")
	runCmd.Flags().Bool("dry-run", false, "extract only, store nothing")
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	file, _ := cmd.Flags().GetString("file")
	model, _ := cmd.Flags().GetString("model")
	statePath, _ := cmd.Flags().GetString("state")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	ext := extract.New(provider.Default(), logger)

	var capturer backfill.Capturer
	if !dryRun {
		svc, cleanup, err := openCapture(ctx, ext, logger)
		if err != nil {
			logError("%v", err)
			return err
		}
		defer cleanup()
		capturer = svc
	}

	runner := backfill.NewRunner(backfill.Config{
		Dir:        dir,
		SingleFile: file,
		Model:      model,
		StatePath:  statePath,
		DryRun:     dryRun,
	}, capturer, ext, logger)

	sum, err := runner.Run(ctx)
	if sum != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
	}
	if err != nil {
		logError("%v", err)
		return err
	}
	return nil
}

// openCapture connects the storage stack the memoai server uses.
func openCapture(ctx context.Context, ext *extract.Extractor, logger *slog.Logger) (*capture.Service, func(), error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, errDatabaseURL
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	blobs, err := blob.NewS3(ctx, blob.Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretKey,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	events, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	svc := capture.New(ext, db, blobs, events, cfg.SignedURLTTL, logger)
	cleanup := func() {
		svc.Wait()
		events.Close()
		db.Close()
	}
	return svc, cleanup, nil
}
