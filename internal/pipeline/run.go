package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/db"
	"github.com/jonathan/credential-mapper/internal/observability"
	"github.com/jonathan/credential-mapper/internal/repair"
)

// RunOptions holds configuration for building a session end to end
type RunOptions struct {
	Inputs      Inputs
	Verifier    []repair.Option
	DatabaseURL string
	Verbose     bool
	Out         io.Writer // verbose output, defaults to stdout
	Logger      *zap.Logger
	OnProgress  ProgressCallback
}

// Run loads the inputs, builds a session and, when a database is configured, stores
// it. A database that cannot be reached is logged and skipped.
func Run(ctx context.Context, opts RunOptions) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	printer := observability.NewPrinter(out)

	logger.Info("Loading inputs",
		zap.String("document", opts.Inputs.DocumentPath),
		zap.String("mapping", opts.Inputs.MappingPath),
		zap.String("schema", opts.Inputs.SchemaPath))
	loaded, err := Load(ctx, opts.Inputs)
	if err != nil {
		return nil, err
	}
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     db.StepLoad,
			Category: db.CategoryInput,
			Message:  fmt.Sprintf("Loaded %d transformations and schema %s", len(loaded.Transformations), loaded.Schema.Name()),
		})
	}
	if opts.Verbose {
		printer.PrintLeaves(loaded.Document.Leaves())
		printer.PrintTransformations(loaded.Transformations)
	}

	session, err := NewSession(loaded, Options{
		Logger:     logger,
		Verifier:   opts.Verifier,
		OnProgress: opts.OnProgress,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Session ready",
		zap.Stringer("session_id", session.ID),
		zap.Int("missing", len(session.missing)))
	if opts.Verbose {
		printer.PrintMissingFields(session.Missing())
	}

	if opts.DatabaseURL != "" {
		persist(ctx, session, opts.DatabaseURL, logger)
	}
	return session, nil
}

// persist stores the session, warning instead of failing when storage is unavailable
func persist(ctx context.Context, session *Session, databaseURL string, logger *zap.Logger) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		logger.Warn("Failed to connect to database, continuing without persistence", zap.Error(err))
		return
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Warn("Failed to prepare database, continuing without persistence", zap.Error(err))
		return
	}
	if err := session.Persist(ctx, database); err != nil {
		logger.Warn("Failed to store session", zap.Stringer("session_id", session.ID), zap.Error(err))
		return
	}
	logger.Info("Stored session", zap.Stringer("session_id", session.ID))
}
