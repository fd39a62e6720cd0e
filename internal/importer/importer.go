// Package importer imports a directory of Alpha Progression CSV exports,
// skipping files already imported on a previous run.
package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/claude/liftcalc/internal/ingest"
	"github.com/claude/liftcalc/internal/models"
)

// Ingester turns one export file into stored sessions.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsInserted int
	SetsInserted     int
	RowsRejected     int
}

// Importer walks a directory of CSV exports.
type Importer struct {
	ingester Ingester
	state    *StateDB
	log      *slog.Logger
	userID   int
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. In dry-run mode files are never marked as
// imported; pair it with DryRun so nothing is stored either.
func New(ingester Ingester, state *StateDB, log *slog.Logger, userID int, dryRun bool) *Importer {
	return &Importer{ingester: ingester, state: state, log: log, userID: userID, dryRun: dryRun}
}

// Import processes every .csv file under dir in lexical order. A failing file
// is counted and reported in the returned error; the remaining files are
// still imported.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	files, err := csvFiles(dir)
	if err != nil {
		return &imp.stats, err
	}

	var errs error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, dir, path); err != nil {
			imp.stats.FilesErrored++
			imp.log.Warn("import failed", "file", path, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return &imp.stats, errs
}

func (imp *Importer) importFile(ctx context.Context, dir, path string) error {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	done, err := imp.state.IsImported(rel, info.Size(), hash)
	if err != nil {
		return err
	}
	if done {
		imp.stats.FilesSkipped++
		imp.log.Debug("skipping already imported file", "file", rel)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := imp.ingester.Ingest(ctx, f, imp.userID)
	if err != nil {
		return err
	}
	imp.stats.FilesProcessed++
	imp.stats.SessionsInserted += result.SessionsInserted
	imp.stats.SetsInserted += result.SetsInserted
	imp.stats.RowsRejected += result.RowsRejected
	imp.log.Info("file imported", "file", rel, "sessions", result.SessionsInserted, "sets", result.SetsInserted, "rejected", result.RowsRejected)

	if imp.dryRun {
		return nil
	}
	return imp.state.MarkImported(rel, info.Size(), hash, result.SessionsInserted, result.SetsInserted)
}

func csvFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// DryRun accepts sessions without storing them.
type DryRun struct{}

// ImportSession returns the session unchanged.
func (DryRun) ImportSession(_ context.Context, sess models.Session, _ []models.LoggedSet) (*models.Session, error) {
	return &sess, nil
}
