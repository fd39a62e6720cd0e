package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftcalc/internal/config"
	"github.com/claude/liftcalc/internal/importer"
	"github.com/claude/liftcalc/internal/ingest/alpha"
	"github.com/claude/liftcalc/internal/logging"
	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/training"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "directory of Alpha Progression CSV exports (required)")
	dryRun := flag.Bool("dry-run", false, "parse and convert without writing to the database")
	stateDir := flag.String("state-dir", "", "directory of the import state database (default ~/.liftcalc-import)")
	userID := flag.Int("user", 1, "user ID to import for")
	flag.Parse()

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftcalc-import -config config.yaml -path /path/to/exports [-dry-run] [-user N]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log, closer := logging.New(cfg.Logging)
	defer closer.Close()

	// Verify export directory exists
	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	state, err := openState(*stateDir, ".liftcalc-import")
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	ctx := context.Background()
	opts := alpha.Options{BodyweightKg: cfg.Engine.ImportBodyweightKg, TargetRIR: alpha.DefaultTargetRIR}

	var provider *alpha.Provider
	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
		provider = alpha.NewProvider(importer.DryRun{}, opts, log)
	} else {
		dsn := cfg.Database.DSN()
		version, err := storage.RunMigrations(dsn, cfg.Server.MigrationsPath)
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "version", version)

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")

		scorer, err := readiness.NewScorer(cfg.Engine.ReadinessWeights)
		if err != nil {
			log.Error("invalid readiness weights", "error", err)
			os.Exit(1)
		}
		provider = alpha.NewProvider(training.New(db, scorer, log), opts, log)
	}

	// Run import
	imp := importer.New(provider, state, log, *userID, *dryRun)
	stats, err := imp.Import(ctx, *exportPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

// openState opens the state database in dir, defaulting to a dot directory
// in the user's home.
func openState(dir, homeSubdir string) (*importer.StateDB, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("home directory: %w", err)
		}
		dir = filepath.Join(home, homeSubdir)
	}
	return importer.OpenStateDB(dir)
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_inserted", stats.SessionsInserted,
		"sets_inserted", stats.SetsInserted,
		"rows_rejected", stats.RowsRejected,
	)
}
