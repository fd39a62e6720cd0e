package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftcalc/internal/importer"
	"github.com/claude/liftcalc/internal/logging"
	"github.com/claude/liftcalc/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "liftcalc server URL (e.g. https://liftcalc.tail1234.ts.net)")
	exportPath := flag.String("path", "", "directory of Alpha Progression CSV exports")
	apiKey := flag.String("api-key", os.Getenv("LIFTCALC_AUTH_API_KEY"), "ingest API key (default $LIFTCALC_AUTH_API_KEY)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftcalc-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logging.Level(*logLevel)}))

	if *exportPath == "" || *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftcalc-upload -server <URL> -path <exports dir> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "Error: -api-key is required\n")
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := importer.OpenStateDB(filepath.Join(homeDir, ".liftcalc-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// The server resolves the user, so the importer's user ID is unused.
	uploader := importer.New(upload.NewClient(*serverURL, *apiKey), state, log, 0, false)
	stats, err := uploader.Import(context.Background(), *exportPath)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *importer.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesProcessed)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions:         %d\n", stats.SessionsInserted)
	fmt.Printf("  Sets:             %d\n", stats.SetsInserted)
	fmt.Printf("  Rows rejected:    %d\n", stats.RowsRejected)
	fmt.Println()
}
