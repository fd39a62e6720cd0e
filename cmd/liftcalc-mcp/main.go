package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftcalc/internal/config"
	"github.com/claude/liftcalc/internal/logging"
	"github.com/claude/liftcalc/internal/mcp"
	"github.com/claude/liftcalc/internal/units"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// liftcalc-mcp serves the MCP tools over stdio for local MCP clients, reading
// session data from a remote liftcalc server.
func main() {
	serverURL := flag.String("server", "", "liftcalc server URL (e.g. https://liftcalc.tail1234.ts.net)")
	unit := flag.String("unit", string(units.Kilograms), "default display unit (kg or lb)")
	barbell := flag.Float64("barbell-kg", 20, "default barbell weight in kg")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// stdout carries the protocol; log to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.Level(*logLevel)}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftcalc-mcp -server <URL> [-unit kg|lb] [-barbell-kg N]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	defaultUnit, err := units.ParseUnit(*unit)
	if err != nil {
		log.Error("invalid unit", "error", err)
		os.Exit(1)
	}

	engine := config.EngineConfig{DefaultUnit: defaultUnit, BarbellKg: *barbell}
	s := mcp.New(mcp.NewHTTPClient(*serverURL), mcp.Options{Engine: engine}, Version, log)

	log.Info("liftcalc-mcp serving stdio", "server", *serverURL, "version", Version)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
