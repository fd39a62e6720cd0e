package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftcalc/internal/config"
	"github.com/claude/liftcalc/internal/ingest"
	"github.com/claude/liftcalc/internal/metrics"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/training"
	"github.com/claude/liftcalc/internal/units"
	"github.com/claude/liftcalc/internal/warmup"
)

// DataStore is the part of storage the handlers read directly.
type DataStore interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	QuerySessions(ctx context.Context, userID, limit int) ([]models.Session, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// Ingester imports an export file for a user.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Options configure a Server.
type Options struct {
	Engine  config.EngineConfig
	APIKey  string
	Metrics *metrics.Manager
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *training.Service
	db      DataStore
	alpha   Ingester
	engine  config.EngineConfig
	planner warmup.Planner
	metrics *metrics.Manager
	log     *slog.Logger
	apiKey  string
	router  chi.Router
	ts      WhoIser
}

// New creates a new Server with all routes configured.
func New(svc *training.Service, db DataStore, alphaProvider Ingester, opts Options, log *slog.Logger) *Server {
	if opts.Engine.DefaultUnit == "" {
		opts.Engine.DefaultUnit = units.Kilograms
	}
	if opts.Engine.BarbellKg == 0 {
		opts.Engine.BarbellKg = warmup.DefaultBarbellKg
	}
	planner := warmup.DefaultPlanner()
	if opts.Engine.HeavyThresholdKg > 0 {
		planner.HeavyThresholdKg = opts.Engine.HeavyThresholdKg
	}
	s := &Server{
		svc:     svc,
		db:      db,
		alpha:   alphaProvider,
		engine:  opts.Engine,
		planner: planner,
		metrics: opts.Metrics,
		log:     log,
		apiKey:  opts.APIKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an extra handler, such as /metrics or /mcp, outside the
// identity middleware.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// MountWithIdentity attaches h behind the identity middleware, so h can read
// the caller with UserID.
func (s *Server) MountWithIdentity(pattern string, h http.Handler) {
	s.router.Mount(pattern, s.identity(h))
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Use(s.identity)
		r.Post("/alpha", s.handleAlphaIngest)
	})

	// Calculations are stateless and need no identity.
	s.router.Route("/api/v1/calc", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/round", s.handleRound)
		r.Post("/effective-load", s.handleEffectiveLoad)
		r.Get("/bands", s.handleBands)
		r.Post("/e1rm", s.handleE1RM)
		r.Post("/quality", s.handleQuality)
		r.Post("/warmup", s.handleWarmup)
		r.Post("/readiness", s.handleReadiness)
		r.Post("/suggest", s.handleSuggest)
	})

	// User endpoints (no API key; tsnet handles access)
	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)
		r.Get("/api/v1/me", s.handleMe)

		r.Get("/api/v1/sessions", s.handleListSessions)
		r.Post("/api/v1/sessions", s.handleStartSession)
		r.Post("/api/v1/sessions/{id}/sets", s.handleLogSet)
		r.Get("/api/v1/sessions/{id}/records", s.handleSessionRecords)
		r.Get("/api/v1/sessions/{id}/summary", s.handleSessionSummary)
		r.Post("/api/v1/sessions/{id}/suggest", s.handleSessionSuggest)
		r.Put("/api/v1/sets/{id}", s.handleEditSet)

		r.Post("/api/v1/readiness", s.handleCheckIn)
		r.Get("/api/v1/readiness/latest", s.handleLatestCheckIn)

		r.Get("/api/v1/stats", s.handleStats)
		r.Get("/api/v1/volume", s.handleVolume)
		r.Get("/api/v1/imports", s.handleImportLogs)
	})
}
