package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftcalc/internal/config"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/units"
	"github.com/claude/liftcalc/internal/warmup"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Options configure the calculation tools.
type Options struct {
	Engine config.EngineConfig
	// Scorer weights readiness check-ins; nil uses the default weights.
	Scorer *readiness.Scorer
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, opts Options, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("liftcalc", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("liftcalc workout calculation server. Convert and round weights, estimate one-rep maxes, classify set quality, plan warm-ups, score readiness, and review logged sessions and personal records. Weights are stored in kilograms; all data is scoped to the authenticated user."),
	)

	h := newHandlers(ds, opts, log)

	// Calculation tools
	s.AddTools(
		server.ServerTool{Tool: toolConvertWeight, Handler: h.convertWeight},
		server.ServerTool{Tool: toolRoundWeight, Handler: h.roundWeight},
		server.ServerTool{Tool: toolEffectiveLoad, Handler: h.effectiveLoad},
		server.ServerTool{Tool: toolEstimate1RM, Handler: h.estimate1RM},
		server.ServerTool{Tool: toolClassifySet, Handler: h.classifySet},
		server.ServerTool{Tool: toolPlanWarmup, Handler: h.planWarmup},
		server.ServerTool{Tool: toolScoreReadiness, Handler: h.scoreReadiness},
		server.ServerTool{Tool: toolSuggestNextSet, Handler: h.suggestNextSet},
	)

	// Data tools
	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSessionSummary, Handler: h.getSessionSummary},
		server.ServerTool{Tool: toolGetSessionRecords, Handler: h.getSessionRecords},
		server.ServerTool{Tool: toolGetLatestReadiness, Handler: h.getLatestReadiness},
		server.ServerTool{Tool: toolGetDataStats, Handler: h.getDataStats},
		server.ServerTool{Tool: toolGetTrainingVolume, Handler: h.getTrainingVolume},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resBandPresets, Handler: h.bandPresets},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	engine  config.EngineConfig
	planner warmup.Planner
	score   func(models.ReadinessInput) (models.ReadinessResult, error)
	log     *slog.Logger
}

func newHandlers(ds DataSource, opts Options, log *slog.Logger) *handlers {
	engine := opts.Engine
	if engine.DefaultUnit == "" {
		engine.DefaultUnit = units.Kilograms
	}
	if engine.BarbellKg <= 0 {
		engine.BarbellKg = warmup.DefaultBarbellKg
	}
	planner := warmup.DefaultPlanner()
	if engine.HeavyThresholdKg > 0 {
		planner.HeavyThresholdKg = engine.HeavyThresholdKg
	}
	score := readiness.Score
	if opts.Scorer != nil {
		score = opts.Scorer.Score
	}
	return &handlers{ds: ds, engine: engine, planner: planner, score: score, log: log}
}

// --- Resource definitions ---

var resBandPresets = mcp.NewResource(
	"liftcalc://band_presets",
	"Band Presets",
	mcp.WithResourceDescription("Resistance band tiers with their manufacturer pound range and the kilogram assistance used for assisted bodyweight sets"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"liftcalc://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The ten most recent training sessions with their set totals and volume"),
	mcp.WithMIMEType("application/json"),
)
