package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/summary"
)

const recentSessionsLimit = 10

func (h *handlers) bandPresets(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, load.BandPresets())
}

// recentSession pairs a session with its summary. Summary is omitted when it
// could not be computed.
type recentSession struct {
	models.Session
	Summary *summary.Session `json:"summary,omitempty"`
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	sessions, err := h.ds.QuerySessions(ctx, uid, recentSessionsLimit)
	if err != nil {
		return nil, err
	}

	out := make([]recentSession, 0, len(sessions))
	for _, s := range sessions {
		sum, err := h.ds.SessionSummary(ctx, uid, s.ID)
		if err != nil {
			h.log.Warn("recent_sessions: summary failed", "session", s.ID, "error", err)
		}
		out = append(out, recentSession{Session: s, Summary: sum})
	}
	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
