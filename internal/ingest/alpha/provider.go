package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/claude/liftcalc/internal/ingest"
	"github.com/claude/liftcalc/internal/models"
)

// Importer stores converted sessions.
type Importer interface {
	ImportSession(ctx context.Context, sess models.Session, sets []models.LoggedSet) (*models.Session, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	importer Importer
	opts     Options
	log      *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(importer Importer, opts Options, log *slog.Logger) *Provider {
	return &Provider{importer: importer, opts: opts, log: log}
}

// Ingest parses a CSV export and stores its sessions. Rows that cannot be
// converted are skipped and listed in the result; a parse or storage failure
// aborts the whole ingest.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{SessionsReceived: len(sessions)}
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			result.SetsReceived += len(ex.Sets)
		}
	}

	converted, convErr := Convert(sessions, p.opts)
	for _, e := range multierr.Errors(convErr) {
		result.Rejected = append(result.Rejected, e.Error())
	}
	result.RowsRejected = len(result.Rejected)
	if convErr != nil {
		p.log.Warn("alpha rows rejected", "count", result.RowsRejected, "error", convErr)
	}

	for _, c := range converted {
		c.Session.UserID = userID
		if _, err := p.importer.ImportSession(ctx, c.Session, c.Sets); err != nil {
			return result, fmt.Errorf("importing session %q: %w", c.Session.Name, err)
		}
		result.SessionsInserted++
		result.SetsInserted += len(c.Sets)
	}

	p.log.Info("alpha import complete",
		"sessions", result.SessionsInserted,
		"sets", result.SetsInserted,
		"rejected", result.RowsRejected,
	)
	return result, nil
}
