package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/summary"
	"github.com/claude/liftcalc/internal/training"
)

// DataSource abstracts the data layer for MCP tools. Both Local (database)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QuerySessions(ctx context.Context, userID, limit int) ([]models.Session, error)
	SessionSummary(ctx context.Context, userID int, sessionID uuid.UUID) (*summary.Session, error)
	SessionRecords(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.PersonalRecord, error)
	LatestCheckIn(ctx context.Context, userID int) (*models.ReadinessCheckIn, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error)
}

// Local serves tools straight from the database through the training service.
type Local struct {
	DB      *storage.DB
	Service *training.Service
}

// Compile-time checks.
var (
	_ DataSource = Local{}
	_ DataSource = (*HTTPClient)(nil)
)

func (l Local) QuerySessions(ctx context.Context, userID, limit int) ([]models.Session, error) {
	return l.DB.QuerySessions(ctx, userID, limit)
}

func (l Local) SessionSummary(ctx context.Context, userID int, sessionID uuid.UUID) (*summary.Session, error) {
	if err := l.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return l.Service.SessionSummary(ctx, sessionID)
}

func (l Local) SessionRecords(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.PersonalRecord, error) {
	if err := l.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return l.Service.SessionRecords(ctx, sessionID)
}

func (l Local) LatestCheckIn(ctx context.Context, userID int) (*models.ReadinessCheckIn, error) {
	return l.Service.LatestCheckIn(ctx, userID)
}

func (l Local) GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error) {
	return l.DB.GetDataStats(ctx, userID)
}

func (l Local) GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error) {
	return l.DB.GetTrainingVolume(ctx, userID, start, end, bucket)
}

func (l Local) owned(ctx context.Context, userID int, sessionID uuid.UUID) error {
	sess, err := l.Service.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	return nil
}
