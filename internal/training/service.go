// Package training orchestrates the engine over persisted sessions: logging
// and editing sets, detecting records, summarizing sessions and recording
// readiness check-ins.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftcalc/internal/defaults"
	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/quality"
	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/records"
	"github.com/claude/liftcalc/internal/summary"
	"github.com/claude/liftcalc/internal/units"
)

// Store persists sessions, sets and readiness check-ins.
// Lookups of missing rows return an error wrapping models.ErrNotFound.
type Store interface {
	CreateSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	InsertSet(ctx context.Context, s models.LoggedSet) error
	UpdateSet(ctx context.Context, s models.LoggedSet) error
	GetSet(ctx context.Context, id uuid.UUID) (*models.LoggedSet, error)
	SessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.LoggedSet, error)
	// ExerciseHistory returns the user's sets for the exercises from every
	// session except excludeSession.
	ExerciseHistory(ctx context.Context, userID int, exerciseIDs []string, excludeSession uuid.UUID) ([]models.LoggedSet, error)
	InsertReadiness(ctx context.Context, c models.ReadinessCheckIn) error
	LatestReadiness(ctx context.Context, userID int) (*models.ReadinessCheckIn, error)
}

// SetInput is a set as entered. Weight is in Unit and converted to kg before
// anything else happens. Bodyweight fields are kilograms, as their names say,
// whatever Unit is.
type SetInput struct {
	ExerciseID string                 `json:"exerciseId"`
	Weight     float64                `json:"weight"`
	Unit       units.Unit             `json:"unit"`
	Reps       int                    `json:"reps"`
	RPE        *float64               `json:"rpe,omitempty"`
	IsWarmup   bool                   `json:"isWarmup"`
	Bodyweight *load.Input            `json:"bodyweight,omitempty"`
	Target     *models.ExerciseTarget `json:"target,omitempty"`
	IsLastSet  bool                   `json:"isLastSet"`
}

// Service runs engine calculations against a Store.
type Service struct {
	store  Store
	scorer *readiness.Scorer
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(store Store, scorer *readiness.Scorer, logger *slog.Logger) *Service {
	return &Service{store: store, scorer: scorer, logger: logger, now: time.Now}
}

// StartSession creates an empty session for a user.
func (s *Service) StartSession(ctx context.Context, userID int, name string) (*models.Session, error) {
	sess := models.Session{ID: uuid.New(), UserID: userID, Name: name, StartedAt: s.now().UTC()}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &sess, nil
}

// Session returns a stored session.
func (s *Service) Session(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.store.GetSession(ctx, id)
}

// SetSession returns the session a stored set belongs to.
func (s *Service) SetSession(ctx context.Context, setID uuid.UUID) (*models.Session, error) {
	set, err := s.store.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, set.SessionID)
}

// LogSet normalizes, validates and classifies a set, then persists it.
func (s *Service) LogSet(ctx context.Context, sessionID uuid.UUID, in SetInput) (*models.LoggedSet, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	set, err := buildSet(in)
	if err != nil {
		return nil, err
	}
	set.ID = uuid.New()
	set.SessionID = sessionID
	set.CreatedAt = s.now().UTC()

	if err := s.store.InsertSet(ctx, set); err != nil {
		return nil, fmt.Errorf("inserting set: %w", err)
	}
	s.logger.Debug("set logged", "session", sessionID, "exercise", set.ExerciseID, "load_kg", set.LoadKg(), "reps", set.Reps, "quality", set.Quality)
	return &set, nil
}

// EditSet replaces the raw fields of a stored set. The bodyweight load and the
// cached quality are recomputed from the new fields, never carried over. An
// edit without a target keeps the stored prescription and last-set flag.
func (s *Service) EditSet(ctx context.Context, id uuid.UUID, in SetInput) (*models.LoggedSet, error) {
	prev, err := s.store.GetSet(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Target == nil && prev.Target != nil {
		in.Target = prev.Target
		in.IsLastSet = prev.IsLastSet
	}
	set, err := buildSet(in)
	if err != nil {
		return nil, err
	}
	set.ID = prev.ID
	set.SessionID = prev.SessionID
	set.CreatedAt = prev.CreatedAt

	if err := s.store.UpdateSet(ctx, set); err != nil {
		return nil, fmt.Errorf("updating set %s: %w", id, err)
	}
	if prev.Quality != set.Quality {
		s.logger.Info("set quality changed", "set", id, "from", prev.Quality, "to", set.Quality)
	}
	return &set, nil
}

func buildSet(in SetInput) (models.LoggedSet, error) {
	unit := in.Unit
	if unit == "" {
		unit = units.Kilograms
	}
	weightKg, err := units.ToKg(in.Weight, unit)
	if err != nil {
		return models.LoggedSet{}, err
	}

	set := models.LoggedSet{
		ExerciseID: in.ExerciseID,
		WeightKg:   weightKg,
		Reps:       in.Reps,
		RPE:        in.RPE,
		IsWarmup:   in.IsWarmup,
	}
	if in.ExerciseID == "" {
		return models.LoggedSet{}, fmt.Errorf("%w: exercise id is required", models.ErrInvalidSetData)
	}
	if err := set.Validate(); err != nil {
		return models.LoggedSet{}, err
	}

	if in.Bodyweight != nil {
		resolved, err := load.Resolve(*in.Bodyweight)
		if err != nil {
			return models.LoggedSet{}, err
		}
		set.Bodyweight = &resolved
	}

	if in.Target != nil {
		if err := in.Target.Validate(); err != nil {
			return models.LoggedSet{}, err
		}
		target := *in.Target
		set.Target = &target
		set.IsLastSet = in.IsLastSet
	}
	if set.Quality, err = quality.Reclassify(set); err != nil {
		return models.LoggedSet{}, err
	}
	return set, nil
}

// SessionRecords detects personal records in a session against the user's
// history from all other sessions.
func (s *Service) SessionRecords(ctx context.Context, sessionID uuid.UUID) ([]models.PersonalRecord, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sets, err := s.store.SessionSets(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session sets: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, set := range sets {
		if !seen[set.ExerciseID] {
			seen[set.ExerciseID] = true
			ids = append(ids, set.ExerciseID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	history, err := s.store.ExerciseHistory(ctx, sess.UserID, ids, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading exercise history: %w", err)
	}
	baselines, err := records.BaselineFromSets(history)
	if err != nil {
		return nil, fmt.Errorf("building baselines: %w", err)
	}
	prs, err := records.Detect(sets, baselines)
	if err != nil {
		return nil, err
	}
	if len(prs) > 0 {
		s.logger.Info("personal records detected", "session", sessionID, "count", len(prs))
	}
	return prs, nil
}

// SessionSummary aggregates the sets of a session.
func (s *Service) SessionSummary(ctx context.Context, sessionID uuid.UUID) (*summary.Session, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	sets, err := s.store.SessionSets(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session sets: %w", err)
	}
	return summary.Summarize(sets)
}

// ScoreReadiness scores a questionnaire with the configured weights without
// storing it.
func (s *Service) ScoreReadiness(in models.ReadinessInput) (models.ReadinessResult, error) {
	return s.scorer.Score(in)
}

// SuggestNext proposes the next set of exerciseID in a session: the latest
// working set of that exercise in the session is the reference, falling back to
// the user's most recent working set from earlier sessions.
func (s *Service) SuggestNext(ctx context.Context, sessionID uuid.UUID, exerciseID string, target models.ExerciseTarget, unit units.Unit) (defaults.Suggestion, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return defaults.Suggestion{}, err
	}
	current, err := s.store.SessionSets(ctx, sessionID)
	if err != nil {
		return defaults.Suggestion{}, fmt.Errorf("loading session sets: %w", err)
	}
	prev := lastWorkingSet(current, exerciseID)
	if prev == nil {
		history, err := s.store.ExerciseHistory(ctx, sess.UserID, []string{exerciseID}, sessionID)
		if err != nil {
			return defaults.Suggestion{}, fmt.Errorf("loading exercise history: %w", err)
		}
		prev = lastWorkingSet(history, exerciseID)
	}
	return defaults.Suggest(prev, target, unit)
}

func lastWorkingSet(sets []models.LoggedSet, exerciseID string) *models.LoggedSet {
	for i := len(sets) - 1; i >= 0; i-- {
		if sets[i].ExerciseID == exerciseID && !sets[i].IsWarmup {
			return &sets[i]
		}
	}
	return nil
}

// CheckIn scores a readiness questionnaire and stores it.
func (s *Service) CheckIn(ctx context.Context, userID int, in models.ReadinessInput) (*models.ReadinessCheckIn, error) {
	res, err := s.scorer.Score(in)
	if err != nil {
		return nil, err
	}
	c := models.ReadinessCheckIn{
		ID:        uuid.New(),
		UserID:    userID,
		Input:     in,
		Result:    res,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertReadiness(ctx, c); err != nil {
		return nil, fmt.Errorf("inserting readiness check-in: %w", err)
	}
	return &c, nil
}

// LatestCheckIn returns the user's most recent readiness check-in with its
// band text derived from the stored score.
func (s *Service) LatestCheckIn(ctx context.Context, userID int) (*models.ReadinessCheckIn, error) {
	c, err := s.store.LatestReadiness(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Result = readiness.Interpret(c.Result.Score)
	return c, nil
}

// ImportSession stores an already resolved session, as produced by a file
// importer. Sets are validated and given fresh IDs.
func (s *Service) ImportSession(ctx context.Context, sess models.Session, sets []models.LoggedSet) (*models.Session, error) {
	for i, set := range sets {
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
	}
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	for _, set := range sets {
		set.ID = uuid.New()
		set.SessionID = sess.ID
		if set.CreatedAt.IsZero() {
			set.CreatedAt = sess.StartedAt
		}
		if err := s.store.InsertSet(ctx, set); err != nil {
			return nil, fmt.Errorf("inserting set: %w", err)
		}
	}
	s.logger.Info("session imported", "session", sess.ID, "name", sess.Name, "sets", len(sets))
	return &sess, nil
}
