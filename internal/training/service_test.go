package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/claude/liftcalc/internal/defaults"
	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/units"
)

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]models.Session
	sets      []models.LoggedSet
	readiness []models.ReadinessCheckIn
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[uuid.UUID]models.Session)}
}

func (m *memStore) CreateSession(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return &s, nil
}

func (m *memStore) InsertSet(_ context.Context, s models.LoggedSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, s)
	return nil
}

func (m *memStore) UpdateSet(_ context.Context, s models.LoggedSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sets {
		if m.sets[i].ID == s.ID {
			m.sets[i] = s
			return nil
		}
	}
	return fmt.Errorf("set %s: %w", s.ID, models.ErrNotFound)
}

func (m *memStore) GetSet(_ context.Context, id uuid.UUID) (*models.LoggedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sets {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("set %s: %w", id, models.ErrNotFound)
}

func (m *memStore) SessionSets(_ context.Context, sessionID uuid.UUID) ([]models.LoggedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LoggedSet
	for _, s := range m.sets {
		if s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ExerciseHistory(_ context.Context, userID int, exerciseIDs []string, exclude uuid.UUID) ([]models.LoggedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LoggedSet
	for _, s := range m.sets {
		if s.SessionID == exclude || m.sessions[s.SessionID].UserID != userID {
			continue
		}
		if slices.Contains(exerciseIDs, s.ExerciseID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) InsertReadiness(_ context.Context, c models.ReadinessCheckIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readiness = append(m.readiness, c)
	return nil
}

func (m *memStore) LatestReadiness(_ context.Context, userID int) (*models.ReadinessCheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.readiness) - 1; i >= 0; i-- {
		if m.readiness[i].UserID == userID {
			c := m.readiness[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("readiness for user %d: %w", userID, models.ErrNotFound)
}

func newService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	scorer, err := readiness.NewScorer(readiness.DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore()
	return New(store, scorer, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func rpe(v float64) *float64 { return &v }

var hypertrophy = &models.ExerciseTarget{
	TargetRepRange: models.RepRange{Min: 8, Max: 12},
	TargetRIR:      2,
	TargetSets:     3,
}

// TestLogSetClassifies verifies a logged set is converted to kg, classified
// against its target and persisted.
func TestLogSetClassifies(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	sess, err := svc.StartSession(ctx, 1, "Push")
	if err != nil {
		t.Fatal(err)
	}

	set, err := svc.LogSet(ctx, sess.ID, SetInput{
		ExerciseID: "bench",
		Weight:     225,
		Unit:       units.Pounds,
		Reps:       10,
		RPE:        rpe(8),
		Target:     hypertrophy,
	})
	if err != nil {
		t.Fatal(err)
	}
	if set.Quality != models.QualityStimulative {
		t.Errorf("quality = %q, want stimulative", set.Quality)
	}
	if math.Abs(set.WeightKg-225/units.LbPerKg) > 1e-9 {
		t.Errorf("weight = %v kg, want %v", set.WeightKg, 225/units.LbPerKg)
	}
	if len(store.sets) != 1 || store.sets[0].ID != set.ID {
		t.Errorf("stored sets = %+v", store.sets)
	}
}

// TestLogSetBodyweight verifies bodyweight input is resolved to an effective load.
func TestLogSetBodyweight(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, _ := svc.StartSession(ctx, 1, "Pull")

	set, err := svc.LogSet(ctx, sess.ID, SetInput{
		ExerciseID: "pullup",
		Weight:     0,
		Reps:       8,
		RPE:        rpe(8),
		Bodyweight: &load.Input{
			UserBodyweightKg:   80,
			Modification:       models.ModificationAssisted,
			AssistanceWeightKg: 20,
			AssistanceType:     models.AssistanceMachine,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if set.Bodyweight == nil || set.Bodyweight.EffectiveLoadKg != 60 {
		t.Errorf("bodyweight = %+v, want effective 60", set.Bodyweight)
	}
	if set.Quality != "" {
		t.Errorf("quality = %q, want empty without target", set.Quality)
	}
}

// TestLogSetErrors verifies validation and missing sessions surface as
// matchable errors.
func TestLogSetErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, _ := svc.StartSession(ctx, 1, "Legs")

	if _, err := svc.LogSet(ctx, uuid.New(), SetInput{ExerciseID: "squat", Weight: 100, Reps: 5, RPE: rpe(8)}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown session error = %v, want ErrNotFound", err)
	}
	if _, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "squat", Weight: 100, Reps: 0, RPE: rpe(8)}); !errors.Is(err, models.ErrInvalidSetData) {
		t.Errorf("zero reps error = %v, want ErrInvalidSetData", err)
	}
	if _, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "squat", Weight: 100, Unit: "st", Reps: 5, RPE: rpe(8)}); !errors.Is(err, models.ErrInvalidUnit) {
		t.Errorf("bad unit error = %v, want ErrInvalidUnit", err)
	}
	bw := &load.Input{Modification: models.ModificationWeighted, AddedWeightKg: 10}
	if _, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "dip", Reps: 5, RPE: rpe(8), Bodyweight: bw}); !errors.Is(err, models.ErrMissingBodyweight) {
		t.Errorf("missing bodyweight error = %v, want ErrMissingBodyweight", err)
	}
}

// TestEditSetRederivesQuality verifies editing raw fields recomputes quality
// instead of keeping the cached value.
func TestEditSetRederivesQuality(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	sess, _ := svc.StartSession(ctx, 1, "Push")

	in := SetInput{ExerciseID: "bench", Weight: 80, Reps: 10, RPE: rpe(8), Target: hypertrophy}
	set, err := svc.LogSet(ctx, sess.ID, in)
	if err != nil {
		t.Fatal(err)
	}

	in.RPE = rpe(5)
	edited, err := svc.EditSet(ctx, set.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if edited.Quality != models.QualityJunk {
		t.Errorf("edited quality = %q, want junk", edited.Quality)
	}
	if edited.CreatedAt != set.CreatedAt || edited.SessionID != sess.ID {
		t.Errorf("edit changed identity fields: %+v", edited)
	}
	if store.sets[0].Quality != models.QualityJunk {
		t.Errorf("stored quality = %q, want junk", store.sets[0].Quality)
	}

	if _, err := svc.EditSet(ctx, uuid.New(), in); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown set error = %v, want ErrNotFound", err)
	}
}

// TestEditSetKeepsStoredTarget verifies an edit without a target re-derives
// quality from the prescription stored with the set.
func TestEditSetKeepsStoredTarget(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	sess, _ := svc.StartSession(ctx, 1, "Push")

	set, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "bench", Weight: 100, Reps: 10, RPE: rpe(8), Target: hypertrophy})
	if err != nil {
		t.Fatal(err)
	}
	if set.Quality != models.QualityStimulative {
		t.Fatalf("logged quality = %q, want stimulative", set.Quality)
	}
	if set.Target == nil || *set.Target != *hypertrophy {
		t.Errorf("stored target = %+v, want %+v", set.Target, hypertrophy)
	}

	edited, err := svc.EditSet(ctx, set.ID, SetInput{ExerciseID: "bench", Weight: 100, Reps: 10, RPE: rpe(10)})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Quality != models.QualityExcessive {
		t.Errorf("edited quality = %q, want excessive", edited.Quality)
	}
	if store.sets[0].Quality != models.QualityExcessive || store.sets[0].Target == nil {
		t.Errorf("stored set = %+v, want excessive with target kept", store.sets[0])
	}

	// The last-set flag travels with the stored target.
	last, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "bench", Weight: 100, Reps: 10, RPE: rpe(8), Target: hypertrophy, IsLastSet: true})
	if err != nil {
		t.Fatal(err)
	}
	edited, err = svc.EditSet(ctx, last.ID, SetInput{ExerciseID: "bench", Weight: 100, Reps: 10, RPE: rpe(10)})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Quality != models.QualityStimulative || !edited.IsLastSet {
		t.Errorf("edited last set = %q last=%v, want stimulative with last-set leniency", edited.Quality, edited.IsLastSet)
	}
}

// TestLogSetBodyweightIgnoresUnit verifies bodyweight fields are read as
// kilograms even when the set's weight is entered in pounds.
func TestLogSetBodyweightIgnoresUnit(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, _ := svc.StartSession(ctx, 1, "Pull")

	set, err := svc.LogSet(ctx, sess.ID, SetInput{
		ExerciseID: "pullup",
		Unit:       units.Pounds,
		Reps:       6,
		RPE:        rpe(8),
		Bodyweight: &load.Input{UserBodyweightKg: 80, Modification: models.ModificationWeighted, AddedWeightKg: 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	if set.Bodyweight.UserBodyweightKg != 80 || set.Bodyweight.EffectiveLoadKg != 100 {
		t.Errorf("bodyweight = %+v, want 80 kg bodyweight and 100 kg effective", set.Bodyweight)
	}
}

// TestSessionRecords verifies records compare against other sessions only.
func TestSessionRecords(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	old, _ := svc.StartSession(ctx, 1, "Week 1")
	if _, err := svc.LogSet(ctx, old.ID, SetInput{ExerciseID: "squat", Weight: 100, Reps: 5, RPE: rpe(8)}); err != nil {
		t.Fatal(err)
	}
	cur, _ := svc.StartSession(ctx, 1, "Week 2")
	if _, err := svc.LogSet(ctx, cur.ID, SetInput{ExerciseID: "squat", Weight: 105, Reps: 5, RPE: rpe(9)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LogSet(ctx, cur.ID, SetInput{ExerciseID: "deadlift", Weight: 180, Reps: 3, RPE: rpe(9)}); err != nil {
		t.Fatal(err)
	}

	prs, err := svc.SessionRecords(ctx, cur.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prs) != 1 || prs[0].ExerciseID != "squat" || prs[0].Type != models.RecordE1RM {
		t.Errorf("records = %+v, want one squat e1rm record", prs)
	}

	prs, err = svc.SessionRecords(ctx, old.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prs) != 0 {
		t.Errorf("first session records = %+v, want none", prs)
	}
}

// TestSessionSummary verifies the summary covers the session's sets.
func TestSessionSummary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, _ := svc.StartSession(ctx, 1, "Push")
	for _, reps := range []int{10, 9} {
		if _, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "bench", Weight: 80, Reps: reps, RPE: rpe(8)}); err != nil {
			t.Fatal(err)
		}
	}
	sum, err := svc.SessionSummary(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.WorkingSets != 2 || sum.TonnageKg != 1520 {
		t.Errorf("summary = %d sets %v kg, want 2 sets 1520 kg", sum.WorkingSets, sum.TonnageKg)
	}
}

// TestCheckIn verifies readiness is scored and the latest check-in returned.
func TestCheckIn(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, 1, models.ReadinessInput{SleepHours: 30, SleepQuality: 3, StressLevel: 3, NutritionRating: 3}); !errors.Is(err, models.ErrInvalidReadinessInput) {
		t.Errorf("invalid input error = %v, want ErrInvalidReadinessInput", err)
	}
	c, err := svc.CheckIn(ctx, 1, models.ReadinessInput{SleepHours: 8, SleepQuality: 5, StressLevel: 5, NutritionRating: 5})
	if err != nil {
		t.Fatal(err)
	}
	if c.Result.Band != models.ReadinessWellRecovered {
		t.Errorf("band = %q, want well_recovered", c.Result.Band)
	}
	latest, err := svc.LatestCheckIn(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != c.ID {
		t.Errorf("latest = %s, want %s", latest.ID, c.ID)
	}
	if _, err := svc.LatestCheckIn(ctx, 2); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("other user error = %v, want ErrNotFound", err)
	}
}

// TestImportSession verifies imported sets are validated and attached to a new
// session.
func TestImportSession(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	sets := []models.LoggedSet{
		{ExerciseID: "squat", WeightKg: 60, Reps: 5, IsWarmup: true},
		{ExerciseID: "squat", WeightKg: 100, Reps: 5, RPE: rpe(8), Quality: models.QualityStimulative},
	}
	sess, err := svc.ImportSession(ctx, models.Session{UserID: 1, Name: "Legs"}, sets)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.SessionSets(ctx, sess.ID)
	if len(got) != 2 {
		t.Fatalf("stored sets = %d, want 2", len(got))
	}
	if got[0].ID == uuid.Nil || got[0].ID == got[1].ID {
		t.Errorf("set IDs not assigned: %s %s", got[0].ID, got[1].ID)
	}

	bad := []models.LoggedSet{{ExerciseID: "squat", WeightKg: 100, Reps: 5}}
	if _, err := svc.ImportSession(ctx, models.Session{UserID: 1}, bad); !errors.Is(err, models.ErrInvalidSetData) {
		t.Errorf("error = %v, want ErrInvalidSetData", err)
	}
}

// TestSuggestNext verifies the suggestion uses the session's last working set
// first and falls back to earlier sessions.
func TestSuggestNext(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	target := *hypertrophy

	old, _ := svc.StartSession(ctx, 1, "Push A")
	if _, err := svc.LogSet(ctx, old.ID, SetInput{ExerciseID: "bench", Weight: 80, Reps: 12, RPE: rpe(8)}); err != nil {
		t.Fatal(err)
	}

	sess, _ := svc.StartSession(ctx, 1, "Push B")
	got, err := svc.SuggestNext(ctx, sess.ID, "bench", target, units.Kilograms)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reason != defaults.ReasonProgress || got.WeightKg != 82.5 || got.Reps != 8 {
		t.Errorf("from history = %+v, want progress to 82.5 x 8", got)
	}

	if _, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "bench", Weight: 82.5, IsWarmup: true, Reps: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LogSet(ctx, sess.ID, SetInput{ExerciseID: "bench", Weight: 82.5, Reps: 9, RPE: rpe(8)}); err != nil {
		t.Fatal(err)
	}
	got, err = svc.SuggestNext(ctx, sess.ID, "bench", target, units.Kilograms)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reason != defaults.ReasonRepeat || got.WeightKg != 82.5 || got.Reps != 9 {
		t.Errorf("from session = %+v, want repeat 82.5 x 9", got)
	}

	got, err = svc.SuggestNext(ctx, sess.ID, "squat", target, units.Kilograms)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reason != defaults.ReasonNoHistory || got.Reps != 10 {
		t.Errorf("no history = %+v, want midpoint 10", got)
	}

	if _, err := svc.SuggestNext(ctx, uuid.New(), "bench", target, units.Kilograms); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing session error = %v, want ErrNotFound", err)
	}
}
