package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/claude/liftcalc/internal/defaults"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/summary"
	"github.com/claude/liftcalc/internal/training"
)

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
	if info.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Alice")
	}
}

func rpe(v float64) *float64 { return &v }

// TestSessionFlow walks a session through start, log, edit, summary, records
// and suggestion over HTTP.
func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"name": "Push"})
	wantStatus(t, rec, http.StatusCreated)
	sess := decode[models.Session](t, rec)
	if sess.UserID != 1 || sess.Name != "Push" {
		t.Fatalf("session = %+v", sess)
	}
	base := "/api/v1/sessions/" + sess.ID.String()

	target := &models.ExerciseTarget{TargetRepRange: models.RepRange{Min: 8, Max: 12}, TargetRIR: 2, TargetSets: 3}
	rec = env.do(t, http.MethodPost, base+"/sets", training.SetInput{ExerciseID: "bench", Weight: 80, Reps: 12, RPE: rpe(10), Target: target})
	wantStatus(t, rec, http.StatusCreated)
	set := decode[models.LoggedSet](t, rec)
	if set.Quality != models.QualityExcessive {
		t.Errorf("quality = %q, want excessive", set.Quality)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/sets/"+set.ID.String(), training.SetInput{ExerciseID: "bench", Weight: 80, Reps: 12, RPE: rpe(8), Target: target})
	wantStatus(t, rec, http.StatusOK)
	if edited := decode[models.LoggedSet](t, rec); edited.Quality != models.QualityStimulative || edited.ID != set.ID {
		t.Errorf("edited = %+v, want same set re-derived as stimulative", edited)
	}

	rec = env.do(t, http.MethodGet, base+"/summary", nil)
	wantStatus(t, rec, http.StatusOK)
	if sum := decode[summary.Session](t, rec); sum.WorkingSets != 1 || sum.TonnageKg != 960 {
		t.Errorf("summary = %d sets %v kg, want 1 set 960 kg", sum.WorkingSets, sum.TonnageKg)
	}

	rec = env.do(t, http.MethodGet, base+"/records", nil)
	wantStatus(t, rec, http.StatusOK)
	if prs := decode[[]models.PersonalRecord](t, rec); len(prs) != 0 {
		t.Errorf("records = %+v, want none without history", prs)
	}

	rec = env.do(t, http.MethodPost, base+"/suggest", map[string]any{"exerciseId": "bench", "target": target})
	wantStatus(t, rec, http.StatusOK)
	if sug := decode[defaults.Suggestion](t, rec); sug.Reason != defaults.ReasonProgress || sug.WeightKg != 82.5 {
		t.Errorf("suggestion = %+v, want progress to 82.5", sug)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sessions", nil)
	wantStatus(t, rec, http.StatusOK)
	if list := decode[[]models.Session](t, rec); len(list) != 1 {
		t.Errorf("sessions = %d, want 1", len(list))
	}

	if got := testutil.ToFloat64(env.metrics.CounterSetsLogged.WithLabelValues("excessive")); got != 1 {
		t.Errorf("sets logged (excessive) = %v, want 1", got)
	}
}

// TestSessionRecordsAcrossSessions verifies a heavier set in a later session
// is reported and counted.
func TestSessionRecordsAcrossSessions(t *testing.T) {
	env := newTestEnv(t)
	for i, weight := range []float64{100, 110} {
		rec := env.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"name": "Legs"})
		wantStatus(t, rec, http.StatusCreated)
		sess := decode[models.Session](t, rec)
		rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID.String()+"/sets", training.SetInput{ExerciseID: "squat", Weight: weight, Reps: 5, RPE: rpe(8)})
		wantStatus(t, rec, http.StatusCreated)

		if i == 1 {
			rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID.String()+"/records", nil)
			wantStatus(t, rec, http.StatusOK)
			prs := decode[[]models.PersonalRecord](t, rec)
			if len(prs) != 1 || prs[0].Type != models.RecordE1RM {
				t.Fatalf("records = %+v, want one e1rm record", prs)
			}
		}
	}
	if got := testutil.ToFloat64(env.metrics.CounterRecords.WithLabelValues("e1rm")); got != 1 {
		t.Errorf("e1rm records counted = %v, want 1", got)
	}
}

// TestSessionErrors verifies error mapping for bad IDs, missing sessions,
// other users' sessions and invalid sets.
func TestSessionErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid/summary", nil)
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/summary", nil)
	wantStatus(t, rec, http.StatusNotFound)

	foreign := models.Session{ID: uuid.New(), UserID: 7, Name: "Theirs", StartedAt: time.Now()}
	env.store.CreateSession(context.Background(), foreign)
	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+foreign.ID.String()+"/sets", training.SetInput{ExerciseID: "bench", Weight: 60, Reps: 5, RPE: rpe(8)})
	wantStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions", nil)
	wantStatus(t, rec, http.StatusCreated)
	sess := decode[models.Session](t, rec)
	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID.String()+"/sets", training.SetInput{ExerciseID: "bench", Weight: 60, Reps: 0, RPE: rpe(8)})
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPut, "/api/v1/sets/"+uuid.NewString(), training.SetInput{ExerciseID: "bench", Weight: 60, Reps: 5, RPE: rpe(8)})
	wantStatus(t, rec, http.StatusNotFound)
}

// TestReadinessCheckIn verifies check-ins are stored and the latest returned.
func TestReadinessCheckIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/readiness/latest", nil)
	wantStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodPost, "/api/v1/readiness", models.ReadinessInput{SleepHours: 5, SleepQuality: 2, StressLevel: 2, NutritionRating: 3})
	wantStatus(t, rec, http.StatusCreated)
	c := decode[models.ReadinessCheckIn](t, rec)

	rec = env.do(t, http.MethodGet, "/api/v1/readiness/latest", nil)
	wantStatus(t, rec, http.StatusOK)
	latest := decode[models.ReadinessCheckIn](t, rec)
	if latest.ID != c.ID || latest.Result.Score != c.Result.Score {
		t.Errorf("latest = %+v, want %+v", latest, c)
	}
}

// TestAlphaIngest verifies the API key guard, the caller's user ID reaching
// the ingester, and the import log entry.
func TestAlphaIngest(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader("csv"))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusUnauthorized)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader("csv"))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusOK)

	if env.ingest.userID != 1 {
		t.Errorf("ingest user = %d, want 1", env.ingest.userID)
	}
	if got := testutil.ToFloat64(env.metrics.CounterImportedSets); got != 4 {
		t.Errorf("imported sets = %v, want 4", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/imports", nil)
	wantStatus(t, rec, http.StatusOK)
	logs := decode[[]storage.ImportLog](t, rec)
	if len(logs) != 1 || logs[0].Status != "success" || logs[0].RowsRejected != 1 || logs[0].SetsInserted != 4 {
		t.Errorf("import logs = %+v", logs)
	}
}

// TestAlphaIngestFailureLogged verifies a failed ingest is a 400 and logged
// as an error.
func TestAlphaIngestFailureLogged(t *testing.T) {
	env := newTestEnv(t)
	env.ingest.result = nil
	env.ingest.err = errors.New("parsing CSV: line 3: bad weight")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader("csv"))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusBadRequest)

	if len(env.data.imports) != 1 || env.data.imports[0].Status != "error" || env.data.imports[0].ErrorMessage == nil {
		t.Errorf("import logs = %+v, want one error entry", env.data.imports)
	}
}

// TestStats verifies stats are scoped to the caller.
func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"name": "A"})

	rec := env.do(t, http.MethodGet, "/api/v1/stats", nil)
	wantStatus(t, rec, http.StatusOK)
	if stats := decode[storage.DataStats](t, rec); stats.TotalSessions != 1 {
		t.Errorf("total sessions = %d, want 1", stats.TotalSessions)
	}
}

// TestVolume verifies range parsing, the default bucket and bucket validation.
func TestVolume(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/volume?start=2026-01-01&end=2026-01-31&bucket=1+month", nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decode[[]storage.VolumePeriod](t, rec); len(got) != 1 || got[0].Period != "2026-01-01" {
		t.Errorf("periods = %+v", got)
	}
	args := env.data.volumeArgs
	if args.bucket != "1 month" || args.userID != 1 {
		t.Errorf("args = %+v", args)
	}
	if want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC); !args.end.Equal(want) {
		t.Errorf("end = %v, want %v (end of day)", args.end, want)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/volume", nil)
	wantStatus(t, rec, http.StatusOK)
	if args := env.data.volumeArgs; args.bucket != "1 week" || args.end.Sub(args.start) < 89*24*time.Hour {
		t.Errorf("default args = %+v, want 90 days by week", args)
	}

	wantStatus(t, env.do(t, http.MethodGet, "/api/v1/volume?bucket=1+day", nil), http.StatusBadRequest)
	wantStatus(t, env.do(t, http.MethodGet, "/api/v1/volume?start=yesterday", nil), http.StatusBadRequest)
}
