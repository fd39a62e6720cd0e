package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/claude/liftcalc/internal/ingest"
	"github.com/claude/liftcalc/internal/metrics"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/training"
)

// memStore is an in-memory training.Store.
type memStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]models.Session
	sets      []models.LoggedSet
	readiness []models.ReadinessCheckIn
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

// fakeData is an in-memory DataStore.
type fakeData struct {
	mu         sync.Mutex
	store      *memStore
	users      map[string]int
	imports    []storage.ImportLog
	volumeArgs volumeArgs
}

type volumeArgs struct {
	userID     int
	start, end time.Time
	bucket     string
}

func (f *fakeData) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.users[login]; ok {
		return id, nil
	}
	id := len(f.users) + 2
	f.users[login] = id
	return id, nil
}

func (f *fakeData) QuerySessions(_ context.Context, userID, _ int) ([]models.Session, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Session
	for _, s := range f.store.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeData) GetDataStats(_ context.Context, userID int) (*storage.DataStats, error) {
	sessions, _ := f.QuerySessions(context.Background(), userID, 0)
	return &storage.DataStats{TotalSessions: int64(len(sessions))}, nil
}

// GetTrainingVolume reports one period holding the arguments it was called with.
func (f *fakeData) GetTrainingVolume(_ context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error) {
	f.mu.Lock()
	f.volumeArgs = volumeArgs{userID: userID, start: start, end: end, bucket: bucket}
	f.mu.Unlock()
	return []storage.VolumePeriod{{Period: start.Format("2006-01-02"), WorkingSets: 3}}, nil
}

func (f *fakeData) QueryImportLogs(_ context.Context, userID, _ int) ([]storage.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ImportLog
	for _, l := range f.imports {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeData) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.ID = int64(len(f.imports) + 1)
	f.imports = append(f.imports, log)
	return log.ID, nil
}

// stubIngester returns a fixed result or error.
type stubIngester struct {
	result *ingest.Result
	err    error
	userID int
}

func (s *stubIngester) Ingest(_ context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	s.userID = userID
	io.Copy(io.Discard, r)
	return s.result, s.err
}

type testEnv struct {
	srv     *Server
	store   *memStore
	data    *fakeData
	ingest  *stubIngester
	metrics *metrics.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	scorer, err := readiness.NewScorer(readiness.DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memStore{sessions: make(map[uuid.UUID]models.Session)}
	data := &fakeData{store: store, users: make(map[string]int)}
	ing := &stubIngester{result: &ingest.Result{SessionsInserted: 1, SetsInserted: 4, SetsReceived: 5, RowsRejected: 1}}
	m, _ := metrics.NewTestManagerAndRegistry()

	svc := training.New(store, scorer, log)
	srv := New(svc, data, ing, Options{APIKey: "secret", Metrics: m}, log)
	return &testEnv{srv: srv, store: store, data: data, ingest: ing, metrics: m}
}

// do sends a JSON request through the full router.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
}

var _ http.Handler = (*Server)(nil)

func testCalcCount(env *testEnv, kind, outcome string) float64 {
	return testutil.ToFloat64(env.metrics.CounterCalculations.WithLabelValues(kind, outcome))
}
