package alpha

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/liftcalc/internal/models"
)

type recordingImporter struct {
	sessions []models.Session
	sets     int
	err      error
}

func (r *recordingImporter) ImportSession(_ context.Context, sess models.Session, sets []models.LoggedSet) (*models.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sessions = append(r.sessions, sess)
	r.sets += len(sets)
	return &sess, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestProviderIngest verifies sessions are imported for the user and rejected
// rows are reported without failing the ingest.
func TestProviderIngest(t *testing.T) {
	imp := &recordingImporter{}
	p := NewProvider(imp, Options{TargetRIR: DefaultTargetRIR}, discardLogger())

	result, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionsReceived != 2 || result.SessionsInserted != 2 {
		t.Errorf("sessions = %d received / %d inserted, want 2 / 2", result.SessionsReceived, result.SessionsInserted)
	}
	if result.SetsReceived != 28 {
		t.Errorf("sets received = %d, want 28", result.SetsReceived)
	}
	if result.RowsRejected != 7 || len(result.Rejected) != 7 {
		t.Errorf("rejected = %d (%d messages), want 7", result.RowsRejected, len(result.Rejected))
	}
	if result.SetsInserted != 21 || imp.sets != 21 {
		t.Errorf("sets inserted = %d (importer saw %d), want 21", result.SetsInserted, imp.sets)
	}
	for _, s := range imp.sessions {
		if s.UserID != 7 {
			t.Errorf("session %q user = %d, want 7", s.Name, s.UserID)
		}
	}
}

// TestProviderIngestStorageError verifies a storage failure aborts the ingest.
func TestProviderIngestStorageError(t *testing.T) {
	imp := &recordingImporter{err: errors.New("db down")}
	p := NewProvider(imp, Options{BodyweightKg: 80}, discardLogger())

	if _, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1); err == nil {
		t.Fatal("expected error")
	}
}

// TestProviderIngestParseError verifies malformed CSV is rejected before import.
func TestProviderIngestParseError(t *testing.T) {
	imp := &recordingImporter{}
	p := NewProvider(imp, Options{}, discardLogger())

	_, err := p.Ingest(context.Background(), strings.NewReader(`"1. Rows · Barbell · 8 reps"`), 1)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if len(imp.sessions) != 0 {
		t.Errorf("imported %d sessions, want 0", len(imp.sessions))
	}
}
