package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/training"
	"github.com/claude/liftcalc/internal/units"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.QuerySessions(r.Context(), userIDFromContext(r), queryLimit(r, 50))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type startSessionRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.svc.StartSession(r.Context(), userIDFromContext(r), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	var in training.SetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Unit == "" {
		in.Unit = s.engine.DefaultUnit
	}
	set, err := s.svc.LogSet(r.Context(), sessionID, in)
	s.metrics.Calculation("log_set", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil && !set.IsWarmup {
		s.metrics.CounterSetsLogged.WithLabelValues(qualityLabel(set.Quality)).Inc()
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleEditSet(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set ID"})
		return
	}
	sess, err := s.svc.SetSession(r.Context(), setID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess.UserID != userIDFromContext(r) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "set not found"})
		return
	}
	var in training.SetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Unit == "" {
		in.Unit = s.engine.DefaultUnit
	}
	set, err := s.svc.EditSet(r.Context(), setID, in)
	s.metrics.Calculation("edit_set", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleSessionRecords(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	prs, err := s.svc.SessionRecords(r.Context(), sessionID)
	s.metrics.Calculation("records", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		for _, pr := range prs {
			s.metrics.CounterRecords.WithLabelValues(string(pr.Type)).Inc()
		}
	}
	if prs == nil {
		prs = []models.PersonalRecord{}
	}
	writeJSON(w, http.StatusOK, prs)
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	sum, err := s.svc.SessionSummary(r.Context(), sessionID)
	s.metrics.Calculation("summary", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type sessionSuggestRequest struct {
	ExerciseID string                `json:"exerciseId"`
	Target     models.ExerciseTarget `json:"target"`
	Unit       units.Unit            `json:"unit"`
}

func (s *Server) handleSessionSuggest(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	var req sessionSuggestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ExerciseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exerciseId is required"})
		return
	}
	if req.Unit == "" {
		req.Unit = s.engine.DefaultUnit
	}
	sug, err := s.svc.SuggestNext(r.Context(), sessionID, req.ExerciseID, req.Target, req.Unit)
	s.metrics.Calculation("suggest", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var in models.ReadinessInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := s.svc.CheckIn(r.Context(), userIDFromContext(r), in)
	s.metrics.Calculation("readiness", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleLatestCheckIn(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.LatestCheckIn(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ownedSession parses the {id} URL parameter and checks the session belongs
// to the caller. Sessions of other users are reported as not found.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	sess, err := s.svc.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return uuid.Nil, false
	}
	if sess.UserID != userIDFromContext(r) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return uuid.Nil, false
	}
	return id, true
}

func qualityLabel(q models.Quality) string {
	if q == "" {
		return "unclassified"
	}
	return string(q)
}

// writeError maps engine validation errors to 400 and missing rows to 404.
// Anything else is logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// decodeJSON decodes the request body into v. An empty body leaves v at its
// zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func queryLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
