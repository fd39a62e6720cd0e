package server

import (
	"net/http"

	"github.com/claude/liftcalc/internal/defaults"
	"github.com/claude/liftcalc/internal/estimate"
	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/quality"
	"github.com/claude/liftcalc/internal/readiness"
	"github.com/claude/liftcalc/internal/units"
)

type convertRequest struct {
	Value float64    `json:"value"`
	From  units.Unit `json:"from"`
	To    units.Unit `json:"to"`
}

type convertResponse struct {
	Value   float64    `json:"value"`
	Unit    units.Unit `json:"unit"`
	Kg      float64    `json:"kg"`
	Display string     `json:"display"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := convert(req)
	s.metrics.Calculation("convert", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func convert(req convertRequest) (convertResponse, error) {
	kg, err := units.ToKg(req.Value, req.From)
	if err != nil {
		return convertResponse{}, err
	}
	v, err := units.ToDisplay(kg, req.To)
	if err != nil {
		return convertResponse{}, err
	}
	display, err := units.Format(kg, req.To)
	if err != nil {
		return convertResponse{}, err
	}
	return convertResponse{Value: v, Unit: req.To, Kg: kg, Display: display}, nil
}

type roundRequest struct {
	WeightKg float64    `json:"weightKg"`
	Unit     units.Unit `json:"unit"`
}

type roundResponse struct {
	WeightKg    float64 `json:"weightKg"`
	IncrementKg float64 `json:"incrementKg"`
	Display     string  `json:"display"`
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Unit == "" {
		req.Unit = s.engine.DefaultUnit
	}
	rounded, err := units.RoundToIncrement(req.WeightKg, req.Unit)
	s.metrics.Calculation("round", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	inc, _ := units.Increment(req.Unit)
	display, _ := units.Format(rounded, req.Unit)
	writeJSON(w, http.StatusOK, roundResponse{WeightKg: rounded, IncrementKg: inc, Display: display})
}

func (s *Server) handleEffectiveLoad(w http.ResponseWriter, r *http.Request) {
	var in load.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	bw, err := load.Resolve(in)
	s.metrics.Calculation("effective_load", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bw)
}

func (s *Server) handleBands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, load.BandPresets())
}

type e1rmRequest struct {
	Weight     float64    `json:"weight"`
	Unit       units.Unit `json:"unit"`
	Reps       int        `json:"reps"`
	TargetReps int        `json:"targetReps,omitempty"`
}

type e1rmResponse struct {
	E1RMKg    float64 `json:"e1rmKg"`
	Display   string  `json:"display"`
	BrzyckiKg float64 `json:"brzyckiKg,omitempty"`
	// WeightForRepsKg is the load for TargetReps, rounded to a loadable
	// increment of the request unit.
	WeightForRepsKg float64 `json:"weightForRepsKg,omitempty"`
}

func (s *Server) handleE1RM(w http.ResponseWriter, r *http.Request) {
	var req e1rmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Unit == "" {
		req.Unit = s.engine.DefaultUnit
	}
	resp, err := oneRepMax(req)
	s.metrics.Calculation("e1rm", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func oneRepMax(req e1rmRequest) (e1rmResponse, error) {
	kg, err := units.ToKg(req.Weight, req.Unit)
	if err != nil {
		return e1rmResponse{}, err
	}
	e1rm, err := estimate.OneRepMax(kg, req.Reps)
	if err != nil {
		return e1rmResponse{}, err
	}
	resp := e1rmResponse{E1RMKg: e1rm}
	resp.Display, _ = units.Format(e1rm, req.Unit)

	// Brzycki is undefined at high reps; omit it rather than fail.
	if b, err := estimate.Brzycki(kg, req.Reps); err == nil {
		resp.BrzyckiKg = b
	}
	if req.TargetReps > 0 {
		wfr, err := estimate.WeightForReps(e1rm, req.TargetReps)
		if err != nil {
			return e1rmResponse{}, err
		}
		if resp.WeightForRepsKg, err = units.RoundToIncrement(wfr, req.Unit); err != nil {
			return e1rmResponse{}, err
		}
	}
	return resp, nil
}

type qualityRequest struct {
	RPE       float64               `json:"rpe"`
	Reps      int                   `json:"reps"`
	Target    models.ExerciseTarget `json:"target"`
	IsLastSet bool                  `json:"isLastSet"`
}

type qualityResponse struct {
	Quality   models.Quality  `json:"quality"`
	ActualRIR float64         `json:"actualRir"`
	RIRBand   quality.RIRBand `json:"rirBand"`
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req qualityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := quality.Classify(req.RPE, req.Target.TargetRIR, req.Reps, req.Target.TargetRepRange, req.IsLastSet)
	s.metrics.Calculation("quality", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qualityResponse{
		Quality:   q,
		ActualRIR: quality.ActualRIR(req.RPE),
		RIRBand:   quality.BandForRPE(req.RPE),
	})
}

type warmupRequest struct {
	WorkingWeight float64    `json:"workingWeight"`
	Unit          units.Unit `json:"unit"`
	// BarbellKg defaults to the configured bar; send 0 for lifts without one.
	BarbellKg *float64 `json:"barbellKg,omitempty"`
}

func (s *Server) handleWarmup(w http.ResponseWriter, r *http.Request) {
	var req warmupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Unit == "" {
		req.Unit = s.engine.DefaultUnit
	}
	bar := s.engine.BarbellKg
	if req.BarbellKg != nil {
		bar = *req.BarbellKg
	}
	steps, err := s.warmupPlan(req.WorkingWeight, req.Unit, bar)
	s.metrics.Calculation("warmup", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if steps == nil {
		steps = []models.WarmupStep{}
	}
	writeJSON(w, http.StatusOK, steps)
}

func (s *Server) warmupPlan(weight float64, unit units.Unit, barbellKg float64) ([]models.WarmupStep, error) {
	kg, err := units.ToKg(weight, unit)
	if err != nil {
		return nil, err
	}
	return s.planner.Plan(kg, unit, barbellKg)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	var in models.ReadinessInput
	if !decodeJSON(w, r, &in) {
		return
	}
	var res models.ReadinessResult
	var err error
	if s.svc != nil {
		res, err = s.svc.ScoreReadiness(in)
	} else {
		res, err = readiness.Score(in)
	}
	s.metrics.Calculation("readiness", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type suggestRequest struct {
	Previous *models.LoggedSet     `json:"previous,omitempty"`
	Target   models.ExerciseTarget `json:"target"`
	Unit     units.Unit            `json:"unit"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Unit == "" {
		req.Unit = s.engine.DefaultUnit
	}
	sug, err := defaults.Suggest(req.Previous, req.Target, req.Unit)
	s.metrics.Calculation("suggest", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}
