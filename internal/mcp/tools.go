package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftcalc/internal/defaults"
	"github.com/claude/liftcalc/internal/estimate"
	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/quality"
	"github.com/claude/liftcalc/internal/storage"
	"github.com/claude/liftcalc/internal/units"
)

// defaultTimeRange parses start/end, defaulting to now and the given number
// of days before end.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolConvertWeight = mcp.NewTool("convert_weight",
	mcp.WithDescription("Convert a weight between kilograms and pounds. Returns the converted value, the canonical kilogram value, and a display string rounded to one decimal."),
	mcp.WithNumber("value", mcp.Required(), mcp.Description("Weight to convert")),
	mcp.WithString("from", mcp.Required(), mcp.Description("Unit of value"), mcp.Enum("kg", "lb")),
	mcp.WithString("to", mcp.Required(), mcp.Description("Target unit"), mcp.Enum("kg", "lb")),
)

var toolRoundWeight = mcp.NewTool("round_weight",
	mcp.WithDescription("Round a kilogram weight to the nearest loadable plate increment (2.5 kg or 5 lb) of the display unit."),
	mcp.WithNumber("weight_kg", mcp.Required(), mcp.Description("Weight in kilograms")),
	mcp.WithString("unit", mcp.Description("Display unit whose increment applies. Defaults to the server unit."), mcp.Enum("kg", "lb")),
)

var toolEffectiveLoad = mcp.NewTool("effective_load",
	mcp.WithDescription("Resolve the effective load of a bodyweight exercise: bodyweight, bodyweight plus added weight, or bodyweight minus assistance. Band assistance uses the band's preset."),
	mcp.WithNumber("bodyweight_kg", mcp.Required(), mcp.Description("User bodyweight in kilograms")),
	mcp.WithString("modification", mcp.Description("Defaults to none."), mcp.Enum("none", "weighted", "assisted")),
	mcp.WithNumber("added_kg", mcp.Description("Added weight for weighted sets")),
	mcp.WithNumber("assistance_kg", mcp.Description("Assistance for machine or partner assisted sets")),
	mcp.WithString("assistance_type", mcp.Description("Assistance source for assisted sets"), mcp.Enum("machine", "band", "partner")),
	mcp.WithString("band_color", mcp.Description("Band tier for band assistance"), mcp.Enum("yellow", "red", "black", "purple", "green")),
)

var toolEstimate1RM = mcp.NewTool("estimate_1rm",
	mcp.WithDescription("Estimate a one-rep max from a set with the Epley formula. Also returns the Brzycki estimate when defined, and optionally the weight to use for a target rep count."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Weight lifted")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Reps completed")),
	mcp.WithString("unit", mcp.Description("Unit of weight. Defaults to the server unit."), mcp.Enum("kg", "lb")),
	mcp.WithNumber("target_reps", mcp.Description("When set, also return the rounded weight for this many reps")),
)

var toolClassifySet = mcp.NewTool("classify_set",
	mcp.WithDescription("Classify a working set as junk, effective, stimulative, or excessive from its RPE and reps against the prescribed rep range and target RIR."),
	mcp.WithNumber("rpe", mcp.Required(), mcp.Description("Rate of perceived exertion, 1 to 10")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Reps completed")),
	mcp.WithNumber("rep_min", mcp.Required(), mcp.Description("Bottom of the prescribed rep range")),
	mcp.WithNumber("rep_max", mcp.Required(), mcp.Description("Top of the prescribed rep range")),
	mcp.WithNumber("target_rir", mcp.Description("Prescribed reps in reserve. Defaults to 2.")),
	mcp.WithBoolean("is_last_set", mcp.Description("Whether this is the last working set of the exercise")),
)

var toolPlanWarmup = mcp.NewTool("plan_warmup",
	mcp.WithDescription("Plan a warm-up ramp leading to a working weight. Heavier working weights get more, smaller steps; steps are rounded to loadable plates."),
	mcp.WithNumber("working_weight", mcp.Required(), mcp.Description("Working set weight")),
	mcp.WithString("unit", mcp.Description("Unit of working_weight. Defaults to the server unit."), mcp.Enum("kg", "lb")),
	mcp.WithNumber("barbell_kg", mcp.Description("Bar weight in kilograms. Defaults to the server bar; 0 for lifts without a bar.")),
)

var toolScoreReadiness = mcp.NewTool("score_readiness",
	mcp.WithDescription("Score pre-workout readiness from 0 to 100 from sleep, stress, and nutrition, with a band and a training recommendation."),
	mcp.WithNumber("sleep_hours", mcp.Required(), mcp.Description("Hours slept last night")),
	mcp.WithNumber("sleep_quality", mcp.Required(), mcp.Description("Sleep quality, 1 (poor) to 5 (great)")),
	mcp.WithNumber("stress_level", mcp.Required(), mcp.Description("Stress, 1 (very stressed) to 5 (relaxed)")),
	mcp.WithNumber("nutrition_rating", mcp.Required(), mcp.Description("Nutrition, 1 (poor) to 5 (great)")),
)

var toolSuggestNextSet = mcp.NewTool("suggest_next_set",
	mcp.WithDescription("Suggest weight, reps, and RPE for the next working set with double progression: repeat the weight until the top of the rep range is hit at target effort, then add one increment."),
	mcp.WithNumber("rep_min", mcp.Required(), mcp.Description("Bottom of the prescribed rep range")),
	mcp.WithNumber("rep_max", mcp.Required(), mcp.Description("Top of the prescribed rep range")),
	mcp.WithNumber("target_rir", mcp.Description("Prescribed reps in reserve. Defaults to 2.")),
	mcp.WithNumber("target_sets", mcp.Description("Prescribed working sets. Defaults to 3.")),
	mcp.WithString("unit", mcp.Description("Display unit for the increment. Defaults to the server unit."), mcp.Enum("kg", "lb")),
	mcp.WithNumber("previous_weight_kg", mcp.Description("Weight of the previous working set in kilograms")),
	mcp.WithNumber("previous_reps", mcp.Description("Reps of the previous working set. Omit when there is no previous set.")),
	mcp.WithNumber("previous_rpe", mcp.Description("RPE of the previous working set")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List the most recent training sessions, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 20.")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Summarize a session: working sets, reps, tonnage, failure rate, RIR distribution, and per-exercise volume, best e1RM, and quality counts."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetSessionRecords = mcp.NewTool("get_session_records",
	mcp.WithDescription("Personal records (e1RM, weight, reps) set in a session compared with all earlier sessions."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetLatestReadiness = mcp.NewTool("get_latest_readiness",
	mcp.WithDescription("The most recent readiness check-in with its score, band, and recommendation."),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Weekly or monthly working-set volume: sessions, sets, reps, tonnage (effective load for bodyweight sets), average sets per session, and set quality counts per period."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 week", "1 month")),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("Totals of stored sessions, sets, and check-ins with the data date range and working sets per exercise."),
)

// --- Tool handlers ---

func (h *handlers) convertWeight(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError("value parameter is required"), nil
	}
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from parameter is required"), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to parameter is required"), nil
	}

	fromUnit, err := units.ParseUnit(from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toUnit, err := units.ParseUnit(to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kg, err := units.ToKg(value, fromUnit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	converted, err := units.ToDisplay(kg, toUnit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	display, _ := units.Format(kg, toUnit)

	return toolJSON(map[string]any{
		"value":   converted,
		"unit":    toUnit,
		"kg":      kg,
		"display": display,
	})
}

func (h *handlers) roundWeight(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight_kg")
	if err != nil {
		return mcp.NewToolResultError("weight_kg parameter is required"), nil
	}
	unit, err := h.unit(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rounded, err := units.RoundToIncrement(weight, unit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inc, _ := units.Increment(unit)
	display, _ := units.Format(rounded, unit)

	return toolJSON(map[string]any{
		"weight_kg":    rounded,
		"increment_kg": inc,
		"display":      display,
	})
}

func (h *handlers) effectiveLoad(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bw, err := req.RequireFloat("bodyweight_kg")
	if err != nil {
		return mcp.NewToolResultError("bodyweight_kg parameter is required"), nil
	}

	resolved, err := load.Resolve(load.Input{
		UserBodyweightKg:   bw,
		Modification:       models.Modification(req.GetString("modification", string(models.ModificationNone))),
		AddedWeightKg:      req.GetFloat("added_kg", 0),
		AssistanceWeightKg: req.GetFloat("assistance_kg", 0),
		AssistanceType:     models.AssistanceType(req.GetString("assistance_type", "")),
		BandColor:          models.BandColor(req.GetString("band_color", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(resolved)
}

func (h *handlers) estimate1RM(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	unit, err := h.unit(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kg, err := units.ToKg(weight, unit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e1rm, err := estimate.OneRepMax(kg, reps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	display, _ := units.Format(e1rm, unit)
	out := map[string]any{
		"e1rm_kg": e1rm,
		"display": display,
	}
	if b, err := estimate.Brzycki(kg, reps); err == nil {
		out["brzycki_kg"] = b
	}

	if target := req.GetInt("target_reps", 0); target > 0 {
		wfr, err := estimate.WeightForReps(e1rm, target)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rounded, err := units.RoundToIncrement(wfr, unit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out["weight_for_reps_kg"] = rounded
	}
	return toolJSON(out)
}

func (h *handlers) classifySet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rpe, err := req.RequireFloat("rpe")
	if err != nil {
		return mcp.NewToolResultError("rpe parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	rng, err := repRange(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q, err := quality.Classify(rpe, req.GetInt("target_rir", 2), reps, rng, req.GetBool("is_last_set", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(map[string]any{
		"quality":    q,
		"actual_rir": quality.ActualRIR(rpe),
		"rir_band":   quality.BandForRPE(rpe),
	})
}

func (h *handlers) planWarmup(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("working_weight")
	if err != nil {
		return mcp.NewToolResultError("working_weight parameter is required"), nil
	}
	unit, err := h.unit(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kg, err := units.ToKg(weight, unit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	steps, err := h.planner.Plan(kg, unit, req.GetFloat("barbell_kg", h.engine.BarbellKg))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if steps == nil {
		steps = []models.WarmupStep{}
	}
	return toolJSON(map[string]any{"steps": steps})
}

func (h *handlers) scoreReadiness(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in models.ReadinessInput
	var err error
	if in.SleepHours, err = req.RequireFloat("sleep_hours"); err != nil {
		return mcp.NewToolResultError("sleep_hours parameter is required"), nil
	}
	if in.SleepQuality, err = req.RequireInt("sleep_quality"); err != nil {
		return mcp.NewToolResultError("sleep_quality parameter is required"), nil
	}
	if in.StressLevel, err = req.RequireInt("stress_level"); err != nil {
		return mcp.NewToolResultError("stress_level parameter is required"), nil
	}
	if in.NutritionRating, err = req.RequireInt("nutrition_rating"); err != nil {
		return mcp.NewToolResultError("nutrition_rating parameter is required"), nil
	}

	res, err := h.score(in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(res)
}

func (h *handlers) suggestNextSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rng, err := repRange(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := models.ExerciseTarget{
		TargetRepRange: rng,
		TargetRIR:      req.GetInt("target_rir", 2),
		TargetSets:     req.GetInt("target_sets", 3),
	}

	var prev *models.LoggedSet
	if reps := req.GetInt("previous_reps", 0); reps > 0 {
		prev = &models.LoggedSet{
			WeightKg: req.GetFloat("previous_weight_kg", 0),
			Reps:     reps,
		}
		if rpe := req.GetFloat("previous_rpe", 0); rpe > 0 {
			prev.RPE = &rpe
		}
	}

	unit, err := h.unit(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sug, err := defaults.Suggest(prev, target, unit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(sug)
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	sessions, err := h.ds.QuerySessions(ctx, uid, req.GetInt("limit", 20))
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return toolJSON(map[string]any{"sessions": sessions})
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := sessionID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum, err := h.ds.SessionSummary(ctx, UserIDFromContext(ctx), id)
	if isNotFound(err) {
		return mcp.NewToolResultError("session not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_session_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(sum)
}

func (h *handlers) getSessionRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := sessionID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prs, err := h.ds.SessionRecords(ctx, UserIDFromContext(ctx), id)
	if isNotFound(err) {
		return mcp.NewToolResultError("session not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_session_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if prs == nil {
		prs = []models.PersonalRecord{}
	}
	return toolJSON(map[string]any{"records": prs})
}

func (h *handlers) getLatestReadiness(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	checkIn, err := h.ds.LatestCheckIn(ctx, UserIDFromContext(ctx))
	if isNotFound(err) {
		return mcp.NewToolResultError("no readiness check-in recorded"), nil
	}
	if err != nil {
		h.log.Error("mcp get_latest_readiness", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(checkIn)
}

func (h *handlers) getDataStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_data_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(stats)
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	periods, err := h.ds.GetTrainingVolume(ctx, UserIDFromContext(ctx), start, end, req.GetString("bucket", "1 week"))
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if periods == nil {
		periods = []storage.VolumePeriod{}
	}
	return toolJSON(map[string]any{"periods": periods})
}

// --- Helpers ---

func toolJSON(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// unit parses the request's unit argument, falling back to the configured default.
func (h *handlers) unit(req mcp.CallToolRequest) (units.Unit, error) {
	v := req.GetString("unit", "")
	if v == "" {
		return h.engine.DefaultUnit, nil
	}
	return units.ParseUnit(v)
}

func repRange(req mcp.CallToolRequest) (models.RepRange, error) {
	lo, err := req.RequireInt("rep_min")
	if err != nil {
		return models.RepRange{}, errors.New("rep_min parameter is required")
	}
	hi, err := req.RequireInt("rep_max")
	if err != nil {
		return models.RepRange{}, errors.New("rep_max parameter is required")
	}
	rng := models.RepRange{Min: lo, Max: hi}
	return rng, rng.Validate()
}

func sessionID(req mcp.CallToolRequest) (uuid.UUID, error) {
	raw, err := req.RequireString("session_id")
	if err != nil {
		return uuid.Nil, errors.New("session_id parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session_id %q", raw)
	}
	return id, nil
}
