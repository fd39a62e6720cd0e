package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
)

// EncodeBodyweight serializes a bodyweight load with canonical camelCase keys.
// A nil load encodes to nil, stored as SQL NULL.
func EncodeBodyweight(bw *models.BodyweightLoad) ([]byte, error) {
	if bw == nil {
		return nil, nil
	}
	data, err := json.Marshal(bw)
	if err != nil {
		return nil, fmt.Errorf("encoding bodyweight data: %w", err)
	}
	return data, nil
}

// DecodeBodyweight parses a stored bodyweight blob. Rows written before the
// camelCase convention use snake_case keys; both are accepted here so nothing
// past this boundary sees the difference. The effective load is recomputed
// from the raw fields rather than trusted.
func DecodeBodyweight(data []byte) (*models.BodyweightLoad, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding bodyweight data: %w", err)
	}
	canonical := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		if name, ok := bodyweightKeys[normalizeKey(k)]; ok {
			canonical[name] = v
		}
	}
	normalized, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("decoding bodyweight data: %w", err)
	}

	var bw models.BodyweightLoad
	if err := json.Unmarshal(normalized, &bw); err != nil {
		return nil, fmt.Errorf("decoding bodyweight data: %w", err)
	}
	if bw.Modification == "" {
		bw.Modification = models.ModificationNone
	}
	eff, err := load.EffectiveLoad(bw.UserBodyweightKg, bw.Modification, bw.AddedWeightKg, bw.AssistanceWeightKg)
	if err != nil {
		return nil, fmt.Errorf("decoding bodyweight data: %w", err)
	}
	bw.EffectiveLoadKg = eff
	return &bw, nil
}

// bodyweightKeys maps normalized keys to the canonical JSON field names.
var bodyweightKeys = map[string]string{
	"userbodyweightkg":   "userBodyweightKg",
	"modification":       "modification",
	"addedweightkg":      "addedWeightKg",
	"assistanceweightkg": "assistanceWeightKg",
	"assistancetype":     "assistanceType",
	"bandcolor":          "bandColor",
	"effectiveloadkg":    "effectiveLoadKg",
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}
