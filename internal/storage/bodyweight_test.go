package storage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/liftcalc/internal/models"
)

// TestDecodeBodyweightKeyStyles verifies camelCase and legacy snake_case blobs
// decode to the same value.
func TestDecodeBodyweightKeyStyles(t *testing.T) {
	camel := `{"userBodyweightKg":80,"modification":"assisted","assistanceWeightKg":20,"assistanceType":"machine","effectiveLoadKg":60}`
	snake := `{"user_bodyweight_kg":80,"modification":"assisted","assistance_weight_kg":20,"assistance_type":"machine","effective_load_kg":60}`

	want := &models.BodyweightLoad{
		UserBodyweightKg:   80,
		Modification:       models.ModificationAssisted,
		AssistanceWeightKg: 20,
		AssistanceType:     models.AssistanceMachine,
		EffectiveLoadKg:    60,
	}
	for name, blob := range map[string]string{"camel": camel, "snake": snake} {
		got, err := DecodeBodyweight([]byte(blob))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

// TestDecodeBodyweightRecomputesEffectiveLoad verifies a stale stored effective
// load is replaced by one derived from the raw fields.
func TestDecodeBodyweightRecomputesEffectiveLoad(t *testing.T) {
	got, err := DecodeBodyweight([]byte(`{"user_bodyweight_kg":80,"modification":"weighted","added_weight_kg":20,"effective_load_kg":0}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.EffectiveLoadKg != 100 {
		t.Errorf("effective load = %v, want 100", got.EffectiveLoadKg)
	}

	got, err = DecodeBodyweight([]byte(`{"userBodyweightKg":75}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.Modification != models.ModificationNone || got.EffectiveLoadKg != 75 {
		t.Errorf("load = %+v, want none / 75", got)
	}
}

// TestDecodeBodyweightEmpty verifies NULL and JSON null decode to nil.
func TestDecodeBodyweightEmpty(t *testing.T) {
	for _, blob := range [][]byte{nil, []byte("null")} {
		got, err := DecodeBodyweight(blob)
		if err != nil || got != nil {
			t.Errorf("DecodeBodyweight(%q) = %+v, %v; want nil, nil", blob, got, err)
		}
	}
}

// TestDecodeBodyweightInvalid verifies malformed blobs, unknown modes and
// blobs without a bodyweight fail.
func TestDecodeBodyweightInvalid(t *testing.T) {
	if _, err := DecodeBodyweight([]byte(`{"userBodyweightKg":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	_, err := DecodeBodyweight([]byte(`{"userBodyweightKg":80,"modification":"hovering"}`))
	if !errors.Is(err, models.ErrInvalidSetData) {
		t.Errorf("unknown modification error = %v, want ErrInvalidSetData", err)
	}

	for _, blob := range []string{
		`{"modification":"weighted","added_weight_kg":20}`,
		`{"userBodyweightKg":-5,"modification":"none"}`,
	} {
		got, err := DecodeBodyweight([]byte(blob))
		if !errors.Is(err, models.ErrMissingBodyweight) {
			t.Errorf("DecodeBodyweight(%s) = %+v, %v; want ErrMissingBodyweight", blob, got, err)
		}
	}
}

// TestEncodeBodyweight verifies encoding writes camelCase keys and nil stays nil.
func TestEncodeBodyweight(t *testing.T) {
	data, err := EncodeBodyweight(nil)
	if err != nil || data != nil {
		t.Errorf("EncodeBodyweight(nil) = %q, %v; want nil, nil", data, err)
	}

	data, err = EncodeBodyweight(&models.BodyweightLoad{UserBodyweightKg: 80, Modification: models.ModificationWeighted, AddedWeightKg: 10, EffectiveLoadKg: 90})
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]any
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"userBodyweightKg", "modification", "addedWeightKg", "effectiveLoadKg"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("encoded blob %s missing key %q", data, k)
		}
	}
}
