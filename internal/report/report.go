// Package report builds the output object handed to the calling CLI or
// GUI layer and renders it as deterministic JSON or a colored terminal
// view. The structs here are the output contract; their field order is
// the serialization order.
package report

import (
	"encoding/json"

	"opiniontrace/internal/diagnose"
	"opiniontrace/internal/opinion"
)

// Derived per-opinion status values.
const (
	StatusWinning           = "winning"
	StatusBlockedByStronger = "blocked-by-stronger"
	StatusValueBlocked      = "value-blocked"
)

// QueryJSON echoes the query the report answers. UserLayer is null in
// stack-only runs without a layer argument; Time is null for default
// time queries.
type QueryJSON struct {
	Stage     string   `json:"stage"`
	PrimPath  string   `json:"prim_path"`
	Attribute string   `json:"attribute"`
	UserLayer *string  `json:"user_layer"`
	Time      *float64 `json:"time"`
}

// OpinionJSON is one stack entry plus the derived presentation fields.
type OpinionJSON struct {
	Index            int             `json:"index"`
	LayerIdentifier  string          `json:"layer_identifier"`
	LayerDisplayName string          `json:"layer_display_name"`
	ArcType          string          `json:"arc_type"`
	Value            json.RawMessage `json:"value"`
	HasTimeSamples   bool            `json:"has_time_samples"`
	IsBlocked        bool            `json:"is_blocked"`
	IsDirect         bool            `json:"is_direct"`
	ClassPath        string          `json:"class_path,omitempty"`
	Status           string          `json:"status"`
	IsUserLayer      bool            `json:"is_user_layer"`
}

// DiagnosisJSON mirrors diagnose.Diagnosis. Pointer fields serialize
// as explicit nulls when inapplicable, never omitted.
type DiagnosisJSON struct {
	UserLayerFound bool     `json:"user_layer_found"`
	UserLayerIndex *int     `json:"user_layer_index"`
	BlockerIndex   *int     `json:"blocker_index"`
	BlockerLayer   *string  `json:"blocker_layer"`
	Reason         string   `json:"reason"`
	ReasonDetail   string   `json:"reason_detail"`
	Suggestions    []string `json:"suggestions"`
}

// Output is the top-level report object.
type Output struct {
	Query             QueryJSON       `json:"query"`
	ResolvedValue     json.RawMessage `json:"resolved_value"`
	ResolvedValueType *string         `json:"resolved_value_type"`
	Opinions          []OpinionJSON   `json:"opinions"`
	Diagnosis         *DiagnosisJSON  `json:"diagnosis"`
	Error             *string         `json:"error"`
}

// statusOf derives the presentation status for one stack entry. A
// blocked entry reports value-blocked even at index 0, since a block
// means no opinion supplies the value.
func statusOf(op opinion.Opinion) string {
	switch {
	case op.IsBlocked:
		return StatusValueBlocked
	case op.Index == 0:
		return StatusWinning
	default:
		return StatusBlockedByStronger
	}
}

func diagnosisJSON(d *diagnose.Diagnosis) *DiagnosisJSON {
	if d == nil {
		return nil
	}
	out := &DiagnosisJSON{
		UserLayerFound: d.UserLayerFound,
		UserLayerIndex: d.UserLayerIndex,
		BlockerIndex:   d.BlockerIndex,
		BlockerLayer:   d.BlockerLayer,
		Reason:         string(d.Reason),
		ReasonDetail:   d.ReasonDetail,
		Suggestions:    d.Suggestions,
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out
}
