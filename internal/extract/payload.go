// Package extract owns the composition-engine side of the contract:
// the serialized payload an extractor produces for one query, the
// decoders for its wire forms, and the handoff into the typed opinion
// stack. Ordering and arc tagging are the extractor's promise; only
// structure is checked here.
package extract

import (
	"encoding/json"
	"fmt"

	"opiniontrace/internal/opinion"
)

// EngineError is a failure reported by the extractor itself, e.g. a
// prim path that does not exist. It is carried through to the report
// untouched.
type EngineError struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

// OpinionRecord is one opinion as serialized by the extractor.
type OpinionRecord struct {
	Index            int             `json:"index" msgpack:"index"`
	LayerIdentifier  string          `json:"layer_identifier" msgpack:"layer_identifier"`
	LayerDisplayName string          `json:"layer_display_name" msgpack:"layer_display_name"`
	ArcType          string          `json:"arc_type" msgpack:"arc_type"`
	Value            json.RawMessage `json:"value" msgpack:"-"`
	HasTimeSamples   bool            `json:"has_time_samples" msgpack:"has_time_samples"`
	IsBlocked        bool            `json:"is_blocked" msgpack:"is_blocked"`
	IsDirect         bool            `json:"is_direct" msgpack:"is_direct"`
	ClassPath        string          `json:"class_path,omitempty" msgpack:"class_path,omitempty"`
}

// Payload is one extraction result: the query the extractor answered,
// its resolved value, and the ordered opinion list. LayerMuting and
// PrimIsLoaded are optional stage state; absent means unreported, and
// the checks keyed on them stay off.
type Payload struct {
	Stage             string          `json:"stage" msgpack:"stage"`
	PrimPath          string          `json:"prim_path" msgpack:"prim_path"`
	Attribute         string          `json:"attribute" msgpack:"attribute"`
	Time              *float64        `json:"time" msgpack:"time"`
	ResolvedValue     json.RawMessage `json:"resolved_value" msgpack:"-"`
	ResolvedValueType string          `json:"resolved_value_type" msgpack:"resolved_value_type"`
	Opinions          []OpinionRecord `json:"opinions" msgpack:"opinions"`
	LayerMuting       map[string]bool `json:"layer_muting,omitempty" msgpack:"layer_muting,omitempty"`
	PrimIsLoaded      *bool           `json:"prim_is_loaded,omitempty" msgpack:"prim_is_loaded,omitempty"`
	Error             *EngineError    `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Query builds the engine query this payload answers. The user layer
// comes from the caller, not the extractor.
func (p *Payload) Query(userLayer string) opinion.Query {
	return opinion.Query{
		Stage:     p.Stage,
		PrimPath:  p.PrimPath,
		Attribute: p.Attribute,
		UserLayer: userLayer,
		Time:      p.Time,
	}
}

// Stack converts the serialized records into a validated opinion
// stack. Filtering structure-only records is the extractor's side of
// the contract; whatever arrives here is kept and validated as-is.
func (p *Payload) Stack() (*opinion.Stack, error) {
	ops := make([]opinion.Opinion, 0, len(p.Opinions))
	for i, rec := range p.Opinions {
		arc, ok := opinion.ParseArcType(rec.ArcType)
		if !ok {
			return nil, &opinion.MalformedStackError{
				Index:  i,
				Detail: fmt.Sprintf("unknown arc type %q", rec.ArcType),
			}
		}
		ops = append(ops, opinion.Opinion{
			Index:            rec.Index,
			LayerIdentifier:  rec.LayerIdentifier,
			LayerDisplayName: rec.LayerDisplayName,
			Arc:              arc,
			Value:            rec.Value,
			HasTimeSamples:   rec.HasTimeSamples,
			IsBlocked:        rec.IsBlocked,
			IsDirect:         rec.IsDirect,
			ClassPath:        rec.ClassPath,
		})
	}
	return opinion.NewStack(ops)
}
