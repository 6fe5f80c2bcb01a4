package opinion

import (
	"encoding/json"
	"strings"
)

// Opinion is one contributing value for an attribute, authored by one
// composition arc occurrence. Index 0 is the strongest entry of its
// stack. Values are carried opaquely; this engine never interprets them.
type Opinion struct {
	Index            int
	LayerIdentifier  string
	LayerDisplayName string
	Arc              ArcType
	Value            json.RawMessage
	HasTimeSamples   bool
	IsBlocked        bool
	IsDirect         bool

	// ClassPath is the class/specialize target path an ancestral opinion
	// arrived through. Present only when the extractor supplies it.
	ClassPath string
}

// DisplayName returns the user-facing layer name, falling back to the
// basename of the identifier when the extractor left it empty.
func (o Opinion) DisplayName() string {
	if o.LayerDisplayName != "" {
		return o.LayerDisplayName
	}
	return layerBasename(o.LayerIdentifier)
}

// Basename returns the basename of the layer identifier.
func (o Opinion) Basename() string {
	return layerBasename(o.LayerIdentifier)
}

// layerBasename trims everything up to the last path separator. Layer
// identifiers may use either separator regardless of host OS, so both
// are handled rather than deferring to path/filepath.
func layerBasename(identifier string) string {
	if i := strings.LastIndexAny(identifier, `/\`); i >= 0 {
		return identifier[i+1:]
	}
	return identifier
}

// Query identifies a single diagnosis request. Immutable once built.
type Query struct {
	Stage     string
	PrimPath  string
	Attribute string
	UserLayer string
	Time      *float64
}

// HasTime reports whether the query pins a time code.
func (q Query) HasTime() bool {
	return q.Time != nil
}
