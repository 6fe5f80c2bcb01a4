package report

import (
	"encoding/json"
	"errors"

	"opiniontrace/internal/diagnose"
	"opiniontrace/internal/opinion"
	"opiniontrace/internal/reason"
)

// Report error kinds for engine-detected failures. Extractor-reported
// codes (STAGE_NOT_FOUND, PRIM_NOT_FOUND, ATTR_NOT_FOUND, ...) pass
// through verbatim and are not enumerated here.
const (
	KindMalformedStack       = "MALFORMED_STACK"
	KindInconsistentOrdering = "INCONSISTENT_ORDERING"
	KindUnknownReasonCode    = "UNKNOWN_REASON_CODE"
	KindEmptyUserLayer       = "EMPTY_USER_LAYER"
)

// Resolved carries the composition engine's answer for the query.
type Resolved struct {
	Value json.RawMessage
	Type  string
}

// Build assembles the report for one completed run. Rows are flagged
// is_user_layer by the same matching vocabulary the locator uses, so a
// layer contributing through several arcs is flagged on each row; d is
// nil when no diagnosis was requested.
func Build(q QueryJSON, res Resolved, s *opinion.Stack, d *diagnose.Diagnosis) Output {
	out := Output{
		Query:         q,
		ResolvedValue: res.Value,
		Opinions:      make([]OpinionJSON, 0, s.Len()),
		Diagnosis:     diagnosisJSON(d),
	}
	if res.Type != "" {
		t := res.Type
		out.ResolvedValueType = &t
	}
	userRef := ""
	if q.UserLayer != nil {
		userRef = *q.UserLayer
	}
	for _, op := range s.Opinions() {
		out.Opinions = append(out.Opinions, OpinionJSON{
			Index:            op.Index,
			LayerIdentifier:  op.LayerIdentifier,
			LayerDisplayName: op.DisplayName(),
			ArcType:          op.Arc.String(),
			Value:            op.Value,
			HasTimeSamples:   op.HasTimeSamples,
			IsBlocked:        op.IsBlocked,
			IsDirect:         op.IsDirect,
			ClassPath:        op.ClassPath,
			Status:           statusOf(op),
			IsUserLayer:      isUserRow(op, userRef),
		})
	}
	return out
}

func isUserRow(op opinion.Opinion, ref string) bool {
	if ref == "" {
		return false
	}
	return op.LayerIdentifier == ref || op.DisplayName() == ref || op.Basename() == ref
}

// BuildFailure produces the report shape for a query that could not be
// diagnosed: the query echo, the error kind, and nothing else.
func BuildFailure(q QueryJSON, kind string) Output {
	return Output{
		Query:    q,
		Opinions: []OpinionJSON{},
		Error:    &kind,
	}
}

// Kind classifies an engine failure into its report error kind.
// Returns "" for errors that are not part of the report contract;
// those are shell failures, not reportable outcomes.
func Kind(err error) string {
	var malformed *opinion.MalformedStackError
	var ordering *diagnose.InconsistentOrderingError
	var unknown *reason.UnknownCodeError
	switch {
	case errors.As(err, &malformed):
		return KindMalformedStack
	case errors.As(err, &ordering):
		return KindInconsistentOrdering
	case errors.As(err, &unknown):
		return KindUnknownReasonCode
	default:
		return ""
	}
}
