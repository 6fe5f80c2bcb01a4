// Package reason holds the closed table of diagnosis reason codes and
// the remediation text attached to each. Classification decides which
// code applies; everything a user reads about that code lives here, as
// data, so remediation wording can evolve without touching the
// classifier.
package reason

import (
	"sort"

	"opiniontrace/internal/opinion"
)

// Code names one diagnosis outcome. Codes are stable identifiers
// consumed by GUI collaborators; they never change meaning.
type Code string

const (
	// UserLayerNotFound: the target layer contributes no opinion for
	// the attribute.
	UserLayerNotFound Code = "user_layer_not_found"
	// UserLayerIsWinning: the target layer's opinion already wins.
	UserLayerIsWinning Code = "user_layer_is_winning"
	// ValueExplicitlyBlocked: an explicit value-block suppresses the
	// attribute regardless of stack order.
	ValueExplicitlyBlocked Code = "value_explicitly_blocked"
	// NoOpinionsFound: no layer anywhere authors this attribute.
	NoOpinionsFound Code = "no_opinions_found"
	// SameArcTypeOrder: winner and user share an arc type; traversal
	// order decides between them.
	SameArcTypeOrder Code = "same_arc_type_order"
	// LayerMuted: the target layer is muted on the stage.
	LayerMuted Code = "layer_muted"
	// PayloadNotLoaded: the target opinion sits inside an unloaded
	// payload.
	PayloadNotLoaded Code = "payload_not_loaded"
)

// ArcPairCode synthesizes the code for a cross-arc precedence loss,
// e.g. arc_type_local_over_reference. Callers must pass the stronger
// arc first; the registry only carries rows for valid orderings.
func ArcPairCode(winner, user opinion.ArcType) Code {
	return Code("arc_type_" + winner.Code() + "_over_" + user.Code())
}

// AllCodes returns every code the classifier can emit, sorted. The
// fixed codes come first in code-point order followed by the arc pair
// codes; sorting keeps the listing stable for docs and tests.
func AllCodes() []Code {
	codes := []Code{
		UserLayerNotFound,
		UserLayerIsWinning,
		ValueExplicitlyBlocked,
		NoOpinionsFound,
		SameArcTypeOrder,
		LayerMuted,
		PayloadNotLoaded,
	}
	for w := opinion.ArcLocal; w <= opinion.ArcSpecialize; w++ {
		for u := w + 1; u <= opinion.ArcSpecialize; u++ {
			codes = append(codes, ArcPairCode(w, u))
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
