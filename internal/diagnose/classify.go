package diagnose

import (
	"fmt"

	"opiniontrace/internal/opinion"
	"opiniontrace/internal/reason"
)

// Environment carries optional stage state the extractor may report
// alongside the stack. Checks tied to a field run only when that field
// was actually supplied.
type Environment struct {
	// LayerMuting maps layer identifiers to their muted state.
	LayerMuting map[string]bool
	// PrimLoaded is the prim's payload load state; nil when the
	// extractor did not report it.
	PrimLoaded *bool
}

// InconsistentOrderingError reports a stack whose winner uses a weaker
// arc than the user's opinion yet sits above it. The extractor's
// ordering contract makes that impossible, so no reason code is
// guessed.
type InconsistentOrderingError struct {
	WinnerIndex int
	WinnerArc   opinion.ArcType
	UserIndex   int
	UserArc     opinion.ArcType
}

func (e *InconsistentOrderingError) Error() string {
	return fmt.Sprintf("inconsistent stack ordering: %s opinion at index %d outranks %s opinion at index %d",
		e.WinnerArc, e.WinnerIndex, e.UserArc, e.UserIndex)
}

// Classification is the classifier's verdict: which reason code
// applies, which opinion blocks the user, and any annotation sentences
// to append to the registry detail.
type Classification struct {
	Reason       reason.Code
	BlockerIndex int
	Annotations  []string
}

// Classify decides why the user's opinion, strictly weaker than the
// winner, does not govern the attribute. Rules run top-down and the
// first match supplies the reason code; directness and time-sample
// findings only annotate it.
func Classify(q opinion.Query, s *opinion.Stack, env Environment, winner Winner, user opinion.Opinion) (Classification, error) {
	w := winner.Opinion

	if env.LayerMuting[user.LayerIdentifier] {
		return Classification{Reason: reason.LayerMuted, BlockerIndex: w.Index}, nil
	}
	if env.PrimLoaded != nil && !*env.PrimLoaded && user.Arc == opinion.ArcPayload {
		return Classification{Reason: reason.PayloadNotLoaded, BlockerIndex: w.Index}, nil
	}

	if idx, ok := nearestBlock(s, user.Index); ok {
		c := Classification{Reason: reason.ValueExplicitlyBlocked, BlockerIndex: idx}
		c.Annotations = annotate(q, w, user, false)
		return c, nil
	}

	if w.Arc != user.Arc {
		if !w.Arc.StrongerThan(user.Arc) {
			return Classification{}, &InconsistentOrderingError{
				WinnerIndex: w.Index,
				WinnerArc:   w.Arc,
				UserIndex:   user.Index,
				UserArc:     user.Arc,
			}
		}
		c := Classification{Reason: reason.ArcPairCode(w.Arc, user.Arc), BlockerIndex: w.Index}
		c.Annotations = annotate(q, w, user, true)
		return c, nil
	}

	c := Classification{Reason: reason.SameArcTypeOrder, BlockerIndex: w.Index}
	if w.Arc == opinion.ArcLocal {
		c.Annotations = append(c.Annotations,
			"both opinions live in the local layer stack, and the blocker sits higher in the sublayer order")
	}
	c.Annotations = append(c.Annotations, annotate(q, w, user, true)...)
	return c, nil
}

// nearestBlock returns the strongest blocking opinion above the user's
// index, if any.
func nearestBlock(s *opinion.Stack, userIndex int) (int, bool) {
	for _, op := range s.Opinions() {
		if op.Index >= userIndex {
			break
		}
		if op.IsBlocked {
			return op.Index, true
		}
	}
	return 0, false
}

// annotate builds the detail suffixes shared by the precedence rules.
// precedence selects the notes that only make sense when stack order,
// not an explicit block, is the story.
func annotate(q opinion.Query, w, user opinion.Opinion, precedence bool) []string {
	var notes []string

	switch {
	case !w.IsDirect && !user.IsDirect:
		note := "both opinions are inherited through class targets"
		if cp := classPath(user, w); cp != "" {
			note = fmt.Sprintf("%s (originating class path %s)", note, cp)
		}
		notes = append(notes, note)
	case precedence && w.IsDirect && !user.IsDirect:
		notes = append(notes,
			"the winning opinion is authored directly on the prim while yours arrives through a class target, and direct opinions win at the same site")
	}

	if q.HasTime() && w.HasTimeSamples != user.HasTimeSamples {
		if w.HasTimeSamples {
			notes = append(notes, fmt.Sprintf(
				"at time %v the winner provides time samples and your opinion does not, which decides who supplies the value there", *q.Time))
		} else {
			notes = append(notes, fmt.Sprintf(
				"at time %v your opinion provides time samples and the winner does not, which decides who supplies the value there", *q.Time))
		}
	}

	return notes
}

func classPath(user, w opinion.Opinion) string {
	if user.ClassPath != "" {
		return user.ClassPath
	}
	return w.ClassPath
}
