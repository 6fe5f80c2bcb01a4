package diagnose

import (
	"errors"

	"opiniontrace/internal/opinion"
)

// ErrEmptyStack marks a stack with zero opinions. Callers must not
// treat it as a crash: an unauthored attribute is a reportable outcome,
// not a failure.
var ErrEmptyStack = errors.New("opinion stack is empty")

// Winner is the structurally strongest opinion of a stack. When that
// opinion is an explicit value-block it still occupies the top slot,
// but no opinion supplies a value: Effective is false and resolution
// reports the attribute as blocked rather than won.
type Winner struct {
	Opinion   opinion.Opinion
	Effective bool
}

// ResolveWinner returns the opinion at index 0. The upstream extractor
// orders strongest-first; this function owns that contract and is the
// one place the rest of the engine takes it from.
func ResolveWinner(s *opinion.Stack) (Winner, error) {
	top, ok := s.At(0)
	if !ok {
		return Winner{}, ErrEmptyStack
	}
	return Winner{Opinion: top, Effective: !top.IsBlocked}, nil
}
