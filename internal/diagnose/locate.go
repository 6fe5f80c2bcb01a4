package diagnose

import "opiniontrace/internal/opinion"

// Located is the result of searching the stack for the user's layer.
type Located struct {
	Opinion opinion.Opinion
	Found   bool
}

// LocateUserLayer finds the opinion contributed by the user's target
// layer. The full identifier is tried against the whole stack before
// any basename matching, so an exact identifier always beats a
// same-named layer higher up. Basename comparison is case-sensitive.
func LocateUserLayer(s *opinion.Stack, ref string) Located {
	if ref == "" {
		return Located{}
	}
	if op, ok := s.ByIdentifier(ref); ok {
		return Located{Opinion: op, Found: true}
	}
	if op, ok := s.ByBasename(ref); ok {
		return Located{Opinion: op, Found: true}
	}
	return Located{}
}
