package opinion

import "fmt"

// MalformedStackError reports a structural violation of the extractor's
// ordering contract: indices not contiguous from zero, an arc outside
// the enumeration, or more than one opinion claiming the top slot.
type MalformedStackError struct {
	Index  int
	Detail string
}

func (e *MalformedStackError) Error() string {
	return fmt.Sprintf("malformed opinion stack at index %d: %s", e.Index, e.Detail)
}

// Stack is the ordered list of opinions for one query, strongest first.
// Ordering correctness is the extractor's contract; construction checks
// structure only, never the composition math behind it.
type Stack struct {
	ops []Opinion
}

// NewStack validates and wraps an ordered opinion list. An empty list is
// a valid stack; whether that is reportable is the caller's concern.
func NewStack(ops []Opinion) (*Stack, error) {
	for i, op := range ops {
		if op.Index != i {
			detail := fmt.Sprintf("expected index %d, got %d", i, op.Index)
			if op.Index == 0 && i > 0 {
				detail = "second opinion claims index 0"
			}
			return nil, &MalformedStackError{Index: i, Detail: detail}
		}
		if !op.Arc.Valid() {
			return nil, &MalformedStackError{Index: i, Detail: fmt.Sprintf("unknown arc type %q", op.Arc)}
		}
	}
	return &Stack{ops: ops}, nil
}

// Len returns the number of opinions.
func (s *Stack) Len() int { return len(s.ops) }

// Opinions returns the ordered opinions, strongest first.
func (s *Stack) Opinions() []Opinion { return s.ops }

// At returns the opinion at the given stack index.
func (s *Stack) At(index int) (Opinion, bool) {
	if index < 0 || index >= len(s.ops) {
		return Opinion{}, false
	}
	return s.ops[index], true
}

// ByIdentifier returns the strongest opinion whose layer identifier
// matches exactly.
func (s *Stack) ByIdentifier(identifier string) (Opinion, bool) {
	for _, op := range s.ops {
		if op.LayerIdentifier == identifier {
			return op, true
		}
	}
	return Opinion{}, false
}

// ByBasename returns the strongest opinion whose display name or
// identifier basename matches exactly. Case-sensitive.
func (s *Stack) ByBasename(name string) (Opinion, bool) {
	for _, op := range s.ops {
		if op.DisplayName() == name || op.Basename() == name {
			return op, true
		}
	}
	return Opinion{}, false
}
