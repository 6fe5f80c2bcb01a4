package diagnose

import (
	"errors"
	"strings"

	"opiniontrace/internal/opinion"
	"opiniontrace/internal/reason"
)

// Diagnosis explains the fate of the user's opinion. Pointer fields are
// nil when inapplicable: a winning or missing user layer has no
// blocker, and an absent layer has no index.
type Diagnosis struct {
	UserLayerFound bool
	UserLayerIndex *int
	BlockerIndex   *int
	BlockerLayer   *string
	Reason         reason.Code
	ReasonDetail   string
	Suggestions    []string
}

// Diagnose runs the full pipeline for one query: resolve the winner,
// locate the user's layer, classify the loss, and attach the registry
// text. The registry must cover every emittable code; a miss surfaces
// as UnknownCodeError and no partial diagnosis is returned.
func Diagnose(q opinion.Query, s *opinion.Stack, env Environment, reg *reason.Registry) (*Diagnosis, error) {
	winner, err := ResolveWinner(s)
	if errors.Is(err, ErrEmptyStack) {
		return describe(&Diagnosis{}, reason.NoOpinionsFound, nil, reg)
	}
	if err != nil {
		return nil, err
	}

	loc := LocateUserLayer(s, q.UserLayer)
	if !loc.Found {
		return describe(&Diagnosis{}, reason.UserLayerNotFound, nil, reg)
	}

	user := loc.Opinion
	if user.Index == winner.Opinion.Index {
		d := &Diagnosis{
			UserLayerFound: true,
			UserLayerIndex: intPtr(user.Index),
		}
		return describe(d, reason.UserLayerIsWinning, nil, reg)
	}

	cls, err := Classify(q, s, env, winner, user)
	if err != nil {
		return nil, err
	}

	blocker, ok := s.At(cls.BlockerIndex)
	if !ok {
		blocker = winner.Opinion
	}
	d := &Diagnosis{
		UserLayerFound: true,
		UserLayerIndex: intPtr(user.Index),
		BlockerIndex:   intPtr(cls.BlockerIndex),
		BlockerLayer:   strPtr(blocker.DisplayName()),
	}
	return describe(d, cls.Reason, cls.Annotations, reg)
}

// describe fills in the registry-backed fields and appends any
// annotation sentences to the detail.
func describe(d *Diagnosis, code reason.Code, annotations []string, reg *reason.Registry) (*Diagnosis, error) {
	entry, err := reg.Lookup(code)
	if err != nil {
		return nil, err
	}
	d.Reason = code
	d.ReasonDetail = entry.Detail
	if len(annotations) > 0 {
		d.ReasonDetail = strings.Join(append([]string{entry.Detail}, annotations...), "; ")
	}
	d.Suggestions = entry.Suggestions
	if d.Suggestions == nil {
		d.Suggestions = []string{}
	}
	return d, nil
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
