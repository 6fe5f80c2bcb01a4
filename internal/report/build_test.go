package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"opiniontrace/internal/diagnose"
	"opiniontrace/internal/opinion"
	"opiniontrace/internal/reason"
)

func mkOp(index int, layer string, arc opinion.ArcType) opinion.Opinion {
	return opinion.Opinion{
		Index:            index,
		LayerIdentifier:  "/show/" + layer,
		LayerDisplayName: layer,
		Arc:              arc,
		Value:            json.RawMessage(fmt.Sprintf("%d", index)),
		IsDirect:         true,
	}
}

func mkStack(t *testing.T, ops ...opinion.Opinion) *opinion.Stack {
	t.Helper()
	s, err := opinion.NewStack(ops)
	if err != nil {
		t.Fatalf("NewStack() error: %v", err)
	}
	return s
}

func mkQuery(userLayer string) QueryJSON {
	q := QueryJSON{
		Stage:     "/show/shot.usda",
		PrimPath:  "/World/Asset",
		Attribute: "radius",
	}
	if userLayer != "" {
		q.UserLayer = &userLayer
	}
	return q
}

func TestBuildDerivesStatusAndUserFlag(t *testing.T) {
	blocked := mkOp(1, "mid.usda", opinion.ArcVariant)
	blocked.IsBlocked = true
	s := mkStack(t,
		mkOp(0, "shot.usda", opinion.ArcLocal),
		blocked,
		mkOp(2, "mine.usda", opinion.ArcReference),
	)
	out := Build(mkQuery("mine.usda"), Resolved{Value: json.RawMessage("0"), Type: "int"}, s, nil)

	if len(out.Opinions) != 3 {
		t.Fatalf("len(Opinions) = %d, want 3", len(out.Opinions))
	}
	wantStatus := []string{StatusWinning, StatusValueBlocked, StatusBlockedByStronger}
	for i, want := range wantStatus {
		if got := out.Opinions[i].Status; got != want {
			t.Errorf("Opinions[%d].Status = %q, want %q", i, got, want)
		}
	}
	for i, want := range []bool{false, false, true} {
		if got := out.Opinions[i].IsUserLayer; got != want {
			t.Errorf("Opinions[%d].IsUserLayer = %v, want %v", i, got, want)
		}
	}
	if out.ResolvedValueType == nil || *out.ResolvedValueType != "int" {
		t.Errorf("ResolvedValueType = %v, want int", out.ResolvedValueType)
	}
}

func TestBuildBlockedWinnerIsValueBlocked(t *testing.T) {
	top := mkOp(0, "block.usda", opinion.ArcLocal)
	top.IsBlocked = true
	s := mkStack(t, top, mkOp(1, "mine.usda", opinion.ArcReference))
	out := Build(mkQuery(""), Resolved{}, s, nil)
	if got := out.Opinions[0].Status; got != StatusValueBlocked {
		t.Errorf("blocked winner status = %q, want %q", got, StatusValueBlocked)
	}
	if got := out.Opinions[1].Status; got != StatusBlockedByStronger {
		t.Errorf("second opinion status = %q, want %q", got, StatusBlockedByStronger)
	}
}

func TestBuildStackOnlyPayloadWinner(t *testing.T) {
	op := mkOp(0, "avocado_geo.usda", opinion.ArcPayload)
	op.Value = json.RawMessage(`"catmullClark"`)
	s := mkStack(t, op)
	out := Build(mkQuery("dummy.usda"), Resolved{Value: op.Value, Type: "token"}, s, nil)

	if out.Diagnosis != nil {
		t.Errorf("Diagnosis = %+v, want nil in stack-only mode", out.Diagnosis)
	}
	if len(out.Opinions) != 1 {
		t.Fatalf("len(Opinions) = %d, want 1", len(out.Opinions))
	}
	if got := out.Opinions[0].Status; got != StatusWinning {
		t.Errorf("Status = %q, want %q", got, StatusWinning)
	}
	if out.Opinions[0].IsUserLayer {
		t.Error("IsUserLayer = true for a layer that matched nothing")
	}
	if out.Query.UserLayer == nil || *out.Query.UserLayer != "dummy.usda" {
		t.Errorf("Query.UserLayer = %v, want echo of the request", out.Query.UserLayer)
	}
}

func TestBuildFlagsEveryUserRow(t *testing.T) {
	ref := mkOp(1, "mine.usda", opinion.ArcReference)
	payload := mkOp(2, "mine.usda", opinion.ArcPayload)
	s := mkStack(t, mkOp(0, "shot.usda", opinion.ArcLocal), ref, payload)
	out := Build(mkQuery("mine.usda"), Resolved{}, s, nil)

	for i, want := range []bool{false, true, true} {
		if got := out.Opinions[i].IsUserLayer; got != want {
			t.Errorf("Opinions[%d].IsUserLayer = %v, want %v", i, got, want)
		}
	}
}

func TestBuildEmptyStack(t *testing.T) {
	s := mkStack(t)
	out := Build(mkQuery("mine.usda"), Resolved{}, s, nil)
	if out.Opinions == nil {
		t.Fatal("Opinions = nil, want empty slice")
	}
	if len(out.Opinions) != 0 {
		t.Fatalf("len(Opinions) = %d, want 0", len(out.Opinions))
	}
	if out.ResolvedValue != nil {
		t.Errorf("ResolvedValue = %s, want nil", out.ResolvedValue)
	}
	if out.ResolvedValueType != nil {
		t.Errorf("ResolvedValueType = %v, want nil", out.ResolvedValueType)
	}
}

func TestBuildFailureShape(t *testing.T) {
	out := BuildFailure(mkQuery("mine.usda"), "PRIM_NOT_FOUND")
	if out.Error == nil || *out.Error != "PRIM_NOT_FOUND" {
		t.Fatalf("Error = %v, want PRIM_NOT_FOUND", out.Error)
	}
	if len(out.Opinions) != 0 || out.Opinions == nil {
		t.Errorf("Opinions = %v, want empty non-nil slice", out.Opinions)
	}
	if out.Diagnosis != nil {
		t.Errorf("Diagnosis = %+v, want nil", out.Diagnosis)
	}
}

func TestKindClassifiesEngineErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"malformed", fmt.Errorf("decode: %w", &opinion.MalformedStackError{Index: 1, Detail: "gap"}), KindMalformedStack},
		{"ordering", fmt.Errorf("classify: %w", &diagnose.InconsistentOrderingError{}), KindInconsistentOrdering},
		{"unknown code", fmt.Errorf("lookup: %w", &reason.UnknownCodeError{Code: "nope"}), KindUnknownReasonCode},
		{"plain", errors.New("disk on fire"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Kind(tc.err); got != tc.want {
				t.Errorf("Kind() = %q, want %q", got, tc.want)
			}
		})
	}
}
