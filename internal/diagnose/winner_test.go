package diagnose

import (
	"errors"
	"testing"

	"opiniontrace/internal/opinion"
)

func mkOp(index int, layer string, arc opinion.ArcType) opinion.Opinion {
	return opinion.Opinion{
		Index:            index,
		LayerIdentifier:  "/show/" + layer,
		LayerDisplayName: layer,
		Arc:              arc,
		IsDirect:         true,
	}
}

func mkStack(t *testing.T, ops ...opinion.Opinion) *opinion.Stack {
	t.Helper()
	s, err := opinion.NewStack(ops)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	return s
}

func TestResolveWinnerReturnsTop(t *testing.T) {
	s := mkStack(t,
		mkOp(0, "shot.usda", opinion.ArcLocal),
		mkOp(1, "asset.usda", opinion.ArcReference),
	)
	w, err := ResolveWinner(s)
	if err != nil {
		t.Fatalf("ResolveWinner: %v", err)
	}
	if w.Opinion.Index != 0 || !w.Effective {
		t.Errorf("winner = %+v, want effective opinion at index 0", w)
	}
}

func TestResolveWinnerEmptyStack(t *testing.T) {
	s := mkStack(t)
	_, err := ResolveWinner(s)
	if !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("err = %v, want ErrEmptyStack", err)
	}
}

func TestResolveWinnerBlockedIsNotEffective(t *testing.T) {
	top := mkOp(0, "shot.usda", opinion.ArcLocal)
	top.IsBlocked = true
	s := mkStack(t, top, mkOp(1, "asset.usda", opinion.ArcReference))
	w, err := ResolveWinner(s)
	if err != nil {
		t.Fatalf("ResolveWinner: %v", err)
	}
	if w.Effective {
		t.Error("a value-blocked winner must not be effective")
	}
	if w.Opinion.Index != 0 {
		t.Errorf("winner index = %d, want the structural top", w.Opinion.Index)
	}
}
