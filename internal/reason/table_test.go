package reason

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reasons.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

func TestLoadTableOverridesBuiltinRow(t *testing.T) {
	path := writeTable(t, `
version = "studio-2026.08"

[codes.layer_muted]
detail = "Layer is muted in this pipeline stage"
suggestions = ["ask your supervisor before unmuting"]
`)
	reg, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if reg.Version() != "studio-2026.08" {
		t.Errorf("Version() = %q, want studio-2026.08", reg.Version())
	}
	e, err := reg.Lookup(LayerMuted)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Detail != "Layer is muted in this pipeline stage" {
		t.Errorf("detail not overridden: %q", e.Detail)
	}
	if len(e.Suggestions) != 1 || e.Suggestions[0] != "ask your supervisor before unmuting" {
		t.Errorf("suggestions not overridden: %v", e.Suggestions)
	}
}

func TestLoadTableKeepsUntouchedBuiltinRows(t *testing.T) {
	path := writeTable(t, `
[codes.layer_muted]
detail = "overridden"
`)
	reg, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	builtin := Builtin()
	for _, c := range AllCodes() {
		if c == LayerMuted {
			continue
		}
		got, err := reg.Lookup(c)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", c, err)
		}
		want, _ := builtin.Lookup(c)
		if got.Detail != want.Detail {
			t.Errorf("%q detail changed unexpectedly", c)
		}
	}
}

func TestLoadTableToleratesUnknownCodes(t *testing.T) {
	path := writeTable(t, `
[codes.arc_type_local_over_relocate]
detail = "kept for older extractors"
`)
	reg, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if !reg.Has(Code("arc_type_local_over_relocate")) {
		t.Error("extra table rows should be kept")
	}
}

func TestLoadTableWithoutCodesSectionIsBuiltin(t *testing.T) {
	path := writeTable(t, `version = "v9"`)
	reg, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if reg.Version() != "v9" {
		t.Errorf("Version() = %q, want v9", reg.Version())
	}
	if got, want := len(reg.Codes()), len(AllCodes()); got != want {
		t.Errorf("registry has %d codes, want %d", got, want)
	}
}

func TestLoadTableRejectsBadTOML(t *testing.T) {
	path := writeTable(t, `codes = ][`)
	if _, err := LoadTable(path); err == nil {
		t.Fatal("LoadTable should fail on malformed TOML")
	}
}
