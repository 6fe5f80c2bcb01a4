package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestValueOrUnknown(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", "unknown"},
		{"abc123", "abc123"},
	}
	for _, tc := range cases {
		if got := valueOrUnknown(tc.input); got != tc.want {
			t.Fatalf("valueOrUnknown(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestRenderVersionJSONOmitsHiddenFields(t *testing.T) {
	info := versionInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2026-08-23"}

	var buf bytes.Buffer
	err := renderVersionJSON(&buf, info, versionOptions{format: "json", showHash: true})
	if err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["tool"] != "opiniontrace" {
		t.Fatalf("tool = %v, want opiniontrace", payload["tool"])
	}
	if payload["git_commit"] != "abc123" {
		t.Fatalf("git_commit = %v, want abc123", payload["git_commit"])
	}
	if _, ok := payload["build_date"]; ok {
		t.Fatalf("build_date present without --date: %v", payload["build_date"])
	}
}

func TestRenderVersionPrettyHintsAtFlags(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	renderVersionPretty(&buf, versionInfo{Version: "1.2.3"}, versionOptions{format: "pretty"})

	out := buf.String()
	if !strings.Contains(out, "opiniontrace 1.2.3") {
		t.Fatalf("missing version line in %q", out)
	}
	if !strings.Contains(out, "--full") {
		t.Fatalf("missing flag hint in %q", out)
	}
}

func TestExplainTopicsCoverDiagnosisVocabulary(t *testing.T) {
	for _, name := range []string{"livrps", "arcs", "value-block", "muting"} {
		topic, ok := explainTopics[name]
		if !ok {
			t.Fatalf("topic %q missing", name)
		}
		if topic.title == "" || topic.text == "" {
			t.Fatalf("topic %q has empty title or text", name)
		}
	}
}
