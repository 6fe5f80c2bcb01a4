package extract

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	path := filepath.Join(t.TempDir(), "extractor.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExtractorRunPassesQueryArgs(t *testing.T) {
	script := writeScript(t, `printf '{"stage":"%s","prim_path":"%s","attribute":"%s","resolved_value":1,"resolved_value_type":"int","opinions":[]}' "$1" "$2" "$3"`+"\n")
	ex := &Extractor{Command: []string{script}}
	p, err := ex.Run(context.Background(), "/show/shot.usda", "/World/Asset", "radius", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if p.Stage != "/show/shot.usda" {
		t.Errorf("Stage = %q", p.Stage)
	}
	if p.PrimPath != "/World/Asset" {
		t.Errorf("PrimPath = %q", p.PrimPath)
	}
	if p.Attribute != "radius" {
		t.Errorf("Attribute = %q", p.Attribute)
	}
}

func TestExtractorRunAppendsTimeFlag(t *testing.T) {
	script := writeScript(t, `printf '{"stage":"%s %s","prim_path":"p","attribute":"a","resolved_value":1,"resolved_value_type":"int","opinions":[]}' "$4" "$5"`+"\n")
	ex := &Extractor{Command: []string{script}}
	tc := 24.5
	p, err := ex.Run(context.Background(), "s", "p", "a", &tc)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if p.Stage != "--time 24.5" {
		t.Errorf("extractor saw args %q, want --time 24.5", p.Stage)
	}
}

func TestExtractorRunSurfacesStderr(t *testing.T) {
	script := writeScript(t, "echo 'no such prim' >&2\nexit 3\n")
	ex := &Extractor{Command: []string{script}}
	_, err := ex.Run(context.Background(), "s", "p", "a", nil)
	if err == nil {
		t.Fatal("Run() succeeded on a failing extractor")
	}
	if !strings.Contains(err.Error(), "no such prim") {
		t.Errorf("error = %v, want stderr text included", err)
	}
}

func TestExtractorRunWithoutCommand(t *testing.T) {
	ex := &Extractor{}
	if _, err := ex.Run(context.Background(), "s", "p", "a", nil); err == nil {
		t.Fatal("Run() succeeded without a command")
	}
}
