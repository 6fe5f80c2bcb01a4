package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"opiniontrace/internal/opinion"
)

const samplePayload = `{
  "stage": "/show/seq010/shot.usda",
  "prim_path": "/World/Asset",
  "attribute": "xformOp:translate",
  "time": null,
  "resolved_value": [0,1,0],
  "resolved_value_type": "GfVec3d",
  "opinions": [
    {
      "index": 0,
      "layer_identifier": "/show/seq010/shot.usda",
      "layer_display_name": "shot",
      "arc_type": "Local",
      "value": [0,1,0],
      "has_time_samples": false,
      "is_blocked": false,
      "is_direct": true
    },
    {
      "index": 1,
      "layer_identifier": "/assets/avocado/avocado.usda",
      "layer_display_name": "avocado",
      "arc_type": "Reference",
      "value": [0,0,0],
      "has_time_samples": false,
      "is_blocked": false,
      "is_direct": true
    }
  ],
  "layer_muting": {"/assets/avocado/avocado.usda": false},
  "prim_is_loaded": true
}
`

func writePayloadFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSONPayload(t *testing.T) {
	path := writePayloadFile(t, "shot.json", samplePayload)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.Stage != "/show/seq010/shot.usda" {
		t.Errorf("Stage = %q", p.Stage)
	}
	if p.Attribute != "xformOp:translate" {
		t.Errorf("Attribute = %q", p.Attribute)
	}
	if got := len(p.Opinions); got != 2 {
		t.Fatalf("len(Opinions) = %d, want 2", got)
	}
	if got := string(p.Opinions[0].Value); got != "[0,1,0]" {
		t.Errorf("Opinions[0].Value = %s", got)
	}
	if p.PrimIsLoaded == nil || !*p.PrimIsLoaded {
		t.Errorf("PrimIsLoaded = %v, want true", p.PrimIsLoaded)
	}
	if muted, ok := p.LayerMuting["/assets/avocado/avocado.usda"]; !ok || muted {
		t.Errorf("LayerMuting entry = %v %v", muted, ok)
	}
	if p.Time != nil {
		t.Errorf("Time = %v, want nil", *p.Time)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writePayloadFile(t, "shot.yaml", samplePayload)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() accepted a .yaml payload")
	}
}

func TestFormatForPath(t *testing.T) {
	cases := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"out/shot.json", FormatJSON, true},
		{"out/shot.JSON", FormatJSON, true},
		{"out/shot.msgpack", FormatMsgpack, true},
		{"out/shot.mp", FormatMsgpack, true},
		{"out/shot.bin", FormatMsgpack, true},
		{"out/shot.txt", "", false},
		{"out/shot", "", false},
	}
	for _, tc := range cases {
		got, err := FormatForPath(tc.path)
		if tc.wantOK && (err != nil || got != tc.want) {
			t.Errorf("FormatForPath(%q) = %q, %v; want %q", tc.path, got, err, tc.want)
		}
		if !tc.wantOK && err == nil {
			t.Errorf("FormatForPath(%q) accepted", tc.path)
		}
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	if _, err := DecodeJSON(strings.NewReader("{not json")); err == nil {
		t.Fatal("DecodeJSON() accepted garbage")
	}
}

func TestDecodeMsgpackNormalizesValues(t *testing.T) {
	loaded := true
	src := msgpackPayload{
		Stage:             "/show/shot.usda",
		PrimPath:          "/World/Asset",
		Attribute:         "radius",
		ResolvedValue:     map[string]any{"z": 1, "a": 2},
		ResolvedValueType: "dict",
		Opinions: []msgpackOpinion{
			{
				Index:            0,
				LayerIdentifier:  "/show/shot.usda",
				LayerDisplayName: "shot",
				ArcType:          "Local",
				Value:            []any{int8(1), int8(2)},
				IsDirect:         true,
			},
		},
		PrimIsLoaded: &loaded,
	}
	raw, err := msgpack.Marshal(src)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	p, err := DecodeMsgpack(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeMsgpack() error: %v", err)
	}
	if got := string(p.ResolvedValue); got != `{"a":2,"z":1}` {
		t.Errorf("ResolvedValue = %s, want sorted JSON keys", got)
	}
	if got := string(p.Opinions[0].Value); got != "[1,2]" {
		t.Errorf("Opinions[0].Value = %s", got)
	}
	if p.PrimIsLoaded == nil || !*p.PrimIsLoaded {
		t.Errorf("PrimIsLoaded = %v, want true", p.PrimIsLoaded)
	}
}

func TestPayloadStack(t *testing.T) {
	p, err := DecodeJSON(strings.NewReader(samplePayload))
	if err != nil {
		t.Fatalf("DecodeJSON() error: %v", err)
	}
	s, err := p.Stack()
	if err != nil {
		t.Fatalf("Stack() error: %v", err)
	}
	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	top, _ := s.At(0)
	if top.Arc != opinion.ArcLocal || top.LayerDisplayName != "shot" {
		t.Errorf("top = %s %q", top.Arc, top.LayerDisplayName)
	}
}

func TestPayloadStackAcceptsArcAliases(t *testing.T) {
	p := &Payload{Opinions: []OpinionRecord{
		{Index: 0, LayerIdentifier: "/a.usda", ArcType: "Inherits", Value: []byte("1")},
	}}
	s, err := p.Stack()
	if err != nil {
		t.Fatalf("Stack() error: %v", err)
	}
	top, _ := s.At(0)
	if top.Arc != opinion.ArcInherit {
		t.Errorf("Arc = %s, want %s", top.Arc, opinion.ArcInherit)
	}
}

func TestPayloadStackRejectsUnknownArc(t *testing.T) {
	p := &Payload{Opinions: []OpinionRecord{
		{Index: 0, LayerIdentifier: "/a.usda", ArcType: "Relocate", Value: []byte("1")},
	}}
	_, err := p.Stack()
	var malformed *opinion.MalformedStackError
	if !errors.As(err, &malformed) {
		t.Fatalf("Stack() error = %v, want MalformedStackError", err)
	}
	if !strings.Contains(malformed.Detail, "Relocate") {
		t.Errorf("Detail = %q, want the offending arc name", malformed.Detail)
	}
}

func TestPayloadStackKeepsValuelessRecords(t *testing.T) {
	p := &Payload{Opinions: []OpinionRecord{
		{Index: 0, LayerIdentifier: "/a.usda", ArcType: "Local", Value: []byte("1")},
		{Index: 1, LayerIdentifier: "/empty.usda", ArcType: "Reference", Value: []byte("null")},
		{Index: 2, LayerIdentifier: "/b.usda", ArcType: "Reference", Value: []byte("2")},
	}}
	s, err := p.Stack()
	if err != nil {
		t.Fatalf("Stack() error: %v", err)
	}
	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want every record kept", got)
	}
	mid, _ := s.At(1)
	if got := string(mid.Value); got != "null" {
		t.Errorf("Opinions[1].Value = %q, want null", got)
	}
}

func TestPayloadStackKeepsValuelessBlocksAndSamples(t *testing.T) {
	p := &Payload{Opinions: []OpinionRecord{
		{Index: 0, LayerIdentifier: "/block.usda", ArcType: "Local", IsBlocked: true},
		{Index: 1, LayerIdentifier: "/anim.usda", ArcType: "Reference", HasTimeSamples: true},
	}}
	s, err := p.Stack()
	if err != nil {
		t.Fatalf("Stack() error: %v", err)
	}
	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestPayloadQuery(t *testing.T) {
	tc := 12.0
	p := &Payload{Stage: "/s.usda", PrimPath: "/World", Attribute: "radius", Time: &tc}
	q := p.Query("mine.usda")
	if q.Stage != "/s.usda" || q.PrimPath != "/World" || q.Attribute != "radius" {
		t.Errorf("Query = %+v", q)
	}
	if q.UserLayer != "mine.usda" {
		t.Errorf("UserLayer = %q", q.UserLayer)
	}
	if q.Time == nil || *q.Time != 12.0 {
		t.Errorf("Time = %v, want 12", q.Time)
	}
}
