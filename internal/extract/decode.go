package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Wire formats accepted for extraction payloads. Files pick a decoder
// by extension; stdin is always JSON.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// FormatForPath maps a file extension to a wire format. Unknown
// extensions are an error rather than a guess.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mp", ".bin":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unsupported payload extension %q (want .json, .msgpack, .mp or .bin)", filepath.Ext(path))
	}
}

// Load reads and decodes an extraction payload file.
func Load(path string) (*Payload, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}
	defer f.Close()
	p, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return p, nil
}

// Decode decodes a payload from r in the given wire format.
func Decode(r io.Reader, format string) (*Payload, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatMsgpack:
		return DecodeMsgpack(r)
	default:
		return nil, fmt.Errorf("unsupported payload format %q", format)
	}
}

// DecodeJSON decodes the JSON wire form. Values are kept as raw JSON
// so the report echoes the extractor's bytes unchanged.
func DecodeJSON(r io.Reader) (*Payload, error) {
	var p Payload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid payload JSON: %w", err)
	}
	return &p, nil
}

// msgpack mirrors of the wire structs. Values arrive as arbitrary
// msgpack objects and are renormalized to JSON afterwards, which also
// gives them a canonical key order.

type msgpackOpinion struct {
	Index            int    `msgpack:"index"`
	LayerIdentifier  string `msgpack:"layer_identifier"`
	LayerDisplayName string `msgpack:"layer_display_name"`
	ArcType          string `msgpack:"arc_type"`
	Value            any    `msgpack:"value"`
	HasTimeSamples   bool   `msgpack:"has_time_samples"`
	IsBlocked        bool   `msgpack:"is_blocked"`
	IsDirect         bool   `msgpack:"is_direct"`
	ClassPath        string `msgpack:"class_path"`
}

type msgpackPayload struct {
	Stage             string           `msgpack:"stage"`
	PrimPath          string           `msgpack:"prim_path"`
	Attribute         string           `msgpack:"attribute"`
	Time              *float64         `msgpack:"time"`
	ResolvedValue     any              `msgpack:"resolved_value"`
	ResolvedValueType string           `msgpack:"resolved_value_type"`
	Opinions          []msgpackOpinion `msgpack:"opinions"`
	LayerMuting       map[string]bool  `msgpack:"layer_muting"`
	PrimIsLoaded      *bool            `msgpack:"prim_is_loaded"`
	Error             *EngineError     `msgpack:"error"`
}

// DecodeMsgpack decodes the msgpack wire form.
func DecodeMsgpack(r io.Reader) (*Payload, error) {
	var mp msgpackPayload
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&mp); err != nil {
		return nil, fmt.Errorf("invalid payload msgpack: %w", err)
	}
	resolved, err := rawJSON(mp.ResolvedValue)
	if err != nil {
		return nil, fmt.Errorf("resolved_value: %w", err)
	}
	p := &Payload{
		Stage:             mp.Stage,
		PrimPath:          mp.PrimPath,
		Attribute:         mp.Attribute,
		Time:              mp.Time,
		ResolvedValue:     resolved,
		ResolvedValueType: mp.ResolvedValueType,
		Opinions:          make([]OpinionRecord, 0, len(mp.Opinions)),
		LayerMuting:       mp.LayerMuting,
		PrimIsLoaded:      mp.PrimIsLoaded,
		Error:             mp.Error,
	}
	for i, rec := range mp.Opinions {
		value, err := rawJSON(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("opinions[%d].value: %w", i, err)
		}
		p.Opinions = append(p.Opinions, OpinionRecord{
			Index:            rec.Index,
			LayerIdentifier:  rec.LayerIdentifier,
			LayerDisplayName: rec.LayerDisplayName,
			ArcType:          rec.ArcType,
			Value:            value,
			HasTimeSamples:   rec.HasTimeSamples,
			IsBlocked:        rec.IsBlocked,
			IsDirect:         rec.IsDirect,
			ClassPath:        rec.ClassPath,
		})
	}
	return p, nil
}

func rawJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value does not map to JSON: %w", err)
	}
	return json.RawMessage(b), nil
}
