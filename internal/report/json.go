package report

import (
	"encoding/json"
	"io"
)

// JSON writes the report as two-space indented JSON with a trailing
// newline. Struct field order fixes the key order, so identical input
// yields byte-identical output.
func JSON(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
