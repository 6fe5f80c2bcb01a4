package reason

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// tableFile is the on-disk shape of an external reason table. Rows
// override the builtin entry for their code; codes the classifier never
// emits are tolerated so one table can serve several tool versions.
type tableFile struct {
	Version string              `toml:"version"`
	Codes   map[string]tableRow `toml:"codes"`
}

type tableRow struct {
	Detail      string   `toml:"detail"`
	Suggestions []string `toml:"suggestions"`
}

// LoadTable reads a TOML reason table and overlays it on the builtin
// registry. A row replaces its builtin entry entirely.
func LoadTable(path string) (*Registry, error) {
	var file tableFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse reason table: %w", path, err)
	}

	base := Builtin()
	if !meta.IsDefined("codes") {
		if file.Version != "" {
			base.version = file.Version
		}
		return base, nil
	}

	for code, row := range file.Codes {
		entry := Entry{Detail: row.Detail, Suggestions: row.Suggestions}
		if entry.Suggestions == nil {
			entry.Suggestions = []string{}
		}
		base.entries[Code(code)] = entry
	}
	if file.Version != "" {
		base.version = file.Version
	} else {
		base.version = path
	}
	return base, nil
}
