// Package version records the build identity of the opiniontrace CLI.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build metadata. Every variable keeps a constant default so release
// builds can replace it via
// -ldflags "-X opiniontrace/internal/version.Version=...".
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var segmentColors = [3]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders a dotted version triple with one color per segment
// for terminal output. Pre-release or build suffixes stay uncolored,
// and anything that is not a dotted triple comes back unchanged.
func Colored(v string) string {
	suffix := ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v, suffix = v[:i], v[i:]
	}
	parts := strings.Split(v, ".")
	if len(parts) != len(segmentColors) {
		return v + suffix
	}
	for i, p := range parts {
		parts[i] = segmentColors[i].Sprint(p)
	}
	return strings.Join(parts, ".") + suffix
}
