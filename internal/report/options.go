package report

import "fmt"

// ColorMode specifies when the pretty renderer emits ANSI colors.
type ColorMode uint8

const (
	// ColorAuto enables color only when writing to a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses a --color flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

// PrettyOpts configures the terminal rendering.
type PrettyOpts struct {
	Color bool
	Width int // value column cap, 0 = unlimited
}
