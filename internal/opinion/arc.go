package opinion

import "fmt"

// ArcType identifies the composition arc that contributed an opinion.
// The enumeration is closed: LIVRPS defines exactly six arcs, and the
// numeric value doubles as the precedence rank (lower is stronger).
type ArcType uint8

const (
	ArcLocal ArcType = iota
	ArcInherit
	ArcVariant
	ArcReference
	ArcPayload
	ArcSpecialize

	arcCount
)

var arcNames = [arcCount]string{
	ArcLocal:      "Local",
	ArcInherit:    "Inherit",
	ArcVariant:    "Variant",
	ArcReference:  "Reference",
	ArcPayload:    "Payload",
	ArcSpecialize: "Specialize",
}

var arcCodes = [arcCount]string{
	ArcLocal:      "local",
	ArcInherit:    "inherit",
	ArcVariant:    "variant",
	ArcReference:  "reference",
	ArcPayload:    "payload",
	ArcSpecialize: "specialize",
}

// arcAliases maps accepted wire spellings to arc types. Extractors emit
// the canonical singular names; the plural forms match the LIVRPS
// initialism, and a root-node opinion is a local one.
var arcAliases = map[string]ArcType{
	"Local":       ArcLocal,
	"Root":        ArcLocal,
	"Inherit":     ArcInherit,
	"Inherits":    ArcInherit,
	"Variant":     ArcVariant,
	"Variants":    ArcVariant,
	"Reference":   ArcReference,
	"References":  ArcReference,
	"Payload":     ArcPayload,
	"Payloads":    ArcPayload,
	"Specialize":  ArcSpecialize,
	"Specializes": ArcSpecialize,
}

// ParseArcType resolves a wire spelling to an ArcType.
func ParseArcType(s string) (ArcType, bool) {
	a, ok := arcAliases[s]
	return a, ok
}

// Valid reports whether the value is one of the six known arcs.
func (a ArcType) Valid() bool {
	return a < arcCount
}

// Rank returns the LIVRPS precedence rank, 0 (Local) through 5
// (Specialize). Lower rank wins.
func (a ArcType) Rank() int {
	return int(a)
}

// StrongerThan reports whether a outranks other under LIVRPS.
func (a ArcType) StrongerThan(other ArcType) bool {
	return a.Rank() < other.Rank()
}

// Code returns the lowercase fragment used when synthesizing reason
// codes, e.g. "local" in arc_type_local_over_reference.
func (a ArcType) Code() string {
	if !a.Valid() {
		return fmt.Sprintf("arc%d", uint8(a))
	}
	return arcCodes[a]
}

func (a ArcType) String() string {
	if !a.Valid() {
		return fmt.Sprintf("ArcType(%d)", uint8(a))
	}
	return arcNames[a]
}
