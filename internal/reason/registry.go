package reason

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"opiniontrace/internal/opinion"
)

// Entry is the human-facing half of one reason code: a fixed detail
// string plus ordered remediation suggestions. Pure data.
type Entry struct {
	Detail      string
	Suggestions []string
}

// UnknownCodeError reports a lookup for a code the table does not
// carry. The emitted code set is closed, so this is an internal
// consistency failure, never a user mistake.
type UnknownCodeError struct {
	Code Code
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("reason code %q has no table entry", e.Code)
}

// Registry maps reason codes to their entries. Immutable once built;
// callers construct one per process (or reload a fresh instance, see
// Watcher) and pass it down explicitly.
type Registry struct {
	version string
	entries map[Code]Entry
}

// Version identifies the table revision: "builtin" for the compiled-in
// table, or the version string declared by a loaded table file.
func (r *Registry) Version() string { return r.version }

// Has reports whether the code has a table entry.
func (r *Registry) Has(c Code) bool {
	_, ok := r.entries[c]
	return ok
}

// Lookup returns the entry for a code. A missing entry is an
// UnknownCodeError; an entry with no suggestions is a valid outcome
// (a winning opinion needs no remediation).
func (r *Registry) Lookup(c Code) (Entry, error) {
	e, ok := r.entries[c]
	if !ok {
		return Entry{}, &UnknownCodeError{Code: c}
	}
	return e, nil
}

// Codes lists every code in the table, sorted.
func (r *Registry) Codes() []Code {
	out := make([]Code, 0, len(r.entries))
	for c := range r.entries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// scenario is one "If you want X: do Y" remediation pair.
type scenario struct {
	condition string
	action    string
}

func (s scenario) suggestion() string {
	return fmt.Sprintf("If you want %s: %s", s.condition, s.action)
}

// pairRow describes one cross-arc precedence outcome. The role strings
// explain what each arc is for, in the voice of a concrete example;
// the detail line is assembled from them at build time.
type pairRow struct {
	winner, user opinion.ArcType
	winnerRole   string
	userRole     string
	scenarios    []scenario
}

var titleCaser = cases.Title(language.English)

func (p pairRow) entry() Entry {
	detail := fmt.Sprintf("%s is for: %s | %s is for: %s",
		titleCaser.String(p.winner.Code()), p.winnerRole,
		titleCaser.String(p.user.Code()), p.userRole)
	suggestions := make([]string, len(p.scenarios))
	for i, s := range p.scenarios {
		suggestions[i] = s.suggestion()
	}
	return Entry{Detail: detail, Suggestions: suggestions}
}

var pairRows = []pairRow{
	{
		winner:     opinion.ArcLocal,
		user:       opinion.ArcInherit,
		winnerRole: "change just this one tree's color to red (instance-specific edits)",
		userRole:   "make all pine trees in the forest darker (mass-editing a category)",
		scenarios: []scenario{
			{"this specific instance to be different from the class", "keep the Local edit - this is working as intended"},
			{"all instances including this one to follow the class rules", "remove the Local edit and let the Inherit control it"},
			{"to make changes to all objects of this type", "edit the Inherit class itself instead of making Local overrides on each instance"},
		},
	},
	{
		winner:     opinion.ArcLocal,
		user:       opinion.ArcVariant,
		winnerRole: "force this asset to always use the red material (fixed instance settings)",
		userRole:   "let users switch between red/blue/green materials (switchable options)",
		scenarios: []scenario{
			{"this instance locked to a specific look regardless of variant selection", "keep the Local edit - it will always override the variant"},
			{"the variant switching to work on this instance", "remove the Local edit and let the Variant control the property"},
			{"to change what a variant option looks like for all instances", "edit within the Variant definition itself rather than overriding locally"},
		},
	},
	{
		winner:     opinion.ArcLocal,
		user:       opinion.ArcReference,
		winnerRole: "adjust this imported chair to be 10% bigger in my scene (scene-specific tweaks)",
		userRole:   "bring in the chair_model.usd asset (importing external content)",
		scenarios: []scenario{
			{"scene-specific adjustments to this Referenced asset", "keep the Local edit - this is the correct workflow"},
			{"the change to affect the asset everywhere it's used", "edit the source Referenced file instead of overriding locally"},
			{"the Referenced asset to work exactly as authored", "remove the Local override and use the asset as-is"},
		},
	},
	{
		winner:     opinion.ArcLocal,
		user:       opinion.ArcPayload,
		winnerRole: "make this heavy building visible/invisible in my scene (scene-level control)",
		userRole:   "load this 50GB city block only when needed (deferred loading of heavy content)",
		scenarios: []scenario{
			{"to override properties of this heavy asset in your scene", "keep the Local edit - Payloads are meant to be overridden locally"},
			{"the Payload to load with its original settings", "remove the Local edit and let the Payload define the defaults"},
			{"better performance by not loading heavy data", "unload the Payload rather than trying to override it locally"},
		},
	},
	{
		winner:     opinion.ArcLocal,
		user:       opinion.ArcSpecialize,
		winnerRole: "this specific material should be glossy=0.8 (explicit values)",
		userRole:   "if nothing else is set, use glossy=0.5 as the default (fallback values)",
		scenarios: []scenario{
			{"an explicit value on this instance", "keep the Local edit - Specializes are designed to be overridden"},
			{"to use the fallback default value", "remove the Local edit and let the Specialize provide it"},
			{"to change the default for all objects that use it", "edit the Specialize source instead of overriding each instance locally"},
		},
	},
	{
		winner:     opinion.ArcInherit,
		user:       opinion.ArcVariant,
		winnerRole: "make all cars in the scene have chrome wheels (mass-edit across types)",
		userRole:   "this car can switch between sport/luxury/economy versions (switchable configurations)",
		scenarios: []scenario{
			{"to enforce a property across all instances regardless of variant choice", "keep the Inherit - it's overriding variants intentionally"},
			{"variants to control the look independently per instance", "remove the Inherit or restructure so Inherit and Variants affect different properties"},
			{"each variant to have different inherited behavior", "create separate Inherit classes for each variant rather than one Inherit overriding all variants"},
		},
	},
	{
		winner:     opinion.ArcInherit,
		user:       opinion.ArcReference,
		winnerRole: "make all pine trees in the forest 10% darker (mass-editing a category of objects)",
		userRole:   "bring the hero_pine_tree.usd asset into this scene (importing specific assets)",
		scenarios: []scenario{
			{"to use this specific Referenced asset with its own unique properties", "remove the Inherit or move your Reference to a different part of the hierarchy where the Inherit doesn't apply"},
			{"all objects of this type to follow the same class rules consistently", "keep the Inherit and remove the Reference - the Inherit is doing its job by enforcing consistency"},
			{"to combine both (use the class template but add specific details from a Reference)", "restructure your setup: put the Reference under a child prim, or make sure the Inherit and Reference affect different properties, or use Variants within the inherited class instead"},
			{"to make just this one instance different from the class", "remove the Inherit from this instance and add a Local override instead - the Reference can then work as intended"},
		},
	},
	{
		winner:     opinion.ArcInherit,
		user:       opinion.ArcPayload,
		winnerRole: "all buildings should have this lighting rig (mass-applying properties to categories)",
		userRole:   "load this detailed building model only when working on it (deferred loading)",
		scenarios: []scenario{
			{"to apply consistent properties to all Payload instances without loading them", "keep the Inherit - this is a powerful optimization pattern"},
			{"the Payload's authored data to control the instance", "remove the Inherit or make it affect different properties"},
			{"to mass-edit Payload instances while keeping them unloaded", "use Inherits on the Payload wrapper prims - this lets you control visibility, transforms, etc. without loading heavy geometry"},
		},
	},
	{
		winner:     opinion.ArcInherit,
		user:       opinion.ArcSpecialize,
		winnerRole: "all metal materials get roughness=0.2 (active mass-edits)",
		userRole:   "if no one sets roughness, default to 0.5 (passive fallbacks)",
		scenarios: []scenario{
			{"to actively enforce a value across all instances", "keep the Inherit - it's designed to override Specializes"},
			{"Specializes to provide the default", "remove the Inherit - but note that Specializes are meant to be overridden by stronger arcs"},
			{"different defaults for different categories", "use Inherits to define category-specific rules rather than relying on Specializes alone"},
		},
	},
	{
		winner:     opinion.ArcVariant,
		user:       opinion.ArcReference,
		winnerRole: "switch this prop between damaged/pristine versions (selectable options within an asset)",
		userRole:   "bring in the prop_base.usd asset (importing the asset foundation)",
		scenarios: []scenario{
			{"the variant selection to control what's visible", "keep the Variant - variants often contain References inside them"},
			{"the Reference to always contribute regardless of variant", "move the Reference outside/above the Variant in the hierarchy"},
			{"different References for each variant option", "put References inside each variant definition - this is a common pattern for LOD switching"},
		},
	},
	{
		winner:     opinion.ArcVariant,
		user:       opinion.ArcPayload,
		winnerRole: "switch between summer/winter/fall versions of this landscape (seasonal variants)",
		userRole:   "defer loading the heavy landscape geometry (performance management)",
		scenarios: []scenario{
			{"to switch between different heavy assets efficiently", "put Payloads inside each Variant option - users can switch variants without loading all options"},
			{"the Payload to always load regardless of variant", "place the Payload outside the Variant in the hierarchy"},
			{"variant switching without loading heavy data", "use Variants that contain different Payload references - this is the recommended pattern for LOD variants"},
		},
	},
	{
		winner:     opinion.ArcVariant,
		user:       opinion.ArcSpecialize,
		winnerRole: "switch this character between child/teen/adult body types (distinct options)",
		userRole:   "if no body type is chosen, default to adult (fallback)",
		scenarios: []scenario{
			{"explicit variant control", "keep the Variant - it's designed to override Specializes"},
			{"the Specialize fallback to work", "remove the Variant or ensure variants don't define the same properties"},
			{"variants with smart defaults", "use Specializes to set base values, then Variants to offer explicit choices - they work well together"},
		},
	},
	{
		winner:     opinion.ArcReference,
		user:       opinion.ArcPayload,
		winnerRole: "bring in the building_exterior.usd (always-loaded modular content)",
		userRole:   "defer loading building_interior.usd until needed (optional heavy content)",
		scenarios: []scenario{
			{"the lightweight exterior always loaded and interior optionally loaded", "use Reference for exterior, Payload for interior - this is the standard pattern"},
			{"both to be deferrable", "convert the Reference to a Payload so users can choose what to load"},
			{"the Payload's data to be accessible", "remove the blocking Reference or ensure they target different parts of the namespace"},
			{"to see what's preventing your Payload from working", "check if a Reference is already bringing in similar data and causing a conflict"},
		},
	},
	{
		winner:     opinion.ArcReference,
		user:       opinion.ArcSpecialize,
		winnerRole: "bring in the metal_shader.usd asset (explicit asset inclusion)",
		userRole:   "if no shader is assigned, use default_gray.usd (fallback)",
		scenarios: []scenario{
			{"a specific shader assigned", "keep the Reference - it's designed to override Specializes"},
			{"to rely on the fallback", "remove the Reference and let Specializes provide the default"},
			{"References with smart fallbacks", "use Specializes for defaults and References for explicit assignments - this is a good pattern for optional overrides"},
		},
	},
	{
		winner:     opinion.ArcPayload,
		user:       opinion.ArcSpecialize,
		winnerRole: "load this heavy asset when needed (deferred loading of substantial content)",
		userRole:   "use these fallback values if nothing else is set (defaults)",
		scenarios: []scenario{
			{"the Payload's data to define the asset", "keep the Payload - it should override Specializes"},
			{"defaults before the Payload loads", "use Specializes to set preview/proxy values that show until the full Payload is loaded"},
			{"smart loading", "Specializes can provide lightweight placeholders while Payloads bring in full detail - this is useful for progressive loading"},
		},
	},
}

// fixedRows covers the non-pair codes.
var fixedRows = map[Code]Entry{
	UserLayerNotFound: {
		Detail: "Specified user layer has no opinion for this attribute",
		Suggestions: []string{
			scenario{"to add an opinion in this layer", "author an opinion in your layer"}.suggestion(),
			scenario{"to verify layer setup", "verify correct layer identifier and check if layer is part of stage composition"}.suggestion(),
		},
	},
	UserLayerIsWinning: {
		Detail:      "User's opinion is already the winning opinion",
		Suggestions: []string{},
	},
	ValueExplicitlyBlocked: {
		Detail: "Attribute has explicit value block (Sdf.ValueBlock)",
		Suggestions: []string{
			scenario{"this attribute to have a value", "remove the blocking opinion from winning layer"}.suggestion(),
			scenario{"to override the block", "author opinion with stronger arc type or in stronger sublayer"}.suggestion(),
			scenario{"to verify the block is intentional", "check if attribute blocking is intentional for this workflow"}.suggestion(),
		},
	},
	NoOpinionsFound: {
		Detail: "No layer provides an opinion for this attribute",
		Suggestions: []string{
			scenario{"this attribute to have a value", "author an opinion in any layer that contributes to the prim"}.suggestion(),
			scenario{"to check for schema fallbacks", "inspect the prim's schema - unauthored attributes may still resolve to a fallback"}.suggestion(),
		},
	},
	SameArcTypeOrder: {
		Detail: "Both opinions use the same arc type; composition-graph traversal order placed the winner's contributing site ahead of yours",
		Suggestions: []string{
			scenario{"your arc to take priority", "use prepend instead of append for arc composition"}.suggestion(),
			scenario{"different arc ordering", "reorder arcs in composition list"}.suggestion(),
			scenario{"your opinion to win", "author opinion in earlier arc"}.suggestion(),
		},
	},
	LayerMuted: {
		Detail: "User layer is muted; opinions ignored by stage",
		Suggestions: []string{
			scenario{"this layer's opinions to be active", "unmute layer via stage.UnmuteLayer(layer_identifier)"}.suggestion(),
			scenario{"to see which layers are muted", "check GetMutedLayers() for active mutes"}.suggestion(),
			scenario{"to keep the layer muted", "no action needed - layer will remain muted"}.suggestion(),
		},
	},
	PayloadNotLoaded: {
		Detail: "Prim's payload is not loaded; opinions inside are inaccessible",
		Suggestions: []string{
			scenario{"to access the Payload's opinions", "load payload via stage.Load(prim_path)"}.suggestion(),
			scenario{"all payloads loaded by default", "set LoadAll policy when opening stage"}.suggestion(),
			scenario{"to check loading configuration", "check GetLoadRules() for current loading rules"}.suggestion(),
			scenario{"to keep the Payload unloaded for performance", "no action needed - this is working as intended"}.suggestion(),
		},
	},
}

// Builtin returns the compiled-in registry covering every emittable
// code.
func Builtin() *Registry {
	entries := make(map[Code]Entry, len(fixedRows)+len(pairRows))
	for c, e := range fixedRows {
		entries[c] = e
	}
	for _, row := range pairRows {
		entries[ArcPairCode(row.winner, row.user)] = row.entry()
	}
	return &Registry{version: "builtin", entries: entries}
}
