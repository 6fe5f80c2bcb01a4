package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

type explainTopic struct {
	title string
	text  string
}

// explainTopics holds the reference notes printed by the explain
// command. The texts are shared vocabulary with the report renderer,
// so a term seen in a diagnosis can be looked up verbatim.
var explainTopics = map[string]explainTopic{
	"livrps": {
		title: "Why is my layer stack not in LIVRPS order?",
		text: `LIVRPS (Local, Inherits, Variants, References, Payloads, Specializes)
describes the strength ordering of composition arcs within each
LayerStack, and it applies recursively. When you see what appears to be
an "out of order" stack, such as a Reference opinion appearing stronger
than a Variant opinion, it's likely because those arcs are not siblings
at the same composition depth. LIVRPS ordering applies to arcs that are
direct children of the same parent node in the composition graph. When
one arc is nested inside another (for example, a Variant defined inside
a referenced file), the parent arc's direct opinions are evaluated
before recursing into child arcs. In this case, the "Local" opinion
within the referenced layer stack is stronger than the "Variant"
opinion within that same layer stack, following the L > V rule of
LIVRPS at that level.

For more details, see the official USD documentation on LIVRPS Strength
Ordering (https://openusd.org/release/glossary.html#liverps-strength-ordering),
which states that for each arc type, USD "recursively applies LIVERP
evaluation on the targeted LayerStack." Also see the PcpPrimIndex
documentation (https://openusd.org/release/api/class_pcp_prim_index.html)
for understanding how the composition graph is structured with
parent-child node relationships.`,
	},
	"arcs": {
		title: "Composition arc types, strongest to weakest",
		text: `Every opinion reaches the composed stage through a composition arc.
Within one layer stack the arcs are ordered by strength:

  local        opinions authored directly in the stage's root or
               session layer stack, including sublayers
  inherits     opinions pulled in from an inherited class prim
  variant      opinions from the selected variant of a variant set
  reference    opinions from a referenced layer stack
  payload      opinions from a payloaded layer stack; only visible
               while the payload is loaded
  specializes  opinions from a specialized prim, always weakest

A stronger arc type beats a weaker one regardless of where in the file
the opinions sit. When two opinions share the same arc type, the
composition graph's traversal order decides: the site reached first
wins, which is why prepended references beat appended ones.`,
	},
	"value-block": {
		title: "Value blocks (Sdf.ValueBlock)",
		text: `A value block is an authored opinion whose content is the special
Sdf.ValueBlock marker instead of a value. It does not merely hide
weaker opinions; it makes the attribute resolve as if nothing were
authored at all, so the composed value falls back to the schema
fallback or to nothing.

In a trace report a blocking opinion carries "value": null together
with a "value-blocked" status. When the block is the winning opinion,
the resolved value is null as well. To get a value back, remove the
blocking opinion from the winning layer, or author an opinion through a
stronger arc or a stronger sublayer so the block itself loses.`,
	},
	"muting": {
		title: "Layer muting",
		text: `A stage can mute any layer at runtime via stage.MuteLayer(identifier).
Opinions authored in a muted layer stay in the layer on disk but are
ignored by composition entirely, exactly as if the layer were empty.
Muting is a stage-level session setting, so two stages opened on the
same files can disagree about it.

A trace that finds your opinion in a muted layer reports layer_muted
instead of comparing arc strength, since no amount of arc strength
helps while the layer is muted. Check stage.GetMutedLayers() for the
active mutes and stage.UnmuteLayer(identifier) to lift one.`,
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain [topic]",
	Short: "Print reference notes for reading a diagnosis",
	Long: `Print reference notes on the composition concepts a diagnosis talks
about. Without a topic, list what is available.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		if len(args) == 0 {
			names := make([]string, 0, len(explainTopics))
			for name := range explainTopics {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Fprintln(w, "Topics:")
			for _, name := range names {
				fmt.Fprintf(w, "  %-12s %s\n", name, explainTopics[name].title)
			}
			return nil
		}

		topic, ok := explainTopics[args[0]]
		if !ok {
			return fmt.Errorf("unknown topic %q (want livrps, value-block, arcs or muting)", args[0])
		}
		fmt.Fprintln(w, topic.title)
		fmt.Fprintln(w)
		fmt.Fprintln(w, topic.text)
		return nil
	},
}
