package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"opiniontrace/internal/reason"
)

// Pretty renders the report for a terminal: a query header, the
// opinion stack as an aligned table with the user's row marked, then
// the diagnosis and its suggestions. Layout is stable across runs.
func Pretty(w io.Writer, out Output, opts PrettyOpts) {
	p := newPalette(opts.Color)

	fmt.Fprintf(w, "%s  @ %s\n", p.head(out.Query.PrimPath+"."+out.Query.Attribute), out.Query.Stage)
	if out.Query.UserLayer != nil {
		fmt.Fprintf(w, "layer %s\n", *out.Query.UserLayer)
	}
	if out.Query.Time != nil {
		fmt.Fprintf(w, "time %s\n", strconv.FormatFloat(*out.Query.Time, 'f', -1, 64))
	}

	if out.Error != nil {
		fmt.Fprintf(w, "%s %s\n", p.bad("error"), *out.Error)
		return
	}

	if out.ResolvedValue != nil {
		line := string(out.ResolvedValue)
		if out.ResolvedValueType != nil {
			line += " (" + *out.ResolvedValueType + ")"
		}
		fmt.Fprintf(w, "resolved %s\n", line)
	} else {
		fmt.Fprintln(w, "resolved none")
	}

	fmt.Fprintln(w)
	if len(out.Opinions) == 0 {
		fmt.Fprintln(w, "no opinions")
	} else {
		writeStackTable(w, p, out.Opinions, valueCap(opts))
	}

	if d := out.Diagnosis; d != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", p.head("reason"), p.reason(d.Reason))
		fmt.Fprintf(w, "  %s\n", d.ReasonDetail)
		if len(d.Suggestions) > 0 {
			fmt.Fprintln(w, p.head("suggestions"))
			for i, s := range d.Suggestions {
				fmt.Fprintf(w, "  %d. %s\n", i+1, s)
			}
		}
	}
}

func writeStackTable(w io.Writer, p *palette, ops []OpinionJSON, capWidth int) {
	head := [5]string{"#", "arc", "layer", "value", "status"}
	rows := make([][5]string, 0, len(ops))
	for _, op := range ops {
		val := strings.TrimSpace(string(op.Value))
		if val == "" {
			val = "-"
		}
		rows = append(rows, [5]string{
			strconv.Itoa(op.Index),
			op.ArcType,
			op.LayerDisplayName,
			truncateCell(val, capWidth),
			op.Status,
		})
	}

	widths := make([]int, len(head))
	for c, h := range head {
		widths[c] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			if l := runewidth.StringWidth(cell); l > widths[c] {
				widths[c] = l
			}
		}
	}

	cells := make([]string, 0, len(head))
	for c, h := range head {
		if c == len(head)-1 {
			cells = append(cells, h)
			break
		}
		cells = append(cells, runewidth.FillRight(h, widths[c]))
	}
	fmt.Fprintf(w, "  %s\n", p.head(strings.Join(cells, "  ")))

	for i, row := range rows {
		marker := "  "
		if ops[i].IsUserLayer {
			marker = p.mark("> ")
		}
		cells = cells[:0]
		cells = append(cells, runewidth.FillLeft(row[0], widths[0]))
		for c := 1; c < len(head)-1; c++ {
			cells = append(cells, runewidth.FillRight(row[c], widths[c]))
		}
		cells = append(cells, p.status(row[len(head)-1]))
		fmt.Fprintf(w, "%s%s\n", marker, strings.Join(cells, "  "))
	}
}

// valueCap folds an out-of-range width option to "no cap".
func valueCap(opts PrettyOpts) int {
	w, err := safecast.Conv[uint16](opts.Width)
	if err != nil {
		return 0
	}
	return int(w)
}

func truncateCell(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

type palette struct {
	head func(a ...interface{}) string
	good func(a ...interface{}) string
	warn func(a ...interface{}) string
	bad  func(a ...interface{}) string
	mark func(a ...interface{}) string
}

func newPalette(enabled bool) *palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprint
	}
	return &palette{
		head: mk(color.Bold),
		good: mk(color.FgGreen),
		warn: mk(color.FgYellow),
		bad:  mk(color.FgRed, color.Bold),
		mark: mk(color.FgCyan, color.Bold),
	}
}

func (p *palette) status(s string) string {
	switch s {
	case StatusWinning:
		return p.good(s)
	case StatusValueBlocked:
		return p.bad(s)
	default:
		return p.warn(s)
	}
}

func (p *palette) reason(code string) string {
	switch reason.Code(code) {
	case reason.UserLayerIsWinning:
		return p.good(code)
	case reason.ValueExplicitlyBlocked, reason.NoOpinionsFound:
		return p.bad(code)
	default:
		return p.warn(code)
	}
}
