package telemetry

import (
	"bytes"
	"fmt"

	"github.com/comalice/cyclefsm"
)

// ExportDOT generates Graphviz DOT source for table. When current is given
// that state is highlighted.
func ExportDOT(name string, table *cyclefsm.Table, current ...cyclefsm.StateID) string {
	active := make(map[cyclefsm.StateID]bool, len(current))
	for _, id := range current {
		active[id] = true
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	buf.WriteString(`  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	for _, id := range table.States() {
		style := ""
		if active[id] {
			style = ` style="rounded,filled" fillcolor=lightgreen`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", table.Name(id), table.Name(id), style)
	}
	for _, d := range table.Descriptors() {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", table.Name(d.From), table.Name(d.To), string(d.Trigger))
	}

	buf.WriteString("}\n")
	return buf.String()
}
