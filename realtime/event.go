package realtime

import (
	"sort"
)

// Command is a control operation queued from any goroutine and applied on
// the loop goroutine at the start of the next tick.
type Command func()

// commandWithMeta adds sequencing metadata for deterministic ordering.
type commandWithMeta struct {
	Command     Command
	SequenceNum uint64
	Priority    int
}

// sortCommands orders a batch: higher priority first, then submission
// order. The sort is stable so equal keys keep their relative order.
func sortCommands(cmds []commandWithMeta) {
	sort.SliceStable(cmds, func(i, j int) bool {
		if cmds[i].Priority != cmds[j].Priority {
			return cmds[i].Priority > cmds[j].Priority
		}
		return cmds[i].SequenceNum < cmds[j].SequenceNum
	})
}
