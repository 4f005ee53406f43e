// Package render formats engine and scheduler state as text for the
// shell to print. It plays the role of the teacher's ModeString and
// PrintFile helpers from cmd/fsexplorer, adapted for a filesystem that
// has no permission bits: the type letter is all there is to show
// besides size and name.
package render

import (
	"fmt"
	"strings"

	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/scheduler"
)

// TypeChar returns the single letter ls prints in front of a listing
// line: 'd' for a directory, '-' for a regular file.
func TypeChar(t int32) byte {
	if common.InodeType(t) == common.TypeDir {
		return 'd'
	}
	return '-'
}

// Entry describes one line of a directory listing: a name paired with
// the inode it resolves to.
type Entry struct {
	Name  string
	Inode *common.DiskInode
}

// LS formats entries the way "ls -l" would: type letter, size, name,
// one per line, in the order given.
func LS(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%c  %8d  %s\n", TypeChar(e.Inode.Type), e.Inode.Size, e.Name)
	}
	return b.String()
}

// Cat renders a regular file's contents as-is; it does not append a
// trailing newline of its own, since the file's own bytes may already
// end in one.
func Cat(data []byte) string {
	return string(data)
}

// Check formats the findings from Engine.Check as a report, one
// finding per line, or a single "clean" line when there are none.
func Check(findings []string) string {
	if len(findings) == 0 {
		return "filesystem is clean\n"
	}
	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "fsck: %s\n", f)
	}
	return b.String()
}

// ProcessTable formats the scheduler's process list the way "ps" would:
// pid, state, remaining/burst time, waiting time, command.
func ProcessTable(procs []*scheduler.Process, algo scheduler.Algorithm) string {
	var b strings.Builder
	fmt.Fprintf(&b, "algorithm: %s\n", algo)
	fmt.Fprintf(&b, "%-6s %-10s %8s %8s %8s  %s\n", "PID", "STATE", "REMAIN", "BURST", "WAIT", "COMMAND")
	for _, p := range procs {
		fmt.Fprintf(&b, "%-6d %-10s %8d %8d %8d  %s\n",
			p.PID, p.State, p.RemainingTime, p.BurstTime, p.WaitingTime, p.Command)
	}
	return b.String()
}
