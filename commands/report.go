package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/laomaiweng/uidmapshift"
)

// logReporter prints one line per visited entry in the style of the
// classic uidmapshift tools. It only handles presentation; skip and
// shift accounting lives in the engine, which reports outcomes whether
// or not we print them.
type logReporter struct {
	quiet bool
}

func (r *logReporter) Report(o *uidmapshift.Outcome) {
	if r.quiet {
		return
	}

	suffix := ""
	if o.Dir {
		suffix = "/"
	}

	switch o.State {
	case uidmapshift.Excluded:
		fmt.Fprintf(os.Stdout, "%s%s: skip\n", o.Path, suffix)
	case uidmapshift.Unchanged:
		fmt.Fprintf(os.Stdout, "%s%s: %d:%d skip\n", o.Path, suffix, o.UID, o.GID)
	case uidmapshift.Shifted:
		var b strings.Builder
		fmt.Fprintf(&b, "%s%s: %d:%d -> %d:%d", o.Path, suffix, o.UID, o.GID, o.NewUID, o.NewGID)
		for _, c := range o.ACLChanges {
			fmt.Fprintf(&b, " %s", c)
		}
		for _, c := range o.DefaultACLChanges {
			fmt.Fprintf(&b, " %s", c)
		}
		fmt.Fprintln(os.Stdout, b.String())
	}
}
