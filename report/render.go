package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

const ruler = "--------------------------------------------------------------------------------"

// Render writes a human-readable table of the collected snapshots. Empty
// snapshots (zero node ID) are skipped.
func Render(w io.Writer, coordinator membership.NodeID, snapshots []resource.Snapshot, now time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "========== cluster report (coordinator %d) ==========\n", coordinator)

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tCPU\tMEMORY\tLOAD (1m)\tCPUS\tUPTIME\tCLOCK\t")

	active := 0

	for i := range snapshots {
		s := &snapshots[i]
		if s.NodeID == 0 {
			continue
		}

		fmt.Fprintf(tw, "%d\t%.2f%%\t%.2f%%\t%s\t%d\t%s\t%d\t\n",
			s.NodeID,
			s.CPUPercent,
			s.MemPercent,
			formatLoad(s.LoadAvg),
			s.Processors,
			s.Uptime.Truncate(time.Second),
			s.Clock,
		)

		active++
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString(ruler + "\n")
	fmt.Fprintf(&b, "generated at: %s | active nodes: %d\n", now.Format("2006/01/02 15:04:05"), active)

	_, err := io.WriteString(w, b.String())

	return err
}

func formatLoad(v float64) string {
	if v < 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.2f", v)
}
