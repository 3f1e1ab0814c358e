package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/cairn/pkg/trace"
)

// traceCmd represents the trace command
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect NDJSON trace files",
}

var traceCatCmd = &cobra.Command{
	Use:   "cat <trace.ndjson>",
	Short: "Render a trace file readably, one event per line",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		events, err := trace.ReadAll(args[0])
		if err != nil {
			fatal("Failed to read trace", err)
		}
		for _, ev := range events {
			fmt.Println(formatTraceEvent(ev))
		}
		fmt.Printf("%d event(s)\n", len(events))
	},
}

// formatTraceEvent renders one flat trace record as "ts event k=v ...",
// with the fields sorted for stable output.
func formatTraceEvent(ev map[string]any) string {
	name, _ := ev["event"].(string)
	ts, _ := ev["ts"].(string)

	keys := make([]string, 0, len(ev))
	for k := range ev {
		if k == "event" || k == "ts" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-24s", ts, name)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, ev[k])
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceCatCmd)
}
