package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server and provider health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := opts.Client().Health(cmd.Context())
			if err != nil {
				return err
			}

			if opts.Output == outputJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			store := "reachable"
			if !report.StoreReachable {
				store = "UNREACHABLE"
			}
			fmt.Fprintf(out, "Store: %s\n", store)
			fmt.Fprintf(out, "Cache: %d entries, %d hits / %d misses\n\n",
				report.Cache.Size, report.Cache.Hits, report.Cache.Misses)

			names := make([]string, 0, len(report.Providers))
			for name := range report.Providers {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tBREAKER\tERR RATE\tAVG LATENCY\tENABLED")
			for _, name := range names {
				p := report.Providers[name]
				fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%.0fms\t%t\n",
					name, p.BreakerState, p.RecentErrorRate*100, p.AvgLatencyMS, p.Enabled)
			}
			return w.Flush()
		},
	}
}
