package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newIngredientCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingredient <name>",
		Short: "Look up a single ingredient",
		Example: `  labelwise ingredient "Sodium Lauryl Sulfate"
  labelwise ingredient -o json glycerin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := opts.Client().Ingredient(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.Output == outputJSON {
				return printJSON(cmd.OutOrStdout(), record)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:       %s\n", record.CanonicalName)
			fmt.Fprintf(out, "Eco score:  %d\n", record.EcoScore)
			fmt.Fprintf(out, "Risk level: %s\n", record.RiskLevel)
			sources := make([]string, len(record.Sources))
			for i, s := range record.Sources {
				sources[i] = string(s)
			}
			fmt.Fprintf(out, "Sources:    %s\n", strings.Join(sources, ", "))
			if record.Benefits != "" {
				fmt.Fprintf(out, "Benefits:   %s\n", record.Benefits)
			}
			if record.RisksDetailed != "" {
				fmt.Fprintf(out, "Risks:      %s\n", record.RisksDetailed)
			}
			fmt.Fprintf(out, "Updated:    %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
