package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/labelwise/labelwise/pkg/client"
	"github.com/labelwise/labelwise/pkg/errors"
	"github.com/labelwise/labelwise/pkg/types/analysis"
)

func newAnalyzeCommand(opts *RootOptions) *cobra.Command {
	var (
		productName string
		userContext string
		fromFile    string
	)

	cmd := &cobra.Command{
		Use:   "analyze [ingredient ...]",
		Short: "Analyze a product ingredient list",
		Long: `Analyze resolves every ingredient on the list and prints the
per-ingredient results plus the product-level suitability verdict.

Ingredients are taken from the arguments, or from a file (--file) with one
ingredient per line or a single comma-separated INCI line.`,
		Example: `  labelwise analyze "Aqua" "Glycerin" "Phenoxyethanol"
  labelwise analyze --product "Daily Cleanser" --file inci.txt
  labelwise analyze --context "sensitive skin" "Retinol" "Fragrance"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A single quoted INCI line ("Aqua, Glycerin, ...") is as valid
			// as one argument per ingredient.
			var ingredients []string
			for _, arg := range args {
				for _, part := range strings.Split(arg, ",") {
					if part = strings.TrimSpace(part); part != "" {
						ingredients = append(ingredients, part)
					}
				}
			}
			if fromFile != "" {
				fromList, err := readIngredientFile(fromFile)
				if err != nil {
					return err
				}
				ingredients = append(ingredients, fromList...)
			}
			if len(ingredients) == 0 {
				return errors.InvalidInput("no ingredients given; pass them as arguments or via --file")
			}

			result, err := opts.Client().Analyze(cmd.Context(), client.AnalyzeRequest{
				ProductName: productName,
				Ingredients: ingredients,
				UserContext: userContext,
			})
			if err != nil {
				return err
			}

			if opts.Output == outputJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printAnalysisTable(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&productName, "product", "", "product name to echo in the result")
	cmd.Flags().StringVar(&userContext, "context", "", "free-text user context, e.g. \"sensitive skin\"")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read the ingredient list from a file")
	return cmd
}

// readIngredientFile accepts either one ingredient per line or a single
// comma-separated INCI declaration.
func readIngredientFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "reading ingredient file")
	}
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		for _, part := range strings.Split(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, nil
}

func printAnalysisTable(cmd *cobra.Command, result *analysis.ProductAnalysis) {
	out := cmd.OutOrStdout()
	if result.ProductName != "" {
		fmt.Fprintf(out, "Product: %s\n", result.ProductName)
	}
	fmt.Fprintf(out, "Verdict: %s (avg eco score %d)\n\n", result.Suitability, result.AvgEcoScore)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INGREDIENT\tECO\tRISK\tSOURCES")
	for _, ing := range result.Ingredients {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			ing.CanonicalName, ing.EcoScore, ing.RiskLevel, strings.Join(ing.Sources, ","))
	}
	w.Flush()

	if result.Recommendations != "" {
		fmt.Fprintf(out, "\n%s\n", result.Recommendations)
	}
}
