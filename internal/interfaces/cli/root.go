// Package cli implements the labelwise command line client. Every command
// talks to a running labelwise server over its REST API; nothing here opens
// database or broker connections.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/labelwise/labelwise/pkg/client"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Build-time metadata, injected via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

// RootOptions holds the persistent flags shared by every subcommand.
type RootOptions struct {
	ServerAddr string
	Output     string
	Timeout    time.Duration
}

// Client builds the API client configured by the persistent flags.
func (o *RootOptions) Client() *client.Client {
	return client.New(o.ServerAddr, o.Timeout)
}

func (o *RootOptions) validate() error {
	if o.Output != outputJSON && o.Output != outputTable {
		return errors.Newf(errors.CodeInvalidInput, "unsupported output format %q (json|table)", o.Output)
	}
	return nil
}

// NewRootCommand assembles the labelwise CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:   "labelwise",
		Short: "Cosmetic ingredient analysis client",
		Long: `labelwise resolves cosmetic ingredient lists against regulatory and
consumer-safety databases and reports eco scores, risk levels, and a
product-level suitability verdict.

All commands require a reachable labelwise server (see --server).`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ServerAddr, "server", "http://localhost:8080", "labelwise server address")
	flags.StringVarP(&opts.Output, "output", "o", outputTable, "output format (json|table)")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newIngredientCommand(opts),
		newHealthCommand(opts),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
