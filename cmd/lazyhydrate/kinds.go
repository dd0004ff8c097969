package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazyhydrate/pkg/strategy"
)

func kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the hydration trigger kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tTAG\tVALUE\tDEFAULT")
			for _, d := range strategy.All() {
				fmt.Fprintf(w, "%s\tLazy%s…\t%s\t%s\n", d.Kind, d.Suffix, d.Expected, d.DefaultString())
			}
			return w.Flush()
		},
	}
}
