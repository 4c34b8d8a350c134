package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/palmgate/palmgate/internal/catalog"
)

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources palmgate can browse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RESOURCE\tTITLE\tSTATUSES")
			for _, e := range catalog.All() {
				statuses := "-"
				if len(e.Statuses) > 0 {
					statuses = strings.Join(e.Statuses, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Resource, e.Title, statuses)
			}
			return tw.Flush()
		},
	}
}
