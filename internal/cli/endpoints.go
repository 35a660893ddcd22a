package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewEndpointsCmd() *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the endpoints a run extracts",
		RunE: func(c *cobra.Command, args []string) error {
			catalog, err := loadCatalog(catalogFile, 1)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATH\tSTRATEGY\tCOLUMNS\tNOTES")
			for _, ep := range catalog {
				notes := ""
				if ep.Pagination != nil {
					notes = "paginated by " + ep.Pagination.CursorParam
				}
				if ep.MatchScoped {
					notes = "one file per match id"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", ep.Name, ep.Path, ep.Strategy, len(ep.Columns), notes)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&catalogFile, "catalog", "c", "", "Path to an endpoint catalog JSON file")
	return cmd
}
