// Package cli wires the extraction pipeline to the command line
// using the Cobra library.
package cli

import (
	"github.com/spf13/cobra"
)

// GlobalOptions are flags shared by every sub-command.
type GlobalOptions struct {
	Verbose bool
}

func NewRootCmd() *cobra.Command {
	global := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "opendota-extract",
		Short: "Extract Dota 2 statistics from OpenDota into Parquet files",
		Long: `opendota-extract pulls match, hero, team and league data from the OpenDota API,
normalizes every endpoint into a table and writes one Parquet file per endpoint per run
to S3 (or a local directory). Each run is independent and overwrites the files of the
same run date.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(NewExtractCmd(global), NewScheduleCmd(global), NewEndpointsCmd())

	return rootCmd
}
