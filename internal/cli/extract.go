package cli

import (
	"github.com/spf13/cobra"

	"github.com/BartekS5/opendota-extract/internal/etl"
)

type ExtractOptions struct {
	Endpoints   []string
	CatalogFile string
	RunDate     string
	LocalDir    string
	DryRun      bool
	Concurrency int
	Pages       int
	MatchIDs    []string
}

func addExtractFlags(cmd *cobra.Command, opts *ExtractOptions) {
	cmd.Flags().StringSliceVarP(&opts.Endpoints, "endpoints", "e", nil, "Only extract these endpoints (default: all)")
	cmd.Flags().StringVarP(&opts.CatalogFile, "catalog", "c", "", "Path to an endpoint catalog JSON file replacing the built-in catalog")
	cmd.Flags().StringVar(&opts.LocalDir, "local-dir", "", "Write Parquet files to this directory instead of S3")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Fetch and normalize but do not export")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "Endpoints extracted in parallel (overrides EXTRACT_CONCURRENCY)")
	cmd.Flags().IntVar(&opts.Pages, "pages", 0, "Pages pulled from paginated match listings (overrides OPENDOTA_PAGES)")
	cmd.Flags().StringSliceVar(&opts.MatchIDs, "match-ids", nil, "Match ids for match_timeline / match_players (overrides OPENDOTA_MATCH_IDS)")
}

func NewExtractCmd(global *GlobalOptions) *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run one extraction and exit",
		Long: `Run one extraction of every configured endpoint.

Exit status: 0 when every endpoint succeeded, 2 on partial failure,
1 when no endpoint succeeded or the run could not start.`,
		RunE: func(c *cobra.Command, args []string) error {
			report, err := runExtraction(c.Context(), global, opts, c.OutOrStdout())
			if err != nil {
				return err
			}
			if code := report.ExitCode(); code != etl.ExitSuccess {
				return &ExitError{Code: code, Status: string(report.Status())}
			}
			return nil
		},
	}

	addExtractFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.RunDate, "run-date", "", "Run date used in output paths, YYYY-MM-DD (default: today in RUN_TIMEZONE)")

	return cmd
}
