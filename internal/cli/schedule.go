package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/BartekS5/opendota-extract/pkg/logger"
)

func NewScheduleCmd(global *GlobalOptions) *cobra.Command {
	opts := &ExtractOptions{}
	var spec string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Stay running and extract on a cron schedule (default: monthly)",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadSettings(global, opts)
			if err != nil {
				return err
			}
			if spec == "" {
				spec = cfg.ScheduleSpec
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			parent := c.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			job := func() {
				report, err := runExtraction(ctx, global, opts, c.OutOrStdout())
				if err != nil {
					logger.Errorf("Scheduled run could not start: %v", err)
					return
				}
				logger.Infof("Scheduled run %s finished with status %s", report.RunID, report.Status())
			}

			sched := cron.New(
				cron.WithLocation(loc),
				cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
			)
			schedule, err := cron.ParseStandard(spec)
			if err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", spec, err)
			}
			id := sched.Schedule(schedule, cron.FuncJob(job))

			sched.Start()
			logger.Infof("Scheduler started with %q (%s). Next run: %s", spec, loc, schedule.Next(time.Now().In(loc)))

			if runNow {
				go sched.Entry(id).WrappedJob.Run()
			}

			<-ctx.Done()
			logger.Info("Stopping scheduler, waiting for a running extraction to finish")
			<-sched.Stop().Done()
			return nil
		},
	}

	addExtractFlags(cmd, opts)
	cmd.Flags().StringVar(&spec, "cron", "", "Cron expression (overrides EXTRACT_SCHEDULE, default \"0 3 1 * *\")")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Also run once immediately after starting")

	return cmd
}
