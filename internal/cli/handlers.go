package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/BartekS5/opendota-extract/internal/config"
	"github.com/BartekS5/opendota-extract/internal/etl"
	"github.com/BartekS5/opendota-extract/pkg/database"
	"github.com/BartekS5/opendota-extract/pkg/logger"
	"github.com/BartekS5/opendota-extract/pkg/models"
)

func loadSettings(global *GlobalOptions, opts *ExtractOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if global != nil && global.Verbose {
		level = logger.DEBUG
	}
	if err := logger.InitLogger(cfg.LogFile, level); err != nil {
		return nil, err
	}

	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}
	if opts.Pages > 0 {
		cfg.Pages = opts.Pages
	}
	if len(opts.MatchIDs) > 0 {
		cfg.MatchIDs = opts.MatchIDs
	}
	return cfg, nil
}

func loadCatalog(path string, pages int) ([]models.Endpoint, error) {
	if path == "" {
		return etl.DefaultCatalog(pages), nil
	}
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return catalog.Endpoints, nil
}

func resolveRunDate(cfg *config.Config, flag string) (string, error) {
	if flag != "" {
		if _, err := time.Parse(time.DateOnly, flag); err != nil {
			return "", fmt.Errorf("invalid --run-date %q: expected YYYY-MM-DD", flag)
		}
		return flag, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return "", err
	}
	return time.Now().In(loc).Format(time.DateOnly), nil
}

// runExtraction performs one run. A returned error means the run could not
// start; endpoint failures are reported through the Report.
func runExtraction(ctx context.Context, global *GlobalOptions, opts *ExtractOptions, out io.Writer) (*etl.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadSettings(global, opts)
	if err != nil {
		return nil, err
	}

	sinkKind := config.SinkS3
	if opts.LocalDir != "" {
		sinkKind = config.SinkLocal
	}
	if !opts.DryRun {
		if err := cfg.Validate(sinkKind); err != nil {
			return nil, err
		}
	}

	catalog, err := loadCatalog(opts.CatalogFile, cfg.Pages)
	if err != nil {
		return nil, err
	}
	endpoints, err := etl.ExpandEndpoints(catalog, opts.Endpoints, cfg.MatchIDs)
	if err != nil {
		return nil, err
	}

	runDate, err := resolveRunDate(cfg, opts.RunDate)
	if err != nil {
		return nil, err
	}

	client := etl.NewClient(etl.ClientConfig{
		BaseURL:    cfg.APIBaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.HTTPTimeout,
		RatePerSec: cfg.RatePerSec,
	})

	var exporter *etl.Exporter
	var mirror etl.Mirror
	if !opts.DryRun {
		var sink etl.Sink
		if sinkKind == config.SinkLocal {
			sink = etl.NewLocalSink(opts.LocalDir)
		} else {
			s3Client, err := database.NewS3Client(ctx, database.S3Options{
				AccessKeyID:     cfg.AWSAccessKeyID,
				SecretAccessKey: cfg.AWSSecretAccessKey,
				Region:          cfg.AWSRegion,
				EndpointURL:     cfg.AWSEndpointURL,
			})
			if err != nil {
				return nil, err
			}
			sink = etl.NewS3Sink(s3Client, cfg.S3Bucket)
		}
		exporter = etl.NewExporter(sink, cfg.S3Prefix)

		if cfg.MongoConnString != "" {
			mongoClient, err := database.ConnectMongo(cfg.MongoConnString)
			if err != nil {
				return nil, err
			}
			defer func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mongoClient.Disconnect(disconnectCtx)
			}()
			mirror = etl.NewMongoMirror(mongoClient, cfg.MongoDatabase)
		}
	}

	var runLog *etl.RunLog
	if cfg.SQLConnString != "" {
		sqlDB, err := database.ConnectSQL(cfg.SQLConnString)
		if err != nil {
			return nil, err
		}
		defer sqlDB.Close()
		runLog = etl.NewRunLog(sqlDB)
	}

	pipeline := etl.NewPipeline(etl.PipelineConfig{
		Endpoints: endpoints,
		Fetcher:   client,
		Exporter:  exporter,
		Mirror:    mirror,
		Policy: etl.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BackoffBase,
			MaxDelay:    cfg.BackoffMax,
			Multiplier:  2,
		},
		Concurrency: cfg.Concurrency,
		RunTimeout:  cfg.RunTimeout,
		RunDate:     runDate,
		DryRun:      opts.DryRun,
	})

	report := pipeline.Run(ctx)
	if err := report.WriteSummary(out); err != nil {
		logger.Warnf("Could not write run summary: %v", err)
	}

	if runLog != nil {
		logCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := runLog.Record(logCtx, report); err != nil {
			logger.Warnf("Could not record run log: %v", err)
		}
	}

	return report, nil
}
