package etl

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/BartekS5/opendota-extract/pkg/logger"
	"github.com/BartekS5/opendota-extract/pkg/models"
	"github.com/BartekS5/opendota-extract/pkg/utils"
)

type PipelineConfig struct {
	Endpoints   []models.Endpoint
	Fetcher     Fetcher
	Exporter    *Exporter
	Mirror      Mirror
	Policy      Policy
	Concurrency int
	RunTimeout  time.Duration
	RunDate     string
	RunID       string
	DryRun      bool
}

type Pipeline struct {
	PipelineConfig
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}
	if cfg.RunDate == "" {
		cfg.RunDate = time.Now().UTC().Format(time.DateOnly)
	}
	return &Pipeline{PipelineConfig: cfg}
}

// Run extracts every endpoint and never stops early because one failed.
func (p *Pipeline) Run(ctx context.Context) *Report {
	if p.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.RunTimeout)
		defer cancel()
	}

	report := &Report{
		RunID:     p.RunID,
		RunDate:   p.RunDate,
		DryRun:    p.DryRun,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(p.Endpoints)),
	}
	for i, ep := range p.Endpoints {
		report.Outcomes[i] = Outcome{Endpoint: ep.Name, State: StatePending}
	}

	logger.Infof("Starting run %s for %s. Endpoints: %d, Concurrency: %d, DryRun: %v",
		p.RunID, p.RunDate, len(p.Endpoints), p.Concurrency, p.DryRun)

	var g errgroup.Group
	g.SetLimit(p.Concurrency)
	for i, ep := range p.Endpoints {
		g.Go(func() error {
			report.Outcomes[i] = p.runEndpoint(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	for _, m := range report.Manifest() {
		logger.Infof("Exported %s -> %s", m.Endpoint, m.Path)
	}
	for _, o := range report.Failures() {
		logger.Errorf("Endpoint %s failed: %v", o.Endpoint, o.Err)
	}
	logger.Infof("Run %s finished: %s (%d/%d endpoints ok)", p.RunID, report.Status(), report.Succeeded(), len(report.Outcomes))
	return report
}

func (p *Pipeline) runEndpoint(ctx context.Context, ep models.Endpoint) Outcome {
	o := Outcome{Endpoint: ep.Name, State: StatePending, StartedAt: time.Now()}
	log := logger.With("endpoint", ep.Name, "run_id", p.RunID)

	if err := ctx.Err(); err != nil {
		return finish(log, o, newFailure(KindTimeout, err, "run deadline reached before extraction started"))
	}

	transition(log, &o, StateFetching)
	payload, attempts, err := p.fetchAll(ctx, ep, &o, log)
	o.Attempts = attempts
	if err != nil {
		return finish(log, o, err)
	}

	transition(log, &o, StateNormalizing)
	table, err := Normalize(ep, payload)
	if err != nil {
		return finish(log, o, err)
	}
	if err := NewValidator(&ep).ValidateTable(table); err != nil {
		return finish(log, o, err)
	}
	o.Rows = table.Len()

	if p.DryRun {
		log.Info("dry run: skipping export", "rows", o.Rows)
		transition(log, &o, StateValidated)
		o.FinishedAt = time.Now()
		return o
	}

	transition(log, &o, StateExporting)
	path, err := p.Exporter.Export(ctx, table, p.RunDate)
	if err != nil {
		return finish(log, o, err)
	}
	o.Path = path
	transition(log, &o, StateExported)
	o.FinishedAt = time.Now()

	if p.Mirror != nil {
		if err := p.Mirror.Load(ctx, p.RunID, p.RunDate, table); err != nil {
			log.Warn("mirror load failed", "err", err)
		}
	}
	return o
}

// fetchAll fetches every page of ep through the retry policy. Pages are
// concatenated so normalization runs once on the complete payload.
func (p *Pipeline) fetchAll(ctx context.Context, ep models.Endpoint, o *Outcome, log *slog.Logger) (any, int, error) {
	fetchPage := func(query url.Values) (any, int, error) {
		return Retry(ctx, p.Policy, func(ctx context.Context) (any, error) {
			transition(log, o, StateFetching)
			return p.Fetcher.Fetch(ctx, ep, query)
		}, func(attempt int, f *Failure, wait time.Duration) {
			transition(log, o, StateRetryWait)
			log.Warn("transient failure, retrying", "attempt", attempt, "kind", f.Kind, "wait", wait, "err", f)
		})
	}

	pg := ep.Pagination
	if pg == nil || pg.Pages <= 1 {
		return fetchPage(nil)
	}

	var (
		items     []any
		total     int
		query     url.Values
		cursor    int64
		hasCursor bool
	)
	for page := 1; page <= pg.Pages; page++ {
		payload, attempts, err := fetchPage(query)
		total += attempts
		if err != nil {
			return nil, total, err
		}
		pageItems, ok := payload.([]any)
		if !ok {
			return nil, total, newFailure(KindDecode, nil, "%s page %d: expected array, got %T", ep.Name, page, payload)
		}
		if len(pageItems) == 0 {
			break
		}
		if hasCursor {
			// the upstream may ignore the cursor and serve rows already seen
			fresh := itemsBelow(pageItems, pg.CursorField, cursor)
			if len(fresh) == 0 {
				log.Warn("cursor did not advance, stopping pagination", "page", page, "cursor", cursor)
				break
			}
			pageItems = fresh
		}
		items = append(items, pageItems...)
		log.Debug("fetched page", "page", page, "items", len(pageItems))

		cursor, hasCursor = utils.MinInt64(pageItems, pg.CursorField)
		if !hasCursor {
			break
		}
		query = url.Values{pg.CursorParam: {strconv.FormatInt(cursor, 10)}}
	}
	if items == nil {
		items = []any{}
	}
	return items, total, nil
}

// itemsBelow keeps the items whose cursor field is strictly below cursor.
func itemsBelow(items []any, field string, cursor int64) []any {
	var out []any
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || m[field] == nil {
			continue
		}
		if v, err := utils.ConvertToInt64(m[field]); err == nil && v < cursor {
			out = append(out, item)
		}
	}
	return out
}

func transition(log *slog.Logger, o *Outcome, next State) {
	if o.State == next {
		return
	}
	log.Debug("state change", "from", o.State, "to", next)
	o.State = next
}

func finish(log *slog.Logger, o Outcome, err error) Outcome {
	f := AsFailure(err)
	o.Err = f
	transition(log, &o, StateFailed)
	o.FinishedAt = time.Now()
	log.Error("endpoint failed", "kind", f.Kind, "attempts", o.Attempts, "err", f)
	return o
}
