package etl

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// State is the position of one endpoint in the run.
type State string

const (
	StatePending     State = "pending"
	StateFetching    State = "fetching"
	StateRetryWait   State = "retry-wait"
	StateNormalizing State = "normalizing"
	StateExporting   State = "exporting"
	StateExported    State = "exported"
	StateValidated   State = "validated"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateExported || s == StateValidated || s == StateFailed
}

type Status string

const (
	StatusSuccess      Status = "success"
	StatusPartial      Status = "partial-failure"
	StatusTotalFailure Status = "total-failure"
)

// Exit codes handed to the scheduler. Partial failures are non-zero so CI
// flags the run, but distinguishable from a run that delivered nothing.
const (
	ExitSuccess      = 0
	ExitTotalFailure = 1
	ExitPartial      = 2
)

type Outcome struct {
	Endpoint   string
	State      State
	Rows       int
	Attempts   int
	Path       string
	Err        *Failure
	StartedAt  time.Time
	FinishedAt time.Time
}

type ManifestEntry struct {
	Endpoint string
	Path     string
}

type Report struct {
	RunID      string
	RunDate    string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == StateExported || o.State == StateValidated {
			n++
		}
	}
	return n
}

func (r *Report) Status() Status {
	ok := r.Succeeded()
	switch {
	case len(r.Outcomes) > 0 && ok == len(r.Outcomes):
		return StatusSuccess
	case ok > 0:
		return StatusPartial
	default:
		return StatusTotalFailure
	}
}

func (r *Report) ExitCode() int {
	switch r.Status() {
	case StatusSuccess:
		return ExitSuccess
	case StatusPartial:
		return ExitPartial
	default:
		return ExitTotalFailure
	}
}

// Manifest lists the files this run produced.
func (r *Report) Manifest() []ManifestEntry {
	var out []ManifestEntry
	for _, o := range r.Outcomes {
		if o.State == StateExported {
			out = append(out, ManifestEntry{Endpoint: o.Endpoint, Path: o.Path})
		}
	}
	return out
}

func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.State == StateFailed {
			out = append(out, o)
		}
	}
	return out
}

// WriteSummary prints one line per endpoint followed by the overall status.
func (r *Report) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ENDPOINT\tSTATE\tROWS\tATTEMPTS\tDETAIL\n")
	for _, o := range r.Outcomes {
		detail := o.Path
		if o.Err != nil {
			detail = o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", o.Endpoint, o.State, o.Rows, o.Attempts, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "run %s (%s): %s, %d/%d endpoints ok in %s\n",
		r.RunID, r.RunDate, r.Status(), r.Succeeded(), len(r.Outcomes), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return err
}
