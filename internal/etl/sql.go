package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const runLogTable = "extract_run_log"

var runLogColumns = []string{
	"run_id", "run_date", "endpoint", "state", "rows_written", "output_path",
	"failure_kind", "message", "attempts", "finished_at",
}

// RunLog appends one row per endpoint outcome to a SQL Server table so runs
// can be traced after the fact.
type RunLog struct {
	DB *sql.DB
}

func NewRunLog(db *sql.DB) *RunLog {
	return &RunLog{DB: db}
}

func createRunLogQuery() string {
	return fmt.Sprintf(`IF OBJECT_ID(N'%[1]s', N'U') IS NULL
CREATE TABLE %[1]s (
	id BIGINT IDENTITY(1,1) PRIMARY KEY,
	run_id NVARCHAR(36) NOT NULL,
	run_date NVARCHAR(10) NOT NULL,
	endpoint NVARCHAR(128) NOT NULL,
	state NVARCHAR(32) NOT NULL,
	rows_written INT NOT NULL,
	output_path NVARCHAR(1024) NULL,
	failure_kind NVARCHAR(32) NULL,
	message NVARCHAR(MAX) NULL,
	attempts INT NOT NULL,
	finished_at DATETIME2 NOT NULL
)`, runLogTable)
}

func insertRunLogQuery() string {
	placeholders := make([]string, len(runLogColumns))
	for i := range runLogColumns {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		runLogTable, strings.Join(runLogColumns, ", "), strings.Join(placeholders, ", "))
}

// runLogArgs returns the insert arguments for one outcome, in runLogColumns order.
func runLogArgs(report *Report, o Outcome) []interface{} {
	var kind, message interface{}
	if o.Err != nil {
		kind = string(o.Err.Kind)
		message = o.Err.Error()
	}
	var path interface{}
	if o.Path != "" {
		path = o.Path
	}
	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	return []interface{}{
		report.RunID, report.RunDate, o.Endpoint, string(o.State), o.Rows, path,
		kind, message, o.Attempts, finished,
	}
}

func (l *RunLog) Record(ctx context.Context, report *Report) error {
	if _, err := l.DB.ExecContext(ctx, createRunLogQuery()); err != nil {
		return fmt.Errorf("ensure %s table: %w", runLogTable, err)
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run log tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRunLogQuery())
	if err != nil {
		return fmt.Errorf("prepare run log insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range report.Outcomes {
		if _, err := stmt.ExecContext(ctx, runLogArgs(report, o)...); err != nil {
			return fmt.Errorf("insert run log row for %s: %w", o.Endpoint, err)
		}
	}
	return tx.Commit()
}
