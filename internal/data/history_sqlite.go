package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS run_outcomes (
	run_id            TEXT    NOT NULL,
	job_id            TEXT    NOT NULL,
	backup_type       TEXT    NOT NULL,
	run_dir           TEXT    NOT NULL,
	address           TEXT    NOT NULL,
	label             TEXT    NOT NULL,
	final_status      TEXT    NOT NULL,
	attempts_used     INTEGER NOT NULL,
	bytes_transferred INTEGER NOT NULL,
	error             TEXT    NOT NULL DEFAULT '',
	started_at        TIMESTAMP NOT NULL,
	finished_at       TIMESTAMP NOT NULL,
	recorded_at       TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, address)
);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_job ON run_outcomes (job_id, started_at);
`

// SQLiteHistory records finished runs in a local SQLite database so past
// results survive terminal history.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens (and migrates) the history database at path.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// RecordRun inserts one row per robot outcome, transactionally.
func (h *SQLiteHistory) RecordRun(ctx context.Context, params core.RecordRunParams) error {
	result := params.Result
	if result == nil {
		return fmt.Errorf("record run: result is required")
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
		INSERT INTO run_outcomes (
			run_id, job_id, backup_type, run_dir, address, label,
			final_status, attempts_used, bytes_transferred, error,
			started_at, finished_at, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, outcome := range result.Outcomes {
		if _, err := tx.ExecContext(ctx, insert,
			result.RunID, result.JobID, string(result.BackupType), result.RunDir,
			outcome.Address, outcome.Label, string(outcome.FinalStatus),
			outcome.AttemptsUsed, outcome.BytesTransferred, outcome.Error,
			result.StartedAt, result.FinishedAt, params.RecordedAt,
		); err != nil {
			return fmt.Errorf("insert run outcome %s/%s: %w", result.RunID, outcome.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// ListRuns returns up to limit recorded runs for jobID, most recent first,
// each with its full per-robot outcome set.
func (h *SQLiteHistory) ListRuns(ctx context.Context, jobID string, limit int) ([]*model.JobResult, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT run_id, job_id, backup_type, run_dir, address, label,
		       final_status, attempts_used, bytes_transferred, error,
		       started_at, finished_at
		FROM run_outcomes
		WHERE job_id = ? AND run_id IN (
			SELECT run_id FROM (
				SELECT run_id, MAX(started_at) AS last_started
				FROM run_outcomes
				WHERE job_id = ?
				GROUP BY run_id
				ORDER BY last_started DESC
				LIMIT ?
			)
		)
		ORDER BY started_at DESC, run_id, address`

	rows, err := h.db.QueryContext(ctx, query, jobID, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		runs    []*model.JobResult
		byRunID = make(map[string]*model.JobResult)
	)
	for rows.Next() {
		var (
			runID, jID, backupType, runDir string
			outcome                        model.RobotOutcome
			startedAt, finishedAt          time.Time
			status                         string
		)
		if err := rows.Scan(&runID, &jID, &backupType, &runDir,
			&outcome.Address, &outcome.Label, &status,
			&outcome.AttemptsUsed, &outcome.BytesTransferred, &outcome.Error,
			&startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		outcome.FinalStatus = model.RobotStatus(status)

		run, ok := byRunID[runID]
		if !ok {
			run = &model.JobResult{
				RunID:      runID,
				JobID:      jID,
				BackupType: model.BackupType(backupType),
				RunDir:     runDir,
				StartedAt:  startedAt,
				FinishedAt: finishedAt,
			}
			byRunID[runID] = run
			runs = append(runs, run)
		}
		run.Outcomes = append(run.Outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return runs, nil
}

// Close releases the underlying database handle.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

var _ core.RunHistoryRepository = (*SQLiteHistory)(nil)
