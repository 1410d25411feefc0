package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shopfloor-tools/robobak/config"
	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

const (
	manifestFileName = "manifest.json"
	errorLogFileName = "errors.log"
	runDirTimeFormat = "2006-01-02_1504"
)

// OrchestratorOptions configures the job orchestrator.
type OrchestratorOptions struct {
	Dialer   core.SessionDialer
	Reporter core.ProgressReporter
	Logger   *slog.Logger

	// History is optional; when set, finished runs are recorded.
	History core.RunHistoryRepository

	// Backup carries retry, backoff, concurrency, and addressing settings.
	Backup config.BackupConfig

	// Now is replaceable in tests; defaults to time.Now.
	Now func() time.Time
}

// Orchestrator drives a full job to completion: resolves targets, fans out
// one worker per robot, collects terminal outcomes, and writes the run
// manifest and error log into the run directory.
type Orchestrator struct {
	task     *BackupTask
	retry    *RetryPolicy
	reporter core.ProgressReporter
	history  core.RunHistoryRepository
	logger   *slog.Logger
	cfg      config.BackupConfig
	now      func() time.Time
}

// NewOrchestrator wires the backup engine from its collaborators.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Dialer == nil {
		return nil, fmt.Errorf("session dialer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Backup
	cfg.Sanitize()

	return &Orchestrator{
		task:     NewBackupTask(opts.Dialer),
		retry:    NewRetryPolicy(cfg),
		reporter: opts.Reporter,
		history:  opts.History,
		logger:   logger,
		cfg:      cfg,
		now:      now,
	}, nil
}

// RunJob executes one run of job. Per-robot failures never abort the job;
// they land in that robot's terminal outcome. Cancelling ctx stops every
// worker at its next attempt boundary, marks unfinished robots cancelled,
// and still returns the partial result.
func (o *Orchestrator) RunJob(ctx context.Context, job *model.JobDefinition) (*model.JobResult, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	resolved := ResolveTargets(job, o.cfg.SubnetPrefix)
	startedAt := o.now()
	runDir := filepath.Join(
		job.DestinationFolder,
		fmt.Sprintf("Job%s_%s", job.JobID, startedAt.Format(runDirTimeFormat)),
	)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir %s: %w", runDir, model.ErrDestinationWrite)
	}

	o.logger.InfoContext(ctx, "starting backup job",
		"job_id", job.JobID,
		"backup_type", job.BackupType,
		"robots", len(resolved),
		"run_dir", runDir)

	outcomes := make([]model.RobotOutcome, len(resolved))

	var g errgroup.Group
	g.SetLimit(o.workerLimit(len(resolved)))

	for i, target := range resolved {
		if target.Err != nil {
			outcomes[i] = model.RobotOutcome{
				Address:      target.Spec.Address,
				Label:        target.Spec.Label(),
				FinalStatus:  model.RobotStatusFailedFatal,
				AttemptsUsed: 0,
				Error:        target.Err.Error(),
			}
			o.emitResolveFailure(target)
			continue
		}

		g.Go(func() error {
			outcomes[i] = o.runRobot(ctx, job, target, runDir)
			return nil
		})
	}

	// Workers never return errors; Wait only blocks until all reach a
	// terminal state.
	_ = g.Wait()

	result := &model.JobResult{
		RunID:      uuid.NewString(),
		JobID:      job.JobID,
		BackupType: job.BackupType,
		RunDir:     runDir,
		Outcomes:   outcomes,
		StartedAt:  startedAt,
		FinishedAt: o.now(),
		Cancelled:  ctx.Err() != nil,
	}

	o.finalize(ctx, result)
	return result, nil
}

func (o *Orchestrator) workerLimit(robots int) int {
	if o.cfg.MaxConcurrency > 0 && o.cfg.MaxConcurrency < robots {
		return o.cfg.MaxConcurrency
	}
	if robots == 0 {
		return 1
	}
	return robots
}

// runRobot drives a single robot to a terminal outcome with its own FTP
// session per attempt.
func (o *Orchestrator) runRobot(
	ctx context.Context,
	job *model.JobDefinition,
	target ResolvedTarget,
	runDir string,
) model.RobotOutcome {
	robotDir := filepath.Join(runDir, target.Address)
	outcome := o.retry.RunWithRetry(ctx, target, o.reporter,
		func(ctx context.Context, _ int) (model.AttemptResult, error) {
			return o.task.Execute(ctx, target.Address, job.BackupType, robotDir)
		})
	if outcome.Succeeded() {
		outcome.FilesPath = robotDir
	}
	return outcome
}

func (o *Orchestrator) emitResolveFailure(target ResolvedTarget) {
	if o.reporter == nil {
		return
	}
	o.reporter.Report(model.ProgressEvent{
		Address:   target.Spec.Address,
		Label:     target.Spec.Label(),
		Kind:      model.ProgressFailed,
		Attempt:   0,
		Err:       target.Err.Error(),
		Timestamp: o.now(),
	})
}

// finalize writes the audit artifacts into the run dir and records the run
// in history. Failures here are logged, never fatal: the in-memory result
// is already complete.
func (o *Orchestrator) finalize(ctx context.Context, result *model.JobResult) {
	// The run may have been cancelled; audit writes still need to happen.
	ctx = context.WithoutCancel(ctx)

	if err := o.writeManifest(result); err != nil {
		o.logger.ErrorContext(ctx, "write run manifest", "run_dir", result.RunDir, "error", err)
	}
	if err := o.writeErrorLog(result); err != nil {
		o.logger.ErrorContext(ctx, "write run error log", "run_dir", result.RunDir, "error", err)
	}
	if o.history != nil {
		if err := o.history.RecordRun(ctx, core.RecordRunParams{
			Result:     result,
			RecordedAt: o.now(),
		}); err != nil {
			o.logger.ErrorContext(ctx, "record run history", "run_id", result.RunID, "error", err)
		}
	}

	for _, outcome := range result.Outcomes {
		o.logger.InfoContext(ctx, "robot finished",
			"job_id", result.JobID,
			"robot", outcome.Label,
			"address", outcome.Address,
			"status", outcome.FinalStatus,
			"attempts", outcome.AttemptsUsed,
			"bytes", outcome.BytesTransferred)
	}
}

// writeManifest persists the auditable result set for the run.
func (o *Orchestrator) writeManifest(result *model.JobResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(result.RunDir, manifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeErrorLog appends one line per failed robot, matching the plain-text
// log the shop floor is used to grepping.
func (o *Orchestrator) writeErrorLog(result *model.JobResult) error {
	var failed []model.RobotOutcome
	for _, outcome := range result.Failed() {
		// Cancellation is a terminal status, not an error.
		if outcome.FinalStatus != model.RobotStatusCancelled {
			failed = append(failed, outcome)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	path := filepath.Join(result.RunDir, errorLogFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	for _, outcome := range failed {
		line := fmt.Sprintf("[%s] %s (%s): %s after %d attempt(s): %s\n",
			result.FinishedAt.Format(time.RFC3339),
			outcome.Label,
			outcome.Address,
			outcome.FinalStatus,
			outcome.AttemptsUsed,
			outcome.Error)
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("append %s: %w", path, err)
		}
	}
	return nil
}
