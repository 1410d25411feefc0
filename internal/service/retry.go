package service

import (
	"context"
	"math"
	"time"

	"github.com/shopfloor-tools/robobak/config"
	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// BackupFunc performs one backup attempt for one robot.
type BackupFunc func(ctx context.Context, attemptNumber int) (model.AttemptResult, error)

// RetryPolicy wraps a backup attempt with bounded retries for transient
// failures. Fatal failure classes abort immediately; unknown error classes
// are treated as fatal so a misclassified error can never retry forever.
type RetryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64

	// sleep waits for d or until ctx is cancelled, reporting false on
	// cancellation. Replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewRetryPolicy builds a policy from sanitized backup configuration.
func NewRetryPolicy(cfg config.BackupConfig) *RetryPolicy {
	return &RetryPolicy{
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		multiplier:     cfg.BackoffMultiplier,
		sleep:          sleepCtx,
	}
}

// Backoff returns the monotonically non-decreasing delay before the retry
// that follows attemptNumber.
func (p *RetryPolicy) Backoff(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}
	d := time.Duration(float64(p.initialBackoff) * math.Pow(p.multiplier, float64(attemptNumber-1)))
	if d > p.maxBackoff || d <= 0 {
		return p.maxBackoff
	}
	return d
}

// RunWithRetry drives task to a terminal outcome for one robot, emitting a
// progress event at every attempt boundary. Cancellation is observed at
// attempt boundaries only: a running attempt finishes, but no new attempt
// starts once ctx is cancelled.
func (p *RetryPolicy) RunWithRetry(
	ctx context.Context,
	target ResolvedTarget,
	reporter core.ProgressReporter,
	task BackupFunc,
) model.RobotOutcome {
	outcome := model.RobotOutcome{
		Address: target.Address,
		Label:   target.Spec.Label(),
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			outcome.FinalStatus = model.RobotStatusCancelled
			outcome.AttemptsUsed = attempt - 1
			p.emit(reporter, target, model.ProgressCancelled, attempt-1, nil)
			return outcome
		}

		record := model.BackupAttempt{
			Address:       target.Address,
			AttemptNumber: attempt,
			Status:        model.AttemptStatusRunning,
			StartedAt:     time.Now(),
		}

		p.emit(reporter, target, model.ProgressStarted, attempt, nil)
		result, err := task(ctx, attempt)
		outcome.AttemptsUsed = attempt
		outcome.Attempts = append(outcome.Attempts, finishAttempt(record, err))

		if err == nil {
			outcome.FinalStatus = model.RobotStatusSucceeded
			outcome.BytesTransferred = result.BytesTransferred
			p.emit(reporter, target, model.ProgressSucceeded, attempt, nil)
			return outcome
		}

		outcome.Error = err.Error()
		p.emit(reporter, target, model.ProgressAttemptFailed, attempt, err)

		if !model.IsTransient(err) {
			outcome.FinalStatus = model.RobotStatusFailedFatal
			p.emit(reporter, target, model.ProgressFailed, attempt, err)
			return outcome
		}

		if attempt == p.maxAttempts {
			break
		}

		p.emit(reporter, target, model.ProgressRetrying, attempt, err)
		if !p.sleep(ctx, p.Backoff(attempt)) {
			outcome.FinalStatus = model.RobotStatusCancelled
			p.emit(reporter, target, model.ProgressCancelled, attempt, nil)
			return outcome
		}
	}

	outcome.FinalStatus = model.RobotStatusFailedTimeout
	p.emit(reporter, target, model.ProgressFailed, outcome.AttemptsUsed, nil)
	return outcome
}

// finishAttempt closes out an attempt record with the terminal status for
// err. The record supersedes, never mutates, earlier attempts.
func finishAttempt(record model.BackupAttempt, err error) model.BackupAttempt {
	ended := time.Now()
	record.EndedAt = &ended
	switch {
	case err == nil:
		record.Status = model.AttemptStatusSucceeded
	case model.IsTransient(err):
		record.Status = model.AttemptStatusFailedTimeout
	default:
		record.Status = model.AttemptStatusFailedFatal
	}
	return record
}

func (p *RetryPolicy) emit(
	reporter core.ProgressReporter,
	target ResolvedTarget,
	kind model.ProgressKind,
	attempt int,
	err error,
) {
	if reporter == nil {
		return
	}
	event := model.ProgressEvent{
		Address:   target.Address,
		Label:     target.Spec.Label(),
		Kind:      kind,
		Attempt:   attempt,
		Timestamp: time.Now(),
	}
	if err != nil {
		event.Err = err.Error()
	}
	reporter.Report(event)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
