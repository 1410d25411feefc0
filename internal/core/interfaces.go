// Package core defines the ports (interfaces) between the backup engine and
// its collaborators: FTP transport, job configuration storage, progress
// sinks, and run history.
package core

import (
	"context"
	"io"
	"time"

	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// Service implementations depend on these interfaces, not on concrete
// adapters; adapters live under internal/adapters and internal/data.

// SessionDialer opens an authenticated session to one robot controller.
// Each worker owns its session for the full lifetime of an attempt; sessions
// are never shared between robots.
type SessionDialer interface {
	Dial(ctx context.Context, address string) (RobotSession, error)
}

// RobotSession is one live FTP session to a robot controller, already
// positioned for file retrieval. Implementations normalize transport errors
// into the model taxonomy (ErrConnectionTimeout, ErrAuthentication).
type RobotSession interface {
	// SelectBackup changes to the controller device directory for the given
	// backup type (md: for MD, mdb: for AOA).
	SelectBackup(backupType model.BackupType) error
	// ListFiles returns the names of the files in the selected device
	// directory. Dotfiles are excluded.
	ListFiles() ([]string, error)
	// FileSize returns the server-reported size of name in bytes. A
	// negative size means the server cannot report one; integrity
	// verification is skipped for that file.
	FileSize(name string) (int64, error)
	// Retrieve opens a read stream for name. The caller must close it before
	// issuing another command on the session.
	Retrieve(name string) (io.ReadCloser, error)
	// Close terminates the session. Safe to call after a failed command.
	Close() error
}

// JobConfigStore persists job definitions keyed by job number.
type JobConfigStore interface {
	// Load returns the definition for jobID, or model.ErrJobNotFound.
	Load(ctx context.Context, jobID string) (*model.JobDefinition, error)
	Save(ctx context.Context, job *model.JobDefinition) error
	Delete(ctx context.Context, jobID string) error
	List(ctx context.Context) ([]*model.JobDefinition, error)
}

// ProgressReporter receives attempt-boundary events from concurrently
// running workers. Implementations must tolerate concurrent delivery and
// must not block the caller materially.
type ProgressReporter interface {
	Report(event model.ProgressEvent)
}

// RecordRunParams groups the inputs for RunHistoryRepository.RecordRun.
type RecordRunParams struct {
	Result     *model.JobResult
	RecordedAt time.Time
}

// RunHistoryRepository persists finished runs for later inspection.
type RunHistoryRepository interface {
	RecordRun(ctx context.Context, params RecordRunParams) error
	// ListRuns returns recorded outcomes for jobID, most recent run first.
	ListRuns(ctx context.Context, jobID string, limit int) ([]*model.JobResult, error)
	Close() error
}
