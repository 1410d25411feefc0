package model

import "time"

// AttemptStatus tracks a single backup attempt through its lifecycle.
type AttemptStatus string

const (
	// AttemptStatusPending indicates the attempt has not started yet.
	AttemptStatusPending AttemptStatus = "pending"
	// AttemptStatusRunning indicates the attempt is in flight.
	AttemptStatusRunning AttemptStatus = "running"
	// AttemptStatusSucceeded indicates the attempt completed and was promoted.
	AttemptStatusSucceeded AttemptStatus = "succeeded"
	// AttemptStatusFailedTimeout indicates a transient failure (retryable).
	AttemptStatusFailedTimeout AttemptStatus = "failed_timeout"
	// AttemptStatusFailedFatal indicates a non-retryable failure.
	AttemptStatusFailedFatal AttemptStatus = "failed_fatal"
)

// Valid returns true if the AttemptStatus is valid.
func (s AttemptStatus) Valid() bool {
	return s == AttemptStatusPending || s == AttemptStatusRunning ||
		s == AttemptStatusSucceeded || s == AttemptStatusFailedTimeout ||
		s == AttemptStatusFailedFatal
}

// BackupAttempt records one attempt for one robot. A retry supersedes the
// previous attempt with a fresh record; attempts are never mutated across
// retries.
type BackupAttempt struct {
	Address       string        `json:"address"`
	AttemptNumber int           `json:"attempt_number"`
	Status        AttemptStatus `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
}

// Terminal reports whether the attempt reached a final state.
func (a BackupAttempt) Terminal() bool {
	return a.Status == AttemptStatusSucceeded ||
		a.Status == AttemptStatusFailedTimeout ||
		a.Status == AttemptStatusFailedFatal
}

// AttemptResult is the payload of a finished attempt.
type AttemptResult struct {
	Success          bool     `json:"success"`
	BytesTransferred int64    `json:"bytes_transferred"`
	FilesWritten     []string `json:"files_written,omitempty"`
}
