package model

import "time"

// ProgressKind identifies an attempt-boundary event for one robot.
type ProgressKind string

const (
	// ProgressStarted is emitted when an attempt begins.
	ProgressStarted ProgressKind = "started"
	// ProgressAttemptFailed is emitted when an attempt fails.
	ProgressAttemptFailed ProgressKind = "attempt_failed"
	// ProgressRetrying is emitted before the backoff sleep ahead of a retry.
	ProgressRetrying ProgressKind = "retrying"
	// ProgressSucceeded is emitted when an attempt succeeds.
	ProgressSucceeded ProgressKind = "succeeded"
	// ProgressFailed is emitted when the robot reaches a failed terminal state.
	ProgressFailed ProgressKind = "failed"
	// ProgressCancelled is emitted when cancellation stops the robot.
	ProgressCancelled ProgressKind = "cancelled"
)

// ProgressEvent is delivered to the ProgressReporter sink at every attempt
// boundary. Events for a single robot arrive in order; events across robots
// are interleaved arbitrarily.
type ProgressEvent struct {
	Address   string       `json:"address"`
	Label     string       `json:"label"`
	Kind      ProgressKind `json:"kind"`
	Attempt   int          `json:"attempt"`
	Err       string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
