package model

import "time"

// RobotStatus is the terminal state of one robot within a job run.
type RobotStatus string

const (
	// RobotStatusSucceeded indicates the backup was transferred and promoted.
	RobotStatusSucceeded RobotStatus = "succeeded"
	// RobotStatusFailedFatal indicates a non-retryable failure ended the robot.
	RobotStatusFailedFatal RobotStatus = "failed_fatal"
	// RobotStatusFailedTimeout indicates retries were exhausted on transient failures.
	RobotStatusFailedTimeout RobotStatus = "failed_timeout"
	// RobotStatusCancelled indicates the run was cancelled before the robot finished.
	RobotStatusCancelled RobotStatus = "cancelled"
)

// Valid returns true if the RobotStatus is valid.
func (s RobotStatus) Valid() bool {
	return s == RobotStatusSucceeded || s == RobotStatusFailedFatal ||
		s == RobotStatusFailedTimeout || s == RobotStatusCancelled
}

// RobotOutcome is the terminal result for one robot target.
type RobotOutcome struct {
	Address          string      `json:"address"`
	Label            string      `json:"label"`
	FinalStatus      RobotStatus `json:"final_status"`
	AttemptsUsed     int         `json:"attempts_used"`
	BytesTransferred int64       `json:"bytes_transferred"`
	FilesPath        string      `json:"files_path,omitempty"`
	Error            string      `json:"error,omitempty"`

	// Attempts is the superseding history of attempt records; only the
	// last one is terminal.
	Attempts []BackupAttempt `json:"attempts,omitempty"`
}

// Succeeded reports whether the robot reached a successful terminal state.
func (o RobotOutcome) Succeeded() bool {
	return o.FinalStatus == RobotStatusSucceeded
}

// JobResult aggregates one outcome per robot target for a single run.
type JobResult struct {
	RunID      string         `json:"run_id"`
	JobID      string         `json:"job_id"`
	BackupType BackupType     `json:"backup_type"`
	RunDir     string         `json:"run_dir"`
	Outcomes   []RobotOutcome `json:"outcomes"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Cancelled  bool           `json:"cancelled,omitempty"`
}

// AllSucceeded reports whether every robot in the run succeeded.
func (r *JobResult) AllSucceeded() bool {
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

// Failed returns the outcomes that did not succeed, preserving target order,
// so a caller can re-run the job against only the failed subset.
func (r *JobResult) Failed() []RobotOutcome {
	var failed []RobotOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}
