// Package model defines the core data types used throughout the robobak backup system.
package model

import (
	"fmt"
	"strings"
)

// BackupType selects which file set is pulled from a controller.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type BackupType string

const (
	// BackupTypeMD is a full memory-dump backup (the controller's md: device).
	BackupTypeMD BackupType = "MD"
	// BackupTypeAOA is an application/option-area backup (the mdb: device).
	BackupTypeAOA BackupType = "AOA"
)

// Valid returns true if the BackupType is valid.
func (t BackupType) Valid() bool {
	return t == BackupTypeMD || t == BackupTypeAOA
}

// UnmarshalText implements encoding.TextUnmarshaler for BackupType to allow
// env and flag parsing.
func (t *BackupType) UnmarshalText(text []byte) error {
	v := strings.ToUpper(strings.TrimSpace(string(text)))
	bt := BackupType(v)
	if bt.Valid() {
		*t = bt
		return nil
	}
	return fmt.Errorf("invalid BackupType: %q", v)
}

// TargetSpec identifies one robot in a job. Address is either a full dotted
// quad or a bare last octet scoped to the job's subnet prefix. RobotNumber is
// a display label ("7" renders as "R7"); it never affects resolution.
type TargetSpec struct {
	Address     string `json:"address"`
	RobotNumber string `json:"robot_number,omitempty"`
}

// Label returns the human-readable robot label for progress and summaries.
func (s TargetSpec) Label() string {
	if s.RobotNumber != "" {
		return "R" + s.RobotNumber
	}
	return s.Address
}

// JobDefinition is a named batch of robot backup targets sharing a backup
// type and destination. It is immutable once a run starts and must
// round-trip exactly through a JobConfigStore.
type JobDefinition struct {
	JobID             string       `json:"job_id"`
	Targets           []TargetSpec `json:"targets"`
	BackupType        BackupType   `json:"backup_type"`
	DestinationFolder string       `json:"destination_folder"`
}

// Validate checks that the definition is complete enough to run.
func (j *JobDefinition) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	if len(j.Targets) == 0 {
		return fmt.Errorf("job %s has no targets", j.JobID)
	}
	if !j.BackupType.Valid() {
		return fmt.Errorf("job %s has invalid backup type %q", j.JobID, j.BackupType)
	}
	if j.DestinationFolder == "" {
		return fmt.Errorf("job %s has no destination folder", j.JobID)
	}
	return nil
}
