package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupType_Valid(t *testing.T) {
	assert.True(t, BackupTypeMD.Valid())
	assert.True(t, BackupTypeAOA.Valid())
	assert.False(t, BackupType("FULL").Valid())
	assert.False(t, BackupType("").Valid())
}

func TestBackupType_UnmarshalText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    BackupType
		wantErr bool
	}{
		{name: "uppercase md", input: "MD", want: BackupTypeMD},
		{name: "lowercase aoa", input: "aoa", want: BackupTypeAOA},
		{name: "surrounding whitespace", input: "  md ", want: BackupTypeMD},
		{name: "unknown type", input: "incremental", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bt BackupType
			err := bt.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, bt)
		})
	}
}

func TestTargetSpec_Label(t *testing.T) {
	assert.Equal(t, "R7", TargetSpec{Address: "192.168.1.20", RobotNumber: "7"}.Label())
	assert.Equal(t, "192.168.1.20", TargetSpec{Address: "192.168.1.20"}.Label())
}

func TestJobDefinition_Validate(t *testing.T) {
	valid := JobDefinition{
		JobID:             "1234",
		Targets:           []TargetSpec{{Address: "192.168.1.20"}},
		BackupType:        BackupTypeMD,
		DestinationFolder: "/backups",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*JobDefinition)
	}{
		{name: "missing job id", mutate: func(j *JobDefinition) { j.JobID = "" }},
		{name: "no targets", mutate: func(j *JobDefinition) { j.Targets = nil }},
		{name: "bad backup type", mutate: func(j *JobDefinition) { j.BackupType = "ZIP" }},
		{name: "no destination", mutate: func(j *JobDefinition) { j.DestinationFolder = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid
			job.Targets = append([]TargetSpec(nil), valid.Targets...)
			tt.mutate(&job)
			assert.Error(t, job.Validate())
		})
	}
}
