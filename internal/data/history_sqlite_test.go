package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

func historyResult(runID string, startedAt time.Time) *model.JobResult {
	return &model.JobResult{
		RunID:      runID,
		JobID:      "1234",
		BackupType: model.BackupTypeMD,
		RunDir:     "/mnt/backups/Job1234_2026-08-30_0615",
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Minute),
		Outcomes: []model.RobotOutcome{
			{
				Address:          "192.168.1.20",
				Label:            "R1",
				FinalStatus:      model.RobotStatusSucceeded,
				AttemptsUsed:     1,
				BytesTransferred: 2048,
			},
			{
				Address:      "192.168.1.21",
				Label:        "R2",
				FinalStatus:  model.RobotStatusFailedTimeout,
				AttemptsUsed: 3,
				Error:        "connection timed out",
			},
		},
	}
}

func TestSQLiteHistory_RecordAndList(t *testing.T) {
	history, err := OpenSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = history.Close() }()

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 6, 15, 0, 0, time.UTC)

	for i, runID := range []string{"run-a", "run-b", "run-c"} {
		result := historyResult(runID, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, history.RecordRun(ctx, core.RecordRunParams{
			Result:     result,
			RecordedAt: result.FinishedAt,
		}))
	}

	runs, err := history.ListRuns(ctx, "1234", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2, "limit applies to runs, not rows")

	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)

	require.Len(t, runs[0].Outcomes, 2)
	byAddr := map[string]model.RobotOutcome{}
	for _, o := range runs[0].Outcomes {
		byAddr[o.Address] = o
	}
	assert.Equal(t, model.RobotStatusSucceeded, byAddr["192.168.1.20"].FinalStatus)
	assert.Equal(t, int64(2048), byAddr["192.168.1.20"].BytesTransferred)
	assert.Equal(t, model.RobotStatusFailedTimeout, byAddr["192.168.1.21"].FinalStatus)
	assert.Equal(t, 3, byAddr["192.168.1.21"].AttemptsUsed)
}

func TestSQLiteHistory_ListUnknownJob(t *testing.T) {
	history, err := OpenSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = history.Close() }()

	runs, err := history.ListRuns(context.Background(), "no-such-job", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteHistory_RecordRequiresResult(t *testing.T) {
	history, err := OpenSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = history.Close() }()

	assert.Error(t, history.RecordRun(context.Background(), core.RecordRunParams{}))
}
