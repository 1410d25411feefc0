package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

func robotFiles() map[string][]byte {
	return map[string][]byte{
		"SYSVARS.SV":  []byte("system variables"),
		"NUMREG.VR":   []byte("number registers"),
		"TPPROG1.TP":  []byte("teach pendant program one"),
		"SYSFRAME.SV": []byte("frames"),
	}
}

func TestBackupTask_Execute_Success(t *testing.T) {
	session := newStubSession(robotFiles())
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	runDir := t.TempDir()
	destDir := filepath.Join(runDir, "192.168.1.20")

	result, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD, destDir)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Len(t, result.FilesWritten, 4)
	assert.Equal(t, int64(len("system variables")+len("number registers")+
		len("teach pendant program one")+len("frames")), result.BytesTransferred)
	assert.Equal(t, model.BackupTypeMD, session.selected)
	assert.True(t, session.closed)

	for name, content := range robotFiles() {
		got, readErr := os.ReadFile(filepath.Join(destDir, name))
		require.NoError(t, readErr, name)
		assert.Equal(t, content, got, name)
	}

	// No staging leftovers beside the promoted directory.
	entries, err := os.ReadDir(runDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupTask_Execute_SelectsAOADevice(t *testing.T) {
	session := newStubSession(robotFiles())
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeAOA,
		filepath.Join(t.TempDir(), "192.168.1.20"))
	require.NoError(t, err)
	assert.Equal(t, model.BackupTypeAOA, session.selected)
}

func TestBackupTask_Execute_DialFailurePropagates(t *testing.T) {
	dialer := &stubDialer{dialErr: map[string]error{"192.168.1.20": model.ErrConnectionTimeout}}
	task := NewBackupTask(dialer)

	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD,
		filepath.Join(t.TempDir(), "192.168.1.20"))
	assert.ErrorIs(t, err, model.ErrConnectionTimeout)
}

func TestBackupTask_Execute_IntegrityMismatch(t *testing.T) {
	session := newStubSession(robotFiles())
	session.sizeOverride = map[string]int64{"NUMREG.VR": 9999}
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	runDir := t.TempDir()
	destDir := filepath.Join(runDir, "192.168.1.20")

	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD, destDir)
	require.ErrorIs(t, err, model.ErrTransferIntegrity)

	// Nothing visible under the final path, and no stray staging dirs.
	_, statErr := os.Stat(destDir)
	assert.True(t, os.IsNotExist(statErr))
	entries, readErr := os.ReadDir(runDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestBackupTask_Execute_UnknownSizeSkipsVerification(t *testing.T) {
	session := newStubSession(robotFiles())
	session.sizeOverride = map[string]int64{"NUMREG.VR": -1}
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD,
		filepath.Join(t.TempDir(), "192.168.1.20"))
	assert.NoError(t, err)
}

func TestBackupTask_Execute_RetrieveFailureIsTransient(t *testing.T) {
	session := newStubSession(robotFiles())
	session.retrieveErr = map[string]error{"TPPROG1.TP": model.ErrConnectionTimeout}
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	runDir := t.TempDir()
	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD,
		filepath.Join(runDir, "192.168.1.20"))
	require.ErrorIs(t, err, model.ErrConnectionTimeout)

	entries, readErr := os.ReadDir(runDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "failed attempt must clean up its staging dir")
}

func TestBackupTask_Execute_RejectsEscapingRemoteNames(t *testing.T) {
	tests := []struct {
		name   string
		remote string
	}{
		{name: "parent traversal", remote: "../escaped.txt"},
		{name: "nested path", remote: "sub/escaped.txt"},
		{name: "absolute path", remote: "/etc/escaped.txt"},
		{name: "backslash path", remote: `..\escaped.txt`},
		{name: "dot dot", remote: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := robotFiles()
			files[tt.remote] = []byte("should never land on disk")
			session := newStubSession(files)
			dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
			task := NewBackupTask(dialer)

			runDir := t.TempDir()
			destDir := filepath.Join(runDir, "192.168.1.20")

			_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD, destDir)
			require.ErrorIs(t, err, model.ErrTransferIntegrity)

			// The attempt fails whole: nothing promoted, nothing outside
			// the per-robot directory, no staging leftovers.
			_, statErr := os.Stat(destDir)
			assert.True(t, os.IsNotExist(statErr))
			_, statErr = os.Stat(filepath.Join(runDir, "escaped.txt"))
			assert.True(t, os.IsNotExist(statErr))
			entries, readErr := os.ReadDir(runDir)
			require.NoError(t, readErr)
			assert.Empty(t, entries)
		})
	}
}

func TestBackupTask_Execute_MissingRunDirIsDestinationError(t *testing.T) {
	session := newStubSession(robotFiles())
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	destDir := filepath.Join(t.TempDir(), "does", "not", "exist", "192.168.1.20")
	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD, destDir)
	assert.ErrorIs(t, err, model.ErrDestinationWrite)
}

func TestBackupTask_Execute_ReplacesEarlierBackup(t *testing.T) {
	session := newStubSession(robotFiles())
	dialer := &stubDialer{sessions: map[string]*stubSession{"192.168.1.20": session}}
	task := NewBackupTask(dialer)

	runDir := t.TempDir()
	destDir := filepath.Join(runDir, "192.168.1.20")
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "STALE.SV"), []byte("old"), 0o644))

	_, err := task.Execute(context.Background(), "192.168.1.20", model.BackupTypeMD, destDir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(destDir, "STALE.SV"))
	assert.True(t, os.IsNotExist(statErr), "stale files must not survive promotion")
	_, statErr = os.Stat(filepath.Join(destDir, "SYSVARS.SV"))
	assert.NoError(t, statErr)
}
