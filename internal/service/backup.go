package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// BackupTask performs one backup attempt for one robot: connect,
// authenticate, select the device directory for the backup type, transfer
// every file, verify byte counts, and atomically promote the result.
type BackupTask struct {
	dialer core.SessionDialer
}

// NewBackupTask creates a task backed by the given session dialer.
func NewBackupTask(dialer core.SessionDialer) *BackupTask {
	return &BackupTask{dialer: dialer}
}

// Execute runs a single attempt against address, writing the backup into
// destDir. Files are staged in a temporary sibling directory and promoted
// with a rename only after every file verified, so a failed attempt never
// leaves partial files under the final path.
func (t *BackupTask) Execute(
	ctx context.Context,
	address string,
	backupType model.BackupType,
	destDir string,
) (model.AttemptResult, error) {
	session, err := t.dialer.Dial(ctx, address)
	if err != nil {
		return model.AttemptResult{}, err
	}
	defer func() { _ = session.Close() }()

	if err := session.SelectBackup(backupType); err != nil {
		return model.AttemptResult{}, err
	}

	files, err := session.ListFiles()
	if err != nil {
		return model.AttemptResult{}, err
	}

	parent := filepath.Dir(destDir)
	tmpDir, err := os.MkdirTemp(parent, ".partial-"+filepath.Base(destDir)+"-")
	if err != nil {
		return model.AttemptResult{}, fmt.Errorf("create staging dir: %w", model.ErrDestinationWrite)
	}
	promoted := false
	defer func() {
		if !promoted {
			_ = os.RemoveAll(tmpDir)
		}
	}()

	var result model.AttemptResult
	for _, name := range files {
		n, err := t.transferFile(session, name, tmpDir)
		if err != nil {
			return model.AttemptResult{}, err
		}
		result.BytesTransferred += n
		result.FilesWritten = append(result.FilesWritten, name)
	}

	// Promote atomically; a directory left by an earlier run is replaced.
	if err := os.RemoveAll(destDir); err != nil {
		return model.AttemptResult{}, fmt.Errorf("clear destination %s: %w", destDir, model.ErrDestinationWrite)
	}
	if err := os.Rename(tmpDir, destDir); err != nil {
		return model.AttemptResult{}, fmt.Errorf("promote %s: %w", destDir, model.ErrDestinationWrite)
	}
	promoted = true

	result.Success = true
	return result, nil
}

// transferFile retrieves one file into dir and verifies its size against the
// server-reported byte count.
func (t *BackupTask) transferFile(session core.RobotSession, name, dir string) (int64, error) {
	// Never trust server-supplied names: a name with path elements could
	// land the file outside the staging dir, in another robot's directory.
	if !safeRemoteName(name) {
		return 0, fmt.Errorf("unsafe remote file name %q: %w", name, model.ErrTransferIntegrity)
	}

	want, err := session.FileSize(name)
	if err != nil {
		return 0, err
	}

	stream, err := session.Retrieve(name)
	if err != nil {
		return 0, err
	}

	local, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		_ = stream.Close()
		return 0, fmt.Errorf("create %s: %w", name, model.ErrDestinationWrite)
	}

	dst := &trackingWriter{w: local}
	n, copyErr := io.Copy(dst, stream)
	streamErr := stream.Close()
	closeErr := local.Close()

	switch {
	case dst.err != nil:
		return 0, fmt.Errorf("write %s: %w", name, model.ErrDestinationWrite)
	case copyErr != nil:
		// Read-side failure on the data connection.
		return 0, fmt.Errorf("transfer %s: %v: %w", name, copyErr, model.ErrConnectionTimeout)
	case closeErr != nil:
		return 0, fmt.Errorf("flush %s: %w", name, model.ErrDestinationWrite)
	case streamErr != nil:
		return 0, fmt.Errorf("finish transfer %s: %v: %w", name, streamErr, model.ErrConnectionTimeout)
	case want >= 0 && n != want:
		return 0, fmt.Errorf("%s: got %d bytes, server reported %d: %w", name, n, want, model.ErrTransferIntegrity)
	}

	return n, nil
}

// safeRemoteName reports whether a server-supplied file name stays inside
// the directory it is written to.
func safeRemoteName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return name == filepath.Base(name)
}

// trackingWriter remembers whether a failure came from the local write side,
// so copy errors can be classified as destination errors rather than
// transfer errors.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
