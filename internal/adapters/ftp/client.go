// Package ftp adapts the jlaffaye/ftp client to the engine's session ports.
// FANUC controllers expose their backup file sets as FTP device directories:
// md: for memory dumps and mdb: for application/option-area data.
package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/jlaffaye/ftp"

	"github.com/shopfloor-tools/robobak/config"
	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

const (
	anonymousUser     = "anonymous"
	anonymousPassword = "anonymous"
)

// deviceDir maps a backup type to the controller device directory.
func deviceDir(backupType model.BackupType) string {
	if backupType == model.BackupTypeAOA {
		return "mdb:"
	}
	return "md:"
}

// Dialer opens FTP sessions to robot controllers. It implements
// core.SessionDialer; every session is independent and owned by one worker.
type Dialer struct {
	cfg config.FTPConfig
}

// NewDialer creates a dialer from sanitized FTP configuration.
func NewDialer(cfg config.FTPConfig) *Dialer {
	return &Dialer{cfg: cfg}
}

// Dial connects and authenticates to the controller at address. Transport
// failures are normalized into the model error taxonomy so the retry policy
// can classify them.
func (d *Dialer) Dial(ctx context.Context, address string) (core.RobotSession, error) {
	hostport := net.JoinHostPort(address, strconv.Itoa(d.cfg.Port))
	conn, err := ftp.Dial(hostport,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(d.cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %v: %w", hostport, err, classifyDialError(err))
	}

	user, password := d.cfg.User, d.cfg.Password
	if d.cfg.Anonymous() {
		user, password = anonymousUser, anonymousPassword
	}
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login %s: %v: %w", address, err, classifyLoginError(err))
	}

	return &session{conn: conn, address: address}, nil
}

// session wraps one live FTP connection.
type session struct {
	conn    *ftp.ServerConn
	address string
}

func (s *session) SelectBackup(backupType model.BackupType) error {
	dir := deviceDir(backupType)
	if err := s.conn.ChangeDir(dir); err != nil {
		return fmt.Errorf("select device %s on %s: %v: %w", dir, s.address, err, classifyCommandError(err))
	}
	return nil
}

func (s *session) ListFiles() ([]string, error) {
	names, err := s.conn.NameList("")
	if err != nil {
		return nil, fmt.Errorf("list files on %s: %v: %w", s.address, err, classifyCommandError(err))
	}

	files := make([]string, 0, len(names))
	for _, name := range names {
		// Controllers report virtual dot entries; skip them like any
		// other hidden file.
		if strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

func (s *session) FileSize(name string) (int64, error) {
	size, err := s.conn.FileSize(name)
	if err != nil {
		// Not every controller firmware implements SIZE; report the size
		// as unknown rather than failing the transfer.
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) &&
			(protoErr.Code == ftp.StatusNotImplemented || protoErr.Code == ftp.StatusBadCommand) {
			return -1, nil
		}
		return 0, fmt.Errorf("size of %s on %s: %v: %w", name, s.address, err, classifyCommandError(err))
	}
	return size, nil
}

func (s *session) Retrieve(name string) (io.ReadCloser, error) {
	resp, err := s.conn.Retr(name)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s from %s: %v: %w", name, s.address, err, classifyCommandError(err))
	}
	return resp, nil
}

func (s *session) Close() error {
	return s.conn.Quit()
}

// classifyDialError maps connection establishment failures. Everything at
// this stage is transient: the controller may be booting, mid-cycle, or
// briefly unreachable.
func classifyDialError(error) error {
	return model.ErrConnectionTimeout
}

// classifyLoginError maps authentication failures. A rejected login is
// fatal; a dropped connection during login is transient.
func classifyLoginError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case ftp.StatusNotLoggedIn, ftp.StatusInvalidCredentials, ftp.StatusLoginNeedAccount:
			return model.ErrAuthentication
		}
	}
	return model.ErrConnectionTimeout
}

// classifyCommandError maps failures of post-login commands. Network
// timeouts, dropped connections, and server refusals after a successful
// login are all transient: controller devices briefly lock files during
// motion and recover on the next attempt.
func classifyCommandError(error) error {
	return model.ErrConnectionTimeout
}

var _ core.SessionDialer = (*Dialer)(nil)
