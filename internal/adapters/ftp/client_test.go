package ftp

import (
	"errors"
	"net/textproto"
	"testing"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"

	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

func TestDeviceDir(t *testing.T) {
	assert.Equal(t, "md:", deviceDir(model.BackupTypeMD))
	assert.Equal(t, "mdb:", deviceDir(model.BackupTypeAOA))
}

func TestClassifyLoginError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "not logged in is fatal",
			err:  &textproto.Error{Code: ftp.StatusNotLoggedIn, Msg: "Not logged in"},
			want: model.ErrAuthentication,
		},
		{
			name: "invalid credentials is fatal",
			err:  &textproto.Error{Code: ftp.StatusInvalidCredentials, Msg: "Invalid username or password"},
			want: model.ErrAuthentication,
		},
		{
			name: "dropped connection during login is transient",
			err:  errors.New("read tcp: connection reset by peer"),
			want: model.ErrConnectionTimeout,
		},
		{
			name: "service not available is transient",
			err:  &textproto.Error{Code: ftp.StatusNotAvailable, Msg: "Service not available"},
			want: model.ErrConnectionTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyLoginError(tt.err), tt.want)
		})
	}
}

func TestClassifyDialError(t *testing.T) {
	err := errors.New("dial tcp 192.168.1.20:21: i/o timeout")
	assert.ErrorIs(t, classifyDialError(err), model.ErrConnectionTimeout)
}
