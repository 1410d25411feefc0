package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrConnectionTimeout))
	assert.True(t, IsTransient(ErrTransferIntegrity))
	assert.True(t, IsTransient(fmt.Errorf("dial 192.168.1.20: %w", ErrConnectionTimeout)))
	assert.False(t, IsTransient(ErrAuthentication))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("some other error")))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrAuthentication))
	assert.True(t, IsFatal(ErrDestinationWrite))
	assert.True(t, IsFatal(fmt.Errorf("login: %w", ErrAuthentication)))
	assert.True(t, IsFatal(&InvalidAddressError{Spec: "999", Reason: "octet out of range"}))
	assert.False(t, IsFatal(ErrConnectionTimeout))
	assert.False(t, IsFatal(nil))
}

func TestInvalidAddressError_Message(t *testing.T) {
	err := &InvalidAddressError{Spec: "300", Reason: "octet out of range"}
	assert.Equal(t, `invalid robot address "300": octet out of range`, err.Error())
}

func TestJobResult_Aggregates(t *testing.T) {
	res := JobResult{Outcomes: []RobotOutcome{
		{Address: "192.168.1.20", FinalStatus: RobotStatusSucceeded},
		{Address: "192.168.1.21", FinalStatus: RobotStatusFailedTimeout},
		{Address: "192.168.1.22", FinalStatus: RobotStatusCancelled},
	}}

	assert.False(t, res.AllSucceeded())
	failed := res.Failed()
	assert.Len(t, failed, 2)
	assert.Equal(t, "192.168.1.21", failed[0].Address)
	assert.Equal(t, "192.168.1.22", failed[1].Address)

	res.Outcomes = res.Outcomes[:1]
	assert.True(t, res.AllSucceeded())

	empty := JobResult{}
	assert.False(t, empty.AllSucceeded())
}
