package model

import (
	"errors"
	"fmt"
)

// Failure taxonomy for backup attempts. Transient classes are retried by the
// retry policy; fatal classes abort the robot immediately.
var (
	// ErrConnectionTimeout marks a dial or transfer that timed out (transient).
	ErrConnectionTimeout = errors.New("connection timed out")
	// ErrTransferIntegrity marks a byte-count mismatch against the server-reported size (transient).
	ErrTransferIntegrity = errors.New("transfer integrity check failed")
	// ErrAuthentication marks a rejected login (fatal).
	ErrAuthentication = errors.New("authentication failed")
	// ErrDestinationWrite marks a local filesystem failure under the destination (fatal).
	ErrDestinationWrite = errors.New("destination write failed")

	// ErrJobNotFound is returned by a JobConfigStore when no definition exists
	// for the requested job number.
	ErrJobNotFound = errors.New("job not found")
)

// InvalidAddressError reports a target spec that cannot be resolved to a
// concrete robot address. It is fatal to that target only.
type InvalidAddressError struct {
	Spec   string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid robot address %q: %s", e.Spec, e.Reason)
}

// IsTransient reports whether err belongs to a failure class worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnectionTimeout) || errors.Is(err, ErrTransferIntegrity)
}

// IsFatal reports whether err belongs to a failure class that must not be
// retried. An InvalidAddressError is fatal to its target.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var addrErr *InvalidAddressError
	if errors.As(err, &addrErr) {
		return true
	}
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrDestinationWrite)
}
