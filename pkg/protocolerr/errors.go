// Package protocolerr defines the client's error taxonomy: every failure
// surfaced by the pairing engine, remote session, or controller façade is
// one of these, so callers can branch on a small closed set instead of
// inspecting wrapped transport errors.
package protocolerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no additional detail.
var (
	// ErrNoIdentity indicates the identity store could not materialize a
	// usable client identity.
	ErrNoIdentity = errors.New("no identity available from the credential store")

	// ErrPairingRejected indicates the TV replied with a non-200 status
	// at some step of the pairing handshake.
	ErrPairingRejected = errors.New("pairing rejected by peer")

	// ErrInvalidResponse indicates a malformed PIN or an unparseable
	// pairing response.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrSecretMismatch indicates the PIN's check byte did not match the
	// locally computed pairing secret.
	ErrSecretMismatch = errors.New("pairing secret mismatch")

	// ErrServerCertNotAvailable indicates the TLS handshake completed
	// without yielding a captured leaf certificate.
	ErrServerCertNotAvailable = errors.New("server certificate not available")

	// ErrTimeout indicates a wait_for_message ceiling elapsed with no
	// response.
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrNotConnected indicates a command was issued on a session with
	// no active connection.
	ErrNotConnected = errors.New("not connected")
)

// ConnectionFailedError reports a TLS or transport failure, including
// cancellation (Reason == "Cancelled").
type ConnectionFailedError struct {
	Reason string
}

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("connection failed: %s", e.Reason)
}

// ConnectionFailed wraps reason as a ConnectionFailedError.
func ConnectionFailed(reason string) error {
	return &ConnectionFailedError{Reason: reason}
}

// IsConnectionFailed reports whether err is a ConnectionFailedError and,
// if so, returns its reason.
func IsConnectionFailed(err error) (reason string, ok bool) {
	var cf *ConnectionFailedError
	if errors.As(err, &cf) {
		return cf.Reason, true
	}
	return "", false
}

// Cancelled is the reason used for a ConnectionFailedError raised by
// cancel().
const Cancelled = "Cancelled"
