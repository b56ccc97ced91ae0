package moqt

import (
	"errors"
	"fmt"

	"github.com/zsiec/moqt/internal/protocol"
)

// Session-scope errors, grounded on internal/moq/errors.go's sentinel set
// and extended to cover the session-runtime failures the control message
// codec alone cannot express (setup timeout, closed-while-pending, protocol
// violations detected outside a single message parse).
var (
	ErrSetupTimeout      = errors.New("moqt: setup handshake timed out")
	ErrSessionClosed     = errors.New("moqt: session closed")
	ErrRequestTimeout    = errors.New("moqt: request timed out waiting for response")
	ErrProtocolViolation = errors.New("moqt: protocol violation")
	ErrNotReady          = errors.New("moqt: session not ready (setup incomplete)")
)

// Close codes, re-exported from internal/protocol for use at the
// application-facing Close/CloseTuple surface.
const (
	CloseNoError            = protocol.CloseNoError
	CloseInternalError      = protocol.CloseInternalError
	CloseUnauthorized       = protocol.CloseUnauthorized
	CloseProtocolViolation  = protocol.CloseProtocolViolation
	CloseUnsupportedVersion = protocol.CloseUnsupportedVersion
	CloseSessionClosed      = protocol.CloseSessionClosed
)

// CloseTuple is the (code, reason) pair a session closes with, reported by
// Session.CloseTuple() once Done() has fired.
type CloseTuple struct {
	Code   uint64
	Reason string
}

func (c CloseTuple) Error() string {
	return fmt.Sprintf("moqt: closed (code=0x%x reason=%q)", c.Code, c.Reason)
}

// localClosedError wraps a CloseTuple for a pending request that resolves
// because the session closed before its response arrived, distinguishing
// that case from a remotely-sent ERROR response.
type localClosedError struct {
	CloseTuple
}

func (e *localClosedError) Error() string {
	return "moqt: request abandoned: " + e.CloseTuple.Error()
}

func (e *localClosedError) Unwrap() error { return ErrSessionClosed }
