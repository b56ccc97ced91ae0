package protocol

import "errors"

// Sentinel errors returned while parsing or dispatching control messages,
// grounded on internal/moq/errors.go.
var (
	ErrVersionMismatch    = errors.New("protocol: no common version")
	ErrUnknownTrack       = errors.New("protocol: unknown track")
	ErrUnknownNamespace   = errors.New("protocol: unknown namespace")
	ErrUnsupportedFilter  = errors.New("protocol: unsupported filter type")
	ErrUnexpectedMessage  = errors.New("protocol: unexpected message type")
	ErrDuplicateRequestID = errors.New("protocol: duplicate request id")
	ErrMessageTooLarge    = errors.New("protocol: control message exceeds max size")
)
