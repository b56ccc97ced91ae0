// Package protocol implements the MoQT message shapes: every control
// message type and every data-plane frame, built on top of internal/wire's
// varint/buffer/namespace/parameter primitives.
package protocol

// Control message type IDs. Field layouts are documented per-type in the
// sibling files (setup.go, announce.go, subscribe.go, fetch.go,
// trackstatus.go, goaway.go), grounded on internal/moq/control.go extended
// to the full message set using the shapes original_source/moqt/messages.py
// and original_source/aiomoqt/messages/track.py show for the rest.
const (
	MsgSubscribeUpdate          uint64 = 0x01
	MsgSubscribe                uint64 = 0x03
	MsgSubscribeOK              uint64 = 0x04
	MsgSubscribeError           uint64 = 0x05
	MsgAnnounce                 uint64 = 0x06
	MsgAnnounceOK               uint64 = 0x07
	MsgAnnounceError            uint64 = 0x08
	MsgUnannounce               uint64 = 0x09
	MsgUnsubscribe              uint64 = 0x0a
	MsgSubscribeDone            uint64 = 0x0b
	MsgAnnounceCancel           uint64 = 0x0c
	MsgTrackStatusRequest       uint64 = 0x0d
	MsgTrackStatus              uint64 = 0x0e
	MsgGoAway                   uint64 = 0x10
	MsgSubscribeAnnounces       uint64 = 0x11
	MsgSubscribeAnnouncesOK     uint64 = 0x12
	MsgSubscribeAnnouncesError  uint64 = 0x13
	MsgUnsubscribeAnnounces     uint64 = 0x14
	MsgMaxSubscribeID           uint64 = 0x15
	MsgFetch                    uint64 = 0x16
	MsgFetchCancel              uint64 = 0x17
	MsgFetchOK                  uint64 = 0x18
	MsgFetchError               uint64 = 0x19
	MsgSubscribesBlocked        uint64 = 0x1a
	MsgClientSetup              uint64 = 0x20
	MsgServerSetup              uint64 = 0x21
)

// Version is the MoQT version this implementation speaks.
const Version uint64 = 0xff00000b

// DefaultPriority is the publisher priority used when a request omits one.
const DefaultPriority byte = 128

// Group order values.
const (
	GroupOrderDefault    byte = 0x00
	GroupOrderAscending  byte = 0x01
	GroupOrderDescending byte = 0x02
)

// Subscribe filter types.
const (
	FilterLatestGroup   uint64 = 0x01
	FilterLatestObject  uint64 = 0x02
	FilterAbsoluteStart uint64 = 0x03
	FilterAbsoluteRange uint64 = 0x04
)

// ObjectStatus values.
type ObjectStatus uint64

const (
	StatusNormal         ObjectStatus = 0
	StatusDoesNotExist   ObjectStatus = 1
	StatusEndOfGroup     ObjectStatus = 2
	StatusEndOfTrack     ObjectStatus = 3
	StatusEndOfSubgroup  ObjectStatus = 4
)

// DataStreamType identifies the shape of a unidirectional stream's header.
type DataStreamType uint64

const (
	StreamTypeSubgroupHeader DataStreamType = 0x04
	StreamTypeFetchHeader    DataStreamType = 0x05
)

// DatagramType identifies the shape of a MoQT datagram.
type DatagramType uint64

const (
	DatagramTypeObject       DatagramType = 0x01
	DatagramTypeObjectStatus DatagramType = 0x02
)

// Protocol-level close codes.
const (
	CloseNoError            uint64 = 0x00
	CloseInternalError      uint64 = 0x01
	CloseUnauthorized       uint64 = 0x02
	CloseProtocolViolation  uint64 = 0x03
	CloseDuplicateTrackAlia uint64 = 0x04
	CloseUnsupportedVersion uint64 = 0x05
	CloseGoAwayTimeout      uint64 = 0x10
	CloseSessionClosed      uint64 = 0x11
)
