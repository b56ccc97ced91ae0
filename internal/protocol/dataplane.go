package protocol

import "github.com/zsiec/moqt/internal/wire"

// SubgroupHeader begins a unidirectional subgroup stream, grounded on
// original_source/aiomoqt/messages/track.py's SubgroupHeader.
type SubgroupHeader struct {
	TrackAlias uint64
	GroupID    uint64
	SubgroupID uint64
	Priority   byte
}

func (h SubgroupHeader) Serialize() []byte {
	buf := wire.AppendVarint(nil, uint64(StreamTypeSubgroupHeader))
	buf = wire.AppendVarint(buf, h.TrackAlias)
	buf = wire.AppendVarint(buf, h.GroupID)
	buf = wire.AppendVarint(buf, h.SubgroupID)
	buf = append(buf, h.Priority)
	return buf
}

// ParseSubgroupHeader parses a SubgroupHeader payload, with the leading
// data-stream-type varint already consumed by the caller.
func ParseSubgroupHeader(b *wire.Buffer) (SubgroupHeader, error) {
	var h SubgroupHeader
	var err error
	if h.TrackAlias, err = b.PullVarint(); err != nil {
		return h, &wire.ParseError{Field: "track_alias", Err: err}
	}
	if h.GroupID, err = b.PullVarint(); err != nil {
		return h, &wire.ParseError{Field: "group_id", Err: err}
	}
	if h.SubgroupID, err = b.PullVarint(); err != nil {
		return h, &wire.ParseError{Field: "subgroup_id", Err: err}
	}
	priority, err := b.PullUint8()
	if err != nil {
		return h, &wire.ParseError{Field: "priority", Err: err}
	}
	h.Priority = priority
	return h, nil
}

// FetchHeader begins a unidirectional fetch stream.
type FetchHeader struct {
	SubscribeID uint64
}

func (h FetchHeader) Serialize() []byte {
	buf := wire.AppendVarint(nil, uint64(StreamTypeFetchHeader))
	buf = wire.AppendVarint(buf, h.SubscribeID)
	return buf
}

func ParseFetchHeader(b *wire.Buffer) (FetchHeader, error) {
	id, err := b.PullVarint()
	if err != nil {
		return FetchHeader{}, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	return FetchHeader{SubscribeID: id}, nil
}

// ObjectHeader is one object record on a subgroup stream: object_id |
// extensions | length | (bytes[length] if length>0 else status).
type ObjectHeader struct {
	ObjectID   uint64
	Extensions *wire.Extensions
	Status     ObjectStatus
	Payload    []byte
}

func (o ObjectHeader) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, o.ObjectID)
	buf = o.Extensions.Append(buf)
	if o.Status == StatusNormal && len(o.Payload) > 0 {
		buf = wire.AppendVarint(buf, uint64(len(o.Payload)))
		buf = append(buf, o.Payload...)
	} else {
		buf = wire.AppendVarint(buf, 0)
		buf = wire.AppendVarint(buf, uint64(o.Status))
	}
	return buf
}

func ParseObjectHeader(b *wire.Buffer) (ObjectHeader, error) {
	var o ObjectHeader
	var err error
	if o.ObjectID, err = b.PullVarint(); err != nil {
		return o, &wire.ParseError{Field: "object_id", Err: err}
	}
	if o.Extensions, err = b.PullExtensions(); err != nil {
		return o, &wire.ParseError{Field: "extensions", Err: err}
	}
	length, err := b.PullVarint()
	if err != nil {
		return o, &wire.ParseError{Field: "length", Err: err}
	}
	if length == 0 {
		status, err := b.PullVarint()
		if err != nil {
			return o, &wire.ParseError{Field: "status", Err: err}
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	payload, err := b.PullBytes(int(length))
	if err != nil {
		return o, &wire.ParseError{Field: "payload", Err: err}
	}
	o.Status = StatusNormal
	o.Payload = payload
	return o, nil
}

// FetchObject is one object record on a fetch stream: it additionally
// carries group_id, subgroup_id and priority since a fetch stream is not
// bound to a single subgroup the way a subgroup stream is.
type FetchObject struct {
	GroupID    uint64
	SubgroupID uint64
	ObjectID   uint64
	Priority   byte
	Extensions *wire.Extensions
	Status     ObjectStatus
	Payload    []byte
}

func (o FetchObject) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, o.GroupID)
	buf = wire.AppendVarint(buf, o.SubgroupID)
	buf = wire.AppendVarint(buf, o.ObjectID)
	buf = append(buf, o.Priority)
	buf = o.Extensions.Append(buf)
	if o.Status == StatusNormal && len(o.Payload) > 0 {
		buf = wire.AppendVarint(buf, uint64(len(o.Payload)))
		buf = append(buf, o.Payload...)
	} else {
		buf = wire.AppendVarint(buf, 0)
		buf = wire.AppendVarint(buf, uint64(o.Status))
	}
	return buf
}

func ParseFetchObject(b *wire.Buffer) (FetchObject, error) {
	var o FetchObject
	var err error
	if o.GroupID, err = b.PullVarint(); err != nil {
		return o, &wire.ParseError{Field: "group_id", Err: err}
	}
	if o.SubgroupID, err = b.PullVarint(); err != nil {
		return o, &wire.ParseError{Field: "subgroup_id", Err: err}
	}
	if o.ObjectID, err = b.PullVarint(); err != nil {
		return o, &wire.ParseError{Field: "object_id", Err: err}
	}
	priority, err := b.PullUint8()
	if err != nil {
		return o, &wire.ParseError{Field: "priority", Err: err}
	}
	o.Priority = priority
	if o.Extensions, err = b.PullExtensions(); err != nil {
		return o, &wire.ParseError{Field: "extensions", Err: err}
	}
	length, err := b.PullVarint()
	if err != nil {
		return o, &wire.ParseError{Field: "length", Err: err}
	}
	if length == 0 {
		status, err := b.PullVarint()
		if err != nil {
			return o, &wire.ParseError{Field: "status", Err: err}
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	payload, err := b.PullBytes(int(length))
	if err != nil {
		return o, &wire.ParseError{Field: "payload", Err: err}
	}
	o.Status = StatusNormal
	o.Payload = payload
	return o, nil
}

// ObjectDatagram carries one object entirely inside a single datagram: no
// length field, since the datagram boundary is the payload boundary.
type ObjectDatagram struct {
	TrackAlias uint64
	GroupID    uint64
	ObjectID   uint64
	Priority   byte
	Extensions *wire.Extensions
	Payload    []byte
}

func (d ObjectDatagram) Serialize() []byte {
	buf := wire.AppendVarint(nil, uint64(DatagramTypeObject))
	buf = wire.AppendVarint(buf, d.TrackAlias)
	buf = wire.AppendVarint(buf, d.GroupID)
	buf = wire.AppendVarint(buf, d.ObjectID)
	buf = append(buf, d.Priority)
	buf = d.Extensions.Append(buf)
	buf = append(buf, d.Payload...)
	return buf
}

// ParseObjectDatagram parses a datagram payload after the leading
// datagram-type varint has been consumed by the caller. The remainder of
// buf is taken as the object payload verbatim.
func ParseObjectDatagram(b *wire.Buffer) (ObjectDatagram, error) {
	var d ObjectDatagram
	var err error
	if d.TrackAlias, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "track_alias", Err: err}
	}
	if d.GroupID, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "group_id", Err: err}
	}
	if d.ObjectID, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "object_id", Err: err}
	}
	priority, err := b.PullUint8()
	if err != nil {
		return d, &wire.ParseError{Field: "priority", Err: err}
	}
	d.Priority = priority
	if d.Extensions, err = b.PullExtensions(); err != nil {
		return d, &wire.ParseError{Field: "extensions", Err: err}
	}
	d.Payload = b.Bytes()[b.Tell():]
	return d, nil
}

// ObjectDatagramStatus announces an object's status (e.g. DOES_NOT_EXIST)
// without a payload, as a datagram rather than a stream record.
type ObjectDatagramStatus struct {
	TrackAlias uint64
	GroupID    uint64
	ObjectID   uint64
	Priority   byte
	Extensions *wire.Extensions
	Status     ObjectStatus
}

func (d ObjectDatagramStatus) Serialize() []byte {
	buf := wire.AppendVarint(nil, uint64(DatagramTypeObjectStatus))
	buf = wire.AppendVarint(buf, d.TrackAlias)
	buf = wire.AppendVarint(buf, d.GroupID)
	buf = wire.AppendVarint(buf, d.ObjectID)
	buf = append(buf, d.Priority)
	buf = d.Extensions.Append(buf)
	buf = wire.AppendVarint(buf, uint64(d.Status))
	return buf
}

func ParseObjectDatagramStatus(b *wire.Buffer) (ObjectDatagramStatus, error) {
	var d ObjectDatagramStatus
	var err error
	if d.TrackAlias, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "track_alias", Err: err}
	}
	if d.GroupID, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "group_id", Err: err}
	}
	if d.ObjectID, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "object_id", Err: err}
	}
	priority, err := b.PullUint8()
	if err != nil {
		return d, &wire.ParseError{Field: "priority", Err: err}
	}
	d.Priority = priority
	if d.Extensions, err = b.PullExtensions(); err != nil {
		return d, &wire.ParseError{Field: "extensions", Err: err}
	}
	status, err := b.PullVarint()
	if err != nil {
		return d, &wire.ParseError{Field: "status", Err: err}
	}
	d.Status = ObjectStatus(status)
	return d, nil
}
