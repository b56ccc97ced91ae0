package protocol

import "github.com/zsiec/moqt/internal/wire"

// Subscribe requests delivery of a track, identified by namespace + name.
type Subscribe struct {
	SubscribeID    uint64
	TrackAlias     uint64
	Namespace      wire.Namespace
	TrackName      string
	Priority       byte
	GroupOrder     byte
	Forward        bool
	FilterType     uint64
	StartGroup     uint64 // AbsoluteStart, AbsoluteRange
	StartObject    uint64 // AbsoluteStart, AbsoluteRange
	EndGroup       uint64 // AbsoluteRange
	Authorization  string
	HasAuthorization bool
}

func (s Subscribe) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, s.SubscribeID)
	buf = wire.AppendVarint(buf, s.TrackAlias)
	buf = wire.AppendNamespace(buf, s.Namespace)
	buf = wire.AppendVarint(buf, uint64(len(s.TrackName)))
	buf = append(buf, s.TrackName...)
	buf = append(buf, s.Priority, s.GroupOrder, boolByte(s.Forward))
	buf = wire.AppendVarint(buf, s.FilterType)
	switch s.FilterType {
	case FilterAbsoluteStart:
		buf = wire.AppendVarint(buf, s.StartGroup)
		buf = wire.AppendVarint(buf, s.StartObject)
	case FilterAbsoluteRange:
		buf = wire.AppendVarint(buf, s.StartGroup)
		buf = wire.AppendVarint(buf, s.StartObject)
		buf = wire.AppendVarint(buf, s.EndGroup)
	}

	params := wire.NewParameters()
	if s.HasAuthorization {
		params.SetBytes(wire.ParamAuthorizationInfo, []byte(s.Authorization))
	}
	buf = params.Append(buf)
	return buf
}

func ParseSubscribe(data []byte) (Subscribe, error) {
	var s Subscribe
	b := wire.NewBuffer(data)

	var err error
	if s.SubscribeID, err = b.PullVarint(); err != nil {
		return s, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	if s.TrackAlias, err = b.PullVarint(); err != nil {
		return s, &wire.ParseError{Field: "track_alias", Err: err}
	}
	if s.Namespace, err = b.PullNamespace(); err != nil {
		return s, &wire.ParseError{Field: "namespace", Err: err}
	}
	name, err := b.PullVarintBytes()
	if err != nil {
		return s, &wire.ParseError{Field: "track_name", Err: err}
	}
	s.TrackName = string(name)

	priority, err := b.PullUint8()
	if err != nil {
		return s, &wire.ParseError{Field: "priority", Err: err}
	}
	s.Priority = priority

	groupOrder, err := b.PullUint8()
	if err != nil {
		return s, &wire.ParseError{Field: "group_order", Err: err}
	}
	s.GroupOrder = groupOrder

	forward, err := b.PullUint8()
	if err != nil {
		return s, &wire.ParseError{Field: "forward", Err: err}
	}
	s.Forward = forward != 0

	if s.FilterType, err = b.PullVarint(); err != nil {
		return s, &wire.ParseError{Field: "filter_type", Err: err}
	}

	switch s.FilterType {
	case FilterAbsoluteStart:
		if s.StartGroup, err = b.PullVarint(); err != nil {
			return s, &wire.ParseError{Field: "start_group", Err: err}
		}
		if s.StartObject, err = b.PullVarint(); err != nil {
			return s, &wire.ParseError{Field: "start_object", Err: err}
		}
	case FilterAbsoluteRange:
		if s.StartGroup, err = b.PullVarint(); err != nil {
			return s, &wire.ParseError{Field: "start_group", Err: err}
		}
		if s.StartObject, err = b.PullVarint(); err != nil {
			return s, &wire.ParseError{Field: "start_object", Err: err}
		}
		if s.EndGroup, err = b.PullVarint(); err != nil {
			return s, &wire.ParseError{Field: "end_group", Err: err}
		}
	}

	params, err := b.PullParameters()
	if err != nil {
		return s, &wire.ParseError{Field: "subscribe_parameters", Err: err}
	}
	if auth, ok := params.Bytes(wire.ParamAuthorizationInfo); ok {
		s.Authorization = string(auth)
		s.HasAuthorization = true
	}
	return s, nil
}

// SubscribeUpdate narrows an existing subscription's range or priority.
type SubscribeUpdate struct {
	SubscribeID uint64
	StartGroup  uint64
	StartObject uint64
	EndGroup    uint64
	Priority    byte
	Forward     bool
}

func (u SubscribeUpdate) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, u.SubscribeID)
	buf = wire.AppendVarint(buf, u.StartGroup)
	buf = wire.AppendVarint(buf, u.StartObject)
	buf = wire.AppendVarint(buf, u.EndGroup)
	buf = append(buf, u.Priority, boolByte(u.Forward))
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseSubscribeUpdate(data []byte) (SubscribeUpdate, error) {
	var u SubscribeUpdate
	b := wire.NewBuffer(data)
	var err error
	if u.SubscribeID, err = b.PullVarint(); err != nil {
		return u, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	if u.StartGroup, err = b.PullVarint(); err != nil {
		return u, &wire.ParseError{Field: "start_group", Err: err}
	}
	if u.StartObject, err = b.PullVarint(); err != nil {
		return u, &wire.ParseError{Field: "start_object", Err: err}
	}
	if u.EndGroup, err = b.PullVarint(); err != nil {
		return u, &wire.ParseError{Field: "end_group", Err: err}
	}
	priority, err := b.PullUint8()
	if err != nil {
		return u, &wire.ParseError{Field: "priority", Err: err}
	}
	u.Priority = priority
	forward, err := b.PullUint8()
	if err != nil {
		return u, &wire.ParseError{Field: "forward", Err: err}
	}
	u.Forward = forward != 0
	if _, err := b.PullParameters(); err != nil {
		return u, &wire.ParseError{Field: "subscribe_update_parameters", Err: err}
	}
	return u, nil
}

// SubscribeOK confirms a subscription and reports the largest object known.
type SubscribeOK struct {
	SubscribeID   uint64
	Expires       uint64
	GroupOrder    byte
	ContentExists bool
	LargestGroup  uint64
	LargestObject uint64
}

func (ok SubscribeOK) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, ok.SubscribeID)
	buf = wire.AppendVarint(buf, ok.Expires)
	buf = append(buf, ok.GroupOrder, boolByte(ok.ContentExists))
	if ok.ContentExists {
		buf = wire.AppendVarint(buf, ok.LargestGroup)
		buf = wire.AppendVarint(buf, ok.LargestObject)
	}
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseSubscribeOK(data []byte) (SubscribeOK, error) {
	var ok SubscribeOK
	b := wire.NewBuffer(data)
	var err error
	if ok.SubscribeID, err = b.PullVarint(); err != nil {
		return ok, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	if ok.Expires, err = b.PullVarint(); err != nil {
		return ok, &wire.ParseError{Field: "expires", Err: err}
	}
	groupOrder, err := b.PullUint8()
	if err != nil {
		return ok, &wire.ParseError{Field: "group_order", Err: err}
	}
	ok.GroupOrder = groupOrder
	exists, err := b.PullUint8()
	if err != nil {
		return ok, &wire.ParseError{Field: "content_exists", Err: err}
	}
	ok.ContentExists = exists != 0
	if ok.ContentExists {
		if ok.LargestGroup, err = b.PullVarint(); err != nil {
			return ok, &wire.ParseError{Field: "largest_group", Err: err}
		}
		if ok.LargestObject, err = b.PullVarint(); err != nil {
			return ok, &wire.ParseError{Field: "largest_object", Err: err}
		}
	}
	if _, err := b.PullParameters(); err != nil {
		return ok, &wire.ParseError{Field: "subscribe_ok_parameters", Err: err}
	}
	return ok, nil
}

// SubscribeError rejects a subscription request.
type SubscribeError struct {
	SubscribeID  uint64
	ErrorCode    uint64
	ReasonPhrase string
}

func (e SubscribeError) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, e.SubscribeID)
	buf = wire.AppendVarint(buf, e.ErrorCode)
	buf = wire.AppendVarint(buf, uint64(len(e.ReasonPhrase)))
	buf = append(buf, e.ReasonPhrase...)
	return buf
}

func ParseSubscribeError(data []byte) (SubscribeError, error) {
	var e SubscribeError
	b := wire.NewBuffer(data)
	var err error
	if e.SubscribeID, err = b.PullVarint(); err != nil {
		return e, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	if e.ErrorCode, err = b.PullVarint(); err != nil {
		return e, &wire.ParseError{Field: "error_code", Err: err}
	}
	reason, err := b.PullVarintBytes()
	if err != nil {
		return e, &wire.ParseError{Field: "reason_phrase", Err: err}
	}
	e.ReasonPhrase = string(reason)
	return e, nil
}

// Unsubscribe cancels an active subscription.
type Unsubscribe struct {
	SubscribeID uint64
}

func (u Unsubscribe) Serialize() []byte {
	return wire.AppendVarint(nil, u.SubscribeID)
}

func ParseUnsubscribe(data []byte) (Unsubscribe, error) {
	b := wire.NewBuffer(data)
	id, err := b.PullVarint()
	if err != nil {
		return Unsubscribe{}, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	return Unsubscribe{SubscribeID: id}, nil
}

// SubscribeDone tells the subscriber a subscription ended and why.
type SubscribeDone struct {
	SubscribeID  uint64
	StatusCode   uint64
	StreamCount  uint64
	ReasonPhrase string
}

func (d SubscribeDone) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, d.SubscribeID)
	buf = wire.AppendVarint(buf, d.StatusCode)
	buf = wire.AppendVarint(buf, uint64(len(d.ReasonPhrase)))
	buf = append(buf, d.ReasonPhrase...)
	buf = wire.AppendVarint(buf, d.StreamCount)
	return buf
}

func ParseSubscribeDone(data []byte) (SubscribeDone, error) {
	var d SubscribeDone
	b := wire.NewBuffer(data)
	var err error
	if d.SubscribeID, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	if d.StatusCode, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "status_code", Err: err}
	}
	reason, err := b.PullVarintBytes()
	if err != nil {
		return d, &wire.ParseError{Field: "reason_phrase", Err: err}
	}
	d.ReasonPhrase = string(reason)
	if d.StreamCount, err = b.PullVarint(); err != nil {
		return d, &wire.ParseError{Field: "stream_count", Err: err}
	}
	return d, nil
}

// MaxSubscribeID raises the subscriber's request ID quota.
type MaxSubscribeID struct {
	SubscribeID uint64
}

func (m MaxSubscribeID) Serialize() []byte {
	return wire.AppendVarint(nil, m.SubscribeID)
}

func ParseMaxSubscribeID(data []byte) (MaxSubscribeID, error) {
	b := wire.NewBuffer(data)
	id, err := b.PullVarint()
	if err != nil {
		return MaxSubscribeID{}, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	return MaxSubscribeID{SubscribeID: id}, nil
}

// SubscribesBlocked tells the peer the sender hit its subscribe ID quota.
type SubscribesBlocked struct {
	MaximumSubscribeID uint64
}

func (s SubscribesBlocked) Serialize() []byte {
	return wire.AppendVarint(nil, s.MaximumSubscribeID)
}

func ParseSubscribesBlocked(data []byte) (SubscribesBlocked, error) {
	b := wire.NewBuffer(data)
	id, err := b.PullVarint()
	if err != nil {
		return SubscribesBlocked{}, &wire.ParseError{Field: "maximum_subscribe_id", Err: err}
	}
	return SubscribesBlocked{MaximumSubscribeID: id}, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
