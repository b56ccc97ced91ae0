package protocol

import "github.com/zsiec/moqt/internal/wire"

// Fetch requests a one-shot range of past objects from a track.
type Fetch struct {
	SubscribeID uint64
	Priority    byte
	GroupOrder  byte
	Namespace   wire.Namespace
	TrackName   string
	StartGroup  uint64
	StartObject uint64
	EndGroup    uint64
	EndObject   uint64
}

func (f Fetch) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, f.SubscribeID)
	buf = append(buf, f.Priority, f.GroupOrder)
	buf = wire.AppendNamespace(buf, f.Namespace)
	buf = wire.AppendVarint(buf, uint64(len(f.TrackName)))
	buf = append(buf, f.TrackName...)
	buf = wire.AppendVarint(buf, f.StartGroup)
	buf = wire.AppendVarint(buf, f.StartObject)
	buf = wire.AppendVarint(buf, f.EndGroup)
	buf = wire.AppendVarint(buf, f.EndObject)
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseFetch(data []byte) (Fetch, error) {
	var f Fetch
	b := wire.NewBuffer(data)
	var err error
	if f.SubscribeID, err = b.PullVarint(); err != nil {
		return f, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	priority, err := b.PullUint8()
	if err != nil {
		return f, &wire.ParseError{Field: "priority", Err: err}
	}
	f.Priority = priority
	groupOrder, err := b.PullUint8()
	if err != nil {
		return f, &wire.ParseError{Field: "group_order", Err: err}
	}
	f.GroupOrder = groupOrder
	if f.Namespace, err = b.PullNamespace(); err != nil {
		return f, &wire.ParseError{Field: "namespace", Err: err}
	}
	name, err := b.PullVarintBytes()
	if err != nil {
		return f, &wire.ParseError{Field: "track_name", Err: err}
	}
	f.TrackName = string(name)
	if f.StartGroup, err = b.PullVarint(); err != nil {
		return f, &wire.ParseError{Field: "start_group", Err: err}
	}
	if f.StartObject, err = b.PullVarint(); err != nil {
		return f, &wire.ParseError{Field: "start_object", Err: err}
	}
	if f.EndGroup, err = b.PullVarint(); err != nil {
		return f, &wire.ParseError{Field: "end_group", Err: err}
	}
	if f.EndObject, err = b.PullVarint(); err != nil {
		return f, &wire.ParseError{Field: "end_object", Err: err}
	}
	if _, err := b.PullParameters(); err != nil {
		return f, &wire.ParseError{Field: "fetch_parameters", Err: err}
	}
	return f, nil
}

// FetchOK confirms a FETCH and reports the range actually available.
type FetchOK struct {
	SubscribeID   uint64
	GroupOrder    byte
	EndOfTrack    bool
	LargestGroup  uint64
	LargestObject uint64
}

func (ok FetchOK) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, ok.SubscribeID)
	buf = append(buf, ok.GroupOrder, boolByte(ok.EndOfTrack))
	buf = wire.AppendVarint(buf, ok.LargestGroup)
	buf = wire.AppendVarint(buf, ok.LargestObject)
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseFetchOK(data []byte) (FetchOK, error) {
	var ok FetchOK
	b := wire.NewBuffer(data)
	var err error
	if ok.SubscribeID, err = b.PullVarint(); err != nil {
		return ok, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	groupOrder, err := b.PullUint8()
	if err != nil {
		return ok, &wire.ParseError{Field: "group_order", Err: err}
	}
	ok.GroupOrder = groupOrder
	endOfTrack, err := b.PullUint8()
	if err != nil {
		return ok, &wire.ParseError{Field: "end_of_track", Err: err}
	}
	ok.EndOfTrack = endOfTrack != 0
	if ok.LargestGroup, err = b.PullVarint(); err != nil {
		return ok, &wire.ParseError{Field: "largest_group", Err: err}
	}
	if ok.LargestObject, err = b.PullVarint(); err != nil {
		return ok, &wire.ParseError{Field: "largest_object", Err: err}
	}
	if _, err := b.PullParameters(); err != nil {
		return ok, &wire.ParseError{Field: "fetch_ok_parameters", Err: err}
	}
	return ok, nil
}

// FetchError rejects a FETCH.
type FetchError struct {
	SubscribeID  uint64
	ErrorCode    uint64
	ReasonPhrase string
}

func (e FetchError) Serialize() []byte {
	var buf []byte
	buf = wire.AppendVarint(buf, e.SubscribeID)
	buf = wire.AppendVarint(buf, e.ErrorCode)
	buf = wire.AppendVarint(buf, uint64(len(e.ReasonPhrase)))
	buf = append(buf, e.ReasonPhrase...)
	return buf
}

func ParseFetchError(data []byte) (FetchError, error) {
	var e FetchError
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

// FetchCancel aborts an in-progress FETCH.
type FetchCancel struct {
	SubscribeID uint64
}

func (f FetchCancel) Serialize() []byte {
	return wire.AppendVarint(nil, f.SubscribeID)
}

func ParseFetchCancel(data []byte) (FetchCancel, error) {
	b := wire.NewBuffer(data)
	id, err := b.PullVarint()
	if err != nil {
		return FetchCancel{}, &wire.ParseError{Field: "subscribe_id", Err: err}
	}
	return FetchCancel{SubscribeID: id}, nil
}
