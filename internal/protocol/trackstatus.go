package protocol

import "github.com/zsiec/moqt/internal/wire"

// TrackStatusRequest asks for the current status of a track without
// subscribing to it.
type TrackStatusRequest struct {
	Namespace wire.Namespace
	TrackName string
}

func (r TrackStatusRequest) Serialize() []byte {
	buf := wire.AppendNamespace(nil, r.Namespace)
	buf = wire.AppendVarint(buf, uint64(len(r.TrackName)))
	buf = append(buf, r.TrackName...)
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseTrackStatusRequest(data []byte) (TrackStatusRequest, error) {
	var r TrackStatusRequest
	b := wire.NewBuffer(data)
	var err error
	if r.Namespace, err = b.PullNamespace(); err != nil {
		return r, &wire.ParseError{Field: "namespace", Err: err}
	}
	name, err := b.PullVarintBytes()
	if err != nil {
		return r, &wire.ParseError{Field: "track_name", Err: err}
	}
	r.TrackName = string(name)
	if _, err := b.PullParameters(); err != nil {
		return r, &wire.ParseError{Field: "track_status_request_parameters", Err: err}
	}
	return r, nil
}

// TrackStatusCode reports whether a track exists and, if so, its bounds.
type TrackStatusCode uint64

const (
	TrackStatusExists         TrackStatusCode = 0x00
	TrackStatusDoesNotExist   TrackStatusCode = 0x01
	TrackStatusNotYetBegun    TrackStatusCode = 0x02
	TrackStatusSubscribeError TrackStatusCode = 0x03
)

// TrackStatus answers a TrackStatusRequest.
type TrackStatus struct {
	Namespace     wire.Namespace
	TrackName     string
	StatusCode    TrackStatusCode
	LargestGroup  uint64
	LargestObject uint64
}

func (s TrackStatus) Serialize() []byte {
	buf := wire.AppendNamespace(nil, s.Namespace)
	buf = wire.AppendVarint(buf, uint64(len(s.TrackName)))
	buf = append(buf, s.TrackName...)
	buf = wire.AppendVarint(buf, uint64(s.StatusCode))
	buf = wire.AppendVarint(buf, s.LargestGroup)
	buf = wire.AppendVarint(buf, s.LargestObject)
	return buf
}

func ParseTrackStatus(data []byte) (TrackStatus, error) {
	var s TrackStatus
	b := wire.NewBuffer(data)
	var err error
	if s.Namespace, err = b.PullNamespace(); err != nil {
		return s, &wire.ParseError{Field: "namespace", Err: err}
	}
	name, err := b.PullVarintBytes()
	if err != nil {
		return s, &wire.ParseError{Field: "track_name", Err: err}
	}
	s.TrackName = string(name)
	code, err := b.PullVarint()
	if err != nil {
		return s, &wire.ParseError{Field: "status_code", Err: err}
	}
	s.StatusCode = TrackStatusCode(code)
	if s.LargestGroup, err = b.PullVarint(); err != nil {
		return s, &wire.ParseError{Field: "largest_group", Err: err}
	}
	if s.LargestObject, err = b.PullVarint(); err != nil {
		return s, &wire.ParseError{Field: "largest_object", Err: err}
	}
	return s, nil
}
