package protocol

import "github.com/zsiec/moqt/internal/wire"

// ClientSetup is the first message a client sends on the control stream.
type ClientSetup struct {
	Versions     []uint64
	Path         string
	HasPath      bool
	MaxSubscribe uint64
}

// ServerSetup is the server's response to ClientSetup, selecting one version.
type ServerSetup struct {
	SelectedVersion uint64
	MaxSubscribe    uint64
}

// Serialize encodes a CLIENT_SETUP payload.
func (cs ClientSetup) Serialize() []byte {
	buf := wire.AppendVarint(nil, uint64(len(cs.Versions)))
	for _, v := range cs.Versions {
		buf = wire.AppendVarint(buf, v)
	}

	params := wire.NewParameters()
	if cs.HasPath {
		params.SetBytes(wire.ParamPath, []byte(cs.Path))
	}
	if cs.MaxSubscribe > 0 {
		params.SetVarint(wire.ParamMaxSubscribeID, cs.MaxSubscribe)
	}
	buf = params.Append(buf)
	return buf
}

// ParseClientSetup parses a CLIENT_SETUP payload.
func ParseClientSetup(data []byte) (ClientSetup, error) {
	var cs ClientSetup
	b := wire.NewBuffer(data)

	numVersions, err := b.PullVarint()
	if err != nil {
		return cs, &wire.ParseError{Field: "num_versions", Err: err}
	}
	cs.Versions = make([]uint64, numVersions)
	for i := range cs.Versions {
		v, err := b.PullVarint()
		if err != nil {
			return cs, &wire.ParseError{Field: "version", Err: err}
		}
		cs.Versions[i] = v
	}

	params, err := b.PullParameters()
	if err != nil {
		return cs, &wire.ParseError{Field: "setup_parameters", Err: err}
	}
	if path, ok := params.Bytes(wire.ParamPath); ok {
		cs.Path = string(path)
		cs.HasPath = true
	}
	if maxSub, ok := params.Varint(wire.ParamMaxSubscribeID); ok {
		cs.MaxSubscribe = maxSub
	}
	return cs, nil
}

// Serialize encodes a SERVER_SETUP payload.
func (ss ServerSetup) Serialize() []byte {
	buf := wire.AppendVarint(nil, ss.SelectedVersion)
	params := wire.NewParameters()
	if ss.MaxSubscribe > 0 {
		params.SetVarint(wire.ParamMaxSubscribeID, ss.MaxSubscribe)
	}
	buf = params.Append(buf)
	return buf
}

// ParseServerSetup parses a SERVER_SETUP payload.
func ParseServerSetup(data []byte) (ServerSetup, error) {
	var ss ServerSetup
	b := wire.NewBuffer(data)

	v, err := b.PullVarint()
	if err != nil {
		return ss, &wire.ParseError{Field: "selected_version", Err: err}
	}
	ss.SelectedVersion = v

	params, err := b.PullParameters()
	if err != nil {
		return ss, &wire.ParseError{Field: "setup_parameters", Err: err}
	}
	if maxSub, ok := params.Varint(wire.ParamMaxSubscribeID); ok {
		ss.MaxSubscribe = maxSub
	}
	return ss, nil
}
