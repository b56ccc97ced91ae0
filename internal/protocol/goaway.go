package protocol

import "github.com/zsiec/moqt/internal/wire"

// GoAway asks the peer to migrate to a new session, optionally at a new URI.
type GoAway struct {
	NewSessionURI string
}

func (g GoAway) Serialize() []byte {
	buf := wire.AppendVarint(nil, uint64(len(g.NewSessionURI)))
	buf = append(buf, g.NewSessionURI...)
	return buf
}

func ParseGoAway(data []byte) (GoAway, error) {
	b := wire.NewBuffer(data)
	uri, err := b.PullVarintBytes()
	if err != nil {
		return GoAway{}, &wire.ParseError{Field: "new_session_uri", Err: err}
	}
	return GoAway{NewSessionURI: string(uri)}, nil
}
