package protocol

import "github.com/zsiec/moqt/internal/wire"

// Announce advertises that the sender can serve tracks under a namespace.
type Announce struct {
	Namespace wire.Namespace
}

func (a Announce) Serialize() []byte {
	buf := wire.AppendNamespace(nil, a.Namespace)
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseAnnounce(data []byte) (Announce, error) {
	var a Announce
	b := wire.NewBuffer(data)
	var err error
	if a.Namespace, err = b.PullNamespace(); err != nil {
		return a, &wire.ParseError{Field: "namespace", Err: err}
	}
	if _, err := b.PullParameters(); err != nil {
		return a, &wire.ParseError{Field: "announce_parameters", Err: err}
	}
	return a, nil
}

// AnnounceOK confirms an ANNOUNCE was accepted.
type AnnounceOK struct {
	Namespace wire.Namespace
}

func (a AnnounceOK) Serialize() []byte {
	return wire.AppendNamespace(nil, a.Namespace)
}

func ParseAnnounceOK(data []byte) (AnnounceOK, error) {
	var a AnnounceOK
	b := wire.NewBuffer(data)
	var err error
	if a.Namespace, err = b.PullNamespace(); err != nil {
		return a, &wire.ParseError{Field: "namespace", Err: err}
	}
	return a, nil
}

// AnnounceError rejects an ANNOUNCE.
type AnnounceError struct {
	Namespace    wire.Namespace
	ErrorCode    uint64
	ReasonPhrase string
}

func (a AnnounceError) Serialize() []byte {
	buf := wire.AppendNamespace(nil, a.Namespace)
	buf = wire.AppendVarint(buf, a.ErrorCode)
	buf = wire.AppendVarint(buf, uint64(len(a.ReasonPhrase)))
	buf = append(buf, a.ReasonPhrase...)
	return buf
}

func ParseAnnounceError(data []byte) (AnnounceError, error) {
	var a AnnounceError
	b := wire.NewBuffer(data)
	var err error
	if a.Namespace, err = b.PullNamespace(); err != nil {
		return a, &wire.ParseError{Field: "namespace", Err: err}
	}
	if a.ErrorCode, err = b.PullVarint(); err != nil {
		return a, &wire.ParseError{Field: "error_code", Err: err}
	}
	reason, err := b.PullVarintBytes()
	if err != nil {
		return a, &wire.ParseError{Field: "reason_phrase", Err: err}
	}
	a.ReasonPhrase = string(reason)
	return a, nil
}

// Unannounce withdraws a previously announced namespace.
type Unannounce struct {
	Namespace wire.Namespace
}

func (u Unannounce) Serialize() []byte {
	return wire.AppendNamespace(nil, u.Namespace)
}

func ParseUnannounce(data []byte) (Unannounce, error) {
	var u Unannounce
	b := wire.NewBuffer(data)
	var err error
	if u.Namespace, err = b.PullNamespace(); err != nil {
		return u, &wire.ParseError{Field: "namespace", Err: err}
	}
	return u, nil
}

// AnnounceCancel tells a subscriber-side announcer its ANNOUNCE was revoked.
type AnnounceCancel struct {
	Namespace    wire.Namespace
	ErrorCode    uint64
	ReasonPhrase string
}

func (a AnnounceCancel) Serialize() []byte {
	buf := wire.AppendNamespace(nil, a.Namespace)
	buf = wire.AppendVarint(buf, a.ErrorCode)
	buf = wire.AppendVarint(buf, uint64(len(a.ReasonPhrase)))
	buf = append(buf, a.ReasonPhrase...)
	return buf
}

func ParseAnnounceCancel(data []byte) (AnnounceCancel, error) {
	var a AnnounceCancel
	b := wire.NewBuffer(data)
	var err error
	if a.Namespace, err = b.PullNamespace(); err != nil {
		return a, &wire.ParseError{Field: "namespace", Err: err}
	}
	if a.ErrorCode, err = b.PullVarint(); err != nil {
		return a, &wire.ParseError{Field: "error_code", Err: err}
	}
	reason, err := b.PullVarintBytes()
	if err != nil {
		return a, &wire.ParseError{Field: "reason_phrase", Err: err}
	}
	a.ReasonPhrase = string(reason)
	return a, nil
}

// SubscribeAnnounces asks a peer to forward ANNOUNCE messages for a
// namespace prefix as they arrive.
type SubscribeAnnounces struct {
	NamespacePrefix wire.Namespace
}

func (s SubscribeAnnounces) Serialize() []byte {
	buf := wire.AppendNamespace(nil, s.NamespacePrefix)
	params := wire.NewParameters()
	buf = params.Append(buf)
	return buf
}

func ParseSubscribeAnnounces(data []byte) (SubscribeAnnounces, error) {
	var s SubscribeAnnounces
	b := wire.NewBuffer(data)
	var err error
	if s.NamespacePrefix, err = b.PullNamespace(); err != nil {
		return s, &wire.ParseError{Field: "namespace_prefix", Err: err}
	}
	if _, err := b.PullParameters(); err != nil {
		return s, &wire.ParseError{Field: "subscribe_announces_parameters", Err: err}
	}
	return s, nil
}

// SubscribeAnnouncesOK confirms a SUBSCRIBE_ANNOUNCES.
type SubscribeAnnouncesOK struct {
	NamespacePrefix wire.Namespace
}

func (s SubscribeAnnouncesOK) Serialize() []byte {
	return wire.AppendNamespace(nil, s.NamespacePrefix)
}

func ParseSubscribeAnnouncesOK(data []byte) (SubscribeAnnouncesOK, error) {
	var s SubscribeAnnouncesOK
	b := wire.NewBuffer(data)
	var err error
	if s.NamespacePrefix, err = b.PullNamespace(); err != nil {
		return s, &wire.ParseError{Field: "namespace_prefix", Err: err}
	}
	return s, nil
}

// SubscribeAnnouncesError rejects a SUBSCRIBE_ANNOUNCES.
type SubscribeAnnouncesError struct {
	NamespacePrefix wire.Namespace
	ErrorCode       uint64
	ReasonPhrase    string
}

func (s SubscribeAnnouncesError) Serialize() []byte {
	buf := wire.AppendNamespace(nil, s.NamespacePrefix)
	buf = wire.AppendVarint(buf, s.ErrorCode)
	buf = wire.AppendVarint(buf, uint64(len(s.ReasonPhrase)))
	buf = append(buf, s.ReasonPhrase...)
	return buf
}

func ParseSubscribeAnnouncesError(data []byte) (SubscribeAnnouncesError, error) {
	var s SubscribeAnnouncesError
	b := wire.NewBuffer(data)
	var err error
	if s.NamespacePrefix, err = b.PullNamespace(); err != nil {
		return s, &wire.ParseError{Field: "namespace_prefix", Err: err}
	}
	if s.ErrorCode, err = b.PullVarint(); err != nil {
		return s, &wire.ParseError{Field: "error_code", Err: err}
	}
	reason, err := b.PullVarintBytes()
	if err != nil {
		return s, &wire.ParseError{Field: "reason_phrase", Err: err}
	}
	s.ReasonPhrase = string(reason)
	return s, nil
}

// UnsubscribeAnnounces cancels a SUBSCRIBE_ANNOUNCES.
type UnsubscribeAnnounces struct {
	NamespacePrefix wire.Namespace
}

func (u UnsubscribeAnnounces) Serialize() []byte {
	return wire.AppendNamespace(nil, u.NamespacePrefix)
}

func ParseUnsubscribeAnnounces(data []byte) (UnsubscribeAnnounces, error) {
	var u UnsubscribeAnnounces
	b := wire.NewBuffer(data)
	var err error
	if u.NamespacePrefix, err = b.PullNamespace(); err != nil {
		return u, &wire.ParseError{Field: "namespace_prefix", Err: err}
	}
	return u, nil
}
