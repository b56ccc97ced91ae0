package wire

import "sort"

// Known LOC (Low Overhead Container) extension tags that publishers in this
// codebase emit (capture timestamp, video frame marking, video config).
const (
	ExtCaptureTimestamp  uint64 = 2  // even: varint microseconds
	ExtVideoFrameMarking uint64 = 4  // even: varint RFC 9626 flags
	ExtVideoConfig       uint64 = 13 // odd: length-prefixed byte string
)

// Extensions is an object's extension map: even tags carry a varint value,
// odd tags carry a length-prefixed byte string. An empty map encodes as a
// count of 0.
type Extensions struct {
	varints map[uint64]uint64
	bytes   map[uint64][]byte
}

// NewExtensions returns an empty extension map.
func NewExtensions() *Extensions {
	return &Extensions{varints: make(map[uint64]uint64), bytes: make(map[uint64][]byte)}
}

// SetVarint installs an even-tag varint-valued extension.
func (e *Extensions) SetVarint(tag, value uint64) {
	if e.varints == nil {
		e.varints = make(map[uint64]uint64)
	}
	e.varints[tag] = value
}

// SetBytes installs an odd-tag byte-string-valued extension.
func (e *Extensions) SetBytes(tag uint64, value []byte) {
	if e.bytes == nil {
		e.bytes = make(map[uint64][]byte)
	}
	e.bytes[tag] = value
}

// Varint returns an even-tag extension's value and whether it was present.
func (e *Extensions) Varint(tag uint64) (uint64, bool) {
	v, ok := e.varints[tag]
	return v, ok
}

// Bytes returns an odd-tag extension's value and whether it was present.
func (e *Extensions) Bytes(tag uint64) ([]byte, bool) {
	v, ok := e.bytes[tag]
	return v, ok
}

// Len reports the total number of extensions across both buckets.
func (e *Extensions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.varints) + len(e.bytes)
}

// Append encodes the extension map as a varint count followed by
// tag/value pairs in ascending tag order. A nil receiver encodes as an
// empty map (count 0), matching the zero-value convenience most object
// constructors rely on.
func (e *Extensions) Append(buf []byte) []byte {
	if e == nil {
		return AppendVarint(buf, 0)
	}

	tags := make([]uint64, 0, e.Len())
	for tag := range e.varints {
		tags = append(tags, tag)
	}
	for tag := range e.bytes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	buf = AppendVarint(buf, uint64(len(tags)))
	for _, tag := range tags {
		buf = AppendVarint(buf, tag)
		if tag%2 == 0 {
			buf = AppendVarint(buf, e.varints[tag])
		} else {
			v := e.bytes[tag]
			buf = AppendVarint(buf, uint64(len(v)))
			buf = append(buf, v...)
		}
	}
	return buf
}

// PullExtensions parses an extension map: a varint count followed by that
// many tag/value pairs.
func (b *Buffer) PullExtensions() (*Extensions, error) {
	checkpoint := b.Tell()
	count, err := b.PullVarint()
	if err != nil {
		return nil, err
	}

	ext := NewExtensions()
	for i := uint64(0); i < count; i++ {
		tag, err := b.PullVarint()
		if err != nil {
			b.Seek(checkpoint)
			return nil, err
		}
		if tag%2 == 0 {
			v, err := b.PullVarint()
			if err != nil {
				b.Seek(checkpoint)
				return nil, err
			}
			ext.SetVarint(tag, v)
		} else {
			v, err := b.PullVarintBytes()
			if err != nil {
				b.Seek(checkpoint)
				return nil, err
			}
			cp := make([]byte, len(v))
			copy(cp, v)
			ext.SetBytes(tag, cp)
		}
	}
	return ext, nil
}
