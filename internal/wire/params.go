package wire

import "sort"

// Known parameter tags. Even tags carry a
// varint value; odd tags carry a length-prefixed byte string. Unknown tags
// are preserved and re-emitted unchanged by Parameters regardless of which
// convention they follow.
const (
	ParamRole              uint64 = 0x00 // even: varint (RolePublisher/RoleSubscriber/RoleBoth)
	ParamPath              uint64 = 0x01 // odd: byte string
	ParamMaxSubscribeID    uint64 = 0x02 // even: varint
	ParamAuthorizationInfo uint64 = 0x03 // odd: byte string
	ParamDeliveryTimeout   uint64 = 0x04 // even: varint milliseconds
	ParamMaxCacheDuration  uint64 = 0x06 // even: varint seconds
)

// Role parameter values.
const (
	RolePublisher  uint64 = 0x1
	RoleSubscriber uint64 = 0x2
	RoleBoth       uint64 = 0x3
)

// Parameters is a mapping from varint parameter-tag to either a varint
// value or a byte-string, keyed by the tag's parity. Unknown tags round
// trip unchanged: Parse preserves whichever bucket they were read from and
// Append re-emits them exactly.
type Parameters struct {
	varints map[uint64]uint64
	bytes   map[uint64][]byte
}

// NewParameters returns an empty parameter map ready for Set calls.
func NewParameters() *Parameters {
	return &Parameters{varints: make(map[uint64]uint64), bytes: make(map[uint64][]byte)}
}

// SetVarint installs an even-tag varint-valued parameter.
func (p *Parameters) SetVarint(tag, value uint64) {
	if p.varints == nil {
		p.varints = make(map[uint64]uint64)
	}
	p.varints[tag] = value
}

// SetBytes installs an odd-tag byte-string-valued parameter.
func (p *Parameters) SetBytes(tag uint64, value []byte) {
	if p.bytes == nil {
		p.bytes = make(map[uint64][]byte)
	}
	p.bytes[tag] = value
}

// Varint returns the value of an even-tag parameter and whether it was present.
func (p *Parameters) Varint(tag uint64) (uint64, bool) {
	v, ok := p.varints[tag]
	return v, ok
}

// Bytes returns the value of an odd-tag parameter and whether it was present.
func (p *Parameters) Bytes(tag uint64) ([]byte, bool) {
	v, ok := p.bytes[tag]
	return v, ok
}

// Len reports the total number of parameters across both buckets.
func (p *Parameters) Len() int {
	return len(p.varints) + len(p.bytes)
}

// Append encodes the parameter map as a varint count followed by tag/value
// pairs, in ascending tag order (deterministic so round-trip tests can
// compare bytes directly).
func (p *Parameters) Append(buf []byte) []byte {
	tags := make([]uint64, 0, p.Len())
	for tag := range p.varints {
		tags = append(tags, tag)
	}
	for tag := range p.bytes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	buf = AppendVarint(buf, uint64(len(tags)))
	for _, tag := range tags {
		buf = AppendVarint(buf, tag)
		if tag%2 == 0 {
			buf = AppendVarint(buf, p.varints[tag])
		} else {
			v := p.bytes[tag]
			buf = AppendVarint(buf, uint64(len(v)))
			buf = append(buf, v...)
		}
	}
	return buf
}

// PullParameters parses a parameter map: a varint count followed by that
// many tag/value pairs. Unknown tags are preserved in the appropriate
// bucket by parity so they round-trip through Append unchanged.
func (b *Buffer) PullParameters() (*Parameters, error) {
	checkpoint := b.Tell()
	count, err := b.PullVarint()
	if err != nil {
		return nil, err
	}

	p := NewParameters()
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
			p.SetVarint(tag, v)
		} else {
			v, err := b.PullVarintBytes()
			if err != nil {
				b.Seek(checkpoint)
				return nil, err
			}
			cp := make([]byte, len(v))
			copy(cp, v)
			p.SetBytes(tag, cp)
		}
	}
	return p, nil
}
