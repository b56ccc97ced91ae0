package wire

import "encoding/binary"

// Buffer is a mutable byte container with an independent read cursor.
// Writes (push) always append at the end; reads (pull) advance the cursor
// and never mutate the backing slice. Pulls that would run past the end of
// the buffered data return ErrShortRead instead of panicking, so a framer
// can rewind (Seek) and wait for more bytes.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps an existing byte slice for reading (pos starts at 0).
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewBufferSize creates an empty Buffer with data pre-allocated to capacity.
func NewBufferSize(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Bytes returns the buffer's full backing slice, regardless of cursor.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the total number of bytes held, regardless of cursor.
func (b *Buffer) Len() int { return len(b.data) }

// Tell returns the current read cursor position.
func (b *Buffer) Tell() int { return b.pos }

// Seek repositions the read cursor to an absolute offset.
func (b *Buffer) Seek(pos int) { b.pos = pos }

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// Compact drops everything before the read cursor, so a long-lived buffer
// fed incrementally from a stream doesn't retain bytes already consumed.
func (b *Buffer) Compact() {
	if b.pos == 0 {
		return
	}
	b.data = append(b.data[:0], b.data[b.pos:]...)
	b.pos = 0
}

// PushUint8 appends a single byte.
func (b *Buffer) PushUint8(v uint8) { b.data = append(b.data, v) }

// PushUint16 appends a big-endian uint16.
func (b *Buffer) PushUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	b.data = append(b.data, buf[:]...)
}

// PushUint32 appends a big-endian uint32.
func (b *Buffer) PushUint32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.data = append(b.data, buf[:]...)
}

// PushUint64 appends a big-endian uint64.
func (b *Buffer) PushUint64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.data = append(b.data, buf[:]...)
}

// PushVarint appends v as a MoQT varint.
func (b *Buffer) PushVarint(v uint64) {
	b.data = AppendVarint(b.data, v)
}

// PushBytes appends raw bytes unchanged.
func (b *Buffer) PushBytes(p []byte) {
	b.data = append(b.data, p...)
}

// PushVarintBytes appends a varint length prefix followed by p.
func (b *Buffer) PushVarintBytes(p []byte) {
	b.PushVarint(uint64(len(p)))
	b.PushBytes(p)
}

// PullUint8 reads a single byte, advancing the cursor.
func (b *Buffer) PullUint8() (uint8, error) {
	if b.Remaining() < 1 {
		return 0, ErrShortRead
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

// PullUint16 reads a big-endian uint16, advancing the cursor.
func (b *Buffer) PullUint16() (uint16, error) {
	if b.Remaining() < 2 {
		return 0, ErrShortRead
	}
	v := binary.BigEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return v, nil
}

// PullUint32 reads a big-endian uint32, advancing the cursor.
func (b *Buffer) PullUint32() (uint32, error) {
	if b.Remaining() < 4 {
		return 0, ErrShortRead
	}
	v := binary.BigEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return v, nil
}

// PullUint64 reads a big-endian uint64, advancing the cursor.
func (b *Buffer) PullUint64() (uint64, error) {
	if b.Remaining() < 8 {
		return 0, ErrShortRead
	}
	v := binary.BigEndian.Uint64(b.data[b.pos:])
	b.pos += 8
	return v, nil
}

// PullVarint reads a MoQT varint, advancing the cursor. A varint whose
// declared length runs past the buffered data yields ErrShortRead and
// leaves the cursor unmoved, so the caller can Seek back to a checkpoint
// and retry once more bytes are available.
func (b *Buffer) PullVarint() (uint64, error) {
	v, n, err := ParseVarint(b.data[b.pos:])
	if err != nil {
		return 0, err
	}
	b.pos += n
	return v, nil
}

// PullBytes reads n raw bytes, advancing the cursor. The returned slice
// aliases the buffer's backing array; callers that retain it beyond the
// next mutation of this Buffer must copy it.
func (b *Buffer) PullBytes(n int) ([]byte, error) {
	if n < 0 || b.Remaining() < n {
		return nil, ErrShortRead
	}
	v := b.data[b.pos : b.pos+n]
	b.pos += n
	return v, nil
}

// PullVarintBytes reads a varint length prefix followed by that many raw
// bytes. A length prefix larger than the remaining data is ErrShortRead,
// not ErrMalformed: a length-prefixed payload that claims more bytes than
// are buffered signals short-read so the framer can wait for the rest of
// the stream.
func (b *Buffer) PullVarintBytes() ([]byte, error) {
	checkpoint := b.pos
	n, err := b.PullVarint()
	if err != nil {
		b.pos = checkpoint
		return nil, err
	}
	p, err := b.PullBytes(int(n))
	if err != nil {
		b.pos = checkpoint
		return nil, err
	}
	return p, nil
}
