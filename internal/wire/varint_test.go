package wire

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()
	values := []uint64{
		0, 1, 63, 64, 16383, 16384,
		1<<30 - 1, 1 << 30, 1<<32 - 1, 1 << 32,
		MaxVarint,
	}
	for _, v := range values {
		buf := AppendVarint(nil, v)
		got, n, err := ParseVarint(buf)
		if err != nil {
			t.Fatalf("ParseVarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
		if n != len(buf) {
			t.Errorf("value %d: consumed %d, want %d", v, n, len(buf))
		}
		if n != VarintLen(v) {
			t.Errorf("value %d: VarintLen = %d, encoded = %d", v, VarintLen(v), n)
		}
	}
}

func TestVarintLengthPrefix(t *testing.T) {
	t.Parallel()
	cases := []struct {
		v    uint64
		want int
	}{
		{0, 1}, {63, 1},
		{64, 2}, {16383, 2},
		{16384, 4}, {1<<30 - 1, 4},
		{1 << 30, 8}, {MaxVarint, 8},
	}
	for _, c := range cases {
		buf := AppendVarint(nil, c.v)
		if len(buf) != c.want {
			t.Errorf("value %d: encoded length %d, want %d", c.v, len(buf), c.want)
		}
		gotLen := int(buf[0] >> 6)
		if 1<<gotLen != c.want {
			t.Errorf("value %d: length-prefix bits decode to %d bytes, want %d", c.v, 1<<gotLen, c.want)
		}
	}
}

func TestVarintNonMinimalAccepted(t *testing.T) {
	t.Parallel()
	// Encode 5 using the 4-byte form instead of the minimal 1-byte form.
	buf := []byte{0x80, 0x00, 0x00, 0x05}
	got, n, err := ParseVarint(buf)
	if err != nil {
		t.Fatalf("ParseVarint: %v", err)
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if n != 4 {
		t.Errorf("consumed %d, want 4", n)
	}
}

func TestVarintShortRead(t *testing.T) {
	t.Parallel()
	full := AppendVarint(nil, uint64(1<<20))
	for n := 0; n < len(full); n++ {
		_, _, err := ParseVarint(full[:n])
		if err != ErrShortRead {
			t.Fatalf("prefix length %d: got %v, want ErrShortRead", n, err)
		}
	}
	// Full slice parses cleanly.
	if _, _, err := ParseVarint(full); err != nil {
		t.Fatalf("full slice: %v", err)
	}
}

func TestReadVarintFrom(t *testing.T) {
	t.Parallel()
	values := []uint64{0, 63, 64, 16383, 16384, MaxVarint}
	var buf []byte
	for _, v := range values {
		buf = AppendVarint(buf, v)
	}

	r := bufio.NewReader(bytes.NewReader(buf))
	for _, want := range values {
		got, err := ReadVarintFrom(r)
		if err != nil {
			t.Fatalf("ReadVarintFrom: %v", err)
		}
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}
	if _, err := ReadVarintFrom(r); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}
