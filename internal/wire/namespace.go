package wire

import "strings"

// Namespace is an ordered tuple of byte-strings (0..32 elements).
// Equality is structural; textual inputs are split on '/' by
// convenience helpers, but the wire form is always a tuple.
type Namespace []string

// MaxNamespaceElements is the largest tuple arity this implementation will
// accept when parsing; it rejects pathological input rather than
// allocating an unbounded slice from an attacker-controlled count.
const MaxNamespaceElements = 32

// ParseNamespacePath splits a textual namespace ("live/test") into a
// Namespace tuple on '/'. This is a convenience constructor only — the
// wire encoding never carries the delimiter.
func ParseNamespacePath(path string) Namespace {
	if path == "" {
		return Namespace{}
	}
	return Namespace(strings.Split(path, "/"))
}

// String renders the namespace back to its '/'-joined textual form.
func (n Namespace) String() string {
	return strings.Join(n, "/")
}

// Equal reports whether two namespaces are structurally identical.
func (n Namespace) Equal(other Namespace) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether n begins with every element of prefix, in
// order — used by SUBSCRIBE_ANNOUNCES matching.
func (n Namespace) HasPrefix(prefix Namespace) bool {
	if len(prefix) > len(n) {
		return false
	}
	for i := range prefix {
		if n[i] != prefix[i] {
			return false
		}
	}
	return true
}

// AppendNamespace appends the wire form of a namespace tuple: a varint
// count followed by a varint-length-prefixed byte string per element.
func AppendNamespace(buf []byte, ns Namespace) []byte {
	buf = AppendVarint(buf, uint64(len(ns)))
	for _, part := range ns {
		buf = AppendVarint(buf, uint64(len(part)))
		buf = append(buf, part...)
	}
	return buf
}

// PullNamespace parses a namespace tuple from b.
func (b *Buffer) PullNamespace() (Namespace, error) {
	checkpoint := b.Tell()
	count, err := b.PullVarint()
	if err != nil {
		return nil, err
	}
	if count > MaxNamespaceElements {
		b.Seek(checkpoint)
		return nil, ErrMalformed
	}

	ns := make(Namespace, count)
	for i := range ns {
		part, err := b.PullVarintBytes()
		if err != nil {
			b.Seek(checkpoint)
			return nil, err
		}
		ns[i] = string(part)
	}
	return ns, nil
}
