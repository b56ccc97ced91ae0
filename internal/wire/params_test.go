package wire

import "testing"

func TestParametersRoundTrip(t *testing.T) {
	t.Parallel()
	p := NewParameters()
	p.SetVarint(ParamRole, RoleBoth)
	p.SetVarint(ParamMaxSubscribeID, 100)
	p.SetBytes(ParamAuthorizationInfo, []byte("auth-token-123"))

	buf := p.Append(nil)
	b := NewBuffer(buf)
	got, err := b.PullParameters()
	if err != nil {
		t.Fatalf("PullParameters: %v", err)
	}

	if v, ok := got.Varint(ParamRole); !ok || v != RoleBoth {
		t.Errorf("ROLE = %d, %v", v, ok)
	}
	if v, ok := got.Varint(ParamMaxSubscribeID); !ok || v != 100 {
		t.Errorf("MAX_SUBSCRIBE_ID = %d, %v", v, ok)
	}
	if v, ok := got.Bytes(ParamAuthorizationInfo); !ok || string(v) != "auth-token-123" {
		t.Errorf("AUTHORIZATION_INFO = %q, %v", v, ok)
	}
}

func TestParametersUnknownTagPreserved(t *testing.T) {
	t.Parallel()
	p := NewParameters()
	p.SetVarint(0x9998, 42)          // unknown even tag
	p.SetBytes(0x9999, []byte("mystery")) // unknown odd tag

	buf := p.Append(nil)
	b := NewBuffer(buf)
	got, err := b.PullParameters()
	if err != nil {
		t.Fatalf("PullParameters: %v", err)
	}
	if v, ok := got.Varint(0x9998); !ok || v != 42 {
		t.Errorf("unknown even tag = %d, %v", v, ok)
	}
	if v, ok := got.Bytes(0x9999); !ok || string(v) != "mystery" {
		t.Errorf("unknown odd tag = %q, %v", v, ok)
	}

	reBuf := got.Append(nil)
	if len(reBuf) != len(buf) {
		t.Errorf("re-emitted length %d != original %d", len(reBuf), len(buf))
	}
}

func TestParametersEmpty(t *testing.T) {
	t.Parallel()
	p := NewParameters()
	buf := p.Append(nil)
	if len(buf) != 1 || buf[0] != 0 {
		t.Fatalf("empty map should encode as single zero byte, got %x", buf)
	}
	b := NewBuffer(buf)
	got, err := b.PullParameters()
	if err != nil {
		t.Fatalf("PullParameters: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected empty, got %d entries", got.Len())
	}
}
