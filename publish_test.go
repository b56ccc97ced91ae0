package moqt

import (
	"bytes"
	"testing"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

// fakeSendStream is a minimal webtransportSendStream backed by a
// bytes.Buffer, enough to test SubgroupWriter without a real QUIC stream.
type fakeSendStream struct {
	bytes.Buffer
	closed bool
}

func (f *fakeSendStream) Close() error {
	f.closed = true
	return nil
}

func TestSubgroupWriterWritesObjectsAndStatus(t *testing.T) {
	t.Parallel()
	fake := &fakeSendStream{}
	w := &SubgroupWriter{str: fake}

	if err := w.WriteObject(0, nil, []byte("payload")); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	if err := w.WriteStatus(1, nil, protocol.StatusEndOfGroup); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fake.closed {
		t.Fatal("Close should close the underlying stream")
	}

	b := wire.NewBuffer(fake.Bytes())
	obj, err := protocol.ParseObjectHeader(b)
	if err != nil {
		t.Fatalf("parse first object: %v", err)
	}
	if string(obj.Payload) != "payload" {
		t.Fatalf("got payload %q, want payload", obj.Payload)
	}

	status, err := protocol.ParseObjectHeader(b)
	if err != nil {
		t.Fatalf("parse second object: %v", err)
	}
	if status.Status != protocol.StatusEndOfGroup {
		t.Fatalf("got status %v, want StatusEndOfGroup", status.Status)
	}
}

func TestSubgroupWriterCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	fake := &fakeSendStream{}
	w := &SubgroupWriter{str: fake}

	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	fake.closed = false
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if fake.closed {
		t.Fatal("a second Close call should be a no-op and not touch the stream again")
	}
}
