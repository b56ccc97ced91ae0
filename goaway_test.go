package moqt

import (
	"testing"

	"github.com/zsiec/moqt/internal/protocol"
)

func TestGoAwaySetsFlagAndWritesMessage(t *testing.T) {
	t.Parallel()
	selfStream, peerStream := pipePair()
	s := newTestSession(true, selfStream)

	errCh := make(chan error, 1)
	go func() { errCh <- s.GoAway("https://example.test/next") }()

	msgType, payload, err := protocol.ReadControlMsg(peerStream)
	if err != nil {
		t.Fatalf("read GOAWAY: %v", err)
	}
	if msgType != protocol.MsgGoAway {
		t.Fatalf("got message type 0x%x, want MsgGoAway", msgType)
	}
	got, err := protocol.ParseGoAway(payload)
	if err != nil {
		t.Fatalf("parse GOAWAY: %v", err)
	}
	if got.NewSessionURI != "https://example.test/next" {
		t.Fatalf("got uri %q, want https://example.test/next", got.NewSessionURI)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("GoAway: %v", err)
	}
	if !s.goAway.Load() {
		t.Fatal("GoAway should mark the session as going away")
	}
}

func TestHandleGoAwaySetsFlag(t *testing.T) {
	t.Parallel()
	s := newTestSession(false, newNullStream())
	handleGoAway(s, protocol.GoAway{NewSessionURI: ""})
	if !s.goAway.Load() {
		t.Fatal("handleGoAway should mark the session as going away")
	}
}
