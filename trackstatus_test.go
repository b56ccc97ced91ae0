package moqt

import (
	"context"
	"testing"
	"time"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

func TestTrackStatusNotReadyBeforeSetup(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	_, err := s.TrackStatus(context.Background(), wire.ParseNamespacePath("a/b"), "v")
	if err != ErrNotReady {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
}

func TestTrackStatusSuccessRoundTrip(t *testing.T) {
	t.Parallel()
	clientStream, serverStream := pipePair()
	client := newTestSession(true, clientStream)
	client.markReady()
	ns := wire.ParseNamespacePath("live/cam1")

	type result struct {
		status *protocol.TrackStatus
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		st, err := client.TrackStatus(context.Background(), ns, "video")
		resCh <- result{st, err}
	}()

	msgType, payload, err := protocol.ReadControlMsg(serverStream)
	if err != nil {
		t.Fatalf("read TRACK_STATUS_REQUEST: %v", err)
	}
	if msgType != protocol.MsgTrackStatusRequest {
		t.Fatalf("got message type 0x%x, want MsgTrackStatusRequest", msgType)
	}

	status := protocol.TrackStatus{Namespace: ns, TrackName: "video", StatusCode: 0, LargestGroup: 2}
	client.dispatch(protocol.MsgTrackStatus, status.Serialize())

	select {
	case r := <-resCh:
		if r.err != nil {
			t.Fatalf("TrackStatus returned error: %v", r.err)
		}
		if r.status.LargestGroup != 2 {
			t.Fatalf("got largest group %d, want 2", r.status.LargestGroup)
		}
	case <-time.After(time.Second):
		t.Fatal("TrackStatus did not return in time")
	}
}

func TestTrackStatusKeyDoesNotCollideAcrossNamespaces(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	s.markReady()

	slot1, ok := s.pendingTrackStatus.install(trackKey(wire.ParseNamespacePath("a"), "x"))
	if !ok {
		t.Fatal("first install should succeed")
	}
	_, ok = s.pendingTrackStatus.install(trackKey(wire.ParseNamespacePath("b"), "x"))
	if !ok {
		t.Fatal("install for a distinct namespace/track pair should succeed independently")
	}
	slot1.resolve("unused")
}

func TestSendTrackStatusWritesControlMessage(t *testing.T) {
	t.Parallel()
	selfStream, peerStream := pipePair()
	s := newTestSession(false, selfStream)
	ns := wire.ParseNamespacePath("live/cam2")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.SendTrackStatus(protocol.TrackStatus{Namespace: ns, TrackName: "audio"})
	}()

	msgType, _, err := protocol.ReadControlMsg(peerStream)
	if err != nil {
		t.Fatalf("read TRACK_STATUS: %v", err)
	}
	if msgType != protocol.MsgTrackStatus {
		t.Fatalf("got message type 0x%x, want MsgTrackStatus", msgType)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("SendTrackStatus: %v", err)
	}
}
