package moqt

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/track"
	"github.com/zsiec/moqt/internal/wire"
)

func TestStreamTableAddRemoveBumpReceived(t *testing.T) {
	t.Parallel()
	st := newStreamTable()
	id := st.add(&streamEntry{role: "subgroup", trackAlias: 1})
	st.bumpReceived(id)
	st.bumpReceived(id)

	st.mu.Lock()
	e := st.entries[id]
	st.mu.Unlock()
	if e.receivedObjects != 2 {
		t.Fatalf("got %d received objects, want 2", e.receivedObjects)
	}

	st.remove(id)
	st.mu.Lock()
	_, exists := st.entries[id]
	st.mu.Unlock()
	if exists {
		t.Fatal("remove should delete the entry")
	}
}

// slowReader dribbles bytes one at a time, forcing readFrame to retry across
// multiple short reads the way a real QUIC stream would deliver a frame
// split across packets.
type slowReader struct {
	data []byte
	pos  int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p[:1], r.data[r.pos:r.pos+1])
	r.pos += n
	return n, nil
}

func TestReadFrameRetriesAcrossShortReads(t *testing.T) {
	t.Parallel()
	hdr := protocol.SubgroupHeader{TrackAlias: 7, GroupID: 2, SubgroupID: 0, Priority: 5}
	full := hdr.Serialize()
	// Serialize() includes the leading stream-type varint; strip it the
	// way handleUniStream does before calling handleSubgroupStream.
	b := wire.NewBuffer(full)
	_, err := b.PullVarint()
	if err != nil {
		t.Fatalf("pull stream type: %v", err)
	}
	headerBytes := full[b.Tell():]

	fr := newFrameReader(&slowReader{data: headerBytes})
	got, err := readFrame(fr, protocol.ParseSubgroupHeader)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if got.TrackAlias != 7 || got.GroupID != 2 || got.Priority != 5 {
		t.Fatalf("got %+v, want TrackAlias=7 GroupID=2 Priority=5", got)
	}
}

func TestReadFrameReturnsEOFWhenStreamEndsCleanly(t *testing.T) {
	t.Parallel()
	fr := newFrameReader(bytes.NewReader(nil))
	_, err := readFrame(fr, protocol.ParseSubgroupHeader)
	if err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestHandleSubgroupStreamInsertsObjectsIntoTrack(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ns := wire.ParseNamespacePath("live/cam1")
	cache := track.New(ns, "video")
	s.mu.Lock()
	s.outgoingSubs[0] = &outgoingSubscription{subscribeID: 0, trackAlias: 42, namespace: ns, trackName: "video", cache: cache}
	s.mu.Unlock()

	var buf bytes.Buffer
	buf.Write(protocol.ObjectHeader{ObjectID: 0, Status: protocol.StatusNormal, Payload: []byte("hello")}.Serialize())
	buf.Write(protocol.ObjectHeader{ObjectID: 1, Status: protocol.StatusEndOfGroup}.Serialize())

	hdr := protocol.SubgroupHeader{TrackAlias: 42, GroupID: 3, SubgroupID: 0, Priority: 1}
	// handleSubgroupStream reads the header itself via readFrame, so feed
	// it in front of the object records.
	combined := append(append([]byte{}, hdr.Serialize()[1:]...), buf.Bytes()...)
	fr := newFrameReader(bytes.NewReader(combined))

	s.handleSubgroupStream(context.Background(), fr)

	group := cache.Group(3)
	obj, ok := group.Object(0)
	if !ok || string(obj.Payload) != "hello" {
		t.Fatalf("expected object 0 payload hello, got %+v ok=%v", obj, ok)
	}
	statusObj, ok := group.Object(1)
	if !ok || statusObj.Status != protocol.StatusEndOfGroup {
		t.Fatalf("expected object 1 status end-of-group, got %+v ok=%v", statusObj, ok)
	}
}

func TestHandleSubgroupStreamRejectsOutOfOrderObject(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ns := wire.ParseNamespacePath("live/cam4")
	cache := track.New(ns, "video")
	s.mu.Lock()
	s.outgoingSubs[0] = &outgoingSubscription{subscribeID: 0, trackAlias: 55, namespace: ns, trackName: "video", cache: cache}
	s.mu.Unlock()

	var buf bytes.Buffer
	buf.Write(protocol.ObjectHeader{ObjectID: 2, Status: protocol.StatusNormal, Payload: []byte("two")}.Serialize())
	buf.Write(protocol.ObjectHeader{ObjectID: 1, Status: protocol.StatusNormal, Payload: []byte("one")}.Serialize())

	hdr := protocol.SubgroupHeader{TrackAlias: 55, GroupID: 0, SubgroupID: 0, Priority: 1}
	combined := append(append([]byte{}, hdr.Serialize()[1:]...), buf.Bytes()...)
	fr := newFrameReader(bytes.NewReader(combined))

	s.handleSubgroupStream(context.Background(), fr)

	group := cache.Group(0)
	if _, ok := group.Object(1); ok {
		t.Fatal("the out-of-order object must not reach the cache")
	}
	if _, ok := group.Object(2); !ok {
		t.Fatal("the object preceding the violation should still be cached")
	}
}

func TestHandleSubgroupStreamRejectsObjectsAfterEndOfGroup(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ns := wire.ParseNamespacePath("live/cam5")
	cache := track.New(ns, "video")
	s.mu.Lock()
	s.outgoingSubs[0] = &outgoingSubscription{subscribeID: 0, trackAlias: 66, namespace: ns, trackName: "video", cache: cache}
	s.mu.Unlock()

	var buf bytes.Buffer
	buf.Write(protocol.ObjectHeader{ObjectID: 0, Status: protocol.StatusEndOfGroup}.Serialize())
	buf.Write(protocol.ObjectHeader{ObjectID: 1, Status: protocol.StatusNormal, Payload: []byte("late")}.Serialize())

	hdr := protocol.SubgroupHeader{TrackAlias: 66, GroupID: 0, SubgroupID: 0, Priority: 1}
	combined := append(append([]byte{}, hdr.Serialize()[1:]...), buf.Bytes()...)
	fr := newFrameReader(bytes.NewReader(combined))

	s.handleSubgroupStream(context.Background(), fr)

	group := cache.Group(0)
	if !group.Closed() {
		t.Fatal("END_OF_GROUP should close the group")
	}
	if _, ok := group.Object(1); ok {
		t.Fatal("an object delivered after END_OF_GROUP must be rejected, not cached")
	}
}

func TestHandleDatagramStatusRejectsObjectAfterEndOfGroup(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ns := wire.ParseNamespacePath("live/cam6")
	cache := track.New(ns, "video")
	s.mu.Lock()
	s.outgoingSubs[0] = &outgoingSubscription{subscribeID: 0, trackAlias: 33, namespace: ns, trackName: "video", cache: cache}
	s.mu.Unlock()

	status := protocol.ObjectDatagramStatus{TrackAlias: 33, GroupID: 0, ObjectID: 60, Status: protocol.StatusEndOfGroup}
	s.handleDatagram(status.Serialize())

	late := protocol.ObjectDatagram{TrackAlias: 33, GroupID: 0, ObjectID: 61, Payload: []byte("late")}
	s.handleDatagram(late.Serialize())

	group := cache.Group(0)
	if !group.Closed() {
		t.Fatal("END_OF_GROUP status datagram should close the group")
	}
	if _, ok := group.Object(61); ok {
		t.Fatal("an object delivered after END_OF_GROUP must be rejected as post-termination")
	}
}

func TestHandleSubgroupStreamUnknownTrackAliasDoesNotPanic(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	hdr := protocol.SubgroupHeader{TrackAlias: 99, GroupID: 1, SubgroupID: 0, Priority: 1}
	combined := hdr.Serialize()[1:]
	fr := newFrameReader(bytes.NewReader(combined))
	// No outgoing subscription uses track alias 99; this must log and
	// return once the stream reaches EOF, not panic.
	s.handleSubgroupStream(context.Background(), fr)
}

func TestHandleFetchStreamDeliversObjectsAndClosesChannel(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ch := make(chan protocol.FetchObject, 4)
	s.mu.Lock()
	s.fetchStreams[5] = ch
	s.mu.Unlock()

	hdr := protocol.FetchHeader{SubscribeID: 5}
	var body bytes.Buffer
	body.Write(protocol.FetchObject{GroupID: 0, SubgroupID: 0, ObjectID: 0, Status: protocol.StatusNormal, Payload: []byte("a")}.Serialize())
	combined := append(append([]byte{}, hdr.Serialize()[1:]...), body.Bytes()...)

	fr := newFrameReader(bytes.NewReader(combined))
	s.handleFetchStream(context.Background(), fr)

	select {
	case obj, ok := <-ch:
		if !ok {
			t.Fatal("expected one object before the channel closes")
		}
		if string(obj.Payload) != "a" {
			t.Fatalf("got payload %q, want a", obj.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fetch object")
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed once the fetch stream ends")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestHandleDatagramObjectInsertsIntoTrack(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ns := wire.ParseNamespacePath("live/cam2")
	cache := track.New(ns, "video")
	s.mu.Lock()
	s.outgoingSubs[0] = &outgoingSubscription{subscribeID: 0, trackAlias: 11, namespace: ns, trackName: "video", cache: cache}
	s.mu.Unlock()

	dgram := protocol.ObjectDatagram{TrackAlias: 11, GroupID: 1, ObjectID: 0, Payload: []byte("frame")}
	s.handleDatagram(dgram.Serialize())

	group := cache.Group(1)
	obj, ok := group.Object(0)
	if !ok || string(obj.Payload) != "frame" {
		t.Fatalf("expected datagram object inserted, got %+v ok=%v", obj, ok)
	}
}

func TestHandleDatagramUnknownTypeDoesNotPanic(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	s.handleDatagram(wire.AppendVarint(nil, 0x7f))
}

func TestHandleDatagramEmptyDoesNotPanic(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	s.handleDatagram(nil)
}

func TestTrackForAliasResolvesOutgoingSubscription(t *testing.T) {
	t.Parallel()
	s := newTestSession(true, newNullStream())
	ns := wire.ParseNamespacePath("live/cam3")
	cache := track.New(ns, "video")
	s.mu.Lock()
	s.outgoingSubs[2] = &outgoingSubscription{subscribeID: 2, trackAlias: 77, namespace: ns, trackName: "video", cache: cache}
	s.mu.Unlock()

	got, ok := s.trackForAlias(77)
	if !ok || got != cache {
		t.Fatalf("expected to resolve the cache for alias 77, got %v ok=%v", got, ok)
	}
	if _, ok := s.trackForAlias(999); ok {
		t.Fatal("trackForAlias should report not-found for an unallocated alias")
	}
}
