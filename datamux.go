package moqt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/quic-go/webtransport-go"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/track"
	"github.com/zsiec/moqt/internal/wire"
)

// streamEntry is one row of the data-plane stream table: a unidirectional
// stream's role and position, kept so backpressure and diagnostics can
// reason about what is in flight without re-parsing every frame.
type streamEntry struct {
	role            string // "subgroup" or "fetch"
	trackAlias      uint64
	subscribeID     uint64
	groupID         uint64
	subgroupID      uint64
	priority        byte
	receivedObjects uint64
}

// streamTable is the session's bounded set of active unidirectional
// streams, keyed by an opaque sequence number assigned on accept/open
// (QUIC stream IDs are not exposed by webtransport-go, so the session
// mints its own).
type streamTable struct {
	mu      sync.Mutex
	next    uint64
	entries map[uint64]*streamEntry
}

func newStreamTable() *streamTable {
	return &streamTable{entries: make(map[uint64]*streamEntry)}
}

func (t *streamTable) add(e *streamEntry) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.entries[id] = e
	return id
}

func (t *streamTable) remove(id uint64) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

func (t *streamTable) bumpReceived(id uint64) {
	t.mu.Lock()
	if e, ok := t.entries[id]; ok {
		e.receivedObjects++
	}
	t.mu.Unlock()
}

// frameReader incrementally buffers bytes off a stream and retries a parse
// function until it succeeds or the stream ends, reusing wire.Buffer's
// short-read/rewind discipline instead of requiring the whole frame to
// arrive before parsing starts.
type frameReader struct {
	r   io.Reader
	buf *wire.Buffer
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: r, buf: wire.NewBufferSize(4096)}
}

func (f *frameReader) fill() error {
	tmp := make([]byte, 4096)
	n, err := f.r.Read(tmp)
	if n > 0 {
		f.buf.PushBytes(tmp[:n])
	}
	if n == 0 && err == nil {
		return io.ErrNoProgress
	}
	return err
}

func readFrame[T any](f *frameReader, parse func(*wire.Buffer) (T, error)) (T, error) {
	for {
		checkpoint := f.buf.Tell()
		v, err := parse(f.buf)
		if err == nil {
			f.buf.Compact()
			return v, nil
		}
		if !errors.Is(err, wire.ErrShortRead) {
			var zero T
			return zero, err
		}
		f.buf.Seek(checkpoint)
		if ferr := f.fill(); ferr != nil {
			var zero T
			return zero, ferr
		}
	}
}

// acceptUniStreams loops accepting incoming unidirectional streams,
// dispatching each to the subgroup or fetch handler according to its
// leading data-stream-type varint, bounded by streamSem so a peer cannot
// force unbounded concurrent stream processing.
func (s *Session) acceptUniStreams(ctx context.Context) {
	for {
		str, err := s.conn.AcceptUniStream(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug("accept uni stream ended", "error", err)
			}
			return
		}
		if err := s.streamSem.Acquire(ctx, 1); err != nil {
			return
		}
		go func() {
			defer s.streamSem.Release(1)
			s.handleUniStream(ctx, str)
		}()
	}
}

func (s *Session) handleUniStream(ctx context.Context, str webtransport.ReceiveStream) {
	fr := newFrameReader(str)
	streamType, err := readFrame(fr, func(b *wire.Buffer) (uint64, error) { return b.PullVarint() })
	if err != nil {
		if err != io.EOF {
			s.log.Warn("failed to read data stream type", "error", err)
		}
		return
	}

	switch protocol.DataStreamType(streamType) {
	case protocol.StreamTypeSubgroupHeader:
		s.handleSubgroupStream(ctx, fr)
	case protocol.StreamTypeFetchHeader:
		s.handleFetchStream(ctx, fr)
	default:
		s.log.Warn("unknown data stream type, skipping", "type", fmt.Sprintf("0x%x", streamType))
	}
}

func (s *Session) handleSubgroupStream(ctx context.Context, fr *frameReader) {
	hdr, err := readFrame(fr, protocol.ParseSubgroupHeader)
	if err != nil {
		s.log.Warn("malformed subgroup header", "error", err)
		return
	}

	entryID := s.streams.add(&streamEntry{
		role:       "subgroup",
		trackAlias: hdr.TrackAlias,
		groupID:    hdr.GroupID,
		subgroupID: hdr.SubgroupID,
		priority:   hdr.Priority,
	})
	defer s.streams.remove(entryID)

	t, ok := s.trackForAlias(hdr.TrackAlias)
	if !ok {
		s.log.Warn("subgroup stream for unknown track alias", "track_alias", hdr.TrackAlias)
	}

	var lastObjectID uint64
	var haveLast bool
	for {
		if ctx.Err() != nil {
			return
		}
		obj, err := readFrame(fr, protocol.ParseObjectHeader)
		if err != nil {
			if err != io.EOF {
				s.log.Debug("subgroup stream ended", "error", err)
			}
			return
		}
		if haveLast && obj.ObjectID <= lastObjectID {
			s.log.Warn("out-of-order object_id on subgroup stream, closing stream",
				"track_alias", hdr.TrackAlias, "group_id", hdr.GroupID, "subgroup_id", hdr.SubgroupID,
				"last_object_id", lastObjectID, "object_id", obj.ObjectID)
			return
		}
		lastObjectID = obj.ObjectID
		haveLast = true

		s.streams.bumpReceived(entryID)
		if t != nil {
			if err := t.Insert(&track.Object{ObjectID: obj.ObjectID, Status: obj.Status, Payload: obj.Payload}, hdr.GroupID, time.Now()); err != nil {
				s.log.Warn("object rejected", "track_alias", hdr.TrackAlias, "group_id", hdr.GroupID, "object_id", obj.ObjectID, "error", err)
			}
		}
		if obj.Status == protocol.StatusEndOfGroup {
			return
		}
	}
}

func (s *Session) handleFetchStream(ctx context.Context, fr *frameReader) {
	hdr, err := readFrame(fr, protocol.ParseFetchHeader)
	if err != nil {
		s.log.Warn("malformed fetch header", "error", err)
		return
	}

	entryID := s.streams.add(&streamEntry{role: "fetch", subscribeID: hdr.SubscribeID})
	defer s.streams.remove(entryID)

	s.mu.RLock()
	ch, known := s.fetchStreams[hdr.SubscribeID]
	s.mu.RUnlock()
	if known {
		defer close(ch)
	}

	for {
		if ctx.Err() != nil {
			return
		}
		obj, err := readFrame(fr, protocol.ParseFetchObject)
		if err != nil {
			if err != io.EOF {
				s.log.Debug("fetch stream ended", "error", err)
			}
			return
		}
		s.streams.bumpReceived(entryID)
		if known {
			select {
			case ch <- obj:
			case <-ctx.Done():
				return
			}
		}
	}
}

// readDatagrams loops receiving datagrams and routing each to the object
// or status cache according to its leading datagram-type varint.
func (s *Session) readDatagrams(ctx context.Context) {
	for {
		data, err := s.conn.ReceiveDatagram(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug("receive datagram ended", "error", err)
			}
			return
		}
		s.handleDatagram(data)
	}
}

func (s *Session) handleDatagram(data []byte) {
	b := wire.NewBuffer(data)
	dgType, err := b.PullVarint()
	if err != nil {
		s.log.Warn("empty or malformed datagram", "error", err)
		return
	}

	switch protocol.DatagramType(dgType) {
	case protocol.DatagramTypeObject:
		obj, err := protocol.ParseObjectDatagram(b)
		if err != nil {
			s.log.Warn("malformed object datagram", "error", err)
			return
		}
		if t, ok := s.trackForAlias(obj.TrackAlias); ok {
			if err := t.Insert(&track.Object{ObjectID: obj.ObjectID, Status: protocol.StatusNormal, Payload: obj.Payload}, obj.GroupID, time.Now()); err != nil {
				s.log.Warn("object datagram rejected", "track_alias", obj.TrackAlias, "group_id", obj.GroupID, "object_id", obj.ObjectID, "error", err)
			}
		}
	case protocol.DatagramTypeObjectStatus:
		st, err := protocol.ParseObjectDatagramStatus(b)
		if err != nil {
			s.log.Warn("malformed object status datagram", "error", err)
			return
		}
		if t, ok := s.trackForAlias(st.TrackAlias); ok {
			if err := t.Insert(&track.Object{ObjectID: st.ObjectID, Status: st.Status}, st.GroupID, time.Now()); err != nil {
				s.log.Warn("object status datagram rejected", "track_alias", st.TrackAlias, "group_id", st.GroupID, "object_id", st.ObjectID, "error", err)
			}
		}
	default:
		s.log.Warn("unknown datagram type, skipping", "type", fmt.Sprintf("0x%x", dgType))
	}
}

// trackForAlias resolves an incoming track_alias to the local cache backing
// the outgoing subscription that allocated it.
func (s *Session) trackForAlias(alias uint64) (*track.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.outgoingSubs {
		if sub.trackAlias == alias {
			return sub.cache, true
		}
	}
	return nil, false
}
