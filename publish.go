package moqt

import (
	"context"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

// SubgroupWriter streams the objects of one (group, subgroup) pair on a
// single unidirectional stream, per the data-plane framing: one
// SubgroupHeader followed by a run of ObjectHeader records.
type SubgroupWriter struct {
	s    *Session
	str  webtransportSendStream
	done bool
}

// webtransportSendStream is the subset of webtransport.SendStream this
// package depends on, named locally so publish.go doesn't have to import
// the concrete type twice across files.
type webtransportSendStream interface {
	Write([]byte) (int, error)
	Close() error
}

// OpenSubgroup opens a new unidirectional stream for one group/subgroup of
// trackAlias and writes its SubgroupHeader. The underlying QUIC stream
// priority is set to 256-priority so lower-priority subgroups yield
// bandwidth to higher-priority ones under backpressure.
func (s *Session) OpenSubgroup(ctx context.Context, trackAlias, groupID, subgroupID uint64, priority byte) (*SubgroupWriter, error) {
	str, err := s.conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := any(str).(interface{ SetPriority(int) }); ok {
		p.SetPriority(int(256 - int(priority)))
	}

	hdr := protocol.SubgroupHeader{TrackAlias: trackAlias, GroupID: groupID, SubgroupID: subgroupID, Priority: priority}
	if _, err := str.Write(hdr.Serialize()); err != nil {
		_ = str.Close()
		return nil, err
	}
	s.mu.Lock()
	for _, sub := range s.incomingSubs {
		if sub.trackAlias == trackAlias {
			sub.streamCount++
		}
	}
	s.mu.Unlock()
	return &SubgroupWriter{s: s, str: str}, nil
}

// WriteObject writes one normal object record.
func (w *SubgroupWriter) WriteObject(objectID uint64, ext *wire.Extensions, payload []byte) error {
	obj := protocol.ObjectHeader{ObjectID: objectID, Extensions: ext, Status: protocol.StatusNormal, Payload: payload}
	_, err := w.str.Write(obj.Serialize())
	return err
}

// WriteStatus writes a zero-length status record (e.g. END_OF_GROUP).
func (w *SubgroupWriter) WriteStatus(objectID uint64, ext *wire.Extensions, status protocol.ObjectStatus) error {
	obj := protocol.ObjectHeader{ObjectID: objectID, Extensions: ext, Status: status}
	_, err := w.str.Write(obj.Serialize())
	return err
}

// Close ends the subgroup stream.
func (w *SubgroupWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.str.Close()
}

// SendObjectDatagram sends one object as a standalone datagram.
func (s *Session) SendObjectDatagram(trackAlias, groupID, objectID uint64, priority byte, ext *wire.Extensions, payload []byte) error {
	d := protocol.ObjectDatagram{TrackAlias: trackAlias, GroupID: groupID, ObjectID: objectID, Priority: priority, Extensions: ext, Payload: payload}
	return s.conn.SendDatagram(d.Serialize())
}

// SendObjectStatusDatagram sends an object status as a standalone datagram.
func (s *Session) SendObjectStatusDatagram(trackAlias, groupID, objectID uint64, priority byte, ext *wire.Extensions, status protocol.ObjectStatus) error {
	d := protocol.ObjectDatagramStatus{TrackAlias: trackAlias, GroupID: groupID, ObjectID: objectID, Priority: priority, Extensions: ext, Status: status}
	return s.conn.SendDatagram(d.Serialize())
}

// FetchObjects opens a unidirectional fetch stream for subscribeID and
// streams objs in order, closing the stream once every object is sent.
func (s *Session) FetchObjects(ctx context.Context, subscribeID uint64, objs []protocol.FetchObject) error {
	str, err := s.conn.OpenUniStreamSync(ctx)
	if err != nil {
		return err
	}
	defer str.Close()

	hdr := protocol.FetchHeader{SubscribeID: subscribeID}
	if _, err := str.Write(hdr.Serialize()); err != nil {
		return err
	}
	for _, obj := range objs {
		if _, err := str.Write(obj.Serialize()); err != nil {
			return err
		}
	}
	return nil
}
