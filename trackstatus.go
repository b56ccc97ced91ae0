package moqt

import (
	"context"
	"fmt"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

// TrackStatus reports a track's status without subscribing to it.
func (s *Session) TrackStatus(ctx context.Context, namespace wire.Namespace, trackName string) (*protocol.TrackStatus, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	key := trackKey(namespace, trackName)

	slot, ok := s.pendingTrackStatus.install(key)
	if !ok {
		return nil, fmt.Errorf("%w: track_status for %q already pending", ErrProtocolViolation, key)
	}

	req := protocol.TrackStatusRequest{Namespace: namespace, TrackName: trackName}
	if err := s.writeControl(protocol.MsgTrackStatusRequest, req.Serialize()); err != nil {
		s.pendingTrackStatus.remove(key)
		return nil, err
	}

	select {
	case v := <-slot.ch:
		switch resp := v.(type) {
		case protocol.TrackStatus:
			return &resp, nil
		case error:
			return nil, resp
		default:
			return nil, fmt.Errorf("%w: unexpected response to TRACK_STATUS_REQUEST", ErrProtocolViolation)
		}
	case <-ctx.Done():
		s.pendingTrackStatus.remove(key)
		return nil, ctx.Err()
	}
}

// SendTrackStatus answers a TRACK_STATUS_REQUEST.
func (s *Session) SendTrackStatus(status protocol.TrackStatus) error {
	return s.writeControl(protocol.MsgTrackStatus, status.Serialize())
}

func handleTrackStatusRequest(s *Session, msg any) {
	r := msg.(protocol.TrackStatusRequest)
	s.log.Debug("track status requested", "namespace", r.Namespace.String(), "track", r.TrackName)
}

func handleTrackStatusResponse(s *Session, msg any) {
	ts, ok := msg.(protocol.TrackStatus)
	if !ok {
		handleOrphanResponse(s, msg)
		return
	}
	key := trackKey(ts.Namespace, ts.TrackName)
	resolveOrOrphan(s, s.pendingTrackStatus, key, msg)
}
