package moqt

import (
	"context"
	"fmt"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

// FetchRequest is the caller-facing shape of an outbound FETCH: a one-shot
// range request over past objects, independent of any live subscription.
type FetchRequest struct {
	Namespace   wire.Namespace
	TrackName   string
	Priority    byte
	GroupOrder  byte
	StartGroup  uint64
	StartObject uint64
	EndGroup    uint64
	EndObject   uint64
}

// FetchResult carries FETCH_OK's metadata plus the channel objects arrive
// on as the peer streams them.
type FetchResult struct {
	SubscribeID   uint64
	EndOfTrack    bool
	LargestGroup  uint64
	LargestObject uint64
	Objects       <-chan protocol.FetchObject
}

// Fetch requests a range of past objects and suspends until FETCH_OK or
// FETCH_ERROR arrives. The objects themselves stream in separately on a
// fetch unidirectional stream and are delivered on FetchResult.Objects.
func (s *Session) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	id := s.nextSubscribeID.Add(1) - 1
	priority := req.Priority
	if priority == 0 {
		priority = protocol.DefaultPriority
	}

	slot, ok := s.pendingFetch.install(id)
	if !ok {
		return nil, fmt.Errorf("%w: fetch subscribe_id %d already pending", ErrProtocolViolation, id)
	}

	objCh := make(chan protocol.FetchObject, 16)
	s.mu.Lock()
	s.fetchStreams[id] = objCh
	s.mu.Unlock()

	msg := protocol.Fetch{
		SubscribeID: id,
		Priority:    priority,
		GroupOrder:  req.GroupOrder,
		Namespace:   req.Namespace,
		TrackName:   req.TrackName,
		StartGroup:  req.StartGroup,
		StartObject: req.StartObject,
		EndGroup:    req.EndGroup,
		EndObject:   req.EndObject,
	}
	if err := s.writeControl(protocol.MsgFetch, msg.Serialize()); err != nil {
		s.pendingFetch.remove(id)
		s.mu.Lock()
		delete(s.fetchStreams, id)
		s.mu.Unlock()
		return nil, err
	}

	select {
	case v := <-slot.ch:
		switch resp := v.(type) {
		case protocol.FetchOK:
			return &FetchResult{
				SubscribeID:   id,
				EndOfTrack:    resp.EndOfTrack,
				LargestGroup:  resp.LargestGroup,
				LargestObject: resp.LargestObject,
				Objects:       objCh,
			}, nil
		case protocol.FetchError:
			s.mu.Lock()
			delete(s.fetchStreams, id)
			s.mu.Unlock()
			return nil, fmt.Errorf("fetch rejected: code=%d reason=%q", resp.ErrorCode, resp.ReasonPhrase)
		case error:
			return nil, resp
		default:
			return nil, fmt.Errorf("%w: unexpected response to FETCH", ErrProtocolViolation)
		}
	case <-ctx.Done():
		s.pendingFetch.remove(id)
		s.mu.Lock()
		delete(s.fetchStreams, id)
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

// FetchCancel aborts an in-progress FETCH before it completes.
func (s *Session) FetchCancel(subscribeID uint64) error {
	s.mu.Lock()
	delete(s.fetchStreams, subscribeID)
	s.mu.Unlock()
	msg := protocol.FetchCancel{SubscribeID: subscribeID}
	return s.writeControl(protocol.MsgFetchCancel, msg.Serialize())
}

func handleFetch(s *Session, msg any) {
	f := msg.(protocol.Fetch)
	s.log.Info("fetch received", "subscribe_id", f.SubscribeID, "namespace", f.Namespace.String(), "track", f.TrackName)
}

func handleFetchCancel(s *Session, msg any) {
	f := msg.(protocol.FetchCancel)
	s.log.Info("fetch cancel received", "subscribe_id", f.SubscribeID)
}

func handleFetchResponse(s *Session, msg any) {
	var id uint64
	switch resp := msg.(type) {
	case protocol.FetchOK:
		id = resp.SubscribeID
	case protocol.FetchError:
		id = resp.SubscribeID
	}
	resolveOrOrphan(s, s.pendingFetch, id, msg)
}
