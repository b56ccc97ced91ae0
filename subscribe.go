package moqt

import (
	"context"
	"fmt"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/track"
	"github.com/zsiec/moqt/internal/wire"
)

// subState is a subscription's position in the PENDING -> ACTIVE ->
// ENDING -> DONE lifecycle driven by SUBSCRIBE/SUBSCRIBE_OK/SUBSCRIBE_ERROR/
// SUBSCRIBE_DONE/UNSUBSCRIBE.
type subState int

const (
	subStatePending subState = iota
	subStateActive
	subStateEnding
	subStateDone
)

// outgoingSubscription is a track this session asked the peer to deliver.
// Objects arriving on matching subgroup streams/datagrams land in cache.
type outgoingSubscription struct {
	subscribeID uint64
	trackAlias  uint64
	namespace   wire.Namespace
	trackName   string
	state       subState
	cache       *track.Track
}

// incomingSubscription is a track the peer asked this session to deliver.
type incomingSubscription struct {
	subscribeID uint64
	trackAlias  uint64
	namespace   wire.Namespace
	trackName   string
	priority    byte
	groupOrder  byte
	forward     bool
	filterType  uint64
	state       subState
	streamCount uint64
}

// SubscribeRequest is the caller-facing shape of an outbound SUBSCRIBE.
type SubscribeRequest struct {
	Namespace     wire.Namespace
	TrackName     string
	Priority      byte
	GroupOrder    byte
	FilterType    uint64
	StartGroup    uint64
	StartObject   uint64
	EndGroup      uint64
	Authorization string
}

// SubscribeResult reports what SUBSCRIBE_OK announced about the track.
type SubscribeResult struct {
	SubscribeID   uint64
	TrackAlias    uint64
	ContentExists bool
	LargestGroup  uint64
	LargestObject uint64
	Track         *track.Track
}

// Subscribe requests delivery of a track and suspends until SUBSCRIBE_OK or
// SUBSCRIBE_ERROR arrives. The returned Track accumulates objects as they
// arrive on the session's data-plane streams/datagrams.
func (s *Session) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	id := s.nextSubscribeID.Add(1) - 1
	alias := id

	priority := req.Priority
	if priority == 0 {
		priority = protocol.DefaultPriority
	}
	filterType := req.FilterType
	if filterType == 0 {
		filterType = protocol.FilterLatestGroup
	}

	cache := track.New(req.Namespace, req.TrackName)
	if s.cfg.MaxCacheDuration > 0 {
		cache.SetMaxCacheDuration(s.cfg.MaxCacheDuration)
	}

	sub := &outgoingSubscription{
		subscribeID: id,
		trackAlias:  alias,
		namespace:   req.Namespace,
		trackName:   req.TrackName,
		state:       subStatePending,
		cache:       cache,
	}

	slot, ok := s.pendingSubscribe.install(id)
	if !ok {
		return nil, fmt.Errorf("%w: subscribe_id %d already pending", ErrProtocolViolation, id)
	}

	s.mu.Lock()
	s.outgoingSubs[id] = sub
	s.tracks[trackKey(req.Namespace, req.TrackName)] = cache
	s.mu.Unlock()

	msg := protocol.Subscribe{
		SubscribeID:      id,
		TrackAlias:       alias,
		Namespace:        req.Namespace,
		TrackName:        req.TrackName,
		Priority:         priority,
		GroupOrder:       req.GroupOrder,
		Forward:          true,
		FilterType:       filterType,
		StartGroup:       req.StartGroup,
		StartObject:      req.StartObject,
		EndGroup:         req.EndGroup,
		Authorization:    req.Authorization,
		HasAuthorization: req.Authorization != "",
	}
	if err := s.writeControl(protocol.MsgSubscribe, msg.Serialize()); err != nil {
		s.pendingSubscribe.remove(id)
		return nil, err
	}

	select {
	case v := <-slot.ch:
		switch resp := v.(type) {
		case protocol.SubscribeOK:
			s.mu.Lock()
			sub.state = subStateActive
			s.mu.Unlock()
			return &SubscribeResult{
				SubscribeID:   id,
				TrackAlias:    alias,
				ContentExists: resp.ContentExists,
				LargestGroup:  resp.LargestGroup,
				LargestObject: resp.LargestObject,
				Track:         cache,
			}, nil
		case protocol.SubscribeError:
			s.mu.Lock()
			delete(s.outgoingSubs, id)
			delete(s.tracks, trackKey(req.Namespace, req.TrackName))
			s.mu.Unlock()
			return nil, fmt.Errorf("subscribe rejected: code=%d reason=%q", resp.ErrorCode, resp.ReasonPhrase)
		case error:
			return nil, resp
		default:
			return nil, fmt.Errorf("%w: unexpected response to SUBSCRIBE", ErrProtocolViolation)
		}
	case <-ctx.Done():
		s.pendingSubscribe.remove(id)
		return nil, ctx.Err()
	}
}

// Unsubscribe cancels an active outbound subscription.
func (s *Session) Unsubscribe(subscribeID uint64) error {
	s.mu.Lock()
	delete(s.outgoingSubs, subscribeID)
	s.mu.Unlock()
	msg := protocol.Unsubscribe{SubscribeID: subscribeID}
	return s.writeControl(protocol.MsgUnsubscribe, msg.Serialize())
}

// AcceptSubscribe answers an incoming SUBSCRIBE with SUBSCRIBE_OK.
func (s *Session) AcceptSubscribe(subscribeID uint64, contentExists bool, largestGroup, largestObject uint64) error {
	s.mu.Lock()
	if sub := s.incomingSubs[subscribeID]; sub != nil {
		sub.state = subStateActive
	}
	s.mu.Unlock()
	ok := protocol.SubscribeOK{
		SubscribeID:   subscribeID,
		GroupOrder:    protocol.GroupOrderAscending,
		ContentExists: contentExists,
		LargestGroup:  largestGroup,
		LargestObject: largestObject,
	}
	return s.writeControl(protocol.MsgSubscribeOK, ok.Serialize())
}

// RejectSubscribe answers an incoming SUBSCRIBE with SUBSCRIBE_ERROR.
func (s *Session) RejectSubscribe(subscribeID, errorCode uint64, reason string) error {
	s.mu.Lock()
	delete(s.incomingSubs, subscribeID)
	s.mu.Unlock()
	errMsg := protocol.SubscribeError{SubscribeID: subscribeID, ErrorCode: errorCode, ReasonPhrase: reason}
	return s.writeControl(protocol.MsgSubscribeError, errMsg.Serialize())
}

// EndSubscription tells the subscriber an active subscription ended, via
// SUBSCRIBE_DONE, and retires the local bookkeeping.
func (s *Session) EndSubscription(subscribeID, statusCode uint64, reason string) error {
	s.mu.Lock()
	var streamCount uint64
	if sub := s.incomingSubs[subscribeID]; sub != nil {
		streamCount = sub.streamCount
		sub.state = subStateDone
	}
	delete(s.incomingSubs, subscribeID)
	s.mu.Unlock()
	done := protocol.SubscribeDone{SubscribeID: subscribeID, StatusCode: statusCode, StreamCount: streamCount, ReasonPhrase: reason}
	return s.writeControl(protocol.MsgSubscribeDone, done.Serialize())
}

func handleSubscribe(s *Session, msg any) {
	sub := msg.(protocol.Subscribe)
	s.mu.Lock()
	s.incomingSubs[sub.SubscribeID] = &incomingSubscription{
		subscribeID: sub.SubscribeID,
		trackAlias:  sub.TrackAlias,
		namespace:   sub.Namespace,
		trackName:   sub.TrackName,
		priority:    sub.Priority,
		groupOrder:  sub.GroupOrder,
		forward:     sub.Forward,
		filterType:  sub.FilterType,
		state:       subStatePending,
	}
	s.mu.Unlock()
	s.log.Info("subscribe received", "subscribe_id", sub.SubscribeID, "namespace", sub.Namespace.String(), "track", sub.TrackName)
}

func handleSubscribeUpdate(s *Session, msg any) {
	u := msg.(protocol.SubscribeUpdate)
	s.log.Debug("subscribe update received", "subscribe_id", u.SubscribeID)
}

func handleUnsubscribe(s *Session, msg any) {
	u := msg.(protocol.Unsubscribe)
	s.mu.Lock()
	delete(s.incomingSubs, u.SubscribeID)
	s.mu.Unlock()
	s.log.Info("unsubscribe received", "subscribe_id", u.SubscribeID)
}

func handleSubscribeDone(s *Session, msg any) {
	d := msg.(protocol.SubscribeDone)
	s.mu.Lock()
	if sub := s.outgoingSubs[d.SubscribeID]; sub != nil {
		sub.state = subStateDone
	}
	delete(s.outgoingSubs, d.SubscribeID)
	s.mu.Unlock()
	s.log.Info("subscription ended", "subscribe_id", d.SubscribeID, "status", d.StatusCode, "reason", d.ReasonPhrase)
}

func handleMaxSubscribeID(s *Session, msg any) {
	m := msg.(protocol.MaxSubscribeID)
	s.log.Debug("max subscribe id updated", "subscribe_id", m.SubscribeID)
}

func handleSubscribesBlocked(s *Session, msg any) {
	b := msg.(protocol.SubscribesBlocked)
	s.log.Debug("peer reports subscribes blocked", "maximum_subscribe_id", b.MaximumSubscribeID)
}

func handleSubscribeResponse(s *Session, msg any) {
	var id uint64
	switch resp := msg.(type) {
	case protocol.SubscribeOK:
		id = resp.SubscribeID
	case protocol.SubscribeError:
		id = resp.SubscribeID
	}
	resolveOrOrphan(s, s.pendingSubscribe, id, msg)
}
