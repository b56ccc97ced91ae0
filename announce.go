package moqt

import (
	"context"
	"fmt"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

// announceState tracks one namespace this session has announced to the
// peer, through to UNANNOUNCE or ANNOUNCE_CANCEL.
type announceState int

const (
	announceStatePending announceState = iota
	announceStateActive
	announceStateDone
)

type announceRecord struct {
	namespace wire.Namespace
	state     announceState
}

// Announce advertises namespace to the peer and suspends until ANNOUNCE_OK
// or ANNOUNCE_ERROR arrives.
func (s *Session) Announce(ctx context.Context, namespace wire.Namespace) error {
	if !s.ready.Load() {
		return ErrNotReady
	}
	key := namespace.String()

	slot, ok := s.pendingAnnounce.install(key)
	if !ok {
		return fmt.Errorf("%w: announce for %q already pending", ErrProtocolViolation, key)
	}

	s.mu.Lock()
	s.announcedByUs[key] = &announceRecord{namespace: namespace, state: announceStatePending}
	s.mu.Unlock()

	msg := protocol.Announce{Namespace: namespace}
	if err := s.writeControl(protocol.MsgAnnounce, msg.Serialize()); err != nil {
		s.pendingAnnounce.remove(key)
		return err
	}

	select {
	case v := <-slot.ch:
		switch resp := v.(type) {
		case protocol.AnnounceOK:
			s.mu.Lock()
			if rec := s.announcedByUs[key]; rec != nil {
				rec.state = announceStateActive
			}
			s.mu.Unlock()
			return nil
		case protocol.AnnounceError:
			s.mu.Lock()
			delete(s.announcedByUs, key)
			s.mu.Unlock()
			return fmt.Errorf("announce rejected: code=%d reason=%q", resp.ErrorCode, resp.ReasonPhrase)
		case error:
			return resp
		default:
			return fmt.Errorf("%w: unexpected response to ANNOUNCE", ErrProtocolViolation)
		}
	case <-ctx.Done():
		s.pendingAnnounce.remove(key)
		return ctx.Err()
	}
}

// Unannounce withdraws a previously announced namespace.
func (s *Session) Unannounce(namespace wire.Namespace) error {
	key := namespace.String()
	s.mu.Lock()
	delete(s.announcedByUs, key)
	s.mu.Unlock()
	msg := protocol.Unannounce{Namespace: namespace}
	return s.writeControl(protocol.MsgUnannounce, msg.Serialize())
}

// SubscribeAnnounces asks the peer to forward ANNOUNCE messages for every
// namespace under prefix, suspending until the (un)subscription is
// confirmed.
func (s *Session) SubscribeAnnounces(ctx context.Context, prefix wire.Namespace) error {
	if !s.ready.Load() {
		return ErrNotReady
	}
	key := prefix.String()
	slot, ok := s.pendingSubscribeAnnounces.install(key)
	if !ok {
		return fmt.Errorf("%w: subscribe_announces for %q already pending", ErrProtocolViolation, key)
	}

	msg := protocol.SubscribeAnnounces{NamespacePrefix: prefix}
	if err := s.writeControl(protocol.MsgSubscribeAnnounces, msg.Serialize()); err != nil {
		s.pendingSubscribeAnnounces.remove(key)
		return err
	}

	select {
	case v := <-slot.ch:
		switch resp := v.(type) {
		case protocol.SubscribeAnnouncesOK:
			return nil
		case protocol.SubscribeAnnouncesError:
			return fmt.Errorf("subscribe_announces rejected: code=%d reason=%q", resp.ErrorCode, resp.ReasonPhrase)
		case error:
			return resp
		default:
			return fmt.Errorf("%w: unexpected response to SUBSCRIBE_ANNOUNCES", ErrProtocolViolation)
		}
	case <-ctx.Done():
		s.pendingSubscribeAnnounces.remove(key)
		return ctx.Err()
	}
}

// UnsubscribeAnnounces cancels a previously installed announce subscription.
func (s *Session) UnsubscribeAnnounces(prefix wire.Namespace) error {
	msg := protocol.UnsubscribeAnnounces{NamespacePrefix: prefix}
	return s.writeControl(protocol.MsgUnsubscribeAnnounces, msg.Serialize())
}

func handleAnnounce(s *Session, msg any) {
	a := msg.(protocol.Announce)
	s.mu.Lock()
	s.announcedByPeer[a.Namespace.String()] = a.Namespace
	s.mu.Unlock()
	s.log.Info("peer announced namespace", "namespace", a.Namespace.String())

	ok := protocol.AnnounceOK{Namespace: a.Namespace}
	if err := s.writeControl(protocol.MsgAnnounceOK, ok.Serialize()); err != nil {
		s.log.Warn("failed to send ANNOUNCE_OK", "error", err)
	}
}

func handleUnannounce(s *Session, msg any) {
	u := msg.(protocol.Unannounce)
	s.mu.Lock()
	delete(s.announcedByPeer, u.Namespace.String())
	s.mu.Unlock()
	s.log.Info("peer withdrew namespace", "namespace", u.Namespace.String())
}

func handleAnnounceCancel(s *Session, msg any) {
	a := msg.(protocol.AnnounceCancel)
	key := a.Namespace.String()
	s.mu.Lock()
	delete(s.announcedByUs, key)
	s.mu.Unlock()
	s.log.Warn("announce cancelled by peer", "namespace", key, "code", a.ErrorCode, "reason", a.ReasonPhrase)
}

func handleSubscribeAnnounces(s *Session, msg any) {
	sa := msg.(protocol.SubscribeAnnounces)
	s.log.Info("peer subscribed to announces", "prefix", sa.NamespacePrefix.String())

	ok := protocol.SubscribeAnnouncesOK{NamespacePrefix: sa.NamespacePrefix}
	if err := s.writeControl(protocol.MsgSubscribeAnnouncesOK, ok.Serialize()); err != nil {
		s.log.Warn("failed to send SUBSCRIBE_ANNOUNCES_OK", "error", err)
	}
}

func handleUnsubscribeAnnounces(s *Session, msg any) {
	u := msg.(protocol.UnsubscribeAnnounces)
	s.log.Info("peer unsubscribed from announces", "prefix", u.NamespacePrefix.String())
}

func handleAnnounceResponse(s *Session, msg any) {
	var key string
	switch resp := msg.(type) {
	case protocol.AnnounceOK:
		key = resp.Namespace.String()
	case protocol.AnnounceError:
		key = resp.Namespace.String()
	}
	resolveOrOrphan(s, s.pendingAnnounce, key, msg)
}

func handleSubscribeAnnouncesResponse(s *Session, msg any) {
	var key string
	switch resp := msg.(type) {
	case protocol.SubscribeAnnouncesOK:
		key = resp.NamespacePrefix.String()
	case protocol.SubscribeAnnouncesError:
		key = resp.NamespacePrefix.String()
	}
	resolveOrOrphan(s, s.pendingSubscribeAnnounces, key, msg)
}
