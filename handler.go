package moqt

import "github.com/zsiec/moqt/internal/protocol"

// HandlerFunc processes a decoded control message delivered to the session.
// msg is the concrete decoded type for the registered message (e.g.
// protocol.Subscribe for MsgSubscribe) boxed as any, matching the dynamic
// dispatch table design noted for the handler registry: the default table
// is immutable, and a per-session override map is consulted first.
type HandlerFunc func(s *Session, msg any)

// defaultHandlers returns the protocol-correct default handler for every
// control message type a peer may receive unsolicited or as a request.
// Overrides installed via RegisterHandler replace these entries in the
// per-session map, which is consulted before falling back to this table.
func defaultHandlers() map[uint64]HandlerFunc {
	return map[uint64]HandlerFunc{
		protocol.MsgAnnounce:              handleAnnounce,
		protocol.MsgUnannounce:            handleUnannounce,
		protocol.MsgAnnounceCancel:        handleAnnounceCancel,
		protocol.MsgSubscribe:             handleSubscribe,
		protocol.MsgSubscribeUpdate:       handleSubscribeUpdate,
		protocol.MsgUnsubscribe:           handleUnsubscribe,
		protocol.MsgSubscribeAnnounces:    handleSubscribeAnnounces,
		protocol.MsgUnsubscribeAnnounces:  handleUnsubscribeAnnounces,
		protocol.MsgFetch:                 handleFetch,
		protocol.MsgFetchCancel:           handleFetchCancel,
		protocol.MsgTrackStatusRequest:    handleTrackStatusRequest,
		protocol.MsgGoAway:                handleGoAway,
		protocol.MsgMaxSubscribeID:        handleMaxSubscribeID,
		protocol.MsgSubscribesBlocked:     handleSubscribesBlocked,

		// Responses to our own outbound requests resolve a pending slot
		// rather than invoking application code directly; each resolver
		// falls back to handleOrphanResponse when no slot is pending.
		protocol.MsgAnnounceOK:              handleAnnounceResponse,
		protocol.MsgAnnounceError:           handleAnnounceResponse,
		protocol.MsgSubscribeOK:             handleSubscribeResponse,
		protocol.MsgSubscribeError:          handleSubscribeResponse,
		protocol.MsgSubscribeDone:           handleSubscribeDone,
		protocol.MsgSubscribeAnnouncesOK:    handleSubscribeAnnouncesResponse,
		protocol.MsgSubscribeAnnouncesError: handleSubscribeAnnouncesResponse,
		protocol.MsgFetchOK:                 handleFetchResponse,
		protocol.MsgFetchError:              handleFetchResponse,
		protocol.MsgTrackStatus:             handleTrackStatusResponse,
	}
}

// resolveOrOrphan delivers msg to the pending slot for key, if one exists,
// and otherwise routes it to handleOrphanResponse.
func resolveOrOrphan[K comparable](s *Session, table *pendingTable[K], key K, msg any) {
	if !table.resolve(key, msg) {
		handleOrphanResponse(s, msg)
	}
}

// RegisterHandler overrides the default handler for msgType. The override
// receives the same decoded message value the default handler would have.
func (s *Session) RegisterHandler(msgType uint64, h HandlerFunc) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[uint64]HandlerFunc)
	}
	s.handlers[msgType] = h
}

func (s *Session) handlerFor(msgType uint64) (HandlerFunc, bool) {
	s.handlersMu.RLock()
	h, ok := s.handlers[msgType]
	s.handlersMu.RUnlock()
	if ok {
		return h, true
	}
	h, ok = s.defaults[msgType]
	return h, ok
}

func handleOrphanResponse(s *Session, msg any) {
	s.log.Warn("response with no pending request", "message", msg)
}
