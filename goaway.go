package moqt

import "github.com/zsiec/moqt/internal/protocol"

// GoAway asks the peer to migrate to a new session, optionally at a new
// URI, and sets this session's GOAWAY flag. No session code reads that
// flag, so later subscriptions proceed as before.
func (s *Session) GoAway(newSessionURI string) error {
	s.goAway.Store(true)
	msg := protocol.GoAway{NewSessionURI: newSessionURI}
	return s.writeControl(protocol.MsgGoAway, msg.Serialize())
}

func handleGoAway(s *Session, msg any) {
	g := msg.(protocol.GoAway)
	s.log.Info("GOAWAY received", "new_session_uri", g.NewSessionURI)
	s.goAway.Store(true)
}
