// Package moqt implements the symmetric core of a Media-over-QUIC Transport
// peer: the control state machine, the data-plane multiplexer, and the
// session runtime that ties them together, over a WebTransport-over-HTTP/3
// connection. The QUIC/HTTP/3 transport stack, the WebTransport negotiation
// handshake itself, CLI argument parsing, and media codec logic are all
// external collaborators this package depends on but does not implement.
package moqt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/quic-go/webtransport-go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/track"
	"github.com/zsiec/moqt/internal/wire"
)

// Session is one MoQT peer connection: the control stream state machine and
// the unidirectional-stream/datagram data-plane multiplexer, combined the
// way MoQSession combines control dispatch and per-track write loops in
// internal/distribution/moq_session.go — generalized here from "viewer of
// one fixed stream key" to a symmetric peer for any namespace/track.
type Session struct {
	role     Role
	isClient bool
	cfg      Config
	log      *slog.Logger

	conn          *webtransport.Session
	control       webtransport.Stream
	controlReader *bufio.Reader
	controlMu     sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	ready            atomic.Bool
	readyCh          chan struct{}
	peerVersion      uint64
	peerMaxSubscribe uint64
	peerRole         Role

	nextSubscribeID atomic.Uint64

	mu              sync.RWMutex
	outgoingSubs    map[uint64]*outgoingSubscription
	incomingSubs    map[uint64]*incomingSubscription
	announcedByUs   map[string]*announceRecord
	announcedByPeer map[string]wire.Namespace
	tracks          map[string]*track.Track
	fetchStreams    map[uint64]chan protocol.FetchObject

	pendingSubscribe          *pendingTable[uint64]
	pendingAnnounce           *pendingTable[string]
	pendingSubscribeAnnounces *pendingTable[string]
	pendingFetch              *pendingTable[uint64]
	pendingTrackStatus        *pendingTable[string]

	handlersMu sync.RWMutex
	handlers   map[uint64]HandlerFunc
	defaults   map[uint64]HandlerFunc

	streamSem *semaphore.Weighted
	streams   *streamTable

	goAway atomic.Bool

	closeOnce  sync.Once
	closed     atomic.Bool
	closeTuple atomic.Pointer[CloseTuple]
	doneCh     chan struct{}
}

// newSession builds a Session from an already-established WebTransport
// session and its already-accepted control stream. Both Client.Dial and
// Server's per-connection handler call this once the WebTransport upgrade
// is complete; role distinguishes only which side of the setup handshake
// to drive — the peer implementation itself is symmetric.
func newSession(role Role, isClient bool, conn *webtransport.Session, control webtransport.Stream, cfg Config) *Session {
	ctx, cancel := context.WithCancel(conn.Context())
	id := fmt.Sprintf("%p", conn)
	s := &Session{
		role:                      role,
		isClient:                  isClient,
		cfg:                       cfg,
		log:                       cfg.logger().With("component", "moqt", "session", id, "role", role),
		conn:                      conn,
		control:                   control,
		controlReader:             bufio.NewReader(control),
		ctx:                       ctx,
		cancel:                    cancel,
		outgoingSubs:              make(map[uint64]*outgoingSubscription),
		incomingSubs:              make(map[uint64]*incomingSubscription),
		announcedByUs:             make(map[string]*announceRecord),
		announcedByPeer:           make(map[string]wire.Namespace),
		tracks:                    make(map[string]*track.Track),
		fetchStreams:              make(map[uint64]chan protocol.FetchObject),
		pendingSubscribe:          newPendingTable[uint64](),
		pendingAnnounce:           newPendingTable[string](),
		pendingSubscribeAnnounces: newPendingTable[string](),
		pendingFetch:              newPendingTable[uint64](),
		pendingTrackStatus:        newPendingTable[string](),
		defaults:                  defaultHandlers(),
		streamSem:                 semaphore.NewWeighted(cfg.maxConcurrentStreams()),
		streams:                   newStreamTable(),
		doneCh:                    make(chan struct{}),
		readyCh:                   make(chan struct{}),
	}
	s.nextSubscribeID.Store(1)
	return s
}

// run performs the setup handshake and then drives the session until it
// closes, supervising the control read loop, the unidirectional-stream
// acceptor, and the datagram reader with errgroup.WithContext.
func (s *Session) run() error {
	if err := s.initialize(); err != nil {
		code := CloseProtocolViolation
		if errors.Is(err, protocol.ErrVersionMismatch) {
			code = CloseUnsupportedVersion
		}
		s.closeLocal(code, err.Error())
		return err
	}

	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		s.readControlLoop(ctx)
		return nil
	})
	g.Go(func() error {
		s.acceptUniStreams(ctx)
		return nil
	})
	g.Go(func() error {
		s.readDatagrams(ctx)
		return nil
	})

	<-ctx.Done()
	_ = g.Wait()
	return s.ctx.Err()
}

// initialize performs the CLIENT_SETUP/SERVER_SETUP exchange, suspending
// until SERVER_SETUP arrives (client) or is sent (server) or the setup
// timeout expires.
func (s *Session) initialize() error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.setupTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.doInitialize()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ErrSetupTimeout
	}
}

func (s *Session) doInitialize() error {
	if s.isClient {
		return s.initializeClient()
	}
	return s.initializeServer()
}

func (s *Session) initializeClient() error {
	cs := protocol.ClientSetup{
		Versions: []uint64{protocol.Version},
	}
	if s.cfg.Endpoint != "" {
		cs.Path = s.cfg.Endpoint
		cs.HasPath = true
	}
	if err := s.writeControl(protocol.MsgClientSetup, cs.Serialize()); err != nil {
		return fmt.Errorf("write CLIENT_SETUP: %w", err)
	}

	msgType, payload, err := protocol.ReadControlMsg(s.controlReader)
	if err != nil {
		return fmt.Errorf("read SERVER_SETUP: %w", err)
	}
	if msgType != protocol.MsgServerSetup {
		return fmt.Errorf("%w: expected SERVER_SETUP, got 0x%x", ErrProtocolViolation, msgType)
	}
	ss, err := protocol.ParseServerSetup(payload)
	if err != nil {
		return fmt.Errorf("parse SERVER_SETUP: %w", err)
	}
	if ss.SelectedVersion != protocol.Version {
		return fmt.Errorf("%w: server selected 0x%x", protocol.ErrVersionMismatch, ss.SelectedVersion)
	}
	s.peerVersion = ss.SelectedVersion
	s.peerMaxSubscribe = ss.MaxSubscribe
	s.markReady()
	s.log.Info("session ready", "version", ss.SelectedVersion)
	return nil
}

func (s *Session) initializeServer() error {
	msgType, payload, err := protocol.ReadControlMsg(s.controlReader)
	if err != nil {
		return fmt.Errorf("read CLIENT_SETUP: %w", err)
	}
	if msgType != protocol.MsgClientSetup {
		return fmt.Errorf("%w: expected CLIENT_SETUP, got 0x%x", ErrProtocolViolation, msgType)
	}
	cs, err := protocol.ParseClientSetup(payload)
	if err != nil {
		return fmt.Errorf("parse CLIENT_SETUP: %w", err)
	}

	versionOK := false
	for _, v := range cs.Versions {
		if v == protocol.Version {
			versionOK = true
			break
		}
	}
	if !versionOK {
		ss := protocol.ServerSetup{SelectedVersion: protocol.Version}
		_ = s.writeControl(protocol.MsgServerSetup, ss.Serialize())
		return fmt.Errorf("%w (client offered %v)", protocol.ErrVersionMismatch, cs.Versions)
	}

	ss := protocol.ServerSetup{SelectedVersion: protocol.Version}
	if err := s.writeControl(protocol.MsgServerSetup, ss.Serialize()); err != nil {
		return fmt.Errorf("write SERVER_SETUP: %w", err)
	}
	s.peerVersion = protocol.Version
	s.markReady()
	s.log.Info("session ready", "version", protocol.Version, "path", cs.Path)
	return nil
}

// writeControl serializes and writes one control message, serialized
// behind controlMu so concurrent request methods never interleave partial
// frames on the shared control stream.
func (s *Session) writeControl(msgType uint64, payload []byte) error {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	return protocol.WriteControlMsg(s.control, msgType, payload)
}

// readControlLoop reads and dispatches control messages until the stream
// errors or the session closes. Control frames are delivered to handlers
// in on-the-wire order, since the control stream is a single QUIC stream
// read from one goroutine.
func (s *Session) readControlLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgType, payload, err := protocol.ReadControlMsg(s.controlReader)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug("control read ended", "error", err)
				s.closeLocal(CloseInternalError, "control stream closed")
			}
			return
		}
		s.dispatch(msgType, payload)
	}
}

func (s *Session) dispatch(msgType uint64, payload []byte) {
	msg, err := decodeControlMessage(msgType, payload)
	if err != nil {
		s.log.Warn("unknown or malformed message, skipping", "type", fmt.Sprintf("0x%x", msgType), "error", err)
		return
	}
	h, ok := s.handlerFor(msgType)
	if !ok {
		s.log.Debug("no handler for message, skipping", "type", fmt.Sprintf("0x%x", msgType))
		return
	}
	h(s, msg)
}

func (s *Session) markReady() {
	if s.ready.CompareAndSwap(false, true) {
		close(s.readyCh)
	}
}

// Ready returns a channel closed once setup completes successfully. It
// never closes if setup fails; select on Done() too when waiting on it.
func (s *Session) Ready() <-chan struct{} {
	return s.readyCh
}

// Done returns a channel closed once the session's close state is final.
func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

// CloseTuple reports the (code, reason) the session closed with. It must
// only be called after Done() has fired.
func (s *Session) CloseTuple() CloseTuple {
	if t := s.closeTuple.Load(); t != nil {
		return *t
	}
	return CloseTuple{}
}

// Close marks the session closing: it cancels every pending-response slot
// with the close tuple, cancels every handler task via ctx, instructs the
// transport to close with the given code and reason, and resolves Done().
// A second call is a no-op: guarded by a sync.Once.
func (s *Session) Close(code uint64, reason string) {
	s.closeLocal(code, reason)
}

func (s *Session) closeLocal(code uint64, reason string) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		tuple := CloseTuple{Code: code, Reason: reason}
		s.closeTuple.Store(&tuple)

		closeErr := &localClosedError{CloseTuple: tuple}
		s.pendingSubscribe.closeAll(closeErr)
		s.pendingAnnounce.closeAll(closeErr)
		s.pendingSubscribeAnnounces.closeAll(closeErr)
		s.pendingFetch.closeAll(closeErr)
		s.pendingTrackStatus.closeAll(closeErr)

		s.cancel()
		_ = s.conn.CloseWithError(webtransport.SessionErrorCode(code), reason)
		close(s.doneCh)
		s.log.Info("session closed", "code", code, "reason", reason)
	})
}

// decodeControlMessage parses payload according to msgType, returning the
// concrete message value as any, ready for the handler table.
func decodeControlMessage(msgType uint64, payload []byte) (any, error) {
	switch msgType {
	case protocol.MsgAnnounce:
		return protocol.ParseAnnounce(payload)
	case protocol.MsgAnnounceOK:
		return protocol.ParseAnnounceOK(payload)
	case protocol.MsgAnnounceError:
		return protocol.ParseAnnounceError(payload)
	case protocol.MsgUnannounce:
		return protocol.ParseUnannounce(payload)
	case protocol.MsgAnnounceCancel:
		return protocol.ParseAnnounceCancel(payload)
	case protocol.MsgSubscribe:
		return protocol.ParseSubscribe(payload)
	case protocol.MsgSubscribeUpdate:
		return protocol.ParseSubscribeUpdate(payload)
	case protocol.MsgSubscribeOK:
		return protocol.ParseSubscribeOK(payload)
	case protocol.MsgSubscribeError:
		return protocol.ParseSubscribeError(payload)
	case protocol.MsgUnsubscribe:
		return protocol.ParseUnsubscribe(payload)
	case protocol.MsgSubscribeDone:
		return protocol.ParseSubscribeDone(payload)
	case protocol.MsgSubscribeAnnounces:
		return protocol.ParseSubscribeAnnounces(payload)
	case protocol.MsgSubscribeAnnouncesOK:
		return protocol.ParseSubscribeAnnouncesOK(payload)
	case protocol.MsgSubscribeAnnouncesError:
		return protocol.ParseSubscribeAnnouncesError(payload)
	case protocol.MsgUnsubscribeAnnounces:
		return protocol.ParseUnsubscribeAnnounces(payload)
	case protocol.MsgFetch:
		return protocol.ParseFetch(payload)
	case protocol.MsgFetchOK:
		return protocol.ParseFetchOK(payload)
	case protocol.MsgFetchError:
		return protocol.ParseFetchError(payload)
	case protocol.MsgFetchCancel:
		return protocol.ParseFetchCancel(payload)
	case protocol.MsgTrackStatusRequest:
		return protocol.ParseTrackStatusRequest(payload)
	case protocol.MsgTrackStatus:
		return protocol.ParseTrackStatus(payload)
	case protocol.MsgGoAway:
		return protocol.ParseGoAway(payload)
	case protocol.MsgMaxSubscribeID:
		return protocol.ParseMaxSubscribeID(payload)
	case protocol.MsgSubscribesBlocked:
		return protocol.ParseSubscribesBlocked(payload)
	default:
		return nil, fmt.Errorf("%w: 0x%x", protocol.ErrUnexpectedMessage, msgType)
	}
}

func trackKey(ns wire.Namespace, trackName string) string {
	return ns.String() + "\x00" + trackName
}
