package moqt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"

	"github.com/zsiec/moqt/internal/stream"
)

// Server accepts WebTransport connections and hands each one off as a
// symmetric Session, generalized from internal/distribution/server.go's
// single-purpose viewer endpoint to any MoQT endpoint path. Connection
// bookkeeping is internal/stream.Manager itself: every accepted Session is
// the tracked value of one registry entry, keyed by connection id, so
// Sessions()/Close() read and drain the registry directly instead of
// keeping a second, parallel map in sync with it.
type Server struct {
	cfg Config
	wt  *webtransport.Server

	nextConnID atomic.Uint64
	registry   *stream.Manager[*Session]

	// Accept is called once per upgraded WebTransport connection, after the
	// control stream is open but before initialize() runs, so the caller
	// can install handlers via Session.RegisterHandler before any message
	// can arrive. If Accept is nil, sessions run with only the default
	// handler table.
	Accept func(*Session)
}

// Listen constructs a Server bound to cfg.Endpoint over HTTP/3. Start must
// be called to actually begin serving.
func Listen(cfg Config) (*Server, error) {
	if cfg.Certificate == nil && (cfg.TLSConfig == nil || len(cfg.TLSConfig.Certificates) == 0) {
		return nil, errors.New("moqt: Listen requires Certificate or TLSConfig.Certificates")
	}
	return &Server{
		cfg:      cfg,
		registry: stream.NewManager[*Session](cfg.logger()),
	}, nil
}

// Start serves on addr until ctx is cancelled, in the style of
// internal/distribution/server.go's Start: build the mux, build the
// webtransport.Server, register a context.AfterFunc to close on
// cancellation, and run ListenAndServe to completion.
func (srv *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	path := "/" + srv.cfg.Endpoint
	if srv.cfg.Endpoint == "" {
		path = "/moq"
	}
	mux.HandleFunc(path, srv.handleUpgrade)

	tlsConfig := srv.cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{*srv.cfg.Certificate}}
	}
	if srv.cfg.KeyLogWriter != nil {
		tlsConfig.KeyLogWriter = srv.cfg.KeyLogWriter
	}

	srv.wt = &webtransport.Server{
		H3: http3.Server{
			Addr:      addr,
			Handler:   mux,
			TLSConfig: tlsConfig,
			QUICConfig: &quic.Config{
				MaxIdleTimeout: 30 * time.Second,
				Allow0RTT:      true,
			},
		},
		CheckOrigin: func(_ *http.Request) bool { return true },
	}

	stop := context.AfterFunc(ctx, func() { srv.wt.Close() })
	defer stop()

	srv.cfg.logger().Info("moqt server listening", "addr", addr, "path", path)
	err := srv.wt.ListenAndServe()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (srv *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	log := srv.cfg.logger()
	conn, err := srv.wt.Upgrade(w, r)
	if err != nil {
		log.Error("webtransport upgrade failed", "error", err)
		return
	}

	control, err := conn.AcceptStream(r.Context())
	if err != nil {
		log.Error("failed to accept control stream", "error", err)
		conn.CloseWithError(webtransport.SessionErrorCode(CloseProtocolViolation), "control stream error")
		return
	}

	s := newSession(srv.cfg.Role, false, conn, control, srv.cfg)
	connID := fmt.Sprintf("conn-%d", srv.nextConnID.Add(1))
	srv.registry.Create(connID, s)
	defer srv.registry.Remove(connID)

	if srv.Accept != nil {
		srv.Accept(s)
	}

	if err := s.run(); err != nil {
		log.Debug("session ended", "error", err, "conn_id", connID)
	}
}

// Sessions returns every currently connected session.
func (srv *Server) Sessions() []*Session {
	return srv.registry.List()
}

// Close shuts down the listener and every active session with
// CloseNoError, waiting for each session's handleUpgrade goroutine to
// deregister before returning.
func (srv *Server) Close() error {
	entries := srv.registry.Entries()
	for _, e := range entries {
		e.Value.Close(CloseNoError, "server closing")
	}
	for _, e := range entries {
		<-e.Done()
	}
	if srv.wt == nil {
		return nil
	}
	return srv.wt.Close()
}
