package moqt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/webtransport-go"
)

// Dial connects to a MoQT endpoint over WebTransport, performs the setup
// handshake, and returns a running Session. The returned Session's
// background loops run until ctx is cancelled or the session closes.
func Dial(ctx context.Context, addr string, cfg Config) (*Session, error) {
	tlsConfig := cfg.TLSConfig
	if tlsConfig == nil {
		return nil, fmt.Errorf("moqt: Dial requires Config.TLSConfig")
	}
	if cfg.KeyLogWriter != nil {
		tlsConfig.KeyLogWriter = cfg.KeyLogWriter
	}

	dialer := webtransport.Dialer{
		TLSClientConfig: tlsConfig,
		QUICConfig:      &quic.Config{},
	}

	_, conn, err := dialer.Dial(ctx, addr, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("moqt: dial %s: %w", addr, err)
	}

	control, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(webtransport.SessionErrorCode(CloseInternalError), "control stream open failed")
		return nil, fmt.Errorf("moqt: open control stream: %w", err)
	}

	s := newSession(cfg.Role, true, conn, control, cfg)
	go func() {
		if err := s.run(); err != nil {
			s.log.Debug("session ended", "error", err)
		}
	}()

	select {
	case <-s.Ready():
		return s, nil
	case <-s.Done():
		return nil, s.CloseTuple()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
