// Command moqt-demo runs a MoQT WebTransport listener that accepts
// connections, announces itself ready to publish one namespace, and
// answers SUBSCRIBE by streaming a timestamped object once a second until
// the session closes. It exists to exercise Listen/Session against a
// live QUIC stack end to end.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/moqt"
	"github.com/zsiec/moqt/internal/protocol"
	"github.com/zsiec/moqt/internal/wire"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cert, fingerprint, err := moqt.SelfSignedCertificate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate certificate", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := envOr("MOQT_ADDR", ":4443")
	namespace := wire.ParseNamespacePath(envOr("MOQT_NAMESPACE", "demo/clock"))
	trackName := envOr("MOQT_TRACK", "ticks")

	srv, err := moqt.Listen(moqt.Config{
		Role:        moqt.RolePublisher,
		Certificate: &cert,
		Endpoint:    "moq",
	})
	if err != nil {
		slog.Error("failed to construct server", "error", err)
		os.Exit(1)
	}

	pub := &publisher{namespace: namespace, trackName: trackName}
	srv.Accept = pub.onAccept

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(ctx, addr) })
	g.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})

	slog.Info("moqt-demo listening", "addr", addr, "namespace", namespace.String(), "track", trackName, "cert_hash", fingerprint)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("demo exited with error", "error", err)
		os.Exit(1)
	}
}

// publisher answers every subscriber with the same single track.
type publisher struct {
	namespace wire.Namespace
	trackName string
}

func (p *publisher) onAccept(s *moqt.Session) {
	s.RegisterHandler(protocol.MsgSubscribe, func(sess *moqt.Session, msg any) {
		sub := msg.(protocol.Subscribe)
		if sub.Namespace.String() != p.namespace.String() || sub.TrackName != p.trackName {
			_ = sess.RejectSubscribe(sub.SubscribeID, 0x04, "unknown track")
			return
		}
		if err := sess.AcceptSubscribe(sub.SubscribeID, false, 0, 0); err != nil {
			slog.Warn("accept subscribe failed", "error", err)
			return
		}
		go p.stream(sess, sub.TrackAlias)
	})
	go p.serve(s)
}

func (p *publisher) serve(s *moqt.Session) {
	select {
	case <-s.Ready():
	case <-s.Done():
		return
	}

	if err := s.Announce(context.Background(), p.namespace); err != nil {
		slog.Warn("announce failed", "error", err)
		return
	}

	slog.Info("session ready", "namespace", p.namespace.String())
	<-s.Done()
}

// stream sends one object per second on trackAlias until the session
// closes, each a new group of one object.
func (p *publisher) stream(s *moqt.Session, trackAlias uint64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var groupID uint64
	for {
		select {
		case <-s.Done():
			return
		case now := <-ticker.C:
			w, err := s.OpenSubgroup(context.Background(), trackAlias, groupID, 0, 128)
			if err != nil {
				slog.Warn("open subgroup failed", "error", err)
				return
			}
			if err := w.WriteObject(0, nil, []byte(now.Format(time.RFC3339))); err != nil {
				slog.Warn("write object failed", "error", err)
			}
			w.WriteStatus(1, nil, protocol.StatusEndOfGroup)
			w.Close()
			groupID++
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
