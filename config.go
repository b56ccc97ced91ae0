package moqt

import (
	"crypto/tls"
	"io"
	"log/slog"
	"time"
)

// Role says whether a peer publishes, subscribes, or both. A Session
// records it for its log lines; it is not sent in CLIENT_SETUP or
// SERVER_SETUP.
type Role uint64

const (
	RolePublisher  Role = 1
	RoleSubscriber Role = 2
	RoleBoth       Role = 3
)

// Config holds the options a caller supplies to Dial or Listen. Unlike the
// teacher's CLI flags, none of this is parsed from the command line or the
// environment inside this package — argument parsing stays with the caller.
type Config struct {
	// Endpoint is the HTTP path component the WebTransport CONNECT targets
	// (after the leading "/"), e.g. "moq".
	Endpoint string

	// Role is this peer's role, recorded on each Session and attached to
	// its log lines. It is not sent to the peer during setup.
	Role Role

	// TLSConfig is used directly for a Dial; for Listen, Certificate must
	// be set instead (or TLSConfig.Certificates populated by the caller).
	TLSConfig *tls.Config

	// Certificate is the server-side listening certificate. Required by
	// Listen unless TLSConfig already carries one.
	Certificate *tls.Certificate

	// MaxConcurrentStreams bounds how many unidirectional data streams a
	// session will admit concurrently before backpressuring
	// AcceptUniStream. Zero selects DefaultMaxConcurrentStreams.
	MaxConcurrentStreams int64

	// SetupTimeout bounds how long initialize() waits for the peer's
	// SERVER_SETUP before failing. Zero selects DefaultSetupTimeout.
	SetupTimeout time.Duration

	// RequestTimeout is not read by any request method. Subscribe, Fetch,
	// Announce, SubscribeAnnounces and TrackStatus wait until their ctx is
	// done, a response arrives, or the session closes; no timeout is
	// applied to them by the session.
	RequestTimeout time.Duration

	// MaxCacheDuration, if non-zero, is installed as the eviction window on
	// every track Subscribe creates. It is not sent to the peer: the setup
	// messages carry no MAX_CACHE_DURATION parameter.
	MaxCacheDuration time.Duration

	// KeyLogWriter, if set, is handed to the TLS config's KeyLogWriter
	// field for external decryption tooling. This package never parses
	// the resulting log itself.
	KeyLogWriter io.Writer

	// Logger receives lifecycle and protocol-anomaly log lines. Nil
	// selects slog.Default(), the same nil-logger convention
	// internal/stream.NewManager uses.
	Logger *slog.Logger
}

// DefaultMaxConcurrentStreams bounds the stream table admitted per session
// when Config.MaxConcurrentStreams is unset. Not named by the protocol;
// chosen to absorb a large multi-layer publish without unbounded growth.
const DefaultMaxConcurrentStreams = 256

// DefaultSetupTimeout bounds initialize() when Config.SetupTimeout is unset.
const DefaultSetupTimeout = 5 * time.Second

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) maxConcurrentStreams() int64 {
	if c.MaxConcurrentStreams > 0 {
		return c.MaxConcurrentStreams
	}
	return DefaultMaxConcurrentStreams
}

func (c *Config) setupTimeout() time.Duration {
	if c.SetupTimeout > 0 {
		return c.SetupTimeout
	}
	return DefaultSetupTimeout
}
