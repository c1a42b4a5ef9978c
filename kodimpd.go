// Package kodimpd serves the MPD protocol in front of a Kodi instance,
// translating commands into Kodi JSON-RPC calls so any MPD client can
// control Kodi playback.
package kodimpd

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/marmeladema/kodimpd/kodi"
	"github.com/marmeladema/kodimpd/logging"
	"github.com/marmeladema/kodimpd/proxy"
	"github.com/marmeladema/kodimpd/server"
)

// Defaults for the zero Config.
const (
	DefaultListen       = "127.0.0.1:6600"
	DefaultKodiURL      = "http://127.0.0.1:8080/jsonrpc"
	DefaultPollInterval = time.Second
	DefaultCallTimeout  = 10 * time.Second
)

// Config holds the daemon configuration. Zero fields take the
// defaults above.
type Config struct {
	// Listen is the MPD listen address: host:port, or an absolute
	// path for a unix socket.
	Listen string

	// KodiURL is the Kodi JSON-RPC HTTP endpoint.
	KodiURL string

	// PollInterval is how often Kodi is polled for state changes
	// backing idle notifications.
	PollInterval time.Duration

	// CallTimeout bounds each Kodi HTTP round trip.
	CallTimeout time.Duration

	// Logger receives daemon logs; nil discards them.
	Logger *slog.Logger
}

func (cfg *Config) fillDefaults() {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.KodiURL == "" {
		cfg.KodiURL = DefaultKodiURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDiscard()
	}
}

// Run starts the poller and the MPD server and blocks until ctx is
// canceled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	cfg.fillDefaults()

	client := kodi.NewClient(cfg.KodiURL, cfg.CallTimeout, cfg.Logger)
	player := proxy.NewPlayer(client, cfg.PollInterval, cfg.Logger)
	go player.Run(ctx)

	factory := func(conn net.Conn) server.CommandHandler {
		return proxy.NewHandler(client, player, cfg.Logger)
	}
	srv := server.New(cfg.Listen, factory, cfg.Logger)

	err := srv.Start(ctx)
	if errors.Is(err, context.Canceled) {
		// Cancellation is the normal way to shut the daemon down.
		err = nil
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stopErr := srv.Stop(stopCtx); err == nil {
		err = stopErr
	}
	return err
}
