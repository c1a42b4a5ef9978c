package server

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Server accepts MPD client connections and runs one protocol session
// per connection. Each connection gets its own CommandHandler from the
// factory.
type Server struct {
	addr    string
	factory HandlerFactory
	log     *slog.Logger

	listener net.Listener
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  time.Time
}

// New creates a server listening on addr. An addr starting with "/" is
// taken as a unix socket path; anything else as a TCP host:port.
func New(addr string, factory HandlerFactory, log *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		factory: factory,
		log:     log,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start begins listening and accepting connections, then blocks until
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	network := "tcp"
	if strings.HasPrefix(s.addr, "/") {
		network = "unix"
	}
	listener, err := net.Listen(network, s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s %s", network, s.addr)
	}
	s.listener = listener
	s.log.Info("listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()

	<-s.ctx.Done()
	return s.ctx.Err()
}

// Stop shuts the server down: it closes the listener and every open
// connection, then waits for the sessions to finish or ctx to expire.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.log.Warn("accept failed", "error", err)
				continue
			}
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Info("client connected")
	defer log.Info("client disconnected")

	handler := s.factory(conn)
	defer handler.Close()

	newSession(conn, handler, log, s.started).run(s.ctx)
}
