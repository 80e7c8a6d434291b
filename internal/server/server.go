// ABOUTME: TCP connection server accepting client sessions
// ABOUTME: A bind failure leaves the server inert instead of failing the adapter
package server

import (
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gkfabs/remuco/internal/loop"
)

const acceptPollInterval = 2500 * time.Millisecond

// Config carries everything a connection server needs to run.
type Config struct {
	Port       int
	PlayerInfo []byte // prebuilt player info message, sent to registering clients
	Handler    MessageHandler
	DeviceSeen DeviceSeenFunc
	Logger     *log.Logger
}

// Server listens for clients and spawns a session per accepted connection.
// When the listen socket cannot be bound the server stays inert: the adapter
// keeps running, it just has no way to get clients.
type Server struct {
	cfg      Config
	loop     *loop.Loop
	registry *Registry
	log      *log.Logger

	listener net.Listener
	stopped  chan struct{}
}

// NewServer binds the listen socket and starts accepting. The returned server
// is usable even when err is non-nil, it just never produces sessions.
func NewServer(l *loop.Loop, reg *Registry, cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{
		cfg:      cfg,
		loop:     l,
		registry: reg,
		log:      cfg.Logger,
		stopped:  make(chan struct{}),
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		s.log.Error("failed to set up wifi server", "err", err)
		return s, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	s.listener = listener
	s.log.Info("wifi server listening", "addr", listener.Addr())

	go s.acceptLoop()
	return s, nil
}

// Addr returns the bound listen address, or nil for an inert server.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	for {
		if tl, ok := s.listener.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(acceptPollInterval))
		}
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopped:
				return
			default:
			}
			if isTimeout(err) {
				continue
			}
			s.log.Warn("accept failed", "err", err)
			continue
		}

		s.log.Info("client connected", "addr", conn.RemoteAddr())
		newSession(conn, "wifi", s.loop, s.registry,
			s.cfg.PlayerInfo, s.cfg.Handler, s.cfg.DeviceSeen, s.log)
	}
}

// Stop closes the listen socket. Existing sessions are not touched; the
// adapter disconnects them itself so it can say goodbye.
func (s *Server) Stop() {
	select {
	case <-s.stopped:
		return
	default:
	}
	close(s.stopped)
	if s.listener != nil {
		s.listener.Close()
	}
}
