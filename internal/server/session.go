// ABOUTME: Per-connection session: handshake, framed receive, buffered send
// ABOUTME: Handles powersave, registration on client info and idempotent disconnect
package server

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gkfabs/remuco/internal/loop"
	"github.com/gkfabs/remuco/pkg/protocol"
)

const (
	// sendQueueLen bounds the per-session outbound buffer. A client that
	// stops reading loses pushes instead of stalling the coordinator.
	sendQueueLen = 64

	writeTimeout = 10 * time.Second

	byeRetries    = 10
	byeRetryDelay = 20 * time.Millisecond
	byeGraceDelay = 100 * time.Millisecond
)

// MessageHandler receives every inbound message the session does not consume
// itself. Called in loop context.
type MessageHandler func(s *Session, id int16, payload []byte)

// DeviceSeenFunc is notified with the device fields of every client that
// completes registration. Called in loop context.
type DeviceSeenFunc func(device map[string]string)

// Session is one accepted client connection with its own receive and send
// state. Info, powersave and registration state belong to the coordinator
// loop; the reader and writer goroutines only move bytes.
type Session struct {
	ID string

	conn     net.Conn
	addr     string
	connType string

	loop       *loop.Loop
	registry   *Registry
	pinfoMsg   []byte
	handler    MessageHandler
	deviceSeen DeviceSeenFunc
	log        *log.Logger

	// Loop context only.
	Info       protocol.ClientInfo
	psave      bool
	registered bool

	out       chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(conn net.Conn, connType string, l *loop.Loop, reg *Registry,
	pinfoMsg []byte, handler MessageHandler, deviceSeen DeviceSeenFunc, logger *log.Logger) *Session {

	s := &Session{
		ID:         uuid.New().String(),
		conn:       conn,
		addr:       conn.RemoteAddr().String(),
		connType:   connType,
		loop:       l,
		registry:   reg,
		pinfoMsg:   pinfoMsg,
		handler:    handler,
		deviceSeen: deviceSeen,
		log:        logger.With("client", conn.RemoteAddr().String()),
		out:        make(chan []byte, sendQueueLen),
		closed:     make(chan struct{}),
	}

	s.log.Debug("sending handshake")
	s.out <- protocol.HandshakeToken

	go s.writeLoop()
	go s.readLoop()

	return s
}

func (s *Session) String() string { return s.addr }

// Registered reports whether the session completed its client info exchange.
// Loop context only.
func (s *Session) Registered() bool { return s.registered }

// readLoop accumulates one header, validates the declared length, accumulates
// the body and posts the complete message to the coordinator. Any read error,
// peer close or oversized declaration terminates the session.
func (s *Session) readLoop() {
	header := make([]byte, protocol.HeaderLen)
	for {
		if _, err := io.ReadFull(s.conn, header); err != nil {
			s.readFailed(err)
			return
		}

		id, size, err := protocol.DecodeHeader(header)
		if err != nil {
			s.log.Warn("bad header", "err", err)
			s.Disconnect(true, false)
			return
		}

		if size > protocol.MaxPayload {
			// DOS protection: the declared length alone is the violation,
			// the body is never read.
			s.log.Warn("message too big, disconnecting", "bytes", size)
			s.Disconnect(true, false)
			return
		}

		var payload []byte
		if size > 0 {
			payload = make([]byte, size)
			if _, err := io.ReadFull(s.conn, payload); err != nil {
				s.readFailed(err)
				return
			}
		}

		s.loop.Post(func() { s.handleMessage(id, payload) })
	}
}

func (s *Session) readFailed(err error) {
	select {
	case <-s.closed:
		// Already disconnecting, the read just got interrupted.
		s.log.Debug("read loop finished")
	default:
		if err == io.EOF {
			s.log.Info("client disconnected")
		} else {
			s.log.Warn("connection broken", "err", err)
		}
	}
	s.Disconnect(true, false)
}

// handleMessage runs in loop context. Connection management ids are consumed
// here, everything else goes to the dispatcher.
func (s *Session) handleMessage(id int16, payload []byte) {
	select {
	case <-s.closed:
		// Disconnect may have raced the reader goroutine and already run its
		// registry cleanup. Acting on the message now could re-register a
		// dead session, so the late message is dropped.
		s.log.Debug("message after disconnect dropped", "id", id)
		return
	default:
	}

	switch id {
	case protocol.MsgIgnore:
		s.log.Debug("ignore message (probably a ping)")

	case protocol.MsgConnSleep:
		s.log.Debug("client going to sleep")
		s.psave = true

	case protocol.MsgConnWakeup:
		s.log.Debug("client woke up")
		s.psave = false
		s.handler(s, protocol.MsgPrivInitialSync, nil)

	case protocol.MsgConnClientInfo:
		var info protocol.ClientInfo
		if err := protocol.Unpack(&info, payload); err != nil {
			s.log.Warn("bad client info", "err", err)
			return
		}
		s.Info = info

		if !s.registered {
			s.registered = true
			s.registry.Add(s)

			if s.deviceSeen != nil {
				device := make(map[string]string, len(info.Device)+1)
				for k, v := range info.Device {
					device[k] = v
				}
				device["conn"] = s.connType
				s.deviceSeen(device)
			}

			s.log.Debug("sending player info")
			s.Send(s.pinfoMsg)
			s.handler(s, protocol.MsgPrivInitialSync, nil)
		}

	default:
		s.handler(s, id, payload)
	}
}

// Send queues a complete framed message for this session. Loop context only.
// While the client sleeps, messages are discarded entirely; the wakeup resync
// is the catch-up mechanism. A full queue also discards the message so a
// stalled client cannot block the coordinator.
func (s *Session) Send(msg []byte) {
	if msg == nil {
		s.log.Error("dropping nil message")
		return
	}
	if s.psave {
		s.log.Debug("client sleeps, dropping message")
		return
	}
	select {
	case <-s.closed:
		s.log.Debug("cannot send, already disconnected")
	default:
		select {
		case s.out <- msg:
		default:
			s.log.Warn("send queue full, dropping message")
		}
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case msg := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := s.conn.Write(msg); err != nil {
				select {
				case <-s.closed:
				default:
					s.log.Warn("failed to send data", "err", err)
				}
				s.Disconnect(true, false)
				return
			}
		case <-s.closed:
			return
		}
	}
}

// Disconnect tears the session down. Idempotent and safe from any goroutine;
// only the first call wins, no matter whether it came from a read error, a
// write error, a protocol violation or an explicit stop. Sending the goodbye
// message blocks for a short bounded time and is only used during adapter
// shutdown.
func (s *Session) Disconnect(removeFromRegistry, sendBye bool) {
	s.closeOnce.Do(func() {
		if sendBye {
			s.sendBye()
		}

		close(s.closed)
		s.conn.Close()

		s.loop.Post(func() {
			s.registered = false
			if removeFromRegistry {
				s.registry.Remove(s)
			}
		})
	})
}

// sendBye writes the goodbye message directly, bypassing the writer
// goroutine: up to byeRetries short attempts, then a grace delay so the
// client can close first.
func (s *Session) sendBye() {
	s.log.Info("sending bye")
	msg := protocol.BuildMessage(protocol.MsgConnBye, nil)

	sent := 0
	for retry := 0; sent < len(msg) && retry < byeRetries; retry++ {
		s.conn.SetWriteDeadline(time.Now().Add(byeRetryDelay))
		n, err := s.conn.Write(msg[sent:])
		sent += n
		if err != nil && !isTimeout(err) {
			s.log.Warn("failed to send bye", "err", err)
			return
		}
		time.Sleep(byeRetryDelay)
	}

	if sent < len(msg) {
		s.log.Warn("failed to send bye")
		return
	}
	time.Sleep(byeGraceDelay)
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
