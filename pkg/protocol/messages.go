// ABOUTME: Message IDs and binary framing for the remote control protocol
// ABOUTME: Defines the 6-byte header codec, handshake token and id classification
package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/charmbracelet/log"
)

const (
	// HeaderLen is the size of the fixed message header: a signed 16-bit
	// message id followed by a signed 32-bit payload length, big endian.
	HeaderLen = 6

	// MaxPayload is the maximum accepted payload length. A header declaring
	// more is a protocol violation and the connection gets dropped.
	MaxPayload = 10240

	// ProtoVersion is the protocol version byte inside the handshake token.
	ProtoVersion = 0x0a
)

// HandshakeToken is sent by the server right after accepting a connection,
// outside the framed stream, so clients can check protocol compatibility
// before parsing any messages.
var HandshakeToken = []byte{0xff, 0xff, 0xff, 0xff, ProtoVersion, 0xfe, 0xfe, 0xfe, 0xfe}

// Message ids. The numeric values are a client-visible contract; the ranges
// matter for classification (conn 1xx, sync 2xx, control 3xx-4xx, action 5xx,
// request 6xx).
const (
	MsgIgnore int16 = 0 // keepalive / ping

	MsgConnPlayerInfo int16 = 100
	MsgConnClientInfo int16 = 110
	MsgConnSleep      int16 = 120
	MsgConnWakeup     int16 = 130
	MsgConnBye        int16 = 140

	MsgSyncState    int16 = 200
	MsgSyncProgress int16 = 210
	MsgSyncItem     int16 = 220

	MsgCtrlPlayPause  int16 = 300
	MsgCtrlNext       int16 = 310
	MsgCtrlPrev       int16 = 320
	MsgCtrlSeek       int16 = 330
	MsgCtrlVolume     int16 = 340
	MsgCtrlRepeat     int16 = 350
	MsgCtrlShuffle    int16 = 360
	MsgCtrlRate       int16 = 370
	MsgCtrlTag        int16 = 380
	MsgCtrlNavigate   int16 = 390
	MsgCtrlFullscreen int16 = 400
	MsgCtrlShutdown   int16 = 410

	MsgActPlaylist int16 = 500
	MsgActQueue    int16 = 510
	MsgActMLib     int16 = 520
	MsgActFiles    int16 = 530
	MsgActSearch   int16 = 540

	MsgReqPlaylist int16 = 600
	MsgReqQueue    int16 = 610
	MsgReqMLib     int16 = 620
	MsgReqFiles    int16 = 630
	MsgReqSearch   int16 = 640

	// MsgPrivInitialSync never crosses the wire. It asks the dispatcher for
	// a full state/progress/item resync of a single session.
	MsgPrivInitialSync int16 = -1
)

// Navigation codes carried by a navigate control message.
const (
	NavigateUp = iota
	NavigateDown
	NavigateLeft
	NavigateRight
	NavigateSelect
	NavigateReturn
	NavigateTopMenu
)

// IsControl reports whether id is a player control message.
func IsControl(id int16) bool { return id >= 300 && id < 500 }

// IsAction reports whether id is an item/list action message.
func IsAction(id int16) bool { return id >= 500 && id < 600 }

// IsRequest reports whether id is a list request message.
func IsRequest(id int16) bool { return id >= 600 && id < 700 }

// EncodeHeader encodes a message header into a fresh 6-byte slice.
func EncodeHeader(id int16, length int32) []byte {
	b := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(b[0:2], uint16(id))
	binary.BigEndian.PutUint32(b[2:6], uint32(length))
	return b
}

// DecodeHeader decodes a 6-byte message header. The declared length is not
// validated here; callers enforce MaxPayload before reading any body bytes.
func DecodeHeader(b []byte) (id int16, length int32, err error) {
	if len(b) != HeaderLen {
		return 0, 0, fmt.Errorf("header must be %d bytes, have %d", HeaderLen, len(b))
	}
	id = int16(binary.BigEndian.Uint16(b[0:2]))
	length = int32(binary.BigEndian.Uint32(b[2:6]))
	return id, length, nil
}

// BuildMessage serializes a complete message (header plus payload) ready to
// send on a socket. Building once and sending the same bytes to many sessions
// keeps broadcasts cheap. A nil payload yields a zero-length body. Returns nil
// if serialization failed or the payload exceeds MaxPayload; callers must
// treat that as "message dropped", the connection survives. Receivers enforce
// the cap by disconnecting, so an oversized message must never leave here.
func BuildMessage(id int16, payload Serializable) []byte {
	var body []byte
	if payload != nil {
		var err error
		body, err = Pack(payload)
		if err != nil {
			log.Warn("failed to serialize message", "id", id, "err", err)
			return nil
		}
	}
	if len(body) > MaxPayload {
		log.Warn("message payload too big", "id", id, "bytes", len(body))
		return nil
	}
	msg := EncodeHeader(id, int32(len(body)))
	return append(msg, body...)
}
