// ABOUTME: Typed tag-prefixed field serialization for protocol payloads
// ABOUTME: Every field is written as a one-byte type tag followed by its value
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire type tags. Each serialized field starts with one of these.
const (
	typeByte        byte = 1
	typeInt         byte = 2
	typeBool        byte = 3
	typeString      byte = 4
	typeByteArray   byte = 5
	typeIntArray    byte = 6
	typeStringArray byte = 7
	typeLong        byte = 8
	typeShort       byte = 9
	typeShortArray  byte = 10
	typeBoolArray   byte = 11
	typeLongArray   byte = 12
)

// Serializable is a payload that can be written to and read from the typed
// binary stream. Outgoing-only payloads still implement decode (and vice
// versa) so the same types serve tests and client emulation.
type Serializable interface {
	encode(w *writer)
	decode(r *reader)
}

// Pack serializes a payload into its typed binary form.
func Pack(s Serializable) ([]byte, error) {
	w := &writer{}
	s.encode(w)
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// Unpack deserializes a payload from its typed binary form. Trailing unused
// bytes are treated as malformed data.
func Unpack(s Serializable, data []byte) error {
	r := &reader{buf: data}
	s.decode(r)
	if r.err != nil {
		return r.err
	}
	if rest := len(r.buf) - r.off; rest > 0 {
		return fmt.Errorf("%d unused bytes after payload", rest)
	}
	return nil
}

// writer accumulates typed fields; the first failure sticks.
type writer struct {
	buf []byte
	err error
}

func (w *writer) writeBool(b bool) {
	v := byte(0)
	if b {
		v = 1
	}
	w.buf = append(w.buf, typeBool, v)
}

func (w *writer) writeByte(y byte) {
	w.buf = append(w.buf, typeByte, y)
}

func (w *writer) writeShort(n int16) {
	w.buf = append(w.buf, typeShort)
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(n))
}

func (w *writer) writeInt(i int32) {
	w.buf = append(w.buf, typeInt)
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(i))
}

func (w *writer) writeLong(l int64) {
	w.buf = append(w.buf, typeLong)
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(l))
}

func (w *writer) writeString(s string) {
	w.buf = append(w.buf, typeString)
	w.rawString(s)
}

// rawString writes a string without a type tag: 16-bit length plus UTF-8
// bytes.
func (w *writer) rawString(s string) {
	if len(s) > math.MaxInt16 {
		w.fail(fmt.Errorf("string too long (%d bytes)", len(s)))
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) writeByteArray(a []byte) {
	w.buf = append(w.buf, typeByteArray)
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(a)))
	w.buf = append(w.buf, a...)
}

func (w *writer) writeBoolArray(a []bool) {
	w.buf = append(w.buf, typeBoolArray)
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(a)))
	for _, b := range a {
		v := byte(0)
		if b {
			v = 1
		}
		w.buf = append(w.buf, v)
	}
}

func (w *writer) writeIntArray(a []int32) {
	w.buf = append(w.buf, typeIntArray)
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(a)))
	for _, i := range a {
		w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(i))
	}
}

func (w *writer) writeStringArray(a []string) {
	w.buf = append(w.buf, typeStringArray)
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(a)))
	for _, s := range a {
		w.rawString(s)
		if w.err != nil {
			return
		}
	}
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// reader consumes typed fields; the first failure sticks and subsequent reads
// return zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.fail(fmt.Errorf("payload truncated at offset %d (want %d bytes)", r.off, n))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) expect(tag byte) bool {
	b := r.take(1)
	if b == nil {
		return false
	}
	if b[0] != tag {
		r.fail(fmt.Errorf("malformed payload: expected type %d, have %d", tag, b[0]))
		return false
	}
	return true
}

func (r *reader) readBool() bool {
	if !r.expect(typeBool) {
		return false
	}
	b := r.take(1)
	return b != nil && b[0] != 0
}

func (r *reader) readByte() byte {
	if !r.expect(typeByte) {
		return 0
	}
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readShort() int16 {
	if !r.expect(typeShort) {
		return 0
	}
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int16(binary.BigEndian.Uint16(b))
}

func (r *reader) readInt() int32 {
	if !r.expect(typeInt) {
		return 0
	}
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *reader) readLong() int64 {
	if !r.expect(typeLong) {
		return 0
	}
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *reader) readString() string {
	if !r.expect(typeString) {
		return ""
	}
	return r.rawString()
}

func (r *reader) rawString() string {
	b := r.take(2)
	if b == nil {
		return ""
	}
	n := int(int16(binary.BigEndian.Uint16(b)))
	if n < 0 {
		r.fail(fmt.Errorf("negative string length %d", n))
		return ""
	}
	s := r.take(n)
	if s == nil {
		return ""
	}
	return string(s)
}

func (r *reader) arrayLen(tag byte) int {
	if !r.expect(tag) {
		return 0
	}
	b := r.take(4)
	if b == nil {
		return 0
	}
	n := int(int32(binary.BigEndian.Uint32(b)))
	if n < 0 || n > len(r.buf)-r.off {
		r.fail(fmt.Errorf("bad array length %d", n))
		return 0
	}
	return n
}

func (r *reader) readByteArray() []byte {
	n := r.arrayLen(typeByteArray)
	if r.err != nil || n == 0 {
		return nil
	}
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *reader) readBoolArray() []bool {
	n := r.arrayLen(typeBoolArray)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]bool, 0, n)
	for i := 0; i < n; i++ {
		b := r.take(1)
		if b == nil {
			return nil
		}
		out = append(out, b[0] != 0)
	}
	return out
}

func (r *reader) readIntArray() []int32 {
	n := r.arrayLen(typeIntArray)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		b := r.take(4)
		if b == nil {
			return nil
		}
		out = append(out, int32(binary.BigEndian.Uint32(b)))
	}
	return out
}

func (r *reader) readStringArray() []string {
	n := r.arrayLen(typeStringArray)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s := r.rawString()
		if r.err != nil {
			return nil
		}
		out = append(out, s)
	}
	return out
}
