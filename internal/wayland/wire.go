package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const headerSize = 8

// maxMessageSize is the largest message libwayland will put on the wire.
const maxMessageSize = 4096

var errShortArgs = errors.New("wayland: message arguments truncated")

// message is one decoded event or request.
type message struct {
	object uint32
	opcode uint16
	args   []byte
}

// request builds the argument block of an outgoing message. Arguments are
// host-endian 32-bit words; strings carry a length that includes the NUL
// terminator and are padded to a word boundary.
type request struct {
	object uint32
	opcode uint16
	args   []byte
}

func newRequest(object uint32, opcode uint16) *request {
	return &request{object: object, opcode: opcode}
}

func (r *request) uint(v uint32) *request {
	r.args = binary.NativeEndian.AppendUint32(r.args, v)
	return r
}

func (r *request) int(v int32) *request {
	return r.uint(uint32(v))
}

func (r *request) string(s string) *request {
	n := len(s) + 1
	r.uint(uint32(n))
	r.args = append(r.args, s...)
	r.args = append(r.args, 0)
	for pad := (4 - n%4) % 4; pad > 0; pad-- {
		r.args = append(r.args, 0)
	}
	return r
}

// bytes returns the framed message.
func (r *request) bytes() ([]byte, error) {
	size := headerSize + len(r.args)
	if size > maxMessageSize {
		return nil, fmt.Errorf("wayland: request %d on object %d is %d bytes", r.opcode, r.object, size)
	}
	out := make([]byte, 0, size)
	out = binary.NativeEndian.AppendUint32(out, r.object)
	out = binary.NativeEndian.AppendUint32(out, uint32(size)<<16|uint32(r.opcode))
	return append(out, r.args...), nil
}

func readMessage(r io.Reader) (message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return message{}, err
	}
	object := binary.NativeEndian.Uint32(hdr[0:4])
	word := binary.NativeEndian.Uint32(hdr[4:8])
	size := int(word >> 16)
	if size < headerSize || size > maxMessageSize {
		return message{}, fmt.Errorf("wayland: invalid message size %d", size)
	}
	args := make([]byte, size-headerSize)
	if _, err := io.ReadFull(r, args); err != nil {
		return message{}, err
	}
	return message{object: object, opcode: uint16(word & 0xffff), args: args}, nil
}

// argReader decodes message arguments in order. The first decoding error
// sticks; later reads return zero values.
type argReader struct {
	b   []byte
	err error
}

func (a *argReader) uint() uint32 {
	if a.err != nil {
		return 0
	}
	if len(a.b) < 4 {
		a.err = errShortArgs
		return 0
	}
	v := binary.NativeEndian.Uint32(a.b)
	a.b = a.b[4:]
	return v
}

func (a *argReader) int() int32 {
	return int32(a.uint())
}

func (a *argReader) string() string {
	n := int(a.uint())
	if a.err != nil || n == 0 {
		return ""
	}
	padded := (n + 3) &^ 3
	if len(a.b) < padded {
		a.err = errShortArgs
		return ""
	}
	s := string(a.b[:n-1])
	a.b = a.b[padded:]
	return s
}
