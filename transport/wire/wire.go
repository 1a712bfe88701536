// Package wire implements the length-prefixed packet framing used on
// both firewall endpoints: a 4-byte length in the host's native byte
// order followed by that many bytes of raw IP packet.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// PrefixLen is the size of the length prefix in bytes.
	PrefixLen = 4
	// MaxPacketLen is the largest payload length accepted on the wire,
	// the maximum size of an IP packet. A frame declaring more than this
	// fails the read instead of overrunning the receive buffer.
	MaxPacketLen = 65535
)

var ErrOversize = errors.New("declared packet length exceeds maximum")

// ReadFrame reads one length-prefixed packet from r into buf and returns
// the payload length. A short read of either the prefix or the payload
// means the producer closed its end and is reported as io.EOF.
func ReadFrame(r io.Reader, buf []byte) (int, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, err
	}

	length := binary.NativeEndian.Uint32(prefix[:])
	if length > MaxPacketLen || length > uint32(len(buf)) {
		return 0, fmt.Errorf("%w: %d bytes", ErrOversize, length)
	}

	if _, err := io.ReadFull(r, buf[:length]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, err
	}

	return int(length), nil
}

// WriteFrame writes the length prefix followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [PrefixLen]byte
	binary.NativeEndian.PutUint32(prefix[:], uint32(len(payload)))

	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}
