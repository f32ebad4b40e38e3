// Package udp implements the fixed 8-byte UDP header (RFC 768) and its
// IPv4 pseudo-header checksum.
package udp

import (
	"encoding/binary"
	"errors"

	netstack "github.com/ubuntu-dev/Minimal-IP"
	"github.com/ubuntu-dev/Minimal-IP/ipv4"
)

// HeaderSize is the size in bytes of a UDP header.
const HeaderSize = 8

var (
	errShort  = errors.New("udp: buffer shorter than header")
	errBadLen = errors.New("udp: length field inconsistent with buffer")
)

// NewFrame returns a Frame over buf. An error is returned if buf is shorter
// than the 8-byte header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a view over one UDP datagram.
type Frame struct {
	buf []byte
}

// RawData returns the slice the Frame was constructed with.
func (ufrm Frame) RawData() []byte { return ufrm.buf }

// SourcePort returns the source port field.
func (ufrm Frame) SourcePort() uint16 { return binary.BigEndian.Uint16(ufrm.buf[0:2]) }

// SetSourcePort sets the source port field.
func (ufrm Frame) SetSourcePort(p uint16) { binary.BigEndian.PutUint16(ufrm.buf[0:2], p) }

// DestinationPort returns the destination port field.
func (ufrm Frame) DestinationPort() uint16 { return binary.BigEndian.Uint16(ufrm.buf[2:4]) }

// SetDestinationPort sets the destination port field.
func (ufrm Frame) SetDestinationPort(p uint16) { binary.BigEndian.PutUint16(ufrm.buf[2:4], p) }

// Length returns the length field: header plus payload, minimum 8.
func (ufrm Frame) Length() uint16 { return binary.BigEndian.Uint16(ufrm.buf[4:6]) }

// SetLength sets the length field.
func (ufrm Frame) SetLength(l uint16) { binary.BigEndian.PutUint16(ufrm.buf[4:6], l) }

// Checksum returns the checksum field.
func (ufrm Frame) Checksum() uint16 { return binary.BigEndian.Uint16(ufrm.buf[6:8]) }

// SetChecksum sets the checksum field.
func (ufrm Frame) SetChecksum(cs uint16) { binary.BigEndian.PutUint16(ufrm.buf[6:8], cs) }

// Payload returns the bytes following the 8-byte header, up to Length. Call
// ValidateSize first to avoid a panic on a short buffer.
func (ufrm Frame) Payload() []byte { return ufrm.buf[HeaderSize:ufrm.Length()] }

// ClearHeader zeros the 8-byte header.
func (ufrm Frame) ClearHeader() {
	for i := range ufrm.buf[:HeaderSize] {
		ufrm.buf[i] = 0
	}
}

// ValidateSize checks that buf is at least as long as Length claims, and
// that Length itself is at least HeaderSize.
func (ufrm Frame) ValidateSize(v *netstack.Validator) {
	l := ufrm.Length()
	if l < HeaderSize {
		v.AddError(errBadLen)
	}
	if int(l) > len(ufrm.buf) {
		v.AddError(errShort)
	}
}

// ComputeChecksumIPv4 folds the IPv4 pseudo-header (via ip.WritePseudoHeader),
// the UDP header as it stands (checksum field included, whatever it is) and
// the UDP payload, and returns the resulting Internet checksum. Called both
// to compute the outgoing checksum (with the checksum field zeroed first)
// and to verify an incoming one (with the checksum field left as received):
// a datagram whose checksum is valid folds to zero either way, since the
// checksum field itself is part of the folded data in both cases once it
// holds the complementing value.
func (ufrm Frame) ComputeChecksumIPv4(ip ipv4.Frame) uint16 {
	var c netstack.Checksum
	ip.WritePseudoHeader(&c, netstack.IPProtoUDP, ufrm.Length())
	c.Write(ufrm.buf[:ufrm.Length()])
	return c.Sum()
}
