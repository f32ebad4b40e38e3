package ipv4

import (
	"encoding/binary"

	netstack "github.com/ubuntu-dev/Minimal-IP"
)

// NewFrame returns a Frame over buf. An error is returned if buf is shorter
// than the 20-byte header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a view over one IPv4 packet, fixed at a 20-byte header (IHL must
// be 5; options are unsupported). See RFC 791 §3.1.
type Frame struct {
	buf []byte
}

// RawData returns the slice the Frame was constructed with.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

// SetVersionIHL writes the version/IHL byte. This stack only ever builds
// version 4, IHL 5 (no options) headers.
func (ifrm Frame) SetVersionIHL() { ifrm.buf[0] = 0x45 }

func (ifrm Frame) version() uint8 { return ifrm.buf[0] >> 4 }
func (ifrm Frame) ihl() uint8     { return ifrm.buf[0] & 0xf }

// ToS returns the combined DSCP/ECN byte.
func (ifrm Frame) ToS() uint8 { return ifrm.buf[1] }

// SetToS sets the combined DSCP/ECN byte.
func (ifrm Frame) SetToS(tos uint8) { ifrm.buf[1] = tos }

// TotalLength returns the entire packet size in bytes, header included.
func (ifrm Frame) TotalLength() uint16 { return binary.BigEndian.Uint16(ifrm.buf[2:4]) }

// SetTotalLength sets the total-length field.
func (ifrm Frame) SetTotalLength(tl uint16) { binary.BigEndian.PutUint16(ifrm.buf[2:4], tl) }

// ID returns the fragment-group identification field.
func (ifrm Frame) ID() uint16 { return binary.BigEndian.Uint16(ifrm.buf[4:6]) }

// SetID sets the identification field.
func (ifrm Frame) SetID(id uint16) { binary.BigEndian.PutUint16(ifrm.buf[4:6], id) }

// FlagsAndFragmentOffset returns the raw 16-bit flags+fragment-offset field.
func (ifrm Frame) FlagsAndFragmentOffset() uint16 { return binary.BigEndian.Uint16(ifrm.buf[6:8]) }

// SetFlagsAndFragmentOffset sets the raw flags+fragment-offset field. This
// stack never fragments, so callers always pass 0.
func (ifrm Frame) SetFlagsAndFragmentOffset(v uint16) {
	binary.BigEndian.PutUint16(ifrm.buf[6:8], v)
}

// TTL returns the time-to-live field.
func (ifrm Frame) TTL() uint8 { return ifrm.buf[8] }

// SetTTL sets the time-to-live field.
func (ifrm Frame) SetTTL(ttl uint8) { ifrm.buf[8] = ttl }

// Protocol returns the upper-layer protocol field.
func (ifrm Frame) Protocol() netstack.IPProto { return netstack.IPProto(ifrm.buf[9]) }

// SetProtocol sets the upper-layer protocol field.
func (ifrm Frame) SetProtocol(p netstack.IPProto) { ifrm.buf[9] = uint8(p) }

// Checksum returns the header checksum field.
func (ifrm Frame) Checksum() uint16 { return binary.BigEndian.Uint16(ifrm.buf[10:12]) }

// SetChecksum sets the header checksum field.
func (ifrm Frame) SetChecksum(cs uint16) { binary.BigEndian.PutUint16(ifrm.buf[10:12], cs) }

// SourceAddr returns a pointer to the 4-byte source address field.
func (ifrm Frame) SourceAddr() *[4]byte { return (*[4]byte)(ifrm.buf[12:16]) }

// DestinationAddr returns a pointer to the 4-byte destination address field.
func (ifrm Frame) DestinationAddr() *[4]byte { return (*[4]byte)(ifrm.buf[16:20]) }

// Payload returns the bytes following the 20-byte header, up to
// TotalLength. Call ValidateSize first to avoid a panic on a short buffer.
func (ifrm Frame) Payload() []byte { return ifrm.buf[HeaderSize:ifrm.TotalLength()] }

// ClearHeader zeros the 20-byte header.
func (ifrm Frame) ClearHeader() {
	for i := range ifrm.buf[:HeaderSize] {
		ifrm.buf[i] = 0
	}
}

// ComputeChecksum returns the Internet checksum of the 20-byte header as it
// currently stands. To fill in an outgoing header, zero the checksum field
// first (ClearHeader does this), compute, then SetChecksum the result; over a
// received header with its checksum field in place, a valid header yields 0.
func (ifrm Frame) ComputeChecksum() uint16 {
	var c netstack.Checksum
	c.Write(ifrm.buf[:HeaderSize])
	return c.Sum()
}

// WritePseudoHeader folds the UDP/TCP pseudo-header (source address,
// destination address, zero byte, protocol byte, and upper-layer length)
// into c, ready for the caller to continue folding in the upper-layer header
// and payload. length is the upper-layer segment length (header+payload),
// not the IPv4 total length.
func (ifrm Frame) WritePseudoHeader(c *netstack.Checksum, protocol netstack.IPProto, length uint16) {
	c.Write(ifrm.buf[12:16])
	c.Write(ifrm.buf[16:20])
	c.AddUint16(uint16(protocol))
	c.AddUint16(length)
}

// ValidateSize checks that buf is at least as long as TotalLength claims,
// and that TotalLength itself is at least HeaderSize.
func (ifrm Frame) ValidateSize(v *netstack.Validator) {
	tl := ifrm.TotalLength()
	if tl < HeaderSize {
		v.AddError(errBadTotalLen)
	}
	if int(tl) > len(ifrm.buf) {
		v.AddError(errShort)
	}
}

// ValidateIncoming runs the checks required of an inbound datagram before
// its protocol byte is dispatched: version 4 with no options, not a fragment
// (and not the first fragment of one, which a naive offset-only check would
// wrongly accept, since the more-fragments flag can be set with a zero
// offset), and addressed to ourIP. It does not check the header checksum;
// callers check that separately since a checksum mismatch and a malformed
// header are reported identically (silent drop) but are worth distinguishing
// in tests.
func (ifrm Frame) ValidateIncoming(v *netstack.Validator, ourIP [4]byte) {
	ifrm.ValidateSize(v)
	if ifrm.version() != 4 {
		v.AddError(errBadVersion)
	} else if ifrm.ihl() != 5 {
		v.AddError(errBadIHL)
	}
	if ifrm.FlagsAndFragmentOffset()&fragmentMask != 0 {
		v.AddError(errFragment)
	}
	if *ifrm.DestinationAddr() != ourIP {
		v.AddError(errNotForUs)
	}
}
