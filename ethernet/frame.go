package ethernet

import (
	"encoding/binary"

	netstack "github.com/ubuntu-dev/Minimal-IP"
)

// NewFrame returns a Frame over buf. An error is returned if buf is shorter
// than the 14-byte Ethernet II header. The payload length is not checked
// here or by ValidateSize; the upper-layer frame types check their own.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < HeaderLength {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a view over a byte slice holding one complete Ethernet II frame
// (destination through payload), without a trailing CRC: the MAC hardware is
// assumed to have already stripped it on receive and to append it on send.
type Frame struct {
	buf []byte
}

// RawData returns the slice the Frame was constructed with.
func (efrm Frame) RawData() []byte { return efrm.buf }

// DestinationHardwareAddr returns the frame's destination MAC address.
func (efrm Frame) DestinationHardwareAddr() *[6]byte { return (*[6]byte)(efrm.buf[0:6]) }

// SourceHardwareAddr returns the frame's source MAC address.
func (efrm Frame) SourceHardwareAddr() *[6]byte { return (*[6]byte)(efrm.buf[6:12]) }

// IsBroadcast reports whether the destination address is the all-ones
// broadcast address.
func (efrm Frame) IsBroadcast() bool {
	d := efrm.buf[0:6]
	for _, b := range d {
		if b != 0xff {
			return false
		}
	}
	return true
}

// EtherType returns the EtherType field.
func (efrm Frame) EtherType() Type { return Type(binary.BigEndian.Uint16(efrm.buf[12:14])) }

// SetEtherType sets the EtherType field.
func (efrm Frame) SetEtherType(t Type) { binary.BigEndian.PutUint16(efrm.buf[12:14], uint16(t)) }

// Payload returns the bytes following the 14-byte header.
func (efrm Frame) Payload() []byte { return efrm.buf[HeaderLength:] }

// ClearHeader zeros the 14-byte header.
func (efrm Frame) ClearHeader() {
	for i := range efrm.buf[:HeaderLength] {
		efrm.buf[i] = 0
	}
}

// Accept reports whether a frame whose destination is dst should be consumed
// by a host whose own hardware address is ourMAC: either the frame is
// addressed to us directly, or it is broadcast. Any other destination is
// meant for a different host on the segment and should be dropped without
// further processing.
func Accept(dst *[6]byte, ourMAC [6]byte) bool {
	if *dst == ourMAC {
		return true
	}
	for _, b := range dst {
		if b != 0xff {
			return false
		}
	}
	return true
}

// ValidateSize checks that buf is at least HeaderLength bytes long; it does
// not check the payload. EtherType/size disambiguation and VLAN tags are
// unsupported.
func (efrm Frame) ValidateSize(v *netstack.Validator) {
	if len(efrm.buf) < HeaderLength {
		v.AddError(errShort)
	}
}
