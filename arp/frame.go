package arp

import (
	"encoding/binary"

	netstack "github.com/ubuntu-dev/Minimal-IP"
	"github.com/ubuntu-dev/Minimal-IP/ethernet"
)

// NewFrame returns a Frame over buf, which must be at least FrameSize (28)
// bytes: the canonical ARP-for-IPv4-over-Ethernet layout this stack speaks.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < FrameSize {
		return Frame{}, errShort
	}
	return Frame{buf: buf[:FrameSize]}, nil
}

// Frame is a view over one ARP-for-IPv4 packet:
//
//	0:2   hardware type
//	2:4   protocol type
//	4     hardware address length
//	5     protocol address length
//	6:8   operation
//	8:14  sender hardware address
//	14:18 sender protocol address
//	18:24 target hardware address
//	24:28 target protocol address
type Frame struct {
	buf []byte
}

// RawData returns the slice the Frame was constructed with.
func (afrm Frame) RawData() []byte { return afrm.buf }

// SetCanonicalHeader writes the fixed header for ARP-over-Ethernet-over-IPv4:
// hardware type Ethernet, protocol type IPv4, hardware length 6, protocol
// length 4.
func (afrm Frame) SetCanonicalHeader() {
	binary.BigEndian.PutUint16(afrm.buf[0:2], HardwareEthernet)
	binary.BigEndian.PutUint16(afrm.buf[2:4], uint16(ethernet.TypeIPv4))
	afrm.buf[4] = 6
	afrm.buf[5] = 4
}

// HasCanonicalHeader reports whether the fixed header matches Ethernet/IPv4
// with 6-byte hardware and 4-byte protocol addresses, the only combination
// this stack understands.
func (afrm Frame) HasCanonicalHeader() bool {
	return binary.BigEndian.Uint16(afrm.buf[0:2]) == HardwareEthernet &&
		binary.BigEndian.Uint16(afrm.buf[2:4]) == uint16(ethernet.TypeIPv4) &&
		afrm.buf[4] == 6 && afrm.buf[5] == 4
}

// Operation returns the ARP operation field.
func (afrm Frame) Operation() Operation { return Operation(binary.BigEndian.Uint16(afrm.buf[6:8])) }

// SetOperation sets the ARP operation field.
func (afrm Frame) SetOperation(op Operation) { binary.BigEndian.PutUint16(afrm.buf[6:8], uint16(op)) }

// SenderHardwareAddr returns the sender hardware (MAC) address field.
func (afrm Frame) SenderHardwareAddr() *[6]byte { return (*[6]byte)(afrm.buf[8:14]) }

// SenderProtocolAddr returns the sender protocol (IPv4) address field.
func (afrm Frame) SenderProtocolAddr() *[4]byte { return (*[4]byte)(afrm.buf[14:18]) }

// TargetHardwareAddr returns the target hardware (MAC) address field.
func (afrm Frame) TargetHardwareAddr() *[6]byte { return (*[6]byte)(afrm.buf[18:24]) }

// TargetProtocolAddr returns the target protocol (IPv4) address field.
func (afrm Frame) TargetProtocolAddr() *[4]byte { return (*[4]byte)(afrm.buf[24:28]) }

// ClearHeader zeros the fixed, non-variable header bytes.
func (afrm Frame) ClearHeader() {
	for i := range afrm.buf[:HeaderSize] {
		afrm.buf[i] = 0
	}
}

// ValidateSize checks that the buffer backing the Frame is at least
// FrameSize bytes long. NewFrame already enforces this; ValidateSize exists
// so callers that received buf from elsewhere (e.g. a raw Ethernet payload
// slice) can run the same check uniformly with the other frame types.
func (afrm Frame) ValidateSize(v *netstack.Validator) {
	if len(afrm.buf) < FrameSize {
		v.AddError(errShort)
	}
}
