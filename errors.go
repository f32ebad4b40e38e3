package netstack

import "errors"

// Errors common to the frame parsers in ethernet, arp, ipv4 and udp. Package
// specific malformations get their own error values in those packages; these
// are the outcomes shared across the stack.
var (
	// ErrPacketDrop is returned by a receive-path handler to signal that a
	// frame was silently discarded: malformed, of an unsupported kind, or not
	// meant for this host, matching the "drop, no diagnostic" behavior
	// required throughout the receive path.
	ErrPacketDrop = errors.New("netstack: packet dropped")
	// ErrBadChecksum indicates a frame's checksum did not match its content.
	ErrBadChecksum = errors.New("netstack: bad checksum")
	// ErrARPTimeout indicates address resolution did not complete within the
	// bounded retry window.
	ErrARPTimeout = errors.New("netstack: ARP resolution timed out")
)

// IPProto identifies the protocol carried by an IPv4 payload.
type IPProto uint8

// Protocol numbers used by this stack. Only UDP is implemented end to end;
// the others are recognized so ip_check/demux can report what it saw.
const (
	IPProtoICMP IPProto = 1
	IPProtoTCP  IPProto = 6
	IPProtoUDP  IPProto = 17
)

func (p IPProto) String() string {
	switch p {
	case IPProtoICMP:
		return "ICMP"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	default:
		return "unknown"
	}
}
