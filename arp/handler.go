package arp

import (
	"log/slog"

	netstack "github.com/ubuntu-dev/Minimal-IP"
	"github.com/ubuntu-dev/Minimal-IP/ethernet"
)

// Handler bundles a host's ARP identity (its own hardware/protocol address)
// with the Cache it maintains. It holds no lock of its own: the embedding
// stack (internet.Engine) serializes calls to Handler with the same mutex it
// uses to guard the shared transmit buffer, exactly as the receive task and
// send path must when they touch arp_cache or arp_frame concurrently.
type Handler struct {
	Cache   Cache
	HostMAC [6]byte
	HostIP  [4]byte
}

// NewHandler returns a Handler configured with the host's own addresses.
// Callers must still call Cache.Init before the cache's ages are meaningful.
func NewHandler(hostMAC [6]byte, hostIP [4]byte) *Handler {
	return &Handler{HostMAC: hostMAC, HostIP: hostIP}
}

// BuildRequest writes a complete "who-has targetIP" Ethernet+ARP broadcast
// frame into frame, which must be at least ethernet.HeaderLength+FrameSize
// (42) bytes, and returns the number of bytes to hand to the MAC driver.
func (h *Handler) BuildRequest(frame []byte, targetIP [4]byte) (int, error) {
	efrm, afrm, err := h.clearedFrame(frame)
	if err != nil {
		return 0, err
	}
	bcast := ethernet.BroadcastAddr()
	*efrm.DestinationHardwareAddr() = bcast
	*efrm.SourceHardwareAddr() = h.HostMAC
	efrm.SetEtherType(ethernet.TypeARP)

	afrm.SetCanonicalHeader()
	afrm.SetOperation(OpRequest)
	*afrm.SenderHardwareAddr() = h.HostMAC
	*afrm.SenderProtocolAddr() = h.HostIP
	*afrm.TargetHardwareAddr() = [6]byte{}
	*afrm.TargetProtocolAddr() = targetIP
	return ethernet.HeaderLength + FrameSize, nil
}

// BuildGratuitous writes a gratuitous ARP announcement: a "who-has" request
// for the host's own protocol address, used to prime peers' caches (and
// detect IP conflicts) without being asked.
func (h *Handler) BuildGratuitous(frame []byte) (int, error) {
	return h.BuildRequest(frame, h.HostIP)
}

// BuildReply writes a reply to the inbound request held in request
// (which must have HasCanonicalHeader()==true and Operation()==OpRequest)
// into frame, and returns the number of bytes to hand to the MAC driver.
// The target fields of the reply are copied verbatim from the request's
// sender fields, per RFC 826.
func (h *Handler) BuildReply(frame []byte, request Frame) (int, error) {
	efrm, afrm, err := h.clearedFrame(frame)
	if err != nil {
		return 0, err
	}
	requester := *request.SenderHardwareAddr()
	*efrm.DestinationHardwareAddr() = requester
	*efrm.SourceHardwareAddr() = h.HostMAC
	efrm.SetEtherType(ethernet.TypeARP)

	afrm.SetCanonicalHeader()
	afrm.SetOperation(OpReply)
	*afrm.SenderHardwareAddr() = h.HostMAC
	*afrm.SenderProtocolAddr() = h.HostIP
	*afrm.TargetHardwareAddr() = requester
	*afrm.TargetProtocolAddr() = *request.SenderProtocolAddr()
	return ethernet.HeaderLength + FrameSize, nil
}

func (h *Handler) clearedFrame(frame []byte) (ethernet.Frame, Frame, error) {
	if len(frame) < ethernet.HeaderLength+FrameSize {
		return ethernet.Frame{}, Frame{}, errShort
	}
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		return ethernet.Frame{}, Frame{}, err
	}
	afrm, err := NewFrame(frame[ethernet.HeaderLength:])
	if err != nil {
		return ethernet.Frame{}, Frame{}, err
	}
	efrm.ClearHeader()
	afrm.ClearHeader()
	return efrm, afrm, nil
}

// Outcome reports what HandleInbound decided to do with a received packet,
// so the caller (internet.Engine) knows whether it must reply.
type Outcome uint8

const (
	// Dropped means the packet was malformed, addressed to someone else, or
	// carried an unsupported operation, and requires no further action.
	Dropped Outcome = iota
	// CacheUpdated means a reply from another host updated the cache; no
	// reply needs to be sent. A request not addressed to us is Dropped and
	// leaves the cache untouched.
	CacheUpdated
	// MustReply means a "who-has" request for our own address was received
	// and the cache was updated; the caller must now call BuildReply with
	// the Frame returned alongside this Outcome and push the result.
	MustReply
	// IPConflict means a reply claiming our own protocol address as its
	// sender was received; the cache was not updated.
	IPConflict
)

// HandleInbound validates and dispatches one received ARP packet per RFC
// 826: a malformed canonical header or unrecognized operation is dropped; a
// request for our address updates the cache and asks the caller to reply; a
// reply updates the cache unless it claims our own address, which is
// reported as an IP conflict instead. On MustReply the returned Frame is
// received itself, ready to pass to BuildReply; for every other Outcome it
// is the zero Frame.
func (h *Handler) HandleInbound(received Frame, now uint32, log *slog.Logger) (Outcome, Frame) {
	if !received.HasCanonicalHeader() {
		return Dropped, Frame{}
	}
	switch received.Operation() {
	case OpRequest:
		if *received.TargetProtocolAddr() != h.HostIP {
			return Dropped, Frame{} // Not for us.
		}
		h.Cache.UpdateFromFrame(*received.SenderProtocolAddr(), *received.SenderHardwareAddr(), now)
		return MustReply, received
	case OpReply:
		if *received.SenderProtocolAddr() == h.HostIP {
			netstack.LogAttrs(log, slog.LevelWarn, "arp: IP conflict", netstack.SlogAddr6("peer_mac", *received.SenderHardwareAddr()))
			return IPConflict, Frame{}
		}
		h.Cache.UpdateFromFrame(*received.SenderProtocolAddr(), *received.SenderHardwareAddr(), now)
		return CacheUpdated, Frame{}
	default:
		return Dropped, Frame{}
	}
}
