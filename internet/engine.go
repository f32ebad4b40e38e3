// Package internet wires the ethernet, arp, ipv4 and udp frame layers into
// the two-task engine described by the stack: a receive task that owns the
// ingress buffer and classifies/dispatches each frame to completion before
// fetching the next, and a send path invoked by application goroutines
// through SendUDP, which resolves its next hop via ARP (retrying with a
// bounded backoff) before handing the finished frame to the MAC driver.
package internet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	pkgerrors "github.com/pkg/errors"

	netstack "github.com/ubuntu-dev/Minimal-IP"
	"github.com/ubuntu-dev/Minimal-IP/arp"
	"github.com/ubuntu-dev/Minimal-IP/ethernet"
	"github.com/ubuntu-dev/Minimal-IP/ipv4"
	"github.com/ubuntu-dev/Minimal-IP/udp"
)

// ErrPayloadTooLarge is returned by SendUDP when the payload would not fit
// the 1518-byte transmit buffer alongside the Ethernet, IPv4 and UDP
// headers.
var ErrPayloadTooLarge = errors.New("internet: UDP payload too large for transmit buffer")

const maxFrame = 1518

// arpRetryAttempts is the number of ARP lookups ResolveHardwareAddr performs
// before giving up: a lookup, a request plus 500ms wait, a second lookup, a
// request plus 1500ms wait, then giving up without a third lookup or
// request.
const arpRetryAttempts = 2

// Engine is a host's entire protocol stack: host configuration, the ARP
// cache and its mutex, the three fixed 1518-byte frame buffers, and the
// external collaborators (MAC driver, clock, scheduler) the protocol
// machinery is built against.
//
// in_frame is owned exclusively by the goroutine running Run. udp_frame is
// owned by whichever call to SendUDP is currently in flight; sendMu
// serializes concurrent callers so only one of them uses it at a time.
// arp_frame and the ARP cache are guarded by mu, held for the duration of
// inbound ARP handling and briefly around each cache lookup in
// ResolveHardwareAddr, but never across a sleep.
type Engine struct {
	Config

	driver MACDriver
	clock  Clock
	sched  Scheduler
	log    *slog.Logger

	// OnUDPReceive is called with the payload of every UDP datagram whose
	// destination port matches UDPSrcPort. It must not retain the slice
	// past the call, since it aliases in_frame.
	OnUDPReceive func(payload []byte)

	arp *arp.Handler
	mu  sync.Mutex

	sendMu sync.Mutex

	inFrame  [maxFrame]byte
	udpFrame [maxFrame]byte
	arpFrame [maxFrame]byte

	capture func(direction byte, frame []byte)
}

// NewEngine returns an Engine ready to run once Run is called. cfg's
// addresses are captured immediately; later mutation of cfg has no effect.
func NewEngine(cfg Config, driver MACDriver, clock Clock, sched Scheduler, log *slog.Logger) *Engine {
	e := &Engine{
		Config: cfg,
		driver: driver,
		clock:  clock,
		sched:  sched,
		log:    log,
	}
	e.arp = arp.NewHandler(cfg.HostMAC, cfg.HostIP)
	return e
}

// Run is the receive task: it zeroes the ARP cache, then loops forever
// reading one frame at a time from the MAC driver and dispatching it to
// completion before fetching the next. It returns when the driver reports an
// error, or when ctx is found canceled; ctx is checked before each frame is
// fetched, so a Run blocked inside GetFrame returns only after that call
// ends.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	e.arp.Cache.Init(e.clock.Ticks())
	e.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := e.driver.GetFrame(e.inFrame[:])
		if err != nil {
			return pkgerrors.Wrap(err, "internet: receive task")
		}
		e.trace('<', e.inFrame[:n])
		if err := e.dispatch(e.inFrame[:n]); err != nil && !errors.Is(err, netstack.ErrPacketDrop) {
			e.logError("receive: dispatch", err)
		}
	}
}

// dispatch implements eth_check followed by the EtherType switch of §4.8: a
// frame not addressed to us is dropped before EtherType is even inspected.
func (e *Engine) dispatch(frame []byte) error {
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		return err
	}
	if !ethernet.Accept(efrm.DestinationHardwareAddr(), e.HostMAC) {
		return netstack.ErrPacketDrop
	}
	switch efrm.EtherType() {
	case ethernet.TypeARP:
		e.mu.Lock()
		err = e.handleARP(efrm.Payload())
		e.mu.Unlock()
		return err
	case ethernet.TypeIPv4:
		return e.handleIP(efrm.Payload())
	default:
		return netstack.ErrPacketDrop
	}
}

// handleARP implements arp_in. Caller must hold mu.
func (e *Engine) handleARP(payload []byte) error {
	afrm, err := arp.NewFrame(payload)
	if err != nil {
		return err
	}
	outcome, request := e.arp.HandleInbound(afrm, e.clock.Ticks(), e.log)
	if outcome != arp.MustReply {
		return netstack.ErrPacketDrop
	}
	n, err := e.arp.BuildReply(e.arpFrame[:], request)
	if err != nil {
		return err
	}
	return e.pushRaw(e.arpFrame[:n])
}

// handleIP implements ip_in: ip_check followed by a protocol dispatch that,
// for this stack, only ever finds UDP.
func (e *Engine) handleIP(payload []byte) error {
	ifrm, err := ipv4.NewFrame(payload)
	if err != nil {
		return err
	}
	var v netstack.Validator
	ifrm.ValidateIncoming(&v, e.HostIP)
	if v.HasError() {
		v.ResetErr()
		return netstack.ErrPacketDrop
	}
	if ifrm.ComputeChecksum() != 0 {
		return netstack.ErrBadChecksum
	}
	if ifrm.Protocol() != netstack.IPProtoUDP {
		return netstack.ErrPacketDrop // Unknown/unsupported protocol.
	}
	return e.udpIn(ifrm)
}

// udpIn implements udp_in: checksum verification (pseudo-header plus the
// as-received header and payload) followed by the destination-port filter.
func (e *Engine) udpIn(ifrm ipv4.Frame) error {
	ufrm, err := udp.NewFrame(ifrm.Payload())
	if err != nil {
		return err
	}
	var v netstack.Validator
	ufrm.ValidateSize(&v)
	if v.HasError() {
		return netstack.ErrPacketDrop
	}
	if ufrm.ComputeChecksumIPv4(ifrm) != 0 {
		return netstack.ErrBadChecksum
	}
	if ufrm.DestinationPort() != e.UDPSrcPort {
		return netstack.ErrPacketDrop
	}
	if e.OnUDPReceive != nil {
		e.OnUDPReceive(ufrm.Payload())
	}
	return nil
}

// SendUDP implements udp_send: it composes a UDP/IPv4/Ethernet frame
// addressed to the configured UDPDestIP/UDPDstPort carrying payload, and
// hands it off once its next hop's hardware address is resolved. Concurrent
// calls are serialized by sendMu: each call, including any ARP wait, finishes
// with udp_frame before the next one starts.
func (e *Engine) SendUDP(payload []byte) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	const headroom = ethernet.HeaderLength + ipv4.HeaderSize + udp.HeaderSize
	if len(payload) > len(e.udpFrame)-headroom {
		return ErrPayloadTooLarge
	}

	ipBuf := e.udpFrame[ethernet.HeaderLength:]
	ifrm, _ := ipv4.NewFrame(ipBuf)
	udpBuf := ipBuf[ipv4.HeaderSize:]
	ufrm, _ := udp.NewFrame(udpBuf)

	// The pseudo-header checksum needs the IP addresses in place before the
	// UDP checksum is folded, so they're written here rather than in
	// dispatchUDP, which only fills in the remaining IP header fields and
	// must not clear what's already there.
	ifrm.ClearHeader()
	*ifrm.SourceAddr() = e.HostIP
	*ifrm.DestinationAddr() = e.UDPDestIP

	ufrm.ClearHeader()
	ufrm.SetSourcePort(e.UDPSrcPort)
	ufrm.SetDestinationPort(e.UDPDstPort)
	udpLen := uint16(udp.HeaderSize + len(payload))
	ufrm.SetLength(udpLen)
	ufrm.SetChecksum(0)

	var c netstack.Checksum
	ifrm.WritePseudoHeader(&c, netstack.IPProtoUDP, udpLen)
	c.Write(udpBuf[:udp.HeaderSize])
	c.WriteCopy(udpBuf[udp.HeaderSize:udpLen], payload)
	ufrm.SetChecksum(c.Sum())

	return e.dispatchUDP(udpBuf[:udpLen])
}

// dispatchUDP implements ip_dispatch_udp: it fills in the IPv4 header fields
// around the already-built UDP segment (the source/destination addresses
// were already written by SendUDP, ahead of the UDP checksum) and forwards
// the result.
func (e *Engine) dispatchUDP(udpSegment []byte) error {
	ipBuf := e.udpFrame[ethernet.HeaderLength:]
	ifrm, _ := ipv4.NewFrame(ipBuf)
	ifrm.SetVersionIHL()
	ifrm.SetTotalLength(uint16(ipv4.HeaderSize + len(udpSegment)))
	ifrm.SetID(uint16(e.clock.Ticks()))
	ifrm.SetFlagsAndFragmentOffset(0)
	ifrm.SetTTL(64)
	ifrm.SetProtocol(netstack.IPProtoUDP)
	ifrm.SetChecksum(0)
	ifrm.SetChecksum(ifrm.ComputeChecksum())

	return e.forward(ifrm)
}

// forward implements ip_forward: direct delivery if the destination shares
// our subnet, indirect via the default router otherwise, resolving the
// chosen next hop's hardware address before handing the frame to
// eth_dispatch_ip. A resolution failure drops the datagram silently, as the
// spec requires, but the error is still returned so Go callers can log it.
func (e *Engine) forward(ifrm ipv4.Frame) error {
	dest := *ifrm.DestinationAddr()
	nextHop := e.RouterIP
	if e.sameSubnet(dest) {
		nextHop = dest
	}
	mac, ok := e.ResolveHardwareAddr(nextHop)
	if !ok {
		netstack.LogAttrs(e.log, slog.LevelWarn, "arp: resolution timed out", netstack.SlogAddr4("next_hop", nextHop))
		return netstack.ErrARPTimeout
	}
	return e.pushIP(ifrm, mac)
}

// pushIP implements eth_dispatch_ip: it fills the Ethernet header around the
// already-built IPv4 datagram and hands exactly TotalLength+14 bytes to the
// MAC driver.
func (e *Engine) pushIP(ifrm ipv4.Frame, dstMAC [6]byte) error {
	efrm, err := ethernet.NewFrame(e.udpFrame[:])
	if err != nil {
		return err
	}
	*efrm.DestinationHardwareAddr() = dstMAC
	*efrm.SourceHardwareAddr() = e.HostMAC
	efrm.SetEtherType(ethernet.TypeIPv4)
	total := ethernet.HeaderLength + int(ifrm.TotalLength())
	return e.pushRaw(e.udpFrame[:total])
}

// ResolveHardwareAddr implements ip_enquire_arp: exactly two rounds of
// "lookup under lock, release, sleep" with a 500ms/1500ms backoff, giving
// the receive task a chance to ingest an ARP reply between rounds. No third
// lookup or request follows the final sleep; the caller must give up. The
// mutex is always released before sleeping.
func (e *Engine) ResolveHardwareAddr(ip [4]byte) (mac [6]byte, ok bool) {
	bo := &backoff.Backoff{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond, Factor: 3}
	for attempt := 0; attempt < arpRetryAttempts; attempt++ {
		e.mu.Lock()
		mac, ok = e.getHardwareAddrLocked(ip)
		e.mu.Unlock()
		if ok {
			return mac, true
		}
		e.sched.Sleep(bo.Duration())
	}
	return mac, false
}

// getHardwareAddrLocked implements arp_get_mac. Caller must hold mu.
func (e *Engine) getHardwareAddrLocked(ip [4]byte) (mac [6]byte, ok bool) {
	now := e.clock.Ticks()
	if mac, ok := e.arp.Cache.HardwareAddr(ip, now); ok {
		return mac, true
	}
	n, err := e.arp.BuildRequest(e.arpFrame[:], ip)
	if err != nil {
		e.logError("arp: build request", err)
		return mac, false
	}
	e.pushRaw(e.arpFrame[:n])
	return mac, false
}

// SendGratuitousARP implements arp_gratuitous: it announces the host's own
// address unsolicited, e.g. right after Run starts, to prime peers' caches.
func (e *Engine) SendGratuitousARP() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.arp.BuildGratuitous(e.arpFrame[:])
	if err != nil {
		return err
	}
	return e.pushRaw(e.arpFrame[:n])
}

func (e *Engine) pushRaw(frame []byte) error {
	e.trace('>', frame)
	if err := e.driver.PutFrame(frame); err != nil {
		return pkgerrors.Wrap(err, "internet: push frame")
	}
	return nil
}

func (e *Engine) logError(msg string, err error) {
	netstack.LogAttrs(e.log, slog.LevelError, msg, slog.String("err", err.Error()))
}

func (e *Engine) trace(direction byte, frame []byte) {
	if e.capture != nil {
		e.capture(direction, frame)
	}
	netstack.LogAttrs(e.log, netstack.LevelTrace, "frame", slog.String("dir", string(rune(direction))), slog.Int("len", len(frame)))
}
