package internet

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// String formats a Config's addresses for logging, e.g. in a startup banner.
func (c Config) String() string {
	return fmt.Sprintf("MAC=%s IP=%s MASK=%s ROUTER=%s",
		net.HardwareAddr(c.HostMAC[:]), netip.AddrFrom4(c.HostIP),
		netip.AddrFrom4(c.SubnetMask), netip.AddrFrom4(c.RouterIP))
}

// DumpARPCache renders the current ARP cache as one line per non-empty slot,
// in slot order, for the debug printers the stack leaves to the implementer. now is
// used to compute each entry's age; pass Clock.Ticks().
func (e *Engine) DumpARPCache(now uint32) string {
	e.mu.Lock()
	entries := e.arp.Cache.Entries()
	e.mu.Unlock()

	var b strings.Builder
	for i, ent := range entries {
		if ent.IP == [4]byte{} {
			continue
		}
		fmt.Fprintf(&b, "[%d] %s -> %s age=%dms\n",
			i, netip.AddrFrom4(ent.IP), net.HardwareAddr(ent.MAC[:]), now-ent.TS)
	}
	if b.Len() == 0 {
		return "(empty)\n"
	}
	return b.String()
}
