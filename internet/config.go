package internet

// Config holds the process-wide host configuration: this host's own
// addresses and the default peer for outgoing UDP datagrams. It is meant to
// be written once during initialization and treated as read-only
// afterwards, matching §3's "Host configuration" data model.
type Config struct {
	HostMAC    [6]byte
	HostIP     [4]byte
	SubnetMask [4]byte
	RouterIP   [4]byte

	UDPSrcPort  uint16
	UDPDstPort  uint16
	UDPDestIP   [4]byte
}

// SetMAC sets the host's own hardware address from six bytes in natural
// order.
func (c *Config) SetMAC(b0, b1, b2, b3, b4, b5 byte) {
	c.HostMAC = [6]byte{b0, b1, b2, b3, b4, b5}
}

// SetIP sets the host's own protocol address from four bytes in natural
// order.
func (c *Config) SetIP(b0, b1, b2, b3 byte) {
	c.HostIP = [4]byte{b0, b1, b2, b3}
}

// SetSubnet sets the subnet mask used by ip_forward to decide direct versus
// indirect delivery.
func (c *Config) SetSubnet(b0, b1, b2, b3 byte) {
	c.SubnetMask = [4]byte{b0, b1, b2, b3}
}

// SetRouter sets the default router address used for indirect delivery.
func (c *Config) SetRouter(b0, b1, b2, b3 byte) {
	c.RouterIP = [4]byte{b0, b1, b2, b3}
}

// SetUDPDestIP sets the default destination address for outgoing UDP
// datagrams sent via udp_send.
func (c *Config) SetUDPDestIP(b0, b1, b2, b3 byte) {
	c.UDPDestIP = [4]byte{b0, b1, b2, b3}
}

// sameSubnet reports whether ip is on the same subnet as the host, computed
// as a byte-wise AND of both addresses with SubnetMask: a single 32-bit load
// would depend on host endianness to give the same answer, which is exactly
// the portability pitfall called out against ip_forward.
func (c *Config) sameSubnet(ip [4]byte) bool {
	for i := 0; i < 4; i++ {
		if ip[i]&c.SubnetMask[i] != c.HostIP[i]&c.SubnetMask[i] {
			return false
		}
	}
	return true
}
