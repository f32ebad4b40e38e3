//go:build linux

package internet

import (
	"net"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// RawSocket is a MACDriver backed by an AF_PACKET/SOCK_RAW socket bound to an
// existing Linux interface: it bridges this stack straight to a real NIC (or
// a tap device) without going through the kernel's own IP stack.
type RawSocket struct {
	fd    int
	index int
	name  string
}

// NewRawSocket opens a raw socket bound to the named interface. The calling
// process needs CAP_NET_RAW.
func NewRawSocket(ifaceName string) (*RawSocket, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "rawsocket: lookup interface %q", ifaceName)
	}
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "rawsocket: open AF_PACKET socket")
	}
	sa := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, pkgerrors.Wrapf(err, "rawsocket: bind to %q", ifaceName)
	}
	return &RawSocket{fd: fd, index: iface.Index, name: iface.Name}, nil
}

// GetFrame implements MACDriver by blocking on a read of the bound socket.
// The kernel already strips the Ethernet CRC before delivering the frame.
func (s *RawSocket) GetFrame(buf []byte) (int, error) {
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "rawsocket: read")
	}
	return n, nil
}

// PutFrame implements MACDriver by writing frame directly to the socket; the
// kernel appends the Ethernet CRC on the way out.
func (s *RawSocket) PutFrame(frame []byte) error {
	_, err := unix.Write(s.fd, frame)
	if err != nil {
		return pkgerrors.Wrap(err, "rawsocket: write")
	}
	return nil
}

// Close releases the underlying file descriptor.
func (s *RawSocket) Close() error {
	return unix.Close(s.fd)
}

// HardwareAddr returns the interface's own MAC address, for populating
// Config.HostMAC at startup.
func (s *RawSocket) HardwareAddr() ([6]byte, error) {
	var hw [6]byte
	iface, err := net.InterfaceByIndex(s.index)
	if err != nil {
		return hw, pkgerrors.Wrap(err, "rawsocket: re-read interface")
	}
	if len(iface.HardwareAddr) != 6 {
		return hw, pkgerrors.Errorf("rawsocket: interface %q has no Ethernet address", s.name)
	}
	copy(hw[:], iface.HardwareAddr)
	return hw, nil
}

func htons(i uint16) uint16 { return (i<<8)&0xff00 | i>>8 }
