package udp

import (
	"testing"

	netstack "github.com/ubuntu-dev/Minimal-IP"
	"github.com/ubuntu-dev/Minimal-IP/ipv4"
)

func buildDatagram(t *testing.T, payload []byte) (ipv4.Frame, Frame) {
	t.Helper()
	buf := make([]byte, ipv4.HeaderSize+HeaderSize+len(payload))
	ifrm, err := ipv4.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	ifrm.ClearHeader()
	ifrm.SetVersionIHL()
	ifrm.SetTotalLength(uint16(len(buf)))
	ifrm.SetTTL(64)
	ifrm.SetProtocol(netstack.IPProtoUDP)
	*ifrm.SourceAddr() = [4]byte{10, 0, 0, 1}
	*ifrm.DestinationAddr() = [4]byte{10, 0, 0, 2}

	ufrm, err := NewFrame(ifrm.Payload())
	if err != nil {
		t.Fatal(err)
	}
	ufrm.ClearHeader()
	ufrm.SetSourcePort(1000)
	ufrm.SetDestinationPort(2000)
	udpLen := uint16(HeaderSize + len(payload))
	ufrm.SetLength(udpLen)
	copy(ufrm.Payload(), payload)
	ufrm.SetChecksum(0)
	ufrm.SetChecksum(ufrm.ComputeChecksumIPv4(ifrm))

	ifrm.SetChecksum(0)
	ifrm.SetChecksum(ifrm.ComputeChecksum())
	return ifrm, ufrm
}

func TestFrameFields(t *testing.T) {
	_, ufrm := buildDatagram(t, []byte("hello"))
	if ufrm.SourcePort() != 1000 {
		t.Errorf("got source port %d, want 1000", ufrm.SourcePort())
	}
	if ufrm.DestinationPort() != 2000 {
		t.Errorf("got destination port %d, want 2000", ufrm.DestinationPort())
	}
	if string(ufrm.Payload()) != "hello" {
		t.Errorf("got payload %q, want %q", ufrm.Payload(), "hello")
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	ifrm, ufrm := buildDatagram(t, []byte("hello, udp"))
	if got := ufrm.ComputeChecksumIPv4(ifrm); got != 0 {
		t.Fatalf("checksum over a self-consistent datagram should fold to 0, got 0x%04x", got)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	ifrm, ufrm := buildDatagram(t, []byte("hello, udp"))
	ufrm.RawData()[len(ufrm.RawData())-1] ^= 0xff
	if got := ufrm.ComputeChecksumIPv4(ifrm); got == 0 {
		t.Fatal("expected a corrupted payload to fail checksum verification")
	}
}

func TestValidateSizeRejectsShortLength(t *testing.T) {
	_, ufrm := buildDatagram(t, []byte("x"))
	ufrm.SetLength(HeaderSize - 1)
	var v netstack.Validator
	ufrm.ValidateSize(&v)
	if !v.HasError() {
		t.Fatal("expected error for a length field shorter than the header")
	}
}

func TestValidateSizeRejectsLengthPastBuffer(t *testing.T) {
	_, ufrm := buildDatagram(t, []byte("x"))
	ufrm.SetLength(0xffff)
	var v netstack.Validator
	ufrm.ValidateSize(&v)
	if !v.HasError() {
		t.Fatal("expected error for a length field exceeding the buffer")
	}
}
