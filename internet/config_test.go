package internet

import "testing"

func TestSameSubnet(t *testing.T) {
	var c Config
	c.SetIP(192, 168, 1, 10)
	c.SetSubnet(255, 255, 255, 0)

	if !c.sameSubnet([4]byte{192, 168, 1, 200}) {
		t.Error("expected an address sharing the /24 to be in-subnet")
	}
	if c.sameSubnet([4]byte{192, 168, 2, 1}) {
		t.Error("expected an address outside the /24 to be out-of-subnet")
	}
}

func TestSameSubnetEndianIndependence(t *testing.T) {
	// A single 32-bit load-and-AND would give a different answer depending
	// on host endianness for an asymmetric mask; the byte-wise comparison
	// must not.
	var c Config
	c.SetIP(10, 20, 0, 1)
	c.SetSubnet(255, 0, 255, 0)
	if !c.sameSubnet([4]byte{10, 99, 0, 99}) {
		t.Error("byte-wise mask comparison failed for a non-contiguous mask")
	}
}
