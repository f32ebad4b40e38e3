package arp

import "testing"

func TestFrameCanonicalHeader(t *testing.T) {
	buf := make([]byte, FrameSize)
	afrm, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	if afrm.HasCanonicalHeader() {
		t.Fatal("zeroed frame should not already have a canonical header")
	}
	afrm.SetCanonicalHeader()
	if !afrm.HasCanonicalHeader() {
		t.Fatal("expected canonical header after SetCanonicalHeader")
	}
}

func TestFrameOperationAndAddrs(t *testing.T) {
	buf := make([]byte, FrameSize)
	afrm, _ := NewFrame(buf)
	afrm.SetOperation(OpRequest)
	if afrm.Operation() != OpRequest {
		t.Fatalf("got operation %v, want %v", afrm.Operation(), OpRequest)
	}

	sha := [6]byte{1, 2, 3, 4, 5, 6}
	spa := [4]byte{192, 168, 1, 1}
	tha := [6]byte{6, 5, 4, 3, 2, 1}
	tpa := [4]byte{192, 168, 1, 2}
	*afrm.SenderHardwareAddr() = sha
	*afrm.SenderProtocolAddr() = spa
	*afrm.TargetHardwareAddr() = tha
	*afrm.TargetProtocolAddr() = tpa

	if *afrm.SenderHardwareAddr() != sha {
		t.Error("sender hardware addr roundtrip failed")
	}
	if *afrm.SenderProtocolAddr() != spa {
		t.Error("sender protocol addr roundtrip failed")
	}
	if *afrm.TargetHardwareAddr() != tha {
		t.Error("target hardware addr roundtrip failed")
	}
	if *afrm.TargetProtocolAddr() != tpa {
		t.Error("target protocol addr roundtrip failed")
	}
}

func TestNewFrameShort(t *testing.T) {
	_, err := NewFrame(make([]byte, FrameSize-1))
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}
