package internet

import (
	"context"
	"sync"
	"testing"
	"time"

	netstack "github.com/ubuntu-dev/Minimal-IP"
)

// chanDriver is a MACDriver backed by a pair of channels, simulating a
// two-host Ethernet segment for loopback tests: frames PutFrame-d on one end
// arrive via GetFrame on the other.
type chanDriver struct {
	rx <-chan []byte
	tx chan<- []byte
}

func (d chanDriver) GetFrame(buf []byte) (int, error) {
	frame := <-d.rx
	return copy(buf, frame), nil
}

func (d chanDriver) PutFrame(frame []byte) error {
	d.tx <- append([]byte(nil), frame...)
	return nil
}

// testScheduler sleeps briefly regardless of the requested duration, so
// tests exercising the ARP retry loop don't wait out real backoff timers.
type testScheduler struct{}

func (testScheduler) Sleep(time.Duration) { time.Sleep(2 * time.Millisecond) }

// countingClock is a Clock that advances by one tick per call, monotonic and
// deterministic for tests that don't care about wall-clock ARP-cache aging.
type countingClock struct{ n uint32 }

func (c *countingClock) Ticks() uint32 { c.n++; return c.n }

func newLinkedEngines(t *testing.T) (*Engine, *Engine) {
	t.Helper()
	aToB := make(chan []byte, 8)
	bToA := make(chan []byte, 8)

	var cfgA, cfgB Config
	cfgA.SetMAC(1, 1, 1, 1, 1, 1)
	cfgA.SetIP(192, 168, 1, 1)
	cfgA.SetSubnet(255, 255, 255, 0)
	cfgA.UDPSrcPort = 1000
	cfgA.UDPDstPort = 2000
	cfgA.SetUDPDestIP(192, 168, 1, 2)

	cfgB.SetMAC(2, 2, 2, 2, 2, 2)
	cfgB.SetIP(192, 168, 1, 2)
	cfgB.SetSubnet(255, 255, 255, 0)
	cfgB.UDPSrcPort = 2000
	cfgB.UDPDstPort = 1000
	cfgB.SetUDPDestIP(192, 168, 1, 1)

	a := NewEngine(cfgA, chanDriver{rx: bToA, tx: aToB}, &countingClock{}, testScheduler{}, nil)
	b := NewEngine(cfgB, chanDriver{rx: aToB, tx: bToA}, &countingClock{}, testScheduler{}, nil)
	return a, b
}

func TestEngineUDPRoundTripResolvesARP(t *testing.T) {
	a, b := newLinkedEngines(t)

	received := make(chan []byte, 1)
	b.OnUDPReceive = func(payload []byte) {
		received <- append([]byte(nil), payload...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)

	if err := a.SendUDP([]byte("hello from a")); err != nil {
		t.Fatalf("SendUDP failed: %v", err)
	}

	select {
	case payload := <-received:
		if string(payload) != "hello from a" {
			t.Fatalf("got payload %q, want %q", payload, "hello from a")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for b to receive the datagram")
	}
}

func TestEngineSecondSendSkipsARP(t *testing.T) {
	a, b := newLinkedEngines(t)

	received := make(chan []byte, 2)
	b.OnUDPReceive = func(payload []byte) {
		received <- append([]byte(nil), payload...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)

	if err := a.SendUDP([]byte("first")); err != nil {
		t.Fatalf("first SendUDP failed: %v", err)
	}
	<-received

	if err := a.SendUDP([]byte("second")); err != nil {
		t.Fatalf("second SendUDP failed: %v", err)
	}
	select {
	case payload := <-received:
		if string(payload) != "second" {
			t.Fatalf("got payload %q, want %q", payload, "second")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for b to receive the second datagram")
	}

	if _, ok := a.arp.Cache.HardwareAddr(b.HostIP, a.clock.Ticks()); !ok {
		t.Fatal("a's ARP cache should hold a resolved entry for b after the round trip")
	}
}

func TestSendUDPPayloadTooLarge(t *testing.T) {
	a, _ := newLinkedEngines(t)
	huge := make([]byte, len(a.udpFrame))
	if err := a.SendUDP(huge); err != ErrPayloadTooLarge {
		t.Fatalf("got %v, want ErrPayloadTooLarge", err)
	}
}

// silentDriver never satisfies GetFrame, simulating a peer that never
// answers an ARP request, and records every frame PutFrame sends onto the
// wire so the caller can count exactly how many ARP requests were sent.
type silentDriver struct {
	mu     sync.Mutex
	frames [][]byte
}

func (d *silentDriver) GetFrame([]byte) (int, error) {
	select {} // block forever: no frame ever arrives.
}

func (d *silentDriver) PutFrame(frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, append([]byte(nil), frame...))
	return nil
}

func (d *silentDriver) sent() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

func TestResolveHardwareAddrGivesUpAfterTwoRequests(t *testing.T) {
	var cfg Config
	cfg.SetMAC(1, 1, 1, 1, 1, 1)
	cfg.SetIP(192, 168, 1, 1)
	cfg.SetSubnet(255, 255, 255, 0)

	driver := &silentDriver{}
	e := NewEngine(cfg, driver, &countingClock{}, testScheduler{}, nil)
	e.arp.Cache.Init(e.clock.Ticks())

	_, ok := e.ResolveHardwareAddr([4]byte{192, 168, 1, 2})
	if ok {
		t.Fatal("expected resolution to fail when no peer ever replies")
	}
	if got := driver.sent(); got != 2 {
		t.Fatalf("got %d ARP requests on the wire, want exactly 2", got)
	}
}

func TestSendUDPGivesUpAfterTwoARPRequests(t *testing.T) {
	var cfg Config
	cfg.SetMAC(1, 1, 1, 1, 1, 1)
	cfg.SetIP(192, 168, 1, 1)
	cfg.SetSubnet(255, 255, 255, 0)
	cfg.UDPSrcPort = 1000
	cfg.UDPDstPort = 2000
	cfg.SetUDPDestIP(192, 168, 1, 2)

	driver := &silentDriver{}
	e := NewEngine(cfg, driver, &countingClock{}, testScheduler{}, nil)
	e.arp.Cache.Init(e.clock.Ticks())

	if err := e.SendUDP([]byte("never delivered")); err != netstack.ErrARPTimeout {
		t.Fatalf("got %v, want ErrARPTimeout", err)
	}
	if got := driver.sent(); got != 2 {
		t.Fatalf("got %d ARP requests on the wire, want exactly 2", got)
	}
}
