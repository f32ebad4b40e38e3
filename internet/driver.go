package internet

import "time"

// MACDriver is the external collaborator that moves complete Ethernet II
// frames to and from the network controller. It is out of scope for this
// stack: an implementation is expected to strip/append the Ethernet CRC and
// handle the controller's own queueing.
type MACDriver interface {
	// GetFrame blocks until one complete frame (destination MAC through
	// payload, no trailing CRC) is available and copies it into buf,
	// returning the number of bytes written.
	GetFrame(buf []byte) (n int, err error)
	// PutFrame hands frame off for transmission. The driver computes and
	// appends the Ethernet CRC.
	PutFrame(frame []byte) error
}

// Clock is the external collaborator providing a monotonically advancing
// millisecond tick counter. Wraparound is expected and handled throughout
// this stack via unsigned subtraction.
type Clock interface {
	Ticks() uint32
}

// Scheduler is the external collaborator providing the blocking sleep
// primitive used by the bounded ARP retry loop. A real Scheduler must never
// be called while the caller holds Engine's internal ARP mutex: see
// Engine.ResolveHardwareAddr.
type Scheduler interface {
	Sleep(d time.Duration)
}

// RealClock is a Clock backed by time.Now, counting milliseconds since its
// own construction so a 32-bit tick counter only wraps after roughly 49.7
// days, same order of magnitude as the embedded millisecond tick sources
// this stack was designed against.
type RealClock struct {
	start time.Time
}

// NewRealClock returns a RealClock whose epoch is the current time.
func NewRealClock() RealClock { return RealClock{start: time.Now()} }

// Ticks returns milliseconds elapsed since the RealClock was constructed,
// truncated to 32 bits.
func (c RealClock) Ticks() uint32 { return uint32(time.Since(c.start).Milliseconds()) }

// RealScheduler is a Scheduler backed by time.Sleep.
type RealScheduler struct{}

// Sleep blocks for d using time.Sleep.
func (RealScheduler) Sleep(d time.Duration) { time.Sleep(d) }
