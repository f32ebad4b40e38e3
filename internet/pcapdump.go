package internet

import (
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	pkgerrors "github.com/pkg/errors"
)

// PcapDump writes every frame that passes through an Engine to a pcap file,
// for offline inspection with Wireshark or tcpdump -r. It uses pcapgo's pure
// Go writer rather than gopacket/pcap, so it needs no libpcap/cgo
// dependency, which matters for a stack meant to also run on embedded
// targets where a debug build only ever runs on a development host.
type PcapDump struct {
	mu sync.Mutex
	w  *pcapgo.Writer
}

// NewPcapDump writes a pcap file header to w and returns a PcapDump ready to
// record Ethernet II frames up to 1518 bytes.
func NewPcapDump(w io.Writer) (*PcapDump, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(maxFrame, layers.LinkTypeEthernet); err != nil {
		return nil, pkgerrors.Wrap(err, "pcapdump: write file header")
	}
	return &PcapDump{w: pw}, nil
}

// write records one frame with the current wall-clock time. It satisfies the
// signature Engine.capture expects.
func (d *PcapDump) write(direction byte, frame []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	_ = direction // direction is not representable in a plain pcap record; both directions interleave by timestamp.
	if err := d.w.WritePacket(ci, frame); err != nil {
		// Capture is a debug aid; a write failure should not disturb the
		// engine it is attached to.
		return
	}
}

// CaptureTo attaches d to e: every frame handed to or received from the MAC
// driver is written to d from then on. Passing nil detaches any previous
// capture.
func (e *Engine) CaptureTo(d *PcapDump) {
	if d == nil {
		e.capture = nil
		return
	}
	e.capture = d.write
}
