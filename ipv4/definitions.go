// Package ipv4 implements the fixed 20-byte IPv4 header this stack speaks:
// no options, no fragmentation, version 4 only. See RFC 791.
package ipv4

import "errors"

// HeaderSize is the size in bytes of an IPv4 header with no options, the
// only form this stack builds or accepts.
const HeaderSize = 20

var (
	errShort       = errors.New("ipv4: buffer shorter than header")
	errBadVersion  = errors.New("ipv4: version is not 4")
	errBadIHL      = errors.New("ipv4: IHL is not 5 (options unsupported)")
	errBadTotalLen = errors.New("ipv4: total length inconsistent with buffer")
	errFragment    = errors.New("ipv4: fragmented datagrams are unsupported")
	errNotForUs    = errors.New("ipv4: destination address is not this host")
)

// fragmentMask covers the 13-bit fragment offset and the more-fragments
// flag. A zero result after masking means "not a fragment, and not the
// first fragment of one either": checking only the offset (as some older
// implementations do) wrongly accepts an MF=1, offset=0 first fragment as a
// whole datagram.
const fragmentMask = 0x3fff
