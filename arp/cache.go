package arp

// CacheSize is the number of entries held by a Cache. The stack resolves at
// most one next hop (direct destination or default router) per outgoing
// datagram, so eight slots comfortably covers a small LAN without dynamic
// allocation.
const CacheSize = 8

// StaleAfterTicks is the age, in ticks (milliseconds), after which a
// complete cache entry is treated as stale and must be re-resolved: 20
// minutes.
const StaleAfterTicks = 20 * 60 * 1000

// State describes what Lookup found for a queried protocol address.
type State uint8

const (
	// Miss means no entry exists for the address; the returned slot is an
	// empty one if any remains, otherwise the least-recently-used one, and is
	// ready to be overwritten.
	Miss State = iota
	// Partial means an entry exists but has no usable hardware address yet:
	// either a request is outstanding, or the entry aged past
	// StaleAfterTicks and must be treated as if a request were outstanding.
	Partial
	// Complete means the entry holds a usable, fresh hardware address.
	Complete
)

// entry is the in-memory form of one 14-byte ARP cache record: 4-byte
// protocol address, 6-byte hardware address, 4-byte ticks timestamp of the
// most recent insert or refresh.
type entry struct {
	ip  [4]byte
	mac [6]byte
	ts  uint32
}

func (e *entry) isEmpty() bool { return e.ip == [4]byte{} }
func (e *entry) isPartial() bool { return e.mac == [6]byte{} }

// Cache is a fixed 8-slot ARP table with least-recently-used replacement and
// age-based expiry of complete entries. All methods require the caller to
// hold whatever mutual-exclusion the embedding stack uses to serialize
// access between its receive task and send path; Cache itself does no
// locking.
type Cache struct {
	entries [CacheSize]entry
}

// Init zeroes the cache and stamps every slot's timestamp to now, so that a
// freshly initialized cache's slots age from the moment the stack starts
// rather than from the zero ticks value.
func (c *Cache) Init(now uint32) {
	*c = Cache{}
	for i := range c.entries {
		c.entries[i].ts = now
	}
}

// Lookup scans the cache for ip. If found, it reports Partial or Complete
// depending on whether the entry has a hardware address and is still within
// StaleAfterTicks of now. If not found, it returns State Miss with the first
// empty slot, or, when every slot is occupied, the least-recently-used slot
// (by unsigned now-ts, maximized); that slot is ready to be claimed by the
// caller, typically via UpdateFromFrame.
func (c *Cache) Lookup(ip [4]byte, now uint32) (slot *entry, state State) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.ip == ip && !e.isEmpty() {
			if e.isPartial() || now-e.ts > StaleAfterTicks {
				return e, Partial
			}
			return e, Complete
		}
	}
	for i := range c.entries {
		if c.entries[i].isEmpty() {
			return &c.entries[i], Miss
		}
	}
	lru := &c.entries[0]
	lruAge := now - lru.ts
	for i := 1; i < CacheSize; i++ {
		e := &c.entries[i]
		if age := now - e.ts; age > lruAge {
			lru, lruAge = e, age
		}
	}
	return lru, Miss
}

// UpdateFromFrame records an authoritative sender (ip, mac) pair observed in
// an inbound ARP packet. It calls Lookup internally; on a Miss it claims the
// LRU slot for ip, and in every case it stamps the hardware address and
// timestamp, refreshing the entry's LRU position as a side effect.
func (c *Cache) UpdateFromFrame(ip [4]byte, mac [6]byte, now uint32) {
	slot, state := c.Lookup(ip, now)
	if state == Miss {
		slot.ip = ip
	}
	slot.mac = mac
	slot.ts = now
}

// HardwareAddr returns the resolved hardware address for ip and true if the
// cache holds a Complete entry for it, without mutating the cache.
func (c *Cache) HardwareAddr(ip [4]byte, now uint32) (mac [6]byte, ok bool) {
	slot, state := c.Lookup(ip, now)
	if state != Complete {
		return mac, false
	}
	return slot.mac, true
}

// Entry is a read-only snapshot of one cache slot, for debug printing.
type Entry struct {
	IP  [4]byte
	MAC [6]byte
	// TS is the ticks timestamp of the entry's most recent insert/refresh.
	TS uint32
}

// Entries returns a snapshot of the cache's 8 slots, including empty ones,
// for debug printing (see internet.Engine.DumpARPCache).
func (c *Cache) Entries() [CacheSize]Entry {
	var out [CacheSize]Entry
	for i := range c.entries {
		out[i] = Entry{IP: c.entries[i].ip, MAC: c.entries[i].mac, TS: c.entries[i].ts}
	}
	return out
}
