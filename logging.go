package netstack

import (
	"context"
	"encoding/binary"
	"log/slog"
)

// LevelTrace is below slog.LevelDebug: it is enabled only when a caller
// deliberately wants to see every frame the engine receives or sends.
const LevelTrace slog.Level = slog.LevelDebug - 4

// LogAttrs calls through to l.LogAttrs, tolerating a nil logger so hot paths
// across the stack never need a nil check of their own.
func LogAttrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l != nil {
		l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

// SlogAddr4 packs a 4-byte IPv4 address into a uint64 attribute, avoiding the
// string allocation a net.IP-backed attribute would cost on every logged
// packet.
func SlogAddr4(key string, addr [4]byte) slog.Attr {
	return slog.Uint64(key, uint64(binary.BigEndian.Uint32(addr[:])))
}

// SlogAddr6 packs a 6-byte hardware address into a uint64 attribute.
func SlogAddr6(key string, addr [6]byte) slog.Attr {
	var buf [8]byte
	copy(buf[2:], addr[:])
	return slog.Uint64(key, binary.BigEndian.Uint64(buf[:]))
}
