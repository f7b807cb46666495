package httputil

import (
	"net"
)

// IsLoopback reports whether ip is a loopback address. The value should
// come from echo's configured IP extractor, never from a raw header.
func IsLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
