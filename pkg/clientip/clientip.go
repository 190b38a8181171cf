package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealClientIP returns the client IP from the request.
// Uses r.RemoteAddr only (no proxy headers). Use for rate limiting and logging
// when traffic goes directly to the app.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// LimiterKey groups clients for rate limiting. IPv4 addresses are used as is;
// IPv6 addresses are reduced to their /64 network, since a single host usually
// controls a whole /64.
func LimiterKey(r *http.Request) string {
	ip := RealClientIP(r)
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	addr = addr.Unmap()
	if addr.Is4() {
		return addr.String()
	}
	prefix, err := addr.Prefix(64)
	if err != nil {
		return ip
	}
	return prefix.String()
}
