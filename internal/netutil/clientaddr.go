// Package netutil resolves a best-effort client address for audit logging.
// The value is advisory only and is never used for access control.
package netutil

import (
	"net"
	"net/http"
	"os"
)

// UnknownAddr is the sentinel returned when no address can be resolved.
const UnknownAddr = "unknown"

// ClientAddr returns the local interface address in "local-<ip>" form,
// falling back to the hostname and finally to UnknownAddr. It never fails;
// every error path collapses to the sentinel.
func ClientAddr() string {
	// Dialing UDP does not send traffic; it only asks the kernel which
	// local address would route there.
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil {
			return "local-" + addr.IP.String()
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return "local-" + host
	}
	return UnknownAddr
}

// FromRequest prefers the request's remote address (already rewritten by the
// RealIP middleware when proxy headers are present) and falls back to
// ClientAddr.
func FromRequest(r *http.Request) string {
	if r == nil || r.RemoteAddr == "" {
		return ClientAddr()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
