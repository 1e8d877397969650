package httpapi

import (
	"net"
	"net/http"
)

// RemoteIP returns the host part of r.RemoteAddr. Forwarding headers are only
// reflected here when the router was built with TrustProxyHeaders, in which
// case chi's RealIP middleware has already rewritten RemoteAddr.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
