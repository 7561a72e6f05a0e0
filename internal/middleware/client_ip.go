package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// ClientIPResolver works out the client address of a request.
// The zero value trusts no proxy and always answers with the peer address.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver builds a resolver that honours forwarding headers only
// when they were set by one of the given proxies. Entries are CIDRs or
// single addresses.
func NewClientIPResolver(trustedProxies []string) (*ClientIPResolver, error) {
	resolver := &ClientIPResolver{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		network, err := ParseProxyCIDR(entry)
		if err != nil {
			return nil, err
		}
		resolver.trusted = append(resolver.trusted, network)
	}
	return resolver, nil
}

// ParseProxyCIDR parses a trusted proxy entry. A bare address is a single host.
func ParseProxyCIDR(entry string) (*net.IPNet, error) {
	if !strings.Contains(entry, "/") {
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		bits := 128
		if ip.To4() != nil {
			ip = ip.To4()
			bits = 32
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
	}

	_, network, err := net.ParseCIDR(entry)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
	}
	return network, nil
}

// ClientIP returns the address the limiter and the request log key on.
//
// The peer address is used unless the peer is a trusted proxy. Behind a
// trusted proxy X-Forwarded-For is read right to left and the first hop that
// is not itself a trusted proxy wins, so entries prepended by the client are
// never reached. X-Real-IP is used when a trusted proxy sends no
// X-Forwarded-For.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if c == nil || !c.isTrusted(peer) {
		return peer
	}

	if forwarded := r.Header.Values(constants.HeaderXForwardedFor); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				// Garbage in the chain stops the walk at the last good hop
				return peer
			}
			if !c.isTrusted(hop) {
				return hop
			}
			peer = hop
		}
		return peer
	}

	if realIP := strings.TrimSpace(r.Header.Get(constants.HeaderXRealIP)); net.ParseIP(realIP) != nil {
		return realIP
	}
	return peer
}

func (c *ClientIPResolver) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range c.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
