package validator

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
)

// BlockedNetworks contains IP ranges that remote inputs must not resolve to
var BlockedNetworks = []string{
	"0.0.0.0/8",      // This network
	"127.0.0.0/8",    // Localhost
	"10.0.0.0/8",     // Private network
	"172.16.0.0/12",  // Private network
	"192.168.0.0/16", // Private network
	"169.254.0.0/16", // Link-local (AWS metadata service)
	"100.64.0.0/10",  // Carrier-grade NAT
	"::1/128",        // IPv6 localhost
	"fc00::/7",       // IPv6 unique local
	"fe80::/10",      // IPv6 link-local
}

var blockedPrefixes = mustPrefixes(BlockedNetworks)

func mustPrefixes(cidrs []string) []netip.Prefix {
	out := make([]netip.Prefix, len(cidrs))
	for i, c := range cidrs {
		out[i] = netip.MustParsePrefix(c)
	}
	return out
}

// IsBlockedIP checks if an IP address is in a blocked network range
func IsBlockedIP(ipStr string) bool {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	_, blocked := blockedBy(addr)
	return blocked
}

func blockedBy(addr netip.Addr) (netip.Prefix, bool) {
	addr = addr.Unmap()
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return p, true
		}
	}
	return netip.Prefix{}, false
}

// LookupFunc resolves a host name to addresses
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// DefaultLookup resolves with the system resolver
func DefaultLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

// ValidateHTTPURI validates an HTTP/HTTPS URI for SSRF prevention
func ValidateHTTPURI(uri string) error {
	return validateHTTPURI(context.Background(), uri, DefaultLookup)
}

func validateHTTPURI(ctx context.Context, uri string, lookup LookupFunc) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid URI: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("expected http or https scheme")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URI has no host")
	}

	// Literal addresses need no resolution
	var addrs []netip.Addr
	if addr, err := netip.ParseAddr(hostname); err == nil {
		addrs = []netip.Addr{addr}
	} else {
		addrs, err = lookup(ctx, hostname)
		if err != nil {
			return fmt.Errorf("failed to resolve hostname: %w", err)
		}
	}

	for _, addr := range addrs {
		if prefix, blocked := blockedBy(addr); blocked {
			return fmt.Errorf("access denied: %s resolves to %s (%s)", hostname, addr, blockReason(addr, prefix))
		}
	}
	return nil
}

// blockReason returns a human-readable reason for blocking an address
func blockReason(addr netip.Addr, prefix netip.Prefix) string {
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback():
		return "localhost access not allowed"
	case addr.IsPrivate():
		return "private network access not allowed"
	case addr.IsLinkLocalUnicast():
		return "link-local access not allowed"
	default:
		return "blocked network " + prefix.String()
	}
}
