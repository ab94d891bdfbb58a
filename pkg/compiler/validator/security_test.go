package validator

import (
	"context"
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeLookup resolves from a fixed table so tests stay offline
func fakeLookup(table map[string]string) LookupFunc {
	return func(_ context.Context, host string) ([]netip.Addr, error) {
		ip, ok := table[host]
		if !ok {
			return nil, fmt.Errorf("no such host %s", host)
		}
		return []netip.Addr{netip.MustParseAddr(ip)}, nil
	}
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip      string
		blocked bool
	}{
		// Localhost
		{"127.0.0.1", true},
		{"127.0.0.2", true},
		{"::1", true},
		// Private networks
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"192.168.255.255", true},
		{"fd00::1", true},
		// Link-local (AWS metadata)
		{"169.254.169.254", true},
		{"fe80::1", true},
		// IPv4-mapped IPv6 is checked as IPv4
		{"::ffff:10.0.0.1", true},
		// Public IPs (not blocked)
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"93.184.216.34", false},
		{"2606:4700:4700::1111", false},
		// Not an IP
		{"example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.blocked, IsBlockedIP(tt.ip))
		})
	}
}

func TestValidateHTTPURI(t *testing.T) {
	lookup := fakeLookup(map[string]string{
		"example.com":     "93.184.216.34",
		"google.com":      "142.250.80.46",
		"intranet.local":  "10.1.2.3",
		"metadata.google": "169.254.169.254",
	})

	tests := []struct {
		uri     string
		wantErr bool
		errMsg  string
	}{
		{"https://example.com/video.mp4", false, ""},
		{"http://google.com/file.mp4", false, ""},
		{"https://127.0.0.1/video.mp4", true, "localhost"},
		{"http://[::1]:8080/video.mp4", true, "localhost"},
		{"http://10.0.0.1/internal.mp4", true, "private network"},
		{"https://192.168.1.1/file.mp4", true, "private network"},
		{"http://169.254.169.254/metadata", true, "link-local"},
		{"http://intranet.local/a.mp4", true, "private network"},
		{"http://metadata.google/computeMetadata", true, "link-local"},
		{"http://unknown.invalid/a.mp4", true, "failed to resolve"},
		{"ftp://example.com/a.mp4", true, "expected http or https"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			err := validateHTTPURI(context.Background(), tt.uri, lookup)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
