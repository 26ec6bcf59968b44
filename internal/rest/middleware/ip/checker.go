package ip

import (
	"net/netip"
	"strings"

	"github.com/robalyx/tribunal/internal/setup/config"
	"go.uber.org/zap"
)

// reservedPrefixes are special-use ranges netip does not classify on its own.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),   // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),    // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),    // TEST-NET-1
	netip.MustParsePrefix("192.88.99.0/24"),  // 6to4 relay
	netip.MustParsePrefix("198.18.0.0/15"),   // benchmarking
	netip.MustParsePrefix("198.51.100.0/24"), // TEST-NET-2
	netip.MustParsePrefix("203.0.113.0/24"),  // TEST-NET-3
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"), // documentation
}

// Checker decides which addresses may identify a client.
type Checker struct {
	trustedProxies []netip.Prefix
	allowLocalIPs  bool
}

// NewChecker parses the trusted proxy list. Invalid entries are logged and skipped.
func NewChecker(logger *zap.Logger, config *config.IPConfig) *Checker {
	trusted := make([]netip.Prefix, 0, len(config.TrustedProxies))
	for _, cidr := range config.TrustedProxies {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			logger.Error("Invalid trusted proxy CIDR",
				zap.String("cidr", cidr),
				zap.Error(err))
			continue
		}
		trusted = append(trusted, prefix.Masked())
	}

	return &Checker{
		trustedProxies: trusted,
		allowLocalIPs:  config.AllowLocalIPs,
	}
}

// Parse returns the usable client address in s, if any.
func (c *Checker) Parse(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	addr = addr.Unmap().WithZone("")
	return addr, c.IsUsable(addr)
}

// IsUsable reports whether addr is a routable public address, or any
// valid address when local addresses are allowed.
func (c *Checker) IsUsable(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	if c.allowLocalIPs {
		return true
	}
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, prefix := range reservedPrefixes {
		if prefix.Contains(addr) {
			return false
		}
	}
	return true
}

// IsTrustedProxy reports whether addr belongs to a configured proxy range.
func (c *Checker) IsTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range c.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
