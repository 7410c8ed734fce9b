package vat

import "net/netip"

var (
	// "This network" and the former class E block are not routable on the internet.
	thisNetwork = netip.MustParsePrefix("0.0.0.0/8")
	reservedV4  = netip.MustParsePrefix("240.0.0.0/4")
)

// IsPublicIP reports whether s is an IPv4 or IPv6 address usable on the public
// internet. Private, loopback, link-local, multicast, unspecified and reserved
// IPv4 ranges are rejected. IPv4-mapped IPv6 addresses are judged as IPv4.
func IsPublicIP(s string) bool {
	if s == "" {
		return false
	}

	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return false
	}
	addr = addr.Unmap()

	switch {
	case addr.IsPrivate(),
		addr.IsLoopback(),
		addr.IsUnspecified(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}

	if addr.Is4() && (thisNetwork.Contains(addr) || reservedV4.Contains(addr)) {
		return false
	}

	return true
}
