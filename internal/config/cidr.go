package config

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// CIDRSubnet calculates a subnet of prefix that is newbits longer, selected by
// netnum. It follows Terraform's cidrsubnet semantics.
//
// Only IPv4 prefixes are supported.
func CIDRSubnet(prefix string, newbits int, netnum int) (string, error) {
	network, err := parseIPv4Prefix(prefix)
	if err != nil {
		return "", err
	}
	if newbits < 0 {
		return "", fmt.Errorf("prefix extension must not be negative, got %d", newbits)
	}

	newLen := network.Bits() + newbits
	if newLen > 32 {
		return "", fmt.Errorf("prefix extension of %d bits is too large for %s", newbits, prefix)
	}

	maxSubnets := uint64(1) << newbits
	// #nosec G115
	if netnum < 0 || uint64(netnum) >= maxSubnets {
		return "", fmt.Errorf("subnet number %d exceeds max subnets %d", netnum, maxSubnets)
	}

	base := addrToUint(network.Addr())
	// #nosec G115
	offset := uint64(netnum) << (32 - newLen)

	return netip.PrefixFrom(uintToAddr(base+offset), newLen).String(), nil
}

// CIDRContains reports whether inner lies entirely within outer.
func CIDRContains(outer, inner string) (bool, error) {
	o, err := parseIPv4Prefix(outer)
	if err != nil {
		return false, err
	}
	i, err := parseIPv4Prefix(inner)
	if err != nil {
		return false, err
	}
	return o.Bits() <= i.Bits() && o.Contains(i.Addr()), nil
}

// parseIPv4Prefix parses prefix and masks host bits away.
func parseIPv4Prefix(prefix string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(prefix)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR prefix: %w", err)
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("only IPv4 addresses are supported, got IPv6: %s", prefix)
	}
	return p.Masked(), nil
}

func addrToUint(a netip.Addr) uint64 {
	b := a.As4()
	return uint64(binary.BigEndian.Uint32(b[:]))
}

func uintToAddr(v uint64) netip.Addr {
	var b [4]byte
	// #nosec G115
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return netip.AddrFrom4(b)
}
