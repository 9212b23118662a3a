// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package tunnel implements the Packet Tunnel Orchestrator: it configures
// the host-provided packet tunnel, feeds captured packets into the Packet
// Filter Engine, and guarantees host network settings are restored on
// every exit path. Captured port-53 traffic goes through the Packet Filter
// Engine like any other packet; the orchestrator does not synthesize DNS
// responses.
package tunnel

import (
	"net"
	"time"

	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/validation"
)

// Configuration is the tunnel's recognized, validated option set.
type Configuration struct {
	DNSServerAddress    string
	TunnelRemoteAddress string
	IPv4Address         string
	IPv4SubnetMask      string
	IPv6Address         string
	IPv6PrefixLength    int
	MTU                 int
	RouteAllIPv4Traffic bool
	RouteAllIPv6Traffic bool
}

// DefaultConfiguration returns the spec's documented defaults.
func DefaultConfiguration() Configuration {
	return Configuration{
		DNSServerAddress:    "127.0.0.1",
		TunnelRemoteAddress: "127.0.0.1",
		IPv4Address:         "10.0.0.1",
		IPv4SubnetMask:      "255.255.255.0",
		IPv6Address:         "fd00::1",
		IPv6PrefixLength:    64,
		MTU:                 1500,
		RouteAllIPv4Traffic: true,
		RouteAllIPv6Traffic: true,
	}
}

// Validate checks every constraint in the tunnel configuration option
// table, failing with TunnelConfigurationInvalid on the first violation.
func (c Configuration) Validate() error {
	if err := validation.ValidateIPOrCIDR(c.DNSServerAddress); err != nil {
		return invalid("dns_server_address does not parse as an IP: %q", c.DNSServerAddress)
	}
	if err := validation.ValidateIPOrCIDR(c.TunnelRemoteAddress); err != nil {
		return invalid("tunnel_remote_address does not parse as an IP: %q", c.TunnelRemoteAddress)
	}
	if ip := net.ParseIP(c.IPv4Address); ip == nil || ip.To4() == nil {
		return invalid("ipv4_address does not parse as IPv4: %q", c.IPv4Address)
	}
	if !validIPv4Mask(c.IPv4SubnetMask) {
		return invalid("ipv4_subnet_mask is not a contiguous dotted mask: %q", c.IPv4SubnetMask)
	}
	if ip := net.ParseIP(c.IPv6Address); ip == nil || ip.To4() != nil {
		return invalid("ipv6_address does not parse as IPv6: %q", c.IPv6Address)
	}
	if c.IPv6PrefixLength < 1 || c.IPv6PrefixLength > 128 {
		return invalid("ipv6_prefix_length out of range [1,128]: %d", c.IPv6PrefixLength)
	}
	if c.MTU < 576 || c.MTU > 9000 {
		return invalid("mtu out of range [576,9000]: %d", c.MTU)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Codedf(errors.KindValidation, errors.CodeTunnelConfigurationInvalid, format, args...)
}

func validIPv4Mask(mask string) bool {
	ip := net.ParseIP(mask)
	if ip == nil {
		return false
	}
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	bits := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
	// A contiguous mask is a run of 1s followed by a run of 0s: inverting
	// and adding 1 yields a power of two (or zero for an all-ones mask).
	inverted := ^bits
	return inverted&(inverted+1) == 0
}

// RetryPolicy bounds Starting's retry attempts with capped exponential
// backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the scenario in spec §8 scenario 7.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 1 * time.Second}
}

func (p RetryPolicy) delayFor(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}
