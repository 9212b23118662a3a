// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import "github.com/privarion/privariond/internal/logging"

// NopHostNetwork logs the route/resolver settings an Orchestrator would
// apply but never touches the host, matching the cmd/*_stub.go fallback
// convention used elsewhere for platforms or privilege levels that can't
// perform the real operation. It is the default HostNetwork until a
// platform-specific implementation (iproute2 on Linux, SystemConfiguration
// on Darwin) is wired in.
type NopHostNetwork struct {
	log *logging.Logger
}

// NewNopHostNetwork constructs a NopHostNetwork.
func NewNopHostNetwork() *NopHostNetwork {
	return &NopHostNetwork{log: logging.Default().WithComponent("tunnel.hostnetwork")}
}

// Apply logs cfg and returns nil, performing no host changes.
func (n *NopHostNetwork) Apply(cfg Configuration) error {
	n.log.Warn("host network changes not applied: no platform HostNetwork configured",
		"tunnel_remote", cfg.TunnelRemoteAddress, "ipv4", cfg.IPv4Address, "ipv6", cfg.IPv6Address)
	return nil
}

// Restore is a no-op.
func (n *NopHostNetwork) Restore() error { return nil }
