// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packet

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/gopacket/gopacket/layers"
)

// ExtractDestination parses an IPv4 or IPv6 header followed by a TCP, UDP,
// or ICMP L4 header and returns the destination it describes. It returns
// (zero, false) for packets shorter than the minimum header, an
// unrecognized IP version, or a truncated L4 header — it never panics on
// malformed input.
func ExtractDestination(pkt []byte) (NetworkDestination, bool) {
	if len(pkt) == 0 {
		return NetworkDestination{}, false
	}

	version := pkt[0] >> 4
	switch version {
	case 4:
		return extractIPv4(pkt)
	case 6:
		return extractIPv6(pkt)
	default:
		return NetworkDestination{}, false
	}
}

func extractIPv4(pkt []byte) (NetworkDestination, bool) {
	const minHeader = 20
	if len(pkt) < minHeader {
		return NetworkDestination{}, false
	}

	ihl := int(pkt[0] & 0x0f)
	if ihl < 5 || ihl > 15 {
		return NetworkDestination{}, false
	}
	headerLen := ihl * 4
	if len(pkt) < headerLen {
		return NetworkDestination{}, false
	}

	proto := layers.IPProtocol(pkt[9])
	dst := net.IP(pkt[16:20]).String()

	return extractL4(pkt, headerLen, dst, proto)
}

func extractIPv6(pkt []byte) (NetworkDestination, bool) {
	const headerLen = 40
	if len(pkt) < headerLen {
		return NetworkDestination{}, false
	}

	proto := layers.IPProtocol(pkt[6])
	dst := net.IP(pkt[24:40]).String()

	return extractL4(pkt, headerLen, dst, proto)
}

func extractL4(pkt []byte, l4Offset int, dstIP string, proto layers.IPProtocol) (NetworkDestination, bool) {
	switch proto {
	case layers.IPProtocolTCP, layers.IPProtocolUDP:
		if len(pkt) < l4Offset+4 {
			return NetworkDestination{}, false
		}
		port := binary.BigEndian.Uint16(pkt[l4Offset+2 : l4Offset+4])
		p := ProtocolUDP
		if proto == layers.IPProtocolTCP {
			p = ProtocolTCP
		}
		return NetworkDestination{IP: dstIP, Port: port, Protocol: p}, true
	case layers.IPProtocolICMPv4, layers.IPProtocolICMPv6:
		return NetworkDestination{IP: dstIP, Port: 0, Protocol: ProtocolICMP}, true
	default:
		return NetworkDestination{IP: dstIP, Port: 0, Protocol: ProtocolOther}, true
	}
}

func (d NetworkDestination) String() string {
	return fmt.Sprintf("%s:%d/%s", d.IP, d.Port, d.Protocol)
}
