// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package packet implements the Packet Filter Engine: parses IPv4/IPv6/
// TCP/UDP/ICMP headers, applies allow/block/fingerprint rules with an
// expiring decision cache, and returns a verdict in bounded time without
// ever suspending on I/O.
package packet

import "time"

// Protocol is the L4 protocol a NetworkDestination was derived from.
type Protocol int

const (
	ProtocolOther Protocol = iota
	ProtocolTCP
	ProtocolUDP
	ProtocolICMP
)

func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	case ProtocolICMP:
		return "ICMP"
	default:
		return "OTHER"
	}
}

// NetworkDestination is the five-tuple-reduced destination a packet was
// headed for.
type NetworkDestination struct {
	IP       string
	Port     uint16
	Protocol Protocol
}

// VerdictKind tags a FilterVerdict's single active variant.
type VerdictKind int

const (
	VerdictAllow VerdictKind = iota
	VerdictDrop
	VerdictModify
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictAllow:
		return "allow"
	case VerdictModify:
		return "modify"
	default:
		return "drop"
	}
}

// Verdict carries exactly one of Allow(packet), Drop, or Modify(packet).
// Packet is populated only for Allow and Modify.
type Verdict struct {
	Kind   VerdictKind
	Packet []byte
}

func Allow(packet []byte) Verdict  { return Verdict{Kind: VerdictAllow, Packet: packet} }
func Drop() Verdict                { return Verdict{Kind: VerdictDrop} }
func Modify(packet []byte) Verdict { return Verdict{Kind: VerdictModify, Packet: packet} }

type decisionEntry struct {
	verdict    Verdict
	insertedAt time.Time
}

func (e decisionEntry) liveAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.insertedAt) <= ttl
}
