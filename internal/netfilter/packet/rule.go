// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packet

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/validation"
)

// rule is one parsed allow-list/block-list entry. Every entry names an IP
// or a CIDR subnet; it may optionally narrow further to a single
// destination port and protocol, using the same "ip:port/protocol" layout
// NetworkDestination.String() prints.
type rule struct {
	ip          string
	cidr        *net.IPNet
	port        uint16
	hasPort     bool
	protocol    Protocol
	wildcardAny bool
	hasProtocol bool
}

// parseRule validates entry and builds the rule it describes. A bare IP
// or CIDR (e.g. "10.0.0.0/8") matches on address alone. "ip:port" and
// "ip:port/protocol" additionally require that exact port and/or
// protocol.
func parseRule(entry string) (rule, error) {
	ipPart := entry
	var portPart, protoPart string

	if idx := strings.Index(entry, ":"); idx != -1 && validation.ValidateIPOrCIDR(entry) != nil {
		ipPart = entry[:idx]
		rest := entry[idx+1:]
		if s := strings.Index(rest, "/"); s != -1 {
			portPart, protoPart = rest[:s], rest[s+1:]
		} else {
			portPart = rest
		}
	}

	if err := validation.ValidateIPOrCIDR(ipPart); err != nil {
		return rule{}, err
	}
	r := rule{ip: ipPart}
	if _, cidr, err := net.ParseCIDR(ipPart); err == nil {
		r.cidr = cidr
	}

	if portPart != "" {
		port, err := strconv.Atoi(portPart)
		if err != nil {
			return rule{}, fmt.Errorf("rule port %q is not a number: %w", portPart, err)
		}
		if err := validation.ValidatePortNumber(port); err != nil {
			return rule{}, err
		}
		r.port, r.hasPort = uint16(port), true
	}

	if protoPart != "" {
		if err := validation.ValidateProtocol(protoPart); err != nil {
			return rule{}, err
		}
		r.hasProtocol = true
		switch strings.ToLower(protoPart) {
		case "all":
			r.wildcardAny = true
		case "tcp":
			r.protocol = ProtocolTCP
		case "udp":
			r.protocol = ProtocolUDP
		case "icmp", "icmpv6":
			r.protocol = ProtocolICMP
		default: // ah, esp, gre: carried, captured by ProtocolOther
			r.protocol = ProtocolOther
		}
	}

	return r, nil
}

func (r rule) matches(dest NetworkDestination) bool {
	if r.cidr != nil {
		ip := net.ParseIP(dest.IP)
		if ip == nil || !r.cidr.Contains(ip) {
			return false
		}
	} else if r.ip != dest.IP {
		return false
	}

	if r.hasPort && r.port != dest.Port {
		return false
	}
	if r.hasProtocol && !r.wildcardAny && r.protocol != dest.Protocol {
		return false
	}
	return true
}

// ruleSet is a parsed, matchable allow-list or block-list. Invalid entries
// are dropped at construction time and logged, rather than causing the
// engine to fail to start.
type ruleSet struct {
	rules []rule
}

func newRuleSet(log *logging.Logger, entries []string, listName string) *ruleSet {
	rs := &ruleSet{rules: make([]rule, 0, len(entries))}
	for _, e := range entries {
		r, err := parseRule(e)
		if err != nil {
			log.Warn("skipping invalid filter rule entry", "list", listName, "entry", e, "error", err)
			continue
		}
		rs.rules = append(rs.rules, r)
	}
	return rs
}

func (rs *ruleSet) matches(dest NetworkDestination) bool {
	for _, r := range rs.rules {
		if r.matches(dest) {
			return true
		}
	}
	return false
}
