// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privarion/privariond/internal/clock"
)

func ipv4TCPPacket(dstIP [4]byte, port uint16) []byte {
	pkt := make([]byte, 40)
	pkt[0] = 0x45
	pkt[9] = 6
	copy(pkt[16:20], dstIP[:])
	pkt[22] = byte(port >> 8)
	pkt[23] = byte(port)
	return pkt
}

func TestFilterPacketRejectsShortPacket(t *testing.T) {
	e := NewEngine(clock.Real, DefaultCacheTTL, nil, nil, nil, nil)
	v := e.FilterPacket(make([]byte, 10))
	assert.Equal(t, VerdictDrop, v.Kind)
}

func TestFilterPacketAllowListWinsOverBlocklist(t *testing.T) {
	e := NewEngine(clock.Real, DefaultCacheTTL, []string{"1.1.1.1"}, []string{"1.1.1.1"}, nil, nil)
	pkt := ipv4TCPPacket([4]byte{1, 1, 1, 1}, 443)

	v := e.FilterPacket(pkt)
	assert.Equal(t, VerdictAllow, v.Kind)
}

func TestFilterPacketBlocklistDropsDestination(t *testing.T) {
	e := NewEngine(clock.Real, DefaultCacheTTL, nil, []string{"93.184.216.34"}, nil, nil)
	pkt := ipv4TCPPacket([4]byte{93, 184, 216, 34}, 443)

	v := e.FilterPacket(pkt)
	assert.Equal(t, VerdictDrop, v.Kind)
}

func TestFilterPacketDefaultsToAllow(t *testing.T) {
	e := NewEngine(clock.Real, DefaultCacheTTL, nil, nil, nil, nil)
	pkt := ipv4TCPPacket([4]byte{8, 8, 8, 8}, 443)

	v := e.FilterPacket(pkt)
	assert.Equal(t, VerdictAllow, v.Kind)
	assert.Equal(t, pkt, v.Packet)
}

type fakeDomainClassifier struct {
	blocked       map[string]bool
	fingerprinted map[string]bool
}

func (f fakeDomainClassifier) IsBlocked(domain string) bool           { return f.blocked[domain] }
func (f fakeDomainClassifier) IsFingerprintingDomain(domain string) bool {
	return f.fingerprinted[domain]
}

func TestFilterPacketFingerprintingDomainYieldsModify(t *testing.T) {
	classifier := fakeDomainClassifier{fingerprinted: map[string]bool{"tracker.example.com": true}}
	resolve := func(ip string) (string, bool) {
		if ip == "5.5.5.5" {
			return "tracker.example.com", true
		}
		return "", false
	}
	e := NewEngine(clock.Real, DefaultCacheTTL, nil, nil, classifier, resolve)
	pkt := ipv4TCPPacket([4]byte{5, 5, 5, 5}, 443)

	v := e.FilterPacket(pkt)
	assert.Equal(t, VerdictModify, v.Kind)
}

func TestClearCacheEvictsPriorVerdicts(t *testing.T) {
	e := NewEngine(clock.Real, DefaultCacheTTL, nil, []string{"10.0.0.5"}, nil, nil)
	pkt := ipv4TCPPacket([4]byte{10, 0, 0, 5}, 443)

	v := e.FilterPacket(pkt)
	require.Equal(t, VerdictDrop, v.Kind)

	_, hit := e.cache.get(NetworkDestination{IP: "10.0.0.5", Port: 443, Protocol: ProtocolTCP})
	require.True(t, hit)

	e.ClearCache()
	_, hit = e.cache.get(NetworkDestination{IP: "10.0.0.5", Port: 443, Protocol: ProtocolTCP})
	assert.False(t, hit)
}

func TestDecisionCacheEntryExpires(t *testing.T) {
	frozen := clock.NewFrozen(time.Now())
	e := NewEngine(frozen, time.Second, nil, []string{"10.0.0.9"}, nil, nil)
	pkt := ipv4TCPPacket([4]byte{10, 0, 0, 9}, 443)

	e.FilterPacket(pkt)
	frozen.Advance(2 * time.Second)

	_, hit := e.cache.get(NetworkDestination{IP: "10.0.0.9", Port: 443, Protocol: ProtocolTCP})
	assert.False(t, hit, "expired entries must not be served from cache")
}

func TestWarmCacheFilterPacketLatencyBudget(t *testing.T) {
	e := NewEngine(clock.Real, DefaultCacheTTL, nil, nil, nil, nil)
	pkt := ipv4TCPPacket([4]byte{9, 9, 9, 9}, 443)
	e.FilterPacket(pkt) // warm the cache

	start := time.Now()
	for i := 0; i < 100; i++ {
		e.FilterPacket(pkt)
	}
	elapsed := time.Since(start) / 100
	assert.Less(t, elapsed, 10*time.Millisecond)
}
