// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDestinationIPv4TCP(t *testing.T) {
	pkt := make([]byte, 40)
	pkt[0] = 0x45 // version 4, IHL 5
	pkt[9] = 6    // TCP
	copy(pkt[16:20], []byte{1, 1, 1, 1})
	copy(pkt[22:24], []byte{0x01, 0xBB}) // port 443

	dest, ok := ExtractDestination(pkt)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1", dest.IP)
	assert.Equal(t, uint16(443), dest.Port)
	assert.Equal(t, ProtocolTCP, dest.Protocol)
}

func TestExtractDestinationIPv6TCP(t *testing.T) {
	pkt := make([]byte, 60)
	pkt[0] = 0x60 // version 6
	pkt[6] = 6    // next header TCP
	dstIP := net.ParseIP("2001:4860:4860::8888").To16()
	copy(pkt[24:40], dstIP)
	copy(pkt[42:44], []byte{0x00, 0x50}) // port 80

	dest, ok := ExtractDestination(pkt)
	require.True(t, ok)
	assert.Equal(t, "2001:4860:4860::8888", dest.IP)
	assert.Equal(t, uint16(80), dest.Port)
	assert.Equal(t, ProtocolTCP, dest.Protocol)
}

func TestExtractDestinationRejectsShortPacket(t *testing.T) {
	_, ok := ExtractDestination(make([]byte, 19))
	assert.False(t, ok)
}

func TestExtractDestinationExactMinimumIPv4(t *testing.T) {
	pkt := make([]byte, 20)
	pkt[0] = 0x45
	pkt[9] = 1 // ICMP
	copy(pkt[16:20], []byte{8, 8, 8, 8})

	dest, ok := ExtractDestination(pkt)
	require.True(t, ok)
	assert.Equal(t, "8.8.8.8", dest.IP)
	assert.Equal(t, uint16(0), dest.Port)
	assert.Equal(t, ProtocolICMP, dest.Protocol)
}

func TestExtractDestinationExactMinimumIPv6(t *testing.T) {
	pkt := make([]byte, 40)
	pkt[0] = 0x60
	pkt[6] = 58 // ICMPv6
	copy(pkt[24:40], net.ParseIP("fd00::1").To16())

	dest, ok := ExtractDestination(pkt)
	require.True(t, ok)
	assert.Equal(t, "fd00::1", dest.IP)
	assert.Equal(t, ProtocolICMP, dest.Protocol)
}

func TestExtractDestinationRejectsUnknownVersion(t *testing.T) {
	pkt := make([]byte, 20)
	pkt[0] = 0x50 // version 5
	_, ok := ExtractDestination(pkt)
	assert.False(t, ok)
}

func TestExtractDestinationRejectsTruncatedL4(t *testing.T) {
	pkt := make([]byte, 22) // IPv4 header (20) + 2 bytes of TCP, not 4
	pkt[0] = 0x45
	pkt[9] = 6
	copy(pkt[16:20], []byte{1, 1, 1, 1})

	_, ok := ExtractDestination(pkt)
	assert.False(t, ok)
}
