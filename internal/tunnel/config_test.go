// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigurationValidates(t *testing.T) {
	assert.NoError(t, DefaultConfiguration().Validate())
}

func TestValidateCatchesBadDNSServerAddress(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.DNSServerAddress = "not-an-ip"
	assert.Error(t, cfg.Validate())
}

func TestValidateCatchesNonContiguousMask(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.IPv4SubnetMask = "255.0.255.0"
	assert.Error(t, cfg.Validate())
}

func TestValidateCatchesOutOfRangeMTU(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.MTU = 100
	assert.Error(t, cfg.Validate())
}

func TestValidateCatchesOutOfRangeIPv6Prefix(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.IPv6PrefixLength = 200
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsIPv4AsIPv6Address(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.IPv6Address = "10.0.0.1"
	assert.Error(t, cfg.Validate())
}

func TestRetryDelayCapsAtMaxDelay(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, p.MaxDelay, p.delayFor(10))
}
