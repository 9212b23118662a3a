// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopHostNetworkAppliesWithoutError(t *testing.T) {
	n := NewNopHostNetwork()
	assert.NoError(t, n.Apply(DefaultConfiguration()))
	assert.NoError(t, n.Restore())
}

func TestNopHostNetworkSatisfiesHostNetwork(t *testing.T) {
	var hn HostNetwork = NewNopHostNetwork()
	assert.NoError(t, hn.Apply(DefaultConfiguration()))
	assert.NoError(t, hn.Restore())
}
