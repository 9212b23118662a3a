// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package corectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicesReturnsTunnelAndHook(t *testing.T) {
	cc := newTestContext(t)
	defer cc.Close()

	svcs := cc.Services()
	require.Len(t, svcs, 2)
	assert.Equal(t, "tunnel", svcs[0].Name())
	assert.Equal(t, "hook", svcs[1].Name())
}

func TestStatusReportsHookStartedState(t *testing.T) {
	cc := newTestContext(t)
	defer cc.Close()

	require.NoError(t, cc.Hooks.Initialize())

	statuses := cc.Status()
	require.Len(t, statuses, 2)

	for _, s := range statuses {
		if s.Name == "hook" {
			assert.False(t, s.Running, "no hooks installed yet, hook service should report not running")
		}
		if s.Name == "tunnel" {
			assert.False(t, s.Running, "tunnel never started, should report not running")
		}
	}
}
