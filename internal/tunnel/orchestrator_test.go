// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privarion/privariond/internal/clock"
	"github.com/privarion/privariond/internal/netfilter/packet"
)

type fakeDevice struct {
	closed atomic.Bool
}

func (f *fakeDevice) Read(bufs [][]byte, sizes []int, offset int) (int, error) {
	<-time.After(10 * time.Millisecond)
	if f.closed.Load() {
		return 0, assert.AnError
	}
	sizes[0] = 0
	return 0, nil
}
func (f *fakeDevice) Write(bufs [][]byte, offset int) (int, error) { return 0, nil }
func (f *fakeDevice) Close() error                                 { f.closed.Store(true); return nil }
func (f *fakeDevice) MTU() (int, error)                             { return 1500, nil }
func (f *fakeDevice) Name() (string, error)                        { return "fake0", nil }
func (f *fakeDevice) BatchSize() int                                { return 1 }

type fakeHost struct {
	applyErr   error
	restoreErr error
	applied    int
	restored   int
}

func (f *fakeHost) Apply(cfg Configuration) error { f.applied++; return f.applyErr }
func (f *fakeHost) Restore() error                { f.restored++; return f.restoreErr }

func alwaysSucceedsFactory(name string, mtu int) (Device, error) {
	return &fakeDevice{}, nil
}

func TestStartStopIdempotentAndRestoresHost(t *testing.T) {
	host := &fakeHost{}
	pkts := packet.NewEngine(clock.Real, packet.DefaultCacheTTL, nil, nil, nil, nil)
	o := New(DefaultConfiguration(), DefaultRetryPolicy(), alwaysSucceedsFactory, host, pkts, nil)

	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, Running, o.State())

	require.NoError(t, o.Stop())
	assert.Equal(t, Stopped, o.State())
	assert.Equal(t, 1, host.restored)

	require.NoError(t, o.Stop(), "Stop must be idempotent")
	assert.Equal(t, 1, host.restored, "a second Stop call does not restore again")
}

func TestStartRetriesExhaustThenFail(t *testing.T) {
	host := &fakeHost{}
	failingFactory := func(name string, mtu int) (Device, error) {
		return nil, assert.AnError
	}
	pkts := packet.NewEngine(clock.Real, packet.DefaultCacheTTL, nil, nil, nil, nil)
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	o := New(DefaultConfiguration(), policy, failingFactory, host, pkts, nil)

	err := o.Start(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Stopped, o.State())
	assert.Equal(t, 3, host.applied, "exactly MaxAttempts attempts")
}

func TestStartRejectsInvalidConfiguration(t *testing.T) {
	host := &fakeHost{}
	pkts := packet.NewEngine(clock.Real, packet.DefaultCacheTTL, nil, nil, nil, nil)
	cfg := DefaultConfiguration()
	cfg.MTU = 1
	o := New(cfg, DefaultRetryPolicy(), alwaysSucceedsFactory, host, pkts, nil)

	err := o.Start(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, host.applied, "must validate before touching the host")
}
