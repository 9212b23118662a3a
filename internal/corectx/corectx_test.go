// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package corectx

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privarion/privariond/internal/clock"
	"github.com/privarion/privariond/internal/config"
	"github.com/privarion/privariond/internal/hook"
	"github.com/privarion/privariond/internal/identity"
	"github.com/privarion/privariond/internal/netfilter/dns"
	"github.com/privarion/privariond/internal/tunnel"
)

type fakeHardwareEngine struct{}

func (fakeHardwareEngine) CurrentValue(t identity.Type) (string, error) {
	return "fixed-value", nil
}

type fakeHostNetwork struct{}

func (fakeHostNetwork) Apply(cfg tunnel.Configuration) error { return nil }
func (fakeHostNetwork) Restore() error                       { return nil }

type fakeProbe struct{}

func (fakeProbe) KernelVersionSupported() bool    { return true }
func (fakeProbe) SipEnabled() bool                { return false }
func (fakeProbe) HookLibraryPath() (string, bool) { return "", false }

func newTestContext(t *testing.T) *CoreContext {
	t.Helper()
	snap := config.NewSnapshot(config.Default())
	cc, err := New(snap, Options{
		StateDir:        t.TempDir(),
		BackupRetention: time.Hour,
		HardwareEngine:    fakeHardwareEngine{},
		PlatformProbe:     fakeProbe{},
		HostNetwork:       fakeHostNetwork{},
		Clock:             clock.Real,
		MetricsRegisterer: prometheus.NewRegistry(),
		DeviceFactory: func(name string, mtu int) (tunnel.Device, error) {
			return nil, assert.AnError
		},
	})
	require.NoError(t, err)
	return cc
}

func TestNewWiresEveryEngine(t *testing.T) {
	cc := newTestContext(t)
	defer cc.Close()

	assert.NotNil(t, cc.Backups)
	assert.NotNil(t, cc.Identity)
	assert.NotNil(t, cc.DNS)
	assert.NotNil(t, cc.Packets)
	assert.NotNil(t, cc.Tunnel)
	assert.NotNil(t, cc.Hooks)
	assert.Equal(t, tunnel.Stopped, cc.Tunnel.State())
}

func TestConfigReplaceReloadsDNSEngine(t *testing.T) {
	cc := newTestContext(t)
	defer cc.Close()

	assert.False(t, cc.DNS.IsBlocked("tracker.example.com"))

	next := cc.Config.Current().Clone()
	next.Blocklist = append(next.Blocklist, "tracker.example.com")
	cc.Config.Replace(next)

	assert.Eventually(t, func() bool {
		return cc.DNS.IsBlocked("tracker.example.com")
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsWatchAndDetachesHooks(t *testing.T) {
	cc := newTestContext(t)

	require.NoError(t, cc.Hooks.Initialize())
	_, err := cc.Hooks.InstallConfiguredHooks(hook.HookConfig{EnabledFunc: map[string]bool{"getuid": true}})
	require.NoError(t, err)
	require.Equal(t, 1, cc.Hooks.ActiveHookCount())

	require.NoError(t, cc.Close())
	assert.Equal(t, 0, cc.Hooks.ActiveHookCount())
}

func TestMetricsWiredIntoEngines(t *testing.T) {
	cc := newTestContext(t)
	defer cc.Close()

	require.NotNil(t, cc.Metrics)

	before := testutil.ToFloat64(cc.Metrics.DNSCacheMisses)
	cc.DNS.FilterDNSQuery(dns.Query{Domain: "example.com", Type: 1, ID: 1})
	assert.Equal(t, before+1, testutil.ToFloat64(cc.Metrics.DNSCacheMisses))

	id, err := cc.Backups.CreateBackup("hostname", "Alpha.local", "metrics-test")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Greater(t, testutil.ToFloat64(cc.Metrics.BackupOperations.WithLabelValues("create_backup", "ok")), float64(0))
}
