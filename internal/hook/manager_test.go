// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	supported bool
	sip       bool
	libPath   string
	haveLib   bool
}

func (f fakeProbe) KernelVersionSupported() bool    { return f.supported }
func (f fakeProbe) SipEnabled() bool                { return f.sip }
func (f fakeProbe) HookLibraryPath() (string, bool) { return f.libPath, f.haveLib }

func TestInitializeRejectsUnsupportedPlatform(t *testing.T) {
	m := NewManager(fakeProbe{supported: false})
	err := m.Initialize()
	assert.Error(t, err)
}

func TestInitializeIsIdempotent(t *testing.T) {
	m := NewManager(fakeProbe{supported: true})
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Initialize())
}

func TestInstallConfiguredHooksOnlyEnabled(t *testing.T) {
	m := NewManager(fakeProbe{supported: true})
	require.NoError(t, m.Initialize())

	handles, err := m.InstallConfiguredHooks(HookConfig{
		Enabled: true,
		EnabledFunc: map[string]bool{
			"getuid":      true,
			"gethostname": true,
			"getgid":      false,
		},
	})
	require.NoError(t, err)
	assert.Len(t, handles, 2)
	assert.True(t, m.IsHooked("getuid"))
	assert.True(t, m.IsHooked("gethostname"))
	assert.False(t, m.IsHooked("getgid"))
	assert.Equal(t, 2, m.ActiveHookCount())
}

func TestInstallConfiguredHooksRejectsUnknownFunction(t *testing.T) {
	m := NewManager(fakeProbe{supported: true})
	require.NoError(t, m.Initialize())

	_, err := m.InstallConfiguredHooks(HookConfig{EnabledFunc: map[string]bool{"bogus": true}})
	assert.Error(t, err)
	assert.Equal(t, 0, m.ActiveHookCount(), "a failed install must not leave partial hooks")
}

func TestInstallingSameSetTwiceYieldsIdenticalActiveHooks(t *testing.T) {
	m := NewManager(fakeProbe{supported: true})
	require.NoError(t, m.Initialize())

	cfg := HookConfig{EnabledFunc: map[string]bool{"uname": true}}
	_, err := m.InstallConfiguredHooks(cfg)
	require.NoError(t, err)
	first := m.ActiveHooks()

	_, err = m.InstallConfiguredHooks(cfg)
	require.NoError(t, err)
	second := m.ActiveHooks()

	assert.ElementsMatch(t, first, second)
}

func TestDetachAllClearsHandles(t *testing.T) {
	m := NewManager(fakeProbe{supported: true})
	require.NoError(t, m.Initialize())
	_, err := m.InstallConfiguredHooks(HookConfig{EnabledFunc: map[string]bool{"getuid": true}})
	require.NoError(t, err)
	require.Equal(t, 1, m.ActiveHookCount())

	m.DetachAll()
	assert.Equal(t, 0, m.ActiveHookCount())
	assert.False(t, m.IsHooked("getuid"))
}

func TestGetInjectionCommandIsPure(t *testing.T) {
	m := NewManager(fakeProbe{supported: true, libPath: "/usr/lib/libhook.so", haveLib: true})
	cmd := m.GetInjectionCommand("/usr/bin/app", []string{"--flag", "value"})
	assert.Contains(t, cmd, "/usr/lib/libhook.so")
	assert.Contains(t, cmd, "/usr/bin/app --flag value")
}

func TestLaunchReportsSipEnabled(t *testing.T) {
	m := NewManager(fakeProbe{supported: true, sip: true})
	result, err := m.LaunchApplicationWithHooks("/usr/bin/app", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, LaunchSipEnabled, result)
}

func TestLaunchReportsHookLibraryNotFound(t *testing.T) {
	m := NewManager(fakeProbe{supported: true, haveLib: false})
	result, err := m.LaunchApplicationWithHooks("/bin/echo", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, LaunchHookLibraryNotFound, result)
}

func TestLaunchReportsTargetNotFound(t *testing.T) {
	m := NewManager(fakeProbe{supported: true, libPath: "/usr/lib/libhook.so", haveLib: true})
	result, err := m.LaunchApplicationWithHooks("/no/such/binary-xyz", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, LaunchTargetNotFound, result)
}
