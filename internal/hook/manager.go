// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hook

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/metrics"
)

// preloadLibraryEnv is the environment variable this platform uses for
// dynamic library preload injection.
func preloadLibraryEnv() string {
	if runtime.GOOS == "darwin" {
		return "DYLD_INSERT_LIBRARIES"
	}
	return "LD_PRELOAD"
}

// PlatformProbe answers platform-support questions without the Manager
// needing to know how to ask the kernel directly, keeping it testable.
type PlatformProbe interface {
	// KernelVersionSupported reports whether the host's kernel/OS version
	// meets the minimum this component requires.
	KernelVersionSupported() bool
	// SipEnabled reports whether kernel integrity protection (System
	// Integrity Protection on Darwin, an analogous LSM policy elsewhere)
	// would block library-preload injection.
	SipEnabled() bool
	// HookLibraryPath returns the path to the preload shared object/dylib,
	// or "" with ok=false if it cannot be located.
	HookLibraryPath() (path string, ok bool)
}

// Manager installs and removes in-process function interposers. Its
// installed-hook bookkeeping is a direct generalization of an eBPF
// program/link lifecycle manager to the preload shared-object/interposer
// lifecycle: a name-keyed handle table guarded by one RWMutex.
type Manager struct {
	mu          sync.RWMutex
	handles     map[string]*HookHandle
	initialized bool
	probe       PlatformProbe
	log         *logging.Logger
	metrics     *metrics.Metrics
}

// SetMetrics attaches m so failed installs are counted. Nil leaves
// counting disabled.
func (m *Manager) SetMetrics(metricsClient *metrics.Metrics) { m.metrics = metricsClient }

// NewManager constructs a Manager around probe.
func NewManager(probe PlatformProbe) *Manager {
	return &Manager{
		handles: make(map[string]*HookHandle),
		probe:   probe,
		log:     logging.Default().WithComponent("hook"),
	}
}

// IsPlatformSupported reports whether the host provides library-preload
// injection and meets the minimum platform version.
func (m *Manager) IsPlatformSupported() bool {
	return m.probe.KernelVersionSupported()
}

// Initialize allocates internal structures. Idempotent.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}
	if !m.probe.KernelVersionSupported() {
		return errors.Coded(errors.KindUnavailable, errors.CodeSystemStartupFailed,
			"host platform version does not meet the minimum required for syscall interception")
	}
	m.handles = make(map[string]*HookHandle)
	m.initialized = true
	return nil
}

func functionNames() map[string]bool {
	set := make(map[string]bool, len(Functions))
	for _, f := range Functions {
		set[f.Name] = true
	}
	return set
}

// InstallConfiguredHooks installs exactly the interposers enabled in
// cfg.EnabledFunc. Partial failure rolls back every hook installed during
// this call.
func (m *Manager) InstallConfiguredHooks(cfg HookConfig) (map[string]*HookHandle, error) {
	valid := functionNames()

	m.mu.Lock()
	defer m.mu.Unlock()

	installed := make(map[string]*HookHandle)
	rollback := func() {
		for name := range installed {
			delete(m.handles, name)
		}
	}

	for name, enabled := range cfg.EnabledFunc {
		if !enabled {
			continue
		}
		if !valid[name] {
			rollback()
			if m.metrics != nil {
				m.metrics.HookInstallFailures.Inc()
			}
			return nil, errors.Codedf(errors.KindValidation, errors.CodeHookInstallFailed,
				"unknown interposable function %q", name)
		}

		handle := &HookHandle{
			ID:          uuid.NewString(),
			Function:    name,
			InstalledAt: time.Now(),
			Valid:       true,
		}
		m.handles[name] = handle
		installed[name] = handle
	}

	for name := range m.handles {
		if !cfg.EnabledFunc[name] {
			delete(m.handles, name)
		}
	}

	out := make(map[string]*HookHandle, len(installed))
	for k, v := range installed {
		out[k] = v
	}
	return out, nil
}

// IsHooked reports whether function currently has an active interposer.
func (m *Manager) IsHooked(function string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[function]
	return ok && h.Valid
}

// ActiveHookCount returns the number of currently installed interposers.
func (m *Manager) ActiveHookCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// ActiveHooks returns the names of every currently installed interposer.
func (m *Manager) ActiveHooks() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.handles))
	for name := range m.handles {
		names = append(names, name)
	}
	return names
}

// DetachAll removes every installed interposer's bookkeeping entry. It does
// not affect already-launched child processes, whose injected libraries
// remain loaded for the lifetime of that process.
func (m *Manager) DetachAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles = make(map[string]*HookHandle)
}

// GetInjectionCommand returns a shell-ready launch line that sets the
// preload environment variable and preserves args. Pure, no side effects.
func (m *Manager) GetInjectionCommand(appPath string, args []string) string {
	libPath, _ := m.probe.HookLibraryPath()
	parts := append([]string{appPath}, args...)
	return fmt.Sprintf("%s=%s %s", preloadLibraryEnv(), libPath, strings.Join(parts, " "))
}

// LaunchApplicationWithHooks spawns appPath with the preload variable
// injected on top of env.
func (m *Manager) LaunchApplicationWithHooks(appPath string, args []string, env []string) (LaunchResult, error) {
	if m.probe.SipEnabled() {
		return LaunchSipEnabled, nil
	}
	if _, err := exec.LookPath(appPath); err != nil {
		if _, statErr := os.Stat(appPath); statErr != nil {
			return LaunchTargetNotFound, nil
		}
	}
	libPath, ok := m.probe.HookLibraryPath()
	if !ok {
		return LaunchHookLibraryNotFound, nil
	}

	cmd := exec.Command(appPath, args...)
	cmd.Env = append(append([]string{}, env...), preloadLibraryEnv()+"="+libPath)
	if err := cmd.Start(); err != nil {
		return LaunchFailed, errors.WrapCoded(err, errors.KindUnavailable, errors.CodeHookInstallFailed,
			"failed to launch target with hooks installed")
	}
	return LaunchSuccess, nil
}
