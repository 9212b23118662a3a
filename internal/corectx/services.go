// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package corectx

import (
	"context"

	"github.com/privarion/privariond/internal/config"
	"github.com/privarion/privariond/internal/hook"
	"github.com/privarion/privariond/internal/services"
	"github.com/privarion/privariond/internal/tunnel"
)

// tunnelService adapts tunnel.Orchestrator to the uniform services.Service
// lifecycle surface the "system status" command group reads from.
type tunnelService struct {
	o *tunnel.Orchestrator
}

func (s tunnelService) Name() string { return "tunnel" }

func (s tunnelService) Reload(cfg *config.Config) (bool, error) {
	s.o.Packets().Reload(nil, cfg.Blocklist)
	return false, nil
}

func (s tunnelService) Start(ctx context.Context) error { return s.o.Start(ctx) }
func (s tunnelService) Stop(context.Context) error      { return s.o.Stop() }

func (s tunnelService) Status() services.ServiceStatus {
	state := s.o.State()
	status := services.ServiceStatus{Name: "tunnel", Running: state == tunnel.Running}
	if state != tunnel.Running && state != tunnel.Stopped {
		status.Error = state.String()
	}
	return status
}

// installHooksFromConfig installs the interposers cfg's active profile
// enables, via InstallConfiguredHooks' install-then-rollback-on-partial-
// failure lifecycle. Shared by hookService.Start, hookService.Reload, and
// CoreContext.watchConfig so every path that learns of a configuration
// applies it the same way.
func installHooksFromConfig(m *hook.Manager, cfg *config.Config) (map[string]*hook.HookHandle, error) {
	toggles := cfg.ActiveModules().SyscallHook
	return m.InstallConfiguredHooks(hook.HookConfig{
		Enabled:   toggles.Enabled,
		DebugMode: toggles.DebugMode,
		EnabledFunc: map[string]bool{
			"getuid":      toggles.Hooks.Getuid,
			"getgid":      toggles.Hooks.Getgid,
			"gethostname": toggles.Hooks.Gethostname,
			"uname":       toggles.Hooks.Uname,
		},
	})
}

// hookService adapts hook.Manager to services.Service.
type hookService struct {
	m   *hook.Manager
	cfg *config.Snapshot
}

func (s hookService) Name() string { return "hook" }

func (s hookService) Reload(cfg *config.Config) (bool, error) {
	_, err := installHooksFromConfig(s.m, cfg)
	return false, err
}

// Start initializes the platform probe, then installs whatever interposers
// the active profile's module toggles enable at the moment the daemon
// comes up, matching the "install_configured_hooks" core operation.
func (s hookService) Start(context.Context) error {
	if err := s.m.Initialize(); err != nil {
		return err
	}
	_, err := installHooksFromConfig(s.m, s.cfg.Current())
	return err
}

func (s hookService) Stop(context.Context) error {
	s.m.DetachAll()
	return nil
}

func (s hookService) Status() services.ServiceStatus {
	return services.ServiceStatus{Name: "hook", Running: s.m.ActiveHookCount() > 0}
}

// Services returns every engine CoreContext manages as a uniform
// services.Service, in the order the "system status" command should report
// them.
func (cc *CoreContext) Services() []services.Service {
	return []services.Service{
		tunnelService{o: cc.Tunnel},
		hookService{m: cc.Hooks, cfg: cc.Config},
	}
}

// Status aggregates the status of every managed service.
func (cc *CoreContext) Status() []services.ServiceStatus {
	svcs := cc.Services()
	out := make([]services.ServiceStatus, 0, len(svcs))
	for _, s := range svcs {
		out = append(out, s.Status())
	}
	return out
}
