// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hook implements the Syscall Interception Manager: it installs
// and removes in-process function interposers inside a target executable
// launched with this daemon's preload library, and delegates value
// substitution to the Identity Spoofing Manager.
package hook

import "time"

// Function is one interposable identity syscall. The set is enumerable;
// each entry has a stable textual name and a human description.
type Function struct {
	Name        string
	Description string
}

// Functions is the compile-time enumerable set of interposable functions.
var Functions = []Function{
	{Name: "getuid", Description: "intercepts getuid(2) to present a spoofed user id"},
	{Name: "getgid", Description: "intercepts getgid(2) to present a spoofed group id"},
	{Name: "gethostname", Description: "intercepts gethostname(2)/uname's nodename field"},
	{Name: "uname", Description: "intercepts uname(2) to present spoofed system info"},
}

// HookHandle is returned for each installed interposer.
type HookHandle struct {
	ID          string
	Function    string
	InstalledAt time.Time
	Valid       bool
}

// LaunchResult tags the outcome of launching a target with hooks.
type LaunchResult int

const (
	LaunchSuccess LaunchResult = iota
	LaunchSipEnabled
	LaunchTargetNotFound
	LaunchHookLibraryNotFound
	LaunchFailed
)

func (r LaunchResult) String() string {
	switch r {
	case LaunchSuccess:
		return "success"
	case LaunchSipEnabled:
		return "sip_enabled"
	case LaunchTargetNotFound:
		return "target_not_found"
	case LaunchHookLibraryNotFound:
		return "hook_library_not_found"
	default:
		return "failed"
	}
}

// HookConfig names exactly which functions are enabled, mirroring
// ConfigSnapshot's modules.syscallHook.hooks.* booleans.
type HookConfig struct {
	Enabled     bool
	DebugMode   bool
	EnabledFunc map[string]bool
}
