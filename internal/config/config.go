// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config defines the recognized configuration options consumed by
// every core component, and the HCL file format they are loaded from.
package config

// LogLevel is the recognized set of global.logLevel values.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// GlobalConfig holds the options under the "global" key path.
type GlobalConfig struct {
	// @default: true
	Enabled bool `hcl:"enabled,optional" json:"enabled"`
	// @enum: debug, info, warning, error
	// @default: "info"
	LogLevel LogLevel `hcl:"log_level,optional" json:"logLevel"`
	// @default: ""
	LogDirectory string `hcl:"log_directory,optional" json:"logDirectory"`
	// @default: 50
	MaxLogSizeMB int `hcl:"max_log_size_mb,optional" json:"maxLogSizeMB"`
	// @default: 5
	LogRotationCount int `hcl:"log_rotation_count,optional" json:"logRotationCount"`
}

// IdentitySpoofingModule holds modules.identitySpoofing.*
type IdentitySpoofingModule struct {
	Enabled         bool `hcl:"enabled,optional" json:"enabled"`
	SpoofHostname   bool `hcl:"spoof_hostname,optional" json:"spoofHostname"`
	SpoofMACAddress bool `hcl:"spoof_mac_address,optional" json:"spoofMACAddress"`
	SpoofUserInfo   bool `hcl:"spoof_user_info,optional" json:"spoofUserInfo"`
	SpoofSystemInfo bool `hcl:"spoof_system_info,optional" json:"spoofSystemInfo"`
}

// NetworkFilterModule holds modules.networkFilter.*
type NetworkFilterModule struct {
	Enabled          bool `hcl:"enabled,optional" json:"enabled"`
	BlockTelemetry   bool `hcl:"block_telemetry,optional" json:"blockTelemetry"`
	BlockAnalytics   bool `hcl:"block_analytics,optional" json:"blockAnalytics"`
	UseDNSFiltering  bool `hcl:"use_dns_filtering,optional" json:"useDNSFiltering"`
}

// SandboxManagerModule holds modules.sandboxManager.*. The sandbox manager
// itself is an orthogonal external collaborator; only its toggle lives here
// so profiles can carry a consistent schema.
type SandboxManagerModule struct {
	Enabled    bool `hcl:"enabled,optional" json:"enabled"`
	StrictMode bool `hcl:"strict_mode,optional" json:"strictMode"`
}

// SnapshotManagerModule holds modules.snapshotManager.*.
type SnapshotManagerModule struct {
	Enabled      bool `hcl:"enabled,optional" json:"enabled"`
	AutoSnapshot bool `hcl:"auto_snapshot,optional" json:"autoSnapshot"`
}

// SyscallHookFunctions carries the per-function interposer enable flags.
// The set is extensible; new interposable functions add a field here.
type SyscallHookFunctions struct {
	Getuid      bool `hcl:"getuid,optional" json:"getuid"`
	Getgid      bool `hcl:"getgid,optional" json:"getgid"`
	Gethostname bool `hcl:"gethostname,optional" json:"gethostname"`
	Uname       bool `hcl:"uname,optional" json:"uname"`
}

// SyscallHookModule holds modules.syscallHook.*
type SyscallHookModule struct {
	Enabled   bool                 `hcl:"enabled,optional" json:"enabled"`
	DebugMode bool                 `hcl:"debug_mode,optional" json:"debugMode"`
	Hooks     SyscallHookFunctions `hcl:"hooks,block" json:"hooks"`
}

// ModuleToggles is the full set of per-profile module configuration.
type ModuleToggles struct {
	IdentitySpoofing IdentitySpoofingModule `hcl:"identity_spoofing,block" json:"identitySpoofing"`
	NetworkFilter    NetworkFilterModule    `hcl:"network_filter,block" json:"networkFilter"`
	SandboxManager   SandboxManagerModule   `hcl:"sandbox_manager,block" json:"sandboxManager"`
	SnapshotManager  SnapshotManagerModule  `hcl:"snapshot_manager,block" json:"snapshotManager"`
	SyscallHook      SyscallHookModule      `hcl:"syscall_hook,block" json:"syscallHook"`
}

// DefaultModuleToggles returns the toggle set for the built-in "default" profile.
func DefaultModuleToggles() ModuleToggles {
	return ModuleToggles{
		IdentitySpoofing: IdentitySpoofingModule{Enabled: true, SpoofHostname: true, SpoofMACAddress: true},
		NetworkFilter:    NetworkFilterModule{Enabled: true, BlockTelemetry: true, BlockAnalytics: true, UseDNSFiltering: true},
		SyscallHook: SyscallHookModule{
			Enabled: true,
			Hooks:   SyscallHookFunctions{Getuid: true, Getgid: true, Gethostname: true, Uname: true},
		},
	}
}

// Profile names a configuration profile: a label carrying its own module toggles.
type Profile struct {
	// @default: "default"
	Name string `hcl:"name,label" json:"name"`
	// @default: ""
	Description string        `hcl:"description,optional" json:"description"`
	Modules     ModuleToggles `hcl:"modules,block" json:"modules"`
}

// DefaultProfileName is the always-present, non-deletable profile.
const DefaultProfileName = "default"

// ApplicationAction is the verdict a per-application rule forces.
type ApplicationAction string

const (
	ApplicationAllow ApplicationAction = "allow"
	ApplicationBlock ApplicationAction = "block"
)

// ApplicationRule pins a network policy verdict to a specific application
// path, overriding the global blocklist/fingerprinting evaluation for that
// application's traffic.
type ApplicationRule struct {
	AppPath string            `hcl:"app_path,label" json:"appPath"`
	Action  ApplicationAction `hcl:"action" json:"action"`
}

// Config is the root of the recognized, on-disk configuration. Loading it
// produces the immutable ConfigSnapshot the rest of the core consumes.
type Config struct {
	Global GlobalConfig `hcl:"global,block" json:"global"`

	// @default: "default"
	ActiveProfile string    `hcl:"active_profile,optional" json:"activeProfile"`
	Profiles      []Profile `hcl:"profile,block" json:"profiles"`

	Blocklist            []string          `hcl:"blocklist,optional" json:"blocklist"`
	FingerprintingDomains []string         `hcl:"fingerprinting_domains,optional" json:"fingerprintingDomains"`
	ApplicationRules      []ApplicationRule `hcl:"application,block" json:"applicationRules"`
}

// DefaultFingerprintingKeywords are consulted when FingerprintingDomains is empty.
var DefaultFingerprintingKeywords = []string{
	"fingerprint", "tracking", "analytics", "telemetry", "metrics", "pixel", "fp", "track",
}

// Default returns a Config with the built-in default profile and no
// blocklist entries, suitable as a starting point for new installs.
func Default() *Config {
	return &Config{
		Global: GlobalConfig{
			Enabled:          true,
			LogLevel:         LogLevelInfo,
			MaxLogSizeMB:     50,
			LogRotationCount: 5,
		},
		ActiveProfile: DefaultProfileName,
		Profiles: []Profile{
			{Name: DefaultProfileName, Description: "Default privacy profile", Modules: DefaultModuleToggles()},
		},
	}
}

// FindProfile returns the named profile, or nil if absent.
func (c *Config) FindProfile(name string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}

// ActiveModules returns the module toggles of the active profile, falling
// back to DefaultModuleToggles if the active profile is somehow absent.
func (c *Config) ActiveModules() ModuleToggles {
	if p := c.FindProfile(c.ActiveProfile); p != nil {
		return p.Modules
	}
	return DefaultModuleToggles()
}
