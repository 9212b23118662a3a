// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package paths resolves the on-disk and socket locations the daemon uses,
// honoring an environment-variable override chain before falling back to
// the compiled-in defaults.
package paths

import (
	"os"
	"path/filepath"
)

const envPrefix = "PRIVARION"

// Defaults for a system-wide install. A distribution packaging privariond
// differently may still win via the env var chain.
var (
	DefaultConfigDir = "/etc/privarion"
	DefaultStateDir  = "/var/lib/privarion"
	DefaultLogDir    = "/var/log/privarion"
	DefaultCacheDir  = "/var/cache/privarion"
	DefaultRunDir    = "/var/run/privarion"
)

// ConfigFileName is the expected name of the primary HCL configuration file
// within ConfigDir().
const ConfigFileName = "privarion.hcl"

// SocketName is the control-plane socket's file name within RunDir().
const SocketName = "privariond.sock"

func resolve(envSuffix, subdir, fallback string) string {
	if dir := os.Getenv(envPrefix + envSuffix); dir != "" {
		return dir
	}
	if prefix := os.Getenv(envPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, subdir)
	}
	return fallback
}

// ConfigDir returns the configuration directory.
// Priority: PRIVARION_CONFIG_DIR > PRIVARION_PREFIX/config > DefaultConfigDir.
func ConfigDir() string { return resolve("_CONFIG_DIR", "config", DefaultConfigDir) }

// StateDir returns the directory holding the identity backup store and
// other durable runtime state.
// Priority: PRIVARION_STATE_DIR > PRIVARION_PREFIX/state > DefaultStateDir.
func StateDir() string { return resolve("_STATE_DIR", "state", DefaultStateDir) }

// LogDir returns the log directory.
// Priority: PRIVARION_LOG_DIR > PRIVARION_PREFIX/log > DefaultLogDir.
func LogDir() string { return resolve("_LOG_DIR", "log", DefaultLogDir) }

// CacheDir returns the cache directory. The DNS and packet decision caches
// are held in memory and do not write to it.
// Priority: PRIVARION_CACHE_DIR > PRIVARION_PREFIX/cache > DefaultCacheDir.
func CacheDir() string { return resolve("_CACHE_DIR", "cache", DefaultCacheDir) }

// RunDir returns the runtime directory for sockets and PID files.
// Priority: PRIVARION_RUN_DIR > PRIVARION_PREFIX/run > DefaultRunDir.
func RunDir() string { return resolve("_RUN_DIR", "run", DefaultRunDir) }

// ConfigFile returns the full path to the primary configuration file.
func ConfigFile() string {
	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// SocketPath returns the full path to the control-plane socket.
func SocketPath() string {
	if path := os.Getenv(envPrefix + "_CTL_SOCKET"); path != "" {
		return path
	}
	return filepath.Join(RunDir(), SocketName)
}

// EnsureDirs creates StateDir, LogDir, CacheDir, and RunDir (mode 0700) if missing.
func EnsureDirs() error {
	for _, dir := range []string{StateDir(), LogDir(), CacheDir(), RunDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
