// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build darwin
// +build darwin

package hook

import (
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const minDarwinKernelMajor = 15 // Darwin 15.x == macOS 10.11, the first SIP release

var defaultHookLibraryPaths = []string{
	"/usr/local/lib/privarion/libprivarion_hook.dylib",
	"/opt/privarion/lib/libprivarion_hook.dylib",
}

// DarwinPlatformProbe answers platform-support questions on macOS,
// including a System Integrity Protection check via csrutil.
type DarwinPlatformProbe struct {
	LibraryPaths []string
}

func NewPlatformProbe() PlatformProbe {
	return &DarwinPlatformProbe{LibraryPaths: defaultHookLibraryPaths}
}

func (p *DarwinPlatformProbe) KernelVersionSupported() bool {
	release, err := unix.Sysctl("kern.osrelease")
	if err != nil {
		return false
	}
	major, _, _ := strings.Cut(release, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return false
	}
	return n >= minDarwinKernelMajor
}

// SipEnabled shells out to csrutil, mirroring how an operator checks SIP
// status; a failure to run csrutil is treated as SIP enabled (fail safe:
// assume injection will be blocked rather than promise it will not be).
func (p *DarwinPlatformProbe) SipEnabled() bool {
	out, err := exec.Command("csrutil", "status").Output()
	if err != nil {
		return true
	}
	return strings.Contains(strings.ToLower(string(out)), "enabled")
}

func (p *DarwinPlatformProbe) HookLibraryPath() (string, bool) {
	paths := p.LibraryPaths
	if len(paths) == 0 {
		paths = defaultHookLibraryPaths
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
