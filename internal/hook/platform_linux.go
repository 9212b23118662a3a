// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package hook

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// minKernelMajor is the lowest Linux major version this component
// supports for LD_PRELOAD-based injection.
const minKernelMajor = 3

// defaultHookLibraryPaths are searched, in order, for the preload shared
// object when none is configured explicitly.
var defaultHookLibraryPaths = []string{
	"/usr/lib/privarion/libprivarion_hook.so",
	"/usr/local/lib/privarion/libprivarion_hook.so",
}

// LinuxPlatformProbe answers platform-support questions on Linux.
type LinuxPlatformProbe struct {
	LibraryPaths []string
}

// NewPlatformProbe returns the platform's PlatformProbe.
func NewPlatformProbe() PlatformProbe {
	return &LinuxPlatformProbe{LibraryPaths: defaultHookLibraryPaths}
}

func (p *LinuxPlatformProbe) KernelVersionSupported() bool {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return false
	}
	release := charsToString(uts.Release[:])
	major, _, _ := strings.Cut(release, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return false
	}
	return n >= minKernelMajor
}

// SipEnabled is always false on Linux: there is no SIP-equivalent kernel
// integrity protection that unconditionally blocks LD_PRELOAD the way
// Darwin's SIP does (a restrictive LSM policy is a deployment decision,
// not a platform default).
func (p *LinuxPlatformProbe) SipEnabled() bool { return false }

func (p *LinuxPlatformProbe) HookLibraryPath() (string, bool) {
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

func charsToString(in []byte) string {
	end := bytes.IndexByte(in, 0)
	if end < 0 {
		end = len(in)
	}
	return string(in[:end])
}
