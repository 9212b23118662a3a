// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux && !darwin
// +build !linux,!darwin

package hook

// UnsupportedPlatformProbe reports no support on platforms without a
// library-preload injection mechanism this component knows how to drive.
type UnsupportedPlatformProbe struct{}

func NewPlatformProbe() PlatformProbe { return UnsupportedPlatformProbe{} }

func (UnsupportedPlatformProbe) KernelVersionSupported() bool   { return false }
func (UnsupportedPlatformProbe) SipEnabled() bool               { return false }
func (UnsupportedPlatformProbe) HookLibraryPath() (string, bool) { return "", false }
